// Package deployment describes a running service the way a frontend needs to reach it.
package deployment

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
)

type Input struct {
	Name string `json:"name"`
	In   string `json:"in"`
	Type string `json:"type"`
}

type Method struct {
	Name   string  `json:"name"`
	Method string  `json:"method"`
	Path   string  `json:"path"`
	Inputs []Input `json:"inputs,omitempty"`
	Public bool    `json:"public,omitempty"`
}

type Contract struct {
	Address       string   `json:"address"`
	SignerAddress string   `json:"signerAddress"`
	Interface     []Method `json:"interface"`
}

type Descriptor struct {
	Contract Contract `json:"contract"`
}

var (
	accountID  = Input{Name: "id", In: "path", Type: "uint64"}
	withdrawID = Input{Name: "wid", In: "path", Type: "uint64"}
	amount     = Input{Name: "amount", In: "body", Type: "uint64"}
	credential = []Input{
		{Name: "login", In: "body", Type: "string"},
		{Name: "password", In: "body", Type: "string"},
	}
)

// Interface is the call surface served by the HTTP boundary.
var Interface = []Method{
	{Name: "register", Method: http.MethodPost, Path: "/api/user/register", Inputs: credential, Public: true},
	{Name: "login", Method: http.MethodPost, Path: "/api/user/login", Inputs: credential, Public: true},
	{Name: "createAccount", Method: http.MethodPost, Path: "/api/accounts", Inputs: []Input{{Name: "owners", In: "body", Type: "string[]"}}},
	{Name: "getAccounts", Method: http.MethodGet, Path: "/api/accounts"},
	{Name: "getOwners", Method: http.MethodGet, Path: "/api/accounts/{id}/owners", Inputs: []Input{accountID}},
	{Name: "getBalance", Method: http.MethodGet, Path: "/api/accounts/{id}/balance", Inputs: []Input{accountID}},
	{Name: "deposit", Method: http.MethodPost, Path: "/api/accounts/{id}/deposit", Inputs: []Input{accountID, amount}},
	{Name: "requestWithdraw", Method: http.MethodPost, Path: "/api/accounts/{id}/withdrawals", Inputs: []Input{accountID, amount}},
	{Name: "getPendingWithdrawals", Method: http.MethodGet, Path: "/api/accounts/{id}/withdrawals", Inputs: []Input{accountID}},
	{Name: "getWithdrawal", Method: http.MethodGet, Path: "/api/accounts/{id}/withdrawals/{wid}", Inputs: []Input{accountID, withdrawID}},
	{Name: "approveWithdraw", Method: http.MethodPost, Path: "/api/accounts/{id}/withdrawals/{wid}/approve", Inputs: []Input{accountID, withdrawID}},
	{Name: "getApprovals", Method: http.MethodGet, Path: "/api/accounts/{id}/withdrawals/{wid}/approvals", Inputs: []Input{accountID, withdrawID}},
	{Name: "withdraw", Method: http.MethodPost, Path: "/api/accounts/{id}/withdrawals/{wid}/execute", Inputs: []Input{accountID, withdrawID}},
	{Name: "events", Method: http.MethodGet, Path: "/api/events"},
	{Name: "deployment", Method: http.MethodGet, Path: "/api/deployment", Public: true},
}

type Service struct {
	descriptor Descriptor
}

// New describes the service reachable at address and operated by signer.
func New(address, signer string) *Service {
	methods := make([]Method, len(Interface))
	copy(methods, Interface)

	return &Service{descriptor: Descriptor{
		Contract: Contract{
			Address:       address,
			SignerAddress: signer,
			Interface:     methods,
		},
	}}
}

func (s *Service) Descriptor() Descriptor {
	return s.descriptor
}

// Write stores the descriptor as indented JSON at path.
func (s *Service) Write(path string) error {
	content, err := json.MarshalIndent(s.descriptor, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal deployment descriptor: %w", err)
	}

	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("failed to write deployment descriptor: %w", err)
	}

	return nil
}

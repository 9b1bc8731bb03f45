package router

import (
	"net/http"

	"github.com/Renal37/bankaccount/internal/middlewares"
	"github.com/Renal37/bankaccount/internal/models"
)

func CreateAccount(w http.ResponseWriter, r *http.Request) {
	data := middlewares.GetParsedJSONData[models.CreateAccount](w, r)
	ledgerService := middlewares.GetServiceFromContext[models.LedgerService](w, r, middlewares.LedgerServiceKey)
	if ledgerService == nil {
		return
	}
	caller, ok := middlewares.GetCallerFromContext(w, r)
	if !ok {
		return
	}

	id, err := (*ledgerService).CreateAccount(r.Context(), caller, data.Owners)
	if err != nil {
		writeLedgerError(w, "createAccount", err)
		return
	}

	middlewares.EncodeJSONResponseWithStatus(w, http.StatusCreated, models.Created{ID: id})
}

func GetAccounts(w http.ResponseWriter, r *http.Request) {
	ledgerService := middlewares.GetServiceFromContext[models.LedgerService](w, r, middlewares.LedgerServiceKey)
	if ledgerService == nil {
		return
	}
	caller, ok := middlewares.GetCallerFromContext(w, r)
	if !ok {
		return
	}

	ids, err := (*ledgerService).GetAccounts(r.Context(), caller)
	if err != nil {
		writeLedgerError(w, "getAccounts", err)
		return
	}
	if ids == nil {
		ids = []uint64{}
	}

	middlewares.EncodeJSONResponse(w, models.Accounts{Accounts: ids})
}

func GetOwners(w http.ResponseWriter, r *http.Request) {
	ledgerService := middlewares.GetServiceFromContext[models.LedgerService](w, r, middlewares.LedgerServiceKey)
	if ledgerService == nil {
		return
	}
	id, ok := accountIDParam(w, r)
	if !ok {
		return
	}

	owners, err := (*ledgerService).GetOwners(r.Context(), id)
	if err != nil {
		writeLedgerError(w, "getOwners", err)
		return
	}

	middlewares.EncodeJSONResponse(w, models.Owners{AccountID: id, Owners: owners})
}

func GetBalance(w http.ResponseWriter, r *http.Request) {
	ledgerService := middlewares.GetServiceFromContext[models.LedgerService](w, r, middlewares.LedgerServiceKey)
	if ledgerService == nil {
		return
	}
	id, ok := accountIDParam(w, r)
	if !ok {
		return
	}

	balance, err := (*ledgerService).GetBalance(r.Context(), id)
	if err != nil {
		writeLedgerError(w, "getBalance", err)
		return
	}

	middlewares.EncodeJSONResponse(w, models.Balance{AccountID: id, Balance: balance})
}

// Deposit collects amount from the caller and credits it to the account
func Deposit(w http.ResponseWriter, r *http.Request) {
	depositService := middlewares.GetServiceFromContext[models.DepositService](w, r, middlewares.DepositServiceKey)
	if depositService == nil {
		return
	}
	caller, ok := middlewares.GetCallerFromContext(w, r)
	if !ok {
		return
	}
	id, ok := accountIDParam(w, r)
	if !ok {
		return
	}
	amount, ok := amountParam(w, r)
	if !ok {
		return
	}

	if err := (*depositService).Deposit(r.Context(), caller, id, amount); err != nil {
		writeLedgerError(w, "deposit", err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

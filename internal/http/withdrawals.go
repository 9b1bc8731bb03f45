package router

import (
	"net/http"

	"github.com/Renal37/bankaccount/internal/middlewares"
	"github.com/Renal37/bankaccount/internal/models"
)

func RequestWithdraw(w http.ResponseWriter, r *http.Request) {
	ledgerService := middlewares.GetServiceFromContext[models.LedgerService](w, r, middlewares.LedgerServiceKey)
	if ledgerService == nil {
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

	wid, err := (*ledgerService).RequestWithdraw(r.Context(), caller, id, amount)
	if err != nil {
		writeLedgerError(w, "requestWithdraw", err)
		return
	}

	middlewares.EncodeJSONResponseWithStatus(w, http.StatusCreated, models.Created{ID: wid})
}

func GetPendingWithdrawals(w http.ResponseWriter, r *http.Request) {
	ledgerService := middlewares.GetServiceFromContext[models.LedgerService](w, r, middlewares.LedgerServiceKey)
	if ledgerService == nil {
		return
	}
	id, ok := accountIDParam(w, r)
	if !ok {
		return
	}

	ids, err := (*ledgerService).GetPendingWithdrawals(r.Context(), id)
	if err != nil {
		writeLedgerError(w, "getPendingWithdrawals", err)
		return
	}
	if ids == nil {
		ids = []uint64{}
	}

	middlewares.EncodeJSONResponse(w, models.PendingWithdrawals{AccountID: id, Withdrawals: ids})
}

func GetWithdrawal(w http.ResponseWriter, r *http.Request) {
	ledgerService := middlewares.GetServiceFromContext[models.LedgerService](w, r, middlewares.LedgerServiceKey)
	if ledgerService == nil {
		return
	}
	id, ok := accountIDParam(w, r)
	if !ok {
		return
	}
	wid, ok := withdrawIDParam(w, r)
	if !ok {
		return
	}

	info, err := (*ledgerService).GetWithdrawal(r.Context(), id, wid)
	if err != nil {
		writeLedgerError(w, "getWithdrawal", err)
		return
	}

	middlewares.EncodeJSONResponse(w, models.NewWithdrawal(info))
}

func ApproveWithdraw(w http.ResponseWriter, r *http.Request) {
	ledgerService := middlewares.GetServiceFromContext[models.LedgerService](w, r, middlewares.LedgerServiceKey)
	if ledgerService == nil {
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
	wid, ok := withdrawIDParam(w, r)
	if !ok {
		return
	}

	if err := (*ledgerService).ApproveWithdraw(r.Context(), caller, id, wid); err != nil {
		writeLedgerError(w, "approveWithdraw", err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func GetApprovals(w http.ResponseWriter, r *http.Request) {
	ledgerService := middlewares.GetServiceFromContext[models.LedgerService](w, r, middlewares.LedgerServiceKey)
	if ledgerService == nil {
		return
	}
	id, ok := accountIDParam(w, r)
	if !ok {
		return
	}
	wid, ok := withdrawIDParam(w, r)
	if !ok {
		return
	}

	approvals, err := (*ledgerService).GetApprovals(r.Context(), id, wid)
	if err != nil {
		writeLedgerError(w, "getApprovals", err)
		return
	}

	middlewares.EncodeJSONResponse(w, models.Approvals{AccountID: id, WithdrawID: wid, Approvals: approvals})
}

// Withdraw executes an approved withdrawal and pays it out to the caller
func Withdraw(w http.ResponseWriter, r *http.Request) {
	ledgerService := middlewares.GetServiceFromContext[models.LedgerService](w, r, middlewares.LedgerServiceKey)
	if ledgerService == nil {
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
	wid, ok := withdrawIDParam(w, r)
	if !ok {
		return
	}

	if err := (*ledgerService).Withdraw(r.Context(), caller, id, wid); err != nil {
		writeLedgerError(w, "withdraw", err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

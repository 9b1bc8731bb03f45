package router

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/Renal37/bankaccount/internal/ledger"
	"github.com/Renal37/bankaccount/internal/logger"
)

var failures = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bankaccount_operation_failures_total",
	},
	[]string{"operation", "reason"},
)

var statuses = []struct {
	err    error
	status int
}{
	{ledger.ErrAccountNotFound, http.StatusNotFound},
	{ledger.ErrRequestNotFound, http.StatusNotFound},
	{ledger.ErrNotOwner, http.StatusForbidden},
	{ledger.ErrNotCreator, http.StatusForbidden},
	{ledger.ErrSelfApproval, http.StatusForbidden},
	{ledger.ErrTooManyOwners, http.StatusUnprocessableEntity},
	{ledger.ErrDuplicateOwner, http.StatusUnprocessableEntity},
	{ledger.ErrInvalidIdentity, http.StatusUnprocessableEntity},
	{ledger.ErrAccountLimitExceeded, http.StatusConflict},
	{ledger.ErrAlreadyApproved, http.StatusConflict},
	{ledger.ErrAlreadyExecuted, http.StatusConflict},
	{ledger.ErrNotEnoughApprovals, http.StatusConflict},
	{ledger.ErrAmountOverflow, http.StatusConflict},
	{ledger.ErrReentrantCall, http.StatusConflict},
	{ledger.ErrInsufficientBalance, http.StatusPaymentRequired},
	{ledger.ErrInsufficientFunds, http.StatusPaymentRequired},
	{ledger.ErrTransferFailed, http.StatusBadGateway},
}

func statusOf(err error) int {
	for _, s := range statuses {
		if errors.Is(err, s.err) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}

// writeLedgerError answers with the status of the failure kind and its message.
// The kind name goes to the X-Failure-Reason header.
func writeLedgerError(w http.ResponseWriter, operation string, err error) {
	reason := ledger.Reason(err)
	failures.With(map[string]string{"operation": operation, "reason": reason}).Inc()

	status := statusOf(err)
	if status == http.StatusInternalServerError {
		logger.Log.Error("ledger operation failed", zap.String("operation", operation), zap.Error(err))
		http.Error(w, "Internal error occurred", status)
		return
	}
	if status == http.StatusBadGateway {
		logger.Log.Warn("transfer failed", zap.String("operation", operation), zap.Error(err))
	}

	w.Header().Set("X-Failure-Reason", reason)
	http.Error(w, capitalize(err.Error()), status)
}

func capitalize(message string) string {
	if message == "" || message[0] < 'a' || message[0] > 'z' {
		return message
	}
	return string(message[0]-'a'+'A') + message[1:]
}

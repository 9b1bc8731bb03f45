package router

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Renal37/bankaccount/internal/middlewares"
	"github.com/Renal37/bankaccount/internal/models"
)

func uintParam(w http.ResponseWriter, r *http.Request, name, title string) (uint64, bool) {
	value, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil {
		http.Error(w, title+" is invalid", http.StatusBadRequest)
		return 0, false
	}
	return value, true
}

func accountIDParam(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	return uintParam(w, r, "id", "Account id")
}

func withdrawIDParam(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	return uintParam(w, r, "wid", "Withdraw id")
}

func amountParam(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	data := middlewares.GetParsedJSONData[models.Amount](w, r)
	if data.Amount == nil {
		http.Error(w, "Request doesn't contain amount", http.StatusBadRequest)
		return 0, false
	}
	return *data.Amount, true
}

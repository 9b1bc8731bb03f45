package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Renal37/bankaccount/internal/ledger"
	"github.com/Renal37/bankaccount/internal/middlewares"
	"github.com/Renal37/bankaccount/internal/models"
)

var heartbeatInterval = 15 * time.Second

// StreamEvents streams committed ledger events as server-sent events. The optional account query
// parameter limits the stream to one account of the caller.
func StreamEvents(w http.ResponseWriter, r *http.Request) {
	eventService := middlewares.GetServiceFromContext[models.EventService](w, r, middlewares.EventServiceKey)
	if eventService == nil {
		return
	}
	ledgerService := middlewares.GetServiceFromContext[models.LedgerService](w, r, middlewares.LedgerServiceKey)
	if ledgerService == nil {
		return
	}
	caller, ok := middlewares.GetCallerFromContext(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming is not supported", http.StatusInternalServerError)
		return
	}

	filter := func(ledger.Event) bool { return true }
	if value := r.URL.Query().Get("account"); value != "" {
		id, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			http.Error(w, "Account id is invalid", http.StatusBadRequest)
			return
		}

		owners, err := (*ledgerService).GetOwners(r.Context(), id)
		if err != nil {
			writeLedgerError(w, "events", err)
			return
		}
		account := ledger.Account{ID: id, Owners: owners}
		if !account.IsOwner(caller) {
			writeLedgerError(w, "events", ledger.ErrNotOwner)
			return
		}

		filter = func(event ledger.Event) bool { return event.AccountID == id }
	}

	events := (*eventService).Subscribe(r.Context())

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		var err error
		select {
		case <-r.Context().Done():
			return
		case event, open := <-events:
			if !open {
				return
			}
			if !filter(event) {
				continue
			}
			data, marshalErr := json.Marshal(event)
			if marshalErr != nil {
				return
			}
			_, err = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", event.Seq, event.Kind, data)
		case <-ticker.C:
			_, err = fmt.Fprint(w, ": heartbeat\n\n")
		}
		if err != nil {
			return
		}
		flusher.Flush()
	}
}

package middlewares

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
)

// parsedJSONDataFieldType is the context key type of a decoded request body
type parsedJSONDataFieldType string

// parsedJSONDataField is the context key the decoded request body is stored under
const parsedJSONDataField parsedJSONDataFieldType = "parsedJSONDataField"

// ModelParameter lists the types a request body can be decoded into
type ModelParameter interface {
	interface{} | []interface{}
}

// JSONMiddleware decodes the request body into Model and stores it in the request context.
func JSONMiddleware[Model ModelParameter](next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "application/json" {
			http.Error(w, "Content-Type is not application/json", http.StatusUnsupportedMediaType)
			return
		}

		var parsedData Model
		var buf bytes.Buffer

		// Reading the whole body before decoding it
		if _, err := buf.ReadFrom(r.Body); err != nil {
			http.Error(w, fmt.Sprintf("Error occurred during reading from the body: %s", err.Error()), http.StatusBadRequest)
			return
		}

		if err := json.Unmarshal(buf.Bytes(), &parsedData); err != nil {
			http.Error(w, fmt.Sprintf("Error occurred during unmarshaling data %s", err.Error()), http.StatusBadRequest)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), parsedJSONDataField, parsedData)))
	})
}

// GetParsedJSONData returns the body decoded by JSONMiddleware. When it is missing a 500 is written
// and the zero Model is returned.
func GetParsedJSONData[Model ModelParameter](w http.ResponseWriter, r *http.Request) Model {
	data, ok := r.Context().Value(parsedJSONDataField).(Model)

	if !ok {
		http.Error(w, "Could not retrieve data from context", http.StatusInternalServerError)
		var empty Model
		return empty
	}

	return data
}

// EncodeJSONResponse writes data as a JSON body with status 200
func EncodeJSONResponse[Model any](w http.ResponseWriter, data Model) {
	EncodeJSONResponseWithStatus(w, http.StatusOK, data)
}

// EncodeJSONResponseWithStatus writes data as a JSON body with the given status.
// The header is written only once the body is encoded, so an encoding failure can still become a 500.
func EncodeJSONResponseWithStatus[Model any](w http.ResponseWriter, status int, data Model) {
	resp, err := json.Marshal(data)
	if err != nil {
		http.Error(w, fmt.Sprintf("Error occurred during encoding response: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(resp)
}

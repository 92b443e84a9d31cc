package httpresponse

import (
	"encoding/json"
	"fmt"
	"net/http"
)

const internalErrorJSON = "{\"status\": 500,\"body\":{\"error\": \"Internal server error\"}}"

type response struct {
	Status int `json:"Status"`
	Body   any `json:"Body,omitempty"`
}

// WriteJSON writes a JSON envelope with the given status code.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	payload, err := json.Marshal(response{Status: status, Body: body})
	if err != nil {
		WriteInternalError(w)
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

// WriteError writes a human-readable error body with the given status code.
// Configuration PUT failures use this so the browser UI can show the message
// directly.
func WriteError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = fmt.Fprintln(w, err.Error())
}

func WriteInternalError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = fmt.Fprintln(w, internalErrorJSON)
}

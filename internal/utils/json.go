package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// DecodeJSONRequest reads the request body into dst, rejecting unknown fields.
func DecodeJSONRequest(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// ReadRequestBody drains and returns the raw request body.
func ReadRequestBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

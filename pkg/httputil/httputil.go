// Package httputil centralizes JSON response writing so every handler returns
// the same envelopes.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "lifebridge/pkg/domainerrors"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
	Entity      string `json:"entity,omitempty"`
}

// WriteError translates a domain error into its HTTP envelope. Internal error
// messages are never exposed to callers.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := errorBody{Error: string(code)}
	if code != dErrors.CodeInternal {
		var de *dErrors.Error
		if errors.As(err, &de) {
			body.Description = de.Message
			body.Entity = de.Entity
		}
	}
	WriteJSON(w, dErrors.HTTPStatus(code), body)
}

// DecodeJSON parses the request body into T, rejecting unknown syntax with a
// bad_request error already written to w.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return v, false
	}
	return v, true
}

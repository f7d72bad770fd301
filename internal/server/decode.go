package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
)

const maxBodyBytes = 1 << 20

var errNotObject = errors.New("body is not a single JSON object")

// decodeJSON strictly decodes the request body into dst. On failure it
// writes a 400 describing the problem and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := decodeObject(http.MaxBytesReader(w, r.Body, maxBodyBytes), dst)
	if err == nil {
		return true
	}

	log.Printf("Rejected %s %s body: %v", r.Method, r.URL.Path, err)
	respondWithError(w, http.StatusBadRequest, decodeErrorMessage(err))
	return false
}

// decodeObject accepts exactly one JSON object with no unknown fields.
func decodeObject(body io.Reader, dst any) error {
	decoder := json.NewDecoder(body)
	var raw json.RawMessage
	if err := decoder.Decode(&raw); err != nil {
		return err
	}
	if decoder.More() || raw[0] != '{' {
		return errNotObject
	}

	strict := json.NewDecoder(bytes.NewReader(raw))
	strict.DisallowUnknownFields()
	return strict.Decode(dst)
}

func decodeErrorMessage(err error) string {
	var syntaxError *json.SyntaxError
	var unmarshalTypeError *json.UnmarshalTypeError
	var maxBytesError *http.MaxBytesError
	switch {
	case errors.As(err, &syntaxError):
		return fmt.Sprintf("Request body contains badly-formed JSON (at position %d)", syntaxError.Offset)
	case errors.Is(err, io.ErrUnexpectedEOF):
		return "Request body contains badly-formed JSON"
	case errors.As(err, &unmarshalTypeError):
		// Optional fields decode their value separately and clear the offset.
		if unmarshalTypeError.Offset == 0 {
			return fmt.Sprintf("Request body contains an invalid value for the %q field", unmarshalTypeError.Field)
		}
		return fmt.Sprintf("Request body contains an invalid value for the %q field (at position %d)", unmarshalTypeError.Field, unmarshalTypeError.Offset)
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
		return fmt.Sprintf("Request body contains unknown field %s", fieldName)
	case errors.Is(err, io.EOF):
		return "Request body must not be empty"
	case errors.As(err, &maxBytesError):
		return fmt.Sprintf("Request body must not be larger than %d bytes", maxBytesError.Limit)
	}
	return "Request body must contain a single JSON object"
}

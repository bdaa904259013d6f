package common

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

const maxBodyBytes = 1 << 20

// DecodeJSON reads the request body into dst and runs its validate tags.
func DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", ErrValidation, err)
	}
	return ValidateStruct(dst)
}

// QueryInt parses an optional non-negative integer query parameter.
func QueryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", ErrValidation, key)
	}
	return n, nil
}

// QueryBool parses an optional boolean query parameter.
func QueryBool(r *http.Request, key string) (bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean", ErrValidation, key)
	}
	return b, nil
}

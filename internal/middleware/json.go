package middleware

import (
	"encoding/json"
	"net/http"
)

// jsonEncode writes a JSON body directly; middleware sits below the handler
// package and cannot use its envelope helpers.
func jsonEncode(w http.ResponseWriter, value any) error {
	return json.NewEncoder(w).Encode(value)
}

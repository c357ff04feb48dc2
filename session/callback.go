package session

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
)

// CallbackResult is what the identity provider sent to the redirect URI.
type CallbackResult struct {
	Code string
	Err  error
}

// CallbackHandler receives the authorization redirect during a local login.
// The first result is delivered on results; later redirects are rejected.
func CallbackHandler(expectedState string, results chan<- CallbackResult) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// FormValue covers both query parameters and form_post responses.
		state := r.FormValue("state")
		code := r.FormValue("code")
		errorParam := r.FormValue("error")
		errorDesc := r.FormValue("error_description")

		if errorParam != "" {
			err := fmt.Errorf("authorization failed: %s - %s", errorParam, errorDesc)
			deliver(results, CallbackResult{Err: err})
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if code == "" || state == "" {
			http.Error(w, "Missing code or state parameter", http.StatusBadRequest)
			return
		}

		if state != expectedState {
			log.Warn().Str("state", state).Msg("callback state mismatch")
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			return
		}

		if !deliver(results, CallbackResult{Code: code}) {
			http.Error(w, "Login already completed", http.StatusConflict)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, "Login complete. You can close this window.")
	}
}

func deliver(results chan<- CallbackResult, result CallbackResult) bool {
	select {
	case results <- result:
		return true
	default:
		return false
	}
}

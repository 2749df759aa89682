package middleware

import (
	"bytes"
	"io"
	"net/http"

	slackapi "github.com/slack-go/slack"

	"github.com/loreweave/loreweave/internal/api"
)

// VerifySlackSignature authenticates webhook deliveries against the app's
// signing secret. Requests with a missing or invalid signature are
// rejected before any event processing. The body is buffered and restored
// so downstream handlers can still read it.
func VerifySlackSignature(signingSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if signingSecret == "" {
				api.Error(w, http.StatusUnauthorized, "webhook signing not configured")
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				api.Error(w, http.StatusBadRequest, "failed to read request body")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			verifier, err := slackapi.NewSecretsVerifier(r.Header, signingSecret)
			if err != nil {
				api.Error(w, http.StatusUnauthorized, "missing signature headers")
				return
			}
			if _, err := verifier.Write(body); err != nil {
				api.Error(w, http.StatusInternalServerError, "failed to verify signature")
				return
			}
			if err := verifier.Ensure(); err != nil {
				api.Error(w, http.StatusUnauthorized, "invalid signature")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

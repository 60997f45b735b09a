package middleware

import (
	"errors"
	"io"
	"net/http"

	authcore "github.com/commercekit/authcore"
)

// WebhookHandler exposes [authcore.Engine.HandleWebhook] as an HTTP
// endpoint. The body is read raw and handed to verification unmodified:
// the signature covers the exact bytes received, so nothing may decode or
// re-serialize them first. signatureHeader names the processor's signature
// header, e.g. "X-Razorpay-Signature".
//
// Untrusted deliveries get a bare 401. Trusted deliveries whose downstream
// order update fails get a 500 so the processor retries; the update must be
// idempotent under those retries.
func WebhookHandler(engine *authcore.Engine, signatureHeader string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}

		signature := r.Header.Get(signatureHeader)
		if signature == "" {
			http.Error(w, "missing signature", http.StatusBadRequest)
			return
		}

		rawBody, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		if _, err := engine.HandleWebhook(r.Context(), rawBody, signature); err != nil {
			if errors.Is(err, authcore.ErrUntrustedWebhook) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			http.Error(w, "webhook processing failed", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
}

package notify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"servicedesk/internal/api"
)

// VerifyDeliverySignature checks the provider callback signature.
// Signature header is base64(HMAC_SHA256(body)).
func VerifyDeliverySignature(body []byte, sigHeader, secret string) bool {
	if sigHeader == "" || secret == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(sigHeader))
}

// DeliveryWebhook receives delivery reports from the SMS/WhatsApp providers
// and flips notification rows to delivered/failed.
type DeliveryWebhook struct {
	Secret string
	Repo   *Repository
	Log    *zap.Logger
}

type deliveryReport struct {
	MessageID string `json:"messageId"`
	Status    string `json:"status"` // delivered | failed
}

func (h DeliveryWebhook) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := h.Log
	if log == nil {
		log = zap.NewNop()
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid body")
		return
	}

	sig := strings.TrimSpace(r.Header.Get("X-Webhook-Signature"))
	if !VerifyDeliverySignature(body, sig, h.Secret) {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid signature")
		return
	}

	var rep deliveryReport
	if err := json.Unmarshal(body, &rep); err != nil || rep.MessageID == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid report")
		return
	}
	switch rep.Status {
	case "delivered", "failed":
	default:
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid status")
		return
	}

	if h.Repo != nil {
		n, err := h.Repo.MarkDelivery(r.Context(), rep.MessageID, rep.Status)
		if err != nil {
			api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
			return
		}
		if n == 0 {
			// Unknown provider id; ack anyway so the provider stops retrying.
			log.Debug("delivery report for unknown message",
				zap.String("providerMessageId", rep.MessageID))
		}
	}

	w.WriteHeader(http.StatusOK)
}

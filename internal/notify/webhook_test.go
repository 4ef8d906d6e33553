package notify

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerifyDeliverySignature(t *testing.T) {
	body := []byte(`{"messageId":"sms-1","status":"delivered"}`)
	assert.True(t, VerifyDeliverySignature(body, sign(body, "secret"), "secret"))
	assert.False(t, VerifyDeliverySignature(body, sign(body, "wrong"), "secret"))
	assert.False(t, VerifyDeliverySignature(body, "", "secret"))
	assert.False(t, VerifyDeliverySignature(body, sign(body, "secret"), ""))
}

func TestDeliveryWebhook_RejectsBadSignature(t *testing.T) {
	h := DeliveryWebhook{Secret: "secret"}
	body := []byte(`{"messageId":"sms-1","status":"delivered"}`)

	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/delivery/sms", bytes.NewReader(body))
	req.Header.Set("X-Webhook-Signature", "nope")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDeliveryWebhook_RejectsUnknownStatus(t *testing.T) {
	h := DeliveryWebhook{Secret: "secret"}
	body := []byte(`{"messageId":"sms-1","status":"teleported"}`)

	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/delivery/sms", bytes.NewReader(body))
	req.Header.Set("X-Webhook-Signature", sign(body, "secret"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeliveryWebhook_AcksValidReport(t *testing.T) {
	h := DeliveryWebhook{Secret: "secret"}
	body := []byte(`{"messageId":"sms-1","status":"delivered"}`)

	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/delivery/sms", bytes.NewReader(body))
	req.Header.Set("X-Webhook-Signature", sign(body, "secret"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WhatsAppGateway talks to the self-hosted WhatsApp bridge. Same contract as
// the SMS gateway: one POST, opaque provider semantics.
type WhatsAppGateway struct {
	HTTPClient *http.Client
	BaseURL    string
	Token      string
}

func (g WhatsAppGateway) Channel() Channel { return ChannelWhatsApp }

type whatsappSendRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

type whatsappSendResponse struct {
	MessageID string `json:"messageId"`
}

func (g WhatsAppGateway) Send(ctx context.Context, msg Message) (string, error) {
	if g.BaseURL == "" {
		return "", fmt.Errorf("whatsapp gateway not configured")
	}
	client := g.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(whatsappSendRequest{Phone: msg.Recipient, Message: msg.Body}); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/send", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.Token != "" {
		req.Header.Set("Authorization", "Bearer "+g.Token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	b, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return "", readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(b) > 0 {
			return "", fmt.Errorf("whatsapp gateway error: status=%d body=%s", resp.StatusCode, string(b))
		}
		return "", fmt.Errorf("whatsapp gateway error: status=%d", resp.StatusCode)
	}

	var out whatsappSendResponse
	if len(b) > 0 {
		if err := json.Unmarshal(b, &out); err != nil {
			return "", fmt.Errorf("decode whatsapp gateway response failed: %w body=%s", err, string(b))
		}
	}
	return out.MessageID, nil
}

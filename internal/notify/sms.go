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

// SMSGateway sends texts through the provider's HTTP API. The provider's
// wire format is not our business beyond this one call.
type SMSGateway struct {
	HTTPClient *http.Client
	BaseURL    string
	Token      string
}

func (g SMSGateway) Channel() Channel { return ChannelSMS }

type smsSendRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

type smsSendResponse struct {
	ID string `json:"id"`
}

func (g SMSGateway) Send(ctx context.Context, msg Message) (string, error) {
	if g.BaseURL == "" {
		return "", fmt.Errorf("sms gateway not configured")
	}
	client := g.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(smsSendRequest{To: msg.Recipient, Body: msg.Body}); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/v1/messages", &buf)
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

	// Surface the provider error body; it usually names the bad number.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(b) > 0 {
			return "", fmt.Errorf("sms gateway error: status=%d body=%s", resp.StatusCode, string(b))
		}
		return "", fmt.Errorf("sms gateway error: status=%d", resp.StatusCode)
	}

	var out smsSendResponse
	if len(b) > 0 {
		if err := json.Unmarshal(b, &out); err != nil {
			return "", fmt.Errorf("decode sms gateway response failed: %w body=%s", err, string(b))
		}
	}
	return out.ID, nil
}

package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu      sync.Mutex
	channel Channel
	fail    bool
	sent    []Message
}

func (f *fakeSender) Channel() Channel { return f.channel }

func (f *fakeSender) Send(ctx context.Context, msg Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return "", fmt.Errorf("provider down")
	}
	f.sent = append(f.sent, msg)
	return fmt.Sprintf("prov-%d", len(f.sent)), nil
}

func TestDispatch_FansOutPerChannel(t *testing.T) {
	sms := &fakeSender{channel: ChannelSMS}
	email := &fakeSender{channel: ChannelEmail}
	d := NewDispatcher(nil, nil, nil, sms, email)

	d.Dispatch(context.Background(), "",
		Message{TenantID: "t1", Channel: ChannelSMS, Recipient: "+15550001", Body: "part requested"},
		Message{TenantID: "t1", Channel: ChannelEmail, Recipient: "admin@example.com", Subject: "Parts", Body: "part requested"},
	)

	require.Len(t, sms.sent, 1)
	require.Len(t, email.sent, 1)
	assert.Equal(t, "+15550001", sms.sent[0].Recipient)
	assert.Equal(t, "Parts", email.sent[0].Subject)
}

func TestDispatch_SkipsUnconfiguredChannelAndEmptyRecipient(t *testing.T) {
	sms := &fakeSender{channel: ChannelSMS}
	d := NewDispatcher(nil, nil, nil, sms)

	d.Dispatch(context.Background(), "",
		Message{Channel: ChannelWhatsApp, Recipient: "+15550001", Body: "no adapter for this"},
		Message{Channel: ChannelSMS, Recipient: "", Body: "nobody to tell"},
		Message{Channel: ChannelSMS, Recipient: "+15550002", Body: "ok"},
	)

	require.Len(t, sms.sent, 1)
	assert.Equal(t, "+15550002", sms.sent[0].Recipient)
}

func TestDispatch_SendFailureDoesNotStopOthers(t *testing.T) {
	sms := &fakeSender{channel: ChannelSMS, fail: true}
	email := &fakeSender{channel: ChannelEmail}
	d := NewDispatcher(nil, nil, nil, sms, email)

	// Must not panic or abort; the email still goes out.
	d.Dispatch(context.Background(), "",
		Message{Channel: ChannelSMS, Recipient: "+15550001", Body: "will fail"},
		Message{Channel: ChannelEmail, Recipient: "admin@example.com", Body: "will pass"},
	)

	require.Len(t, email.sent, 1)
}

func TestDispatch_NilDispatcherIsSafe(t *testing.T) {
	var d *Dispatcher
	d.Dispatch(context.Background(), "", Message{Channel: ChannelSMS, Recipient: "x", Body: "y"})
	d.Async("", Message{Channel: ChannelSMS, Recipient: "x", Body: "y"})
}

func TestSMSGateway_Send(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"sms-42"}`))
	}))
	defer srv.Close()

	g := SMSGateway{BaseURL: srv.URL, Token: "token-123"}
	id, err := g.Send(context.Background(), Message{Recipient: "+15550001", Body: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "sms-42", id)
}

func TestSMSGateway_SendSurfacesProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"invalid number"}`))
	}))
	defer srv.Close()

	g := SMSGateway{BaseURL: srv.URL}
	_, err := g.Send(context.Background(), Message{Recipient: "bad", Body: "hello"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid number")
}

func TestWhatsAppGateway_Send(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/send", r.URL.Path)
		_, _ = w.Write([]byte(`{"messageId":"wa-7"}`))
	}))
	defer srv.Close()

	g := WhatsAppGateway{BaseURL: srv.URL}
	id, err := g.Send(context.Background(), Message{Recipient: "+15550001", Body: "hola"})
	require.NoError(t, err)
	assert.Equal(t, "wa-7", id)
}

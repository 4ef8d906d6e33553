// Package notify fans service-workflow events out to SMS, WhatsApp and email.
//
// Delivery is fire-and-forget: a failed send is logged and recorded, but it
// never rolls back or fails the status change that triggered it.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Channel string

const (
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelEmail    Channel = "email"
)

type Message struct {
	TenantID  string
	ServiceID string // optional
	Channel   Channel
	Recipient string
	Subject   string // email only
	Body      string
}

// Sender is a single outbound channel (SMS gateway, WhatsApp bridge, SMTP).
type Sender interface {
	Channel() Channel
	Send(ctx context.Context, msg Message) (providerMessageID string, err error)
}

type Dispatcher struct {
	Repo    *Repository
	Dedupe  *Dedupe
	Log     *zap.Logger
	Timeout time.Duration

	senders map[Channel]Sender
}

func NewDispatcher(repo *Repository, dedupe *Dedupe, log *zap.Logger, senders ...Sender) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	m := make(map[Channel]Sender, len(senders))
	for _, s := range senders {
		m[s.Channel()] = s
	}
	return &Dispatcher{
		Repo:    repo,
		Dedupe:  dedupe,
		Log:     log,
		Timeout: 15 * time.Second,
		senders: m,
	}
}

// Async dispatches on a background context so the send outlives the HTTP
// request that triggered it.
func (d *Dispatcher) Async(dedupeKey string, msgs ...Message) {
	if d == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.Timeout)
		defer cancel()
		d.Dispatch(ctx, dedupeKey, msgs...)
	}()
}

// Dispatch sends each message and records the outcome. Errors are logged,
// never returned: callers must not couple workflow success to delivery.
func (d *Dispatcher) Dispatch(ctx context.Context, dedupeKey string, msgs ...Message) {
	if d == nil {
		return
	}
	for _, msg := range msgs {
		if msg.Recipient == "" || msg.Body == "" {
			continue
		}

		sender, ok := d.senders[msg.Channel]
		if !ok {
			d.Log.Debug("notify: channel not configured",
				zap.String("channel", string(msg.Channel)))
			continue
		}

		if dedupeKey != "" && d.Dedupe != nil {
			key := dedupeKey + ":" + string(msg.Channel) + ":" + msg.Recipient
			if !d.Dedupe.Acquire(ctx, key) {
				d.Log.Debug("notify: duplicate suppressed", zap.String("key", key))
				continue
			}
		}

		rowID := ""
		if d.Repo != nil {
			id, err := d.Repo.Insert(ctx, msg)
			if err != nil {
				d.Log.Warn("notify: record insert failed", zap.Error(err))
			} else {
				rowID = id
			}
		}

		providerID, err := sender.Send(ctx, msg)
		if err != nil {
			d.Log.Warn("notify: send failed",
				zap.String("channel", string(msg.Channel)),
				zap.String("serviceId", msg.ServiceID),
				zap.Error(err))
			if d.Repo != nil && rowID != "" {
				_ = d.Repo.MarkFailed(ctx, rowID, err.Error())
			}
			continue
		}

		d.Log.Info("notify: sent",
			zap.String("channel", string(msg.Channel)),
			zap.String("serviceId", msg.ServiceID),
			zap.String("providerMessageId", providerID))
		if d.Repo != nil && rowID != "" {
			_ = d.Repo.MarkSent(ctx, rowID, providerID)
		}
	}
}

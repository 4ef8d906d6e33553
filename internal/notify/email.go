package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/google/uuid"
)

// SMTPSender relays email notifications through a plain SMTP endpoint.
// SMTP has no provider message id, so we mint one for the delivery record.
type SMTPSender struct {
	Addr string // host:port
	From string
	User string
	Pass string
}

func (s SMTPSender) Channel() Channel { return ChannelEmail }

func (s SMTPSender) Send(ctx context.Context, msg Message) (string, error) {
	if s.Addr == "" || s.From == "" {
		return "", fmt.Errorf("smtp not configured")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	subject := msg.Subject
	if subject == "" {
		subject = "Service update"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.Recipient)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	b.WriteString("\r\n")

	var auth smtp.Auth
	if s.User != "" {
		host := s.Addr
		if i := strings.IndexByte(host, ':'); i >= 0 {
			host = host[:i]
		}
		auth = smtp.PlainAuth("", s.User, s.Pass, host)
	}

	if err := smtp.SendMail(s.Addr, auth, s.From, []string{msg.Recipient}, []byte(b.String())); err != nil {
		return "", err
	}
	return uuid.New().String(), nil
}

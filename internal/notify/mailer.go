package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

// SendMailFunc matches smtp.SendMail.
type SendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer sends plain-text mail through an SMTP relay.
type Mailer struct {
	addr     string
	host     string
	from     string
	auth     smtp.Auth
	sendMail SendMailFunc
}

// NewMailer builds a mailer. Auth is only used when user is set.
func NewMailer(host string, port int, user, password, from string) *Mailer {
	m := &Mailer{
		addr:     net.JoinHostPort(host, strconv.Itoa(port)),
		host:     host,
		from:     from,
		sendMail: smtp.SendMail,
	}
	if user != "" {
		m.auth = smtp.PlainAuth("", user, password, host)
	}
	return m
}

// WithSendMail replaces the transport, mainly for tests.
func (m *Mailer) WithSendMail(fn SendMailFunc) *Mailer {
	m.sendMail = fn
	return m
}

// Notify implements Notifier. Messages without a recipient are skipped.
func (m *Mailer) Notify(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.sendMail(m.addr, m.auth, m.from, []string{msg.To}, m.compose(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

var headerBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// headerValue folds a value onto one line so it cannot start another header.
func headerValue(v string) string {
	return strings.TrimSpace(headerBreaks.Replace(v))
}

func (m *Mailer) compose(msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", headerValue(m.from))
	fmt.Fprintf(&b, "To: %s\r\n", headerValue(msg.To))
	fmt.Fprintf(&b, "Subject: %s\r\n", headerValue(msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}

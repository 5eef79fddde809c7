package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"imposter-stats/internal/match"
)

// Sender delivers prepared messages
type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// Mailer e-mails moderators when a player keeps violating the rules
type Mailer struct {
	sender Sender
	from   string
	to     []string
}

// NewSMTPClient builds a go-mail client for the configured relay
func NewSMTPClient(cfg SMTPConfig) (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(10 * time.Second),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}
	return client, nil
}

// NewMailer sends from one address to a comma separated recipient list
func NewMailer(sender Sender, from, to string) *Mailer {
	var recipients []string
	for _, addr := range strings.Split(to, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			recipients = append(recipients, addr)
		}
	}
	return &Mailer{sender: sender, from: from, to: recipients}
}

func (m *Mailer) NotifyViolation(ctx context.Context, alert match.Alert) error {
	msg, err := m.message(alert)
	if err != nil {
		return err
	}
	if err := m.sender.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send violation alert: %w", err)
	}
	return nil
}

func (m *Mailer) message(alert match.Alert) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(m.to...); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject(alert))
	msg.SetBodyString(mail.TypeTextPlain, body(alert))
	return msg, nil
}

func subject(alert match.Alert) string {
	return fmt.Sprintf("[imposter] %s reached %d violations on %s", alert.PlayerID, alert.Count, alert.Scope)
}

func body(alert match.Alert) string {
	name := alert.DisplayName
	if name == "" {
		name = alert.PlayerID
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Player: %s (%s)\n", name, alert.PlayerID)
	fmt.Fprintf(&b, "Scope: %s\n", alert.Scope)
	fmt.Fprintf(&b, "Violation: %s\n", alert.Type)
	fmt.Fprintf(&b, "Match: %s\n", alert.MatchID)
	fmt.Fprintf(&b, "Count: %d\n", alert.Count)
	fmt.Fprintf(&b, "Suspended until: %s\n", alert.SuspendedUntil.UTC().Format(time.RFC3339))
	return b.String()
}

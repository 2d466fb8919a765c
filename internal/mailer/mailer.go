package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"
)

// Notification carries the enquiry details included in the email sent to
// the site operators when a visitor submits the contact form.
type Notification struct {
	EnquiryID   int64
	Name        string
	Email       string
	Company     string
	Phone       string
	ProductName string
	Message     string
}

// Mailer sends enquiry notifications. Sends are best effort: the enquiry is
// already persisted by the time a Mailer runs, so callers log failures
// instead of surfacing them to the visitor.
type Mailer interface {
	SendEnquiryNotification(ctx context.Context, n Notification) error
}

// SMTPConfig holds the settings for the SMTP-backed mailer.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// From is the sender address on outgoing notifications.
	From string
	// To is the operator inbox that receives enquiry notifications.
	To string
}

// SMTP sends enquiry notifications through an SMTP relay.
type SMTP struct {
	client *mail.Client
	cfg    SMTPConfig
	logger *slog.Logger
}

// NewSMTP builds an SMTP mailer. TLS is opportunistic: it is used when the
// relay offers STARTTLS, which keeps local development relays working.
func NewSMTP(cfg SMTPConfig, logger *slog.Logger) (*SMTP, error) {
	if cfg.Host == "" || cfg.From == "" || cfg.To == "" {
		return nil, fmt.Errorf("mailer: host, from, and to are required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
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
		return nil, fmt.Errorf("mailer: build SMTP client: %w", err)
	}
	return &SMTP{client: client, cfg: cfg, logger: logger}, nil
}

// SendEnquiryNotification renders and delivers the notification email.
func (m *SMTP) SendEnquiryNotification(ctx context.Context, n Notification) error {
	body, err := renderNotification(n)
	if err != nil {
		return fmt.Errorf("render notification: %w", err)
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(m.cfg.To); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	if err := msg.ReplyTo(n.Email); err != nil {
		// A bad visitor address only loses the reply-to convenience.
		m.logger.Warn("invalid reply-to address on enquiry", "enquiry_id", n.EnquiryID)
	}
	msg.Subject(fmt.Sprintf("New enquiry from %s (#%d)", n.Name, n.EnquiryID))
	msg.SetBodyString(mail.TypeTextHTML, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	return nil
}

// Noop discards notifications. Used when no SMTP relay is configured so
// the enquiry endpoint works out of the box.
type Noop struct {
	Logger *slog.Logger
}

func (n Noop) SendEnquiryNotification(_ context.Context, note Notification) error {
	if n.Logger != nil {
		n.Logger.Info("mail disabled, skipping enquiry notification", "enquiry_id", note.EnquiryID)
	}
	return nil
}

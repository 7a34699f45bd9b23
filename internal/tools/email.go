package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wneessen/go-mail"

	"agora/internal/config"
)

// Mailer delivers notification emails over authenticated SMTP with
// STARTTLS.
type Mailer struct {
	cfg config.SMTPConfig
}

func NewMailer(cfg config.SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// Send delivers one email. It returns a tool Error on any failure so
// callers can fold the failure into user-visible output.
func (m *Mailer) Send(ctx context.Context, recipient, subject, body string) error {
	if m.cfg.Username == "" || m.cfg.Password == "" {
		return &Error{Tool: "send_email", Err: fmt.Errorf("smtp credentials not configured")}
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.Username); err != nil {
		return &Error{Tool: "send_email", Err: fmt.Errorf("set sender: %w", err)}
	}
	if err := msg.To(recipient); err != nil {
		return &Error{Tool: "send_email", Err: fmt.Errorf("set recipient: %w", err)}
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	client, err := mail.NewClient(m.cfg.Server,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return &Error{Tool: "send_email", Err: fmt.Errorf("smtp client: %w", err)}
	}
	defer client.Close()

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return &Error{Tool: "send_email", Err: fmt.Errorf("send: %w", err)}
	}
	return nil
}

// Spec exposes email delivery as an invocable tool. The model-visible
// contract mirrors the original: a SUCCESS sentinel on delivery,
// because the email agent's directive keys off it.
func (m *Mailer) Spec() Spec {
	return Spec{
		Name:        "send_email",
		Description: "Sends an email to the recipient with the given subject and body.",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"recipient": {"type": "string", "description": "Recipient email address"},
				"subject": {"type": "string", "description": "Email subject"},
				"body": {"type": "string", "description": "Plain text email body"}
			},
			"required": ["recipient", "subject", "body"]
		}`),
		Invoke: func(ctx context.Context, args json.RawMessage) (string, error) {
			var in struct {
				Recipient string `json:"recipient"`
				Subject   string `json:"subject"`
				Body      string `json:"body"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", &Error{Tool: "send_email", Err: fmt.Errorf("bad arguments: %w", err)}
			}
			if err := m.Send(ctx, in.Recipient, in.Subject, in.Body); err != nil {
				return "", err
			}
			return fmt.Sprintf("SUCCESS: Email sent successfully to %s", in.Recipient), nil
		},
	}
}

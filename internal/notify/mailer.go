// Package notify delivers login links to community members.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/dtroode/community-board-server/internal/config"
	"github.com/dtroode/community-board-server/internal/logger"
	"github.com/dtroode/community-board-server/internal/model"
)

var (
	_ model.Notifier = (*Mailer)(nil)
	_ model.Notifier = (*LogNotifier)(nil)
)

const loginSubject = "Your Community Board Login Link"

var loginTemplate = template.Must(template.New("login").Parse(`<h2>Welcome to Community Board!</h2>
<p>Click the link below to log in:</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>This link will expire in {{.TTL}}.</p>
<p>If you didn't request this login link, please ignore this email.</p>
`))

type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Mailer sends login links over SMTP.
type Mailer struct {
	client sender
	from   string
	ttl    string
	logger *logger.Logger
}

// NewMailer creates an SMTP mailer from the mail configuration.
func NewMailer(cfg config.Mail, ttl string, log *logger.Logger) (*Mailer, error) {
	opts := []mail.Option{mail.WithPort(cfg.Port)}
	if cfg.UseTLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Server, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return newMailer(client, cfg.DefaultSender, ttl, log), nil
}

func newMailer(client sender, from, ttl string, log *logger.Logger) *Mailer {
	return &Mailer{client: client, from: from, ttl: ttl, logger: log}
}

// SendLoginLink sends a single message. Failures are returned to the caller without retry.
func (m *Mailer) SendLoginLink(ctx context.Context, email, link string) error {
	body, err := renderLoginEmail(link, m.ttl)
	if err != nil {
		return err
	}

	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(email); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(loginSubject)
	msg.SetBodyString(mail.TypeTextHTML, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		m.logger.Error("Mailer: failed to send login link",
			"email", email,
			"error", err.Error())
		return fmt.Errorf("failed to send login link: %w", err)
	}

	m.logger.Info("Mailer: login link sent", "email", email)
	return nil
}

// DescribeTTL renders a token lifetime for the email body, e.g. "24 hours" or "30 minutes".
func DescribeTTL(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	case d >= time.Minute && d%time.Minute == 0:
		return plural(int(d/time.Minute), "minute")
	default:
		return d.String()
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func renderLoginEmail(link, ttl string) (string, error) {
	var buf bytes.Buffer
	err := loginTemplate.Execute(&buf, struct {
		Link template.URL
		TTL  string
	}{Link: template.URL(link), TTL: ttl})
	if err != nil {
		return "", fmt.Errorf("failed to render login email: %w", err)
	}
	return buf.String(), nil
}

// LogNotifier records login requests in the log instead of sending email. The link itself is a credential and is never logged.
type LogNotifier struct {
	logger *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log}
}

func (n *LogNotifier) SendLoginLink(_ context.Context, email, _ string) error {
	n.logger.Info("Mailer: sending suppressed", "email", email)
	return nil
}

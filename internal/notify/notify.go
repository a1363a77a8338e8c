// Package notify emails the run's error digest to the administrator.
package notify

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"

	"givingreport/internal/config"
)

const (
	smtpHost = "smtp.gmail.com"
	smtpPort = 465
)

// Mailer sends run digests over SMTP-SSL.
type Mailer struct {
	secrets  config.GmailSecrets
	progName string
	log      zerolog.Logger
}

// New returns a Mailer for the configured account.
func New(secrets config.GmailSecrets, progName string, log zerolog.Logger) *Mailer {
	return &Mailer{secrets: secrets, progName: progName, log: log}
}

// Subject names the digest email after whether the run logged errors.
func Subject(progName string, hadErrors bool) string {
	if hadErrors {
		return fmt.Sprintf("%s encountered errors", progName)
	}
	return fmt.Sprintf("%s completed without errors", progName)
}

// SendDigest mails the digest body. A run with an unconfigured account is
// skipped silently apart from a log line.
func (m *Mailer) SendDigest(body string, hadErrors bool) error {
	if m.secrets.User == "" || m.secrets.Password == "" || m.secrets.NotifyTarget == "" {
		m.log.Info().Msg("notification email account not configured, skipping")
		return nil
	}
	msg, err := m.buildMessage(body, hadErrors)
	if err != nil {
		return err
	}
	client, err := mail.NewClient(smtpHost,
		mail.WithPort(smtpPort),
		mail.WithSSL(),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.secrets.User),
		mail.WithPassword(m.secrets.Password),
	)
	if err != nil {
		return fmt.Errorf("notify: smtp client: %w", err)
	}
	if err := client.DialAndSend(msg); err != nil {
		return fmt.Errorf("notify: send digest: %w", err)
	}
	m.log.Info().Str("to", m.secrets.NotifyTarget).Msg("sent notification email")
	return nil
}

func (m *Mailer) buildMessage(body string, hadErrors bool) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.secrets.User); err != nil {
		return nil, fmt.Errorf("notify: from address: %w", err)
	}
	if err := msg.To(m.secrets.NotifyTarget); err != nil {
		return nil, fmt.Errorf("notify: to address: %w", err)
	}
	msg.Subject(Subject(m.progName, hadErrors))
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

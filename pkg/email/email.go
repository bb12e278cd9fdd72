// Package email delivers per-subscriber digests over SMTP.
package email

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/dtnitsch/news-clipper/models"
	"github.com/dtnitsch/news-clipper/pkg/report"
)

type Sender struct {
	cfg models.EmailConfig
}

func NewSender(cfg models.EmailConfig) *Sender {
	return &Sender{cfg: cfg}
}

// SendDigest mails one subscriber their matched articles for the run
// date. Callers should skip subscribers with an empty notification set.
func (s *Sender) SendDigest(rep report.SubscriberReport, runDate string) error {
	subject := fmt.Sprintf("News digest %s (%d matches)", runDate, len(rep.Articles))

	var body strings.Builder
	fmt.Fprintf(&body, "Matched articles for %s:\r\n\r\n", runDate)
	for _, a := range rep.Articles {
		fmt.Fprintf(&body, "- %s\r\n  %s\r\n  source: %s", a.Title, a.URL, a.SourceID)
		if len(a.KeywordsHit) > 0 {
			fmt.Fprintf(&body, ", keywords: %s", strings.Join(a.KeywordsHit, ", "))
		}
		body.WriteString("\r\n\r\n")
	}

	return s.send(rep.Email, subject, body.String())
}

// SendTest sends a probe message so operators can verify SMTP settings
// without a full pipeline run.
func (s *Sender) SendTest(to string) error {
	return s.send(to, "news-clipper test email", "SMTP configuration works.\r\n")
}

func (s *Sender) send(to, subject, body string) error {
	if to == "" {
		return fmt.Errorf("no recipient address")
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	// smtp.SendMail negotiates STARTTLS when the server offers it.
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}

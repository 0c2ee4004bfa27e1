// Package mailer delivers rendered reports to the administrator address over
// the Resend API.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"

	"github.com/akozachenko/accesscheck/internal/i18n"
)

// ErrNotConfigured is returned when sending is attempted without an API key.
var ErrNotConfigured = errors.New("mailer: no API key configured")

// Mailer sends report emails with the rendered document attached.
type Mailer struct {
	client *resend.Client
	from   string
	to     string
}

// New creates a mailer. An empty API key yields a disabled mailer: the server
// still runs, send requests fail with ErrNotConfigured.
func New(apiKey, from, to string) *Mailer {
	m := &Mailer{from: from, to: to}
	if apiKey == "" {
		slog.Warn("no email API key configured, report sending disabled")
		return m
	}
	m.client = resend.NewClient(apiKey)
	return m
}

// Enabled reports whether the mailer can actually send.
func (m *Mailer) Enabled() bool {
	return m.client != nil
}

// SendResults emails the recommendations report for a center.
func (m *Mailer) SendResults(ctx context.Context, centerName, filename string, document []byte) error {
	subject := i18n.Td(ctx, "EmailSubjectResults", map[string]any{"Center": centerName})
	return m.send(ctx, subject, i18n.T(ctx, "EmailResultsNote"), filename, document)
}

// SendFullAnswers emails the full answer transcript for a center.
func (m *Mailer) SendFullAnswers(ctx context.Context, centerName, filename string, document []byte) error {
	subject := i18n.Td(ctx, "EmailSubjectFull", map[string]any{"Center": centerName})
	return m.send(ctx, subject, i18n.T(ctx, "EmailFullNote"), filename, document)
}

func (m *Mailer) send(ctx context.Context, subject, note, filename string, document []byte) error {
	if m.client == nil {
		return ErrNotConfigured
	}

	body := fmt.Sprintf(
		`<div style="font-family: Arial, sans-serif; color: #1f2937;">
  <h2>%s</h2>
  <p>%s</p>
  <p style="font-size: 12px; color: #9ca3af;">%s</p>
</div>`,
		i18n.T(ctx, "EmailHeading"), note, i18n.T(ctx, "EmailFooter"),
	)

	sent, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{m.to},
		Subject: subject,
		Html:    body,
		Attachments: []*resend.Attachment{
			{
				Filename:    filename,
				Content:     document,
				ContentType: "text/html",
			},
		},
	})
	if err != nil {
		slog.Error("failed to send report email", "to", m.to, "subject", subject, "error", err)
		return fmt.Errorf("send report email: %w", err)
	}

	slog.Info("sent report email", "to", m.to, "subject", subject, "email_id", sent.Id)
	return nil
}

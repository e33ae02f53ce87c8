package contact

import (
	"context"
	"html"
	"strings"

	"go.uber.org/zap"
)

// Email is an outgoing notification.
type Email struct {
	To      string
	ReplyTo string
	Subject string
	HTML    string
}

// Mailer delivers notification emails.
type Mailer interface {
	Send(ctx context.Context, e Email) error
}

// LogMailer writes emails to the log instead of delivering them.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer returns a Mailer that logs at info level.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger}
}

// Send logs e.
func (m *LogMailer) Send(_ context.Context, e Email) error {
	m.logger.Info("email would be sent",
		zap.String("to", e.To),
		zap.String("reply_to", e.ReplyTo),
		zap.String("subject", e.Subject),
		zap.Int("html_bytes", len(e.HTML)))
	return nil
}

func buildEmail(inbox string, sub Submission) Email {
	name := html.EscapeString(sub.FirstName + " " + sub.LastName)
	message := strings.ReplaceAll(html.EscapeString(sub.Message), "\n", "<br>")

	var b strings.Builder
	b.WriteString("<h2>New Contact Form Submission</h2>\n")
	b.WriteString("<p><strong>Name:</strong> " + name + "</p>\n")
	b.WriteString("<p><strong>Email:</strong> " + html.EscapeString(sub.Email) + "</p>\n")
	b.WriteString("<p><strong>Subject:</strong> " + html.EscapeString(sub.Subject) + "</p>\n")
	b.WriteString("<p><strong>Message:</strong></p>\n")
	b.WriteString("<p>" + message + "</p>\n")

	return Email{
		To:      inbox,
		ReplyTo: sub.Email,
		Subject: "Portfolio Contact: " + sub.Subject,
		HTML:    b.String(),
	}
}

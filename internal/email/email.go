// Package email delivers operational notifications over SMTP.
package email

import "context"

// Sender delivers a single HTML email.
type Sender interface {
	Send(ctx context.Context, toEmail, subject, htmlContent string) error
}

// NoopSender is used when SMTP is not configured; sends are silently dropped.
type NoopSender struct{}

func (NoopSender) Send(context.Context, string, string, string) error { return nil }

var _ Sender = NoopSender{}

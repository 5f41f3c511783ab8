// Package email provides outbound email delivery for notifications.
package email

import "context"

// Sender delivers the notification emails the system sends. Delivery is
// advisory: callers log failures but never fail a workflow on them.
type Sender interface {
	SendWelcomeEmail(ctx context.Context, toEmail, domainName string) error
	SendGoodbyeEmail(ctx context.Context, toEmail string) error
}

// NoopSender is used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendWelcomeEmail(context.Context, string, string) error { return nil }
func (NoopSender) SendGoodbyeEmail(context.Context, string) error         { return nil }

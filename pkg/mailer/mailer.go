// Package mailer delivers HTML email. Senders never log message bodies, which
// carry one-time codes.
package mailer

import (
	"context"

	"otp-auth/pkg/utils"

	"go.uber.org/zap"
)

// Sender delivers one HTML message.
type Sender interface {
	Send(ctx context.Context, to, subject, html string) error
}

// New picks the transport from config: SMTP when a host is set, otherwise a
// log-only sender for local development. With Async the sender is wrapped in
// a Dispatcher, which the caller must Close.
func New(config utils.EmailConfig, log *zap.Logger) (Sender, func()) {
	var sender Sender
	if config.Host == "" {
		log.Warn("SMTP_HOST not set, emails will only be logged")
		sender = NewLogSender(log)
	} else {
		sender = NewSMTPSender(config)
	}

	if !config.Async {
		return sender, func() {}
	}

	d := NewDispatcher(sender, config.QueueSize, log)
	return d, d.Close
}

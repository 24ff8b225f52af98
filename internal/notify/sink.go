// Package notify delivers human-readable notifications to the IT chat channel and by email.
package notify

import "context"

// ChatSink posts a preformatted message to the team chat.
type ChatSink interface {
	SendChat(ctx context.Context, text string) error
}

// Mail is a single outbound HTML email.
type Mail struct {
	To       string
	Subject  string
	HTMLBody string
}

// MailSink delivers one email.
type MailSink interface {
	SendMail(ctx context.Context, mail Mail) error
}

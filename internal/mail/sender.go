package mail

import "log/slog"

type Message struct {
	To          []string
	Cc          []string
	Subject     string
	Body        string
	IsHTML      bool
	Embeds      map[string]string
	Attachments []string
}

type MailSender interface {
	Send(message *Message) error
}

// LogMailSender only logs outgoing messages. It is used when no mail
// backend is configured.
type LogMailSender struct{}

func (LogMailSender) Send(message *Message) error {
	slog.Info("Mail delivery disabled, message dropped", "to", message.To, "subject", message.Subject)
	return nil
}

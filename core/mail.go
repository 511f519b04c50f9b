package core

import (
	"net/mail"
	"strings"
)

type (
	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Bcc     []mail.Address
		Subject string
		BodyStr string // text/plain content
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

func (m *EmailMessage) HasRecipients() bool {
	return len(m.To) > 0 || len(m.Cc) > 0 || len(m.Bcc) > 0
}

func (m *EmailMessage) HasContent() bool {
	return strings.TrimSpace(m.BodyStr) != ""
}

func (m *EmailMessage) Recipients() []mail.Address {
	rcpts := make([]mail.Address, 0, len(m.To)+len(m.Cc)+len(m.Bcc))
	rcpts = append(rcpts, m.To...)
	rcpts = append(rcpts, m.Cc...)
	rcpts = append(rcpts, m.Bcc...)
	return rcpts
}

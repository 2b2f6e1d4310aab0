// Package mail delivers transactional account mail over SMTP or the Resend API.
package mail

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var ErrNoRecipient = errors.New("mail: no recipient")

type Message struct {
	To      string
	Subject string
	Body    string
}

func (m Message) Validate() error {
	if strings.TrimSpace(m.To) == "" {
		return ErrNoRecipient
	}
	return nil
}

// Values is the stream representation of a mail task.
func (m Message) Values() map[string]any {
	return map[string]any{
		"type":    "mail",
		"to":      m.To,
		"subject": m.Subject,
		"body":    m.Body,
	}
}

func ActivationLink(base, token string) string {
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(token)
}

func ActivationMessage(name, email, link string) Message {
	return Message{
		To:      email,
		Subject: "Activate your account",
		Body:    fmt.Sprintf("Hello %s, please click on the link to activate your account: %s", name, link),
	}
}

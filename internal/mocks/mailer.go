package mocks

import (
	"context"
	"regexp"
	"sync"
)

var codePattern = regexp.MustCompile(`>\s*(\d{5,6})\s*<`)

type SentMail struct {
	To      string
	Subject string
	HTML    string
}

// Mailer captures outgoing mail instead of sending it.
type Mailer struct {
	mu   sync.Mutex
	Sent []SentMail

	// Err, when set, fails every Send.
	Err error
}

func (m *Mailer) Send(_ context.Context, to, subject, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, SentMail{To: to, Subject: subject, HTML: html})
	return nil
}

// LastCode extracts the one-time code from the newest message sent to email.
func (m *Mailer) LastCode(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.Sent) - 1; i >= 0; i-- {
		if m.Sent[i].To != email {
			continue
		}
		if match := codePattern.FindStringSubmatch(m.Sent[i].HTML); match != nil {
			return match[1]
		}
	}
	return ""
}

func (m *Mailer) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

package mailer

import (
	"fmt"
	"strings"

	mail "gopkg.in/mail.v2"
)

// Template keys understood by the transactional mail layouts. The engine
// hands over a key and a flat parameter map; rendering happens downstream.
const (
	TemplateAccountApproved     = "account-approved"
	TemplateApplicationReceived = "application-received"
	TemplateApplicationAccepted = "application-accepted"
	TemplateApplicationRejected = "application-rejected"
	TemplateNewLocalOffer       = "new-local-offer"
)

var subjects = map[string]string{
	TemplateAccountApproved:     "Your account has been approved",
	TemplateApplicationReceived: "New application for your offer",
	TemplateApplicationAccepted: "Your application was accepted",
	TemplateApplicationRejected: "Update on your application",
	TemplateNewLocalOffer:       "New offer in your area",
}

type Client struct {
	dialer *mail.Dialer
	from   string
}

func NewClient(smtpHost string, smtpPort int, username, password, from string) *Client {
	return &Client{
		dialer: mail.NewDialer(smtpHost, smtpPort, username, password),
		from:   from,
	}
}

// Send delivers one templated mail. Calls are fire-and-forget from the
// engine's perspective: the caller logs failures and never retries.
func (c *Client) Send(to, template string, params map[string]string) error {
	if c == nil {
		return nil
	}
	subject, ok := subjects[template]
	if !ok {
		return fmt.Errorf("unknown mail template %q", template)
	}

	message := mail.NewMessage()
	message.SetHeader("From", c.from)
	message.SetHeader("To", to)
	message.SetHeader("Subject", subject)
	message.SetHeader("X-Template", template)
	message.SetBody("text/plain", renderBody(template, params))

	return c.dialer.DialAndSend(message)
}

func renderBody(template string, params map[string]string) string {
	var b strings.Builder
	b.WriteString(template)
	b.WriteString("\n")
	for key, value := range params {
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\n")
	}
	return b.String()
}

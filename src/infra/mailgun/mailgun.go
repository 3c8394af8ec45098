package mailgun

import (
	"context"
	"fmt"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

const DefaultAPIBase = mg.APIBase

// Message is a single HTML e-mail.
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
}

// Client sends messages through the Mailgun messages API of one sending domain.
type Client struct {
	impl    *mg.MailgunImpl
	timeout time.Duration
}

func NewClient(apiBase string, domain string, apiKey string, timeout time.Duration) *Client {
	impl := mg.NewMailgun(domain, apiKey)
	if apiBase != "" {
		impl.SetAPIBase(apiBase)
	}

	return &Client{impl: impl, timeout: timeout}
}

func (c *Client) Send(ctx context.Context, message Message) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	// o texto puro só aparece em clientes sem HTML
	msg := c.impl.NewMessage(message.From, message.Subject, message.Subject, message.To...)
	msg.SetHtml(message.HTML)

	if _, _, err := c.impl.Send(ctx, msg); err != nil {
		return fmt.Errorf("mailgun.Send - failed to send %q: %w", message.Subject, err)
	}

	return nil
}

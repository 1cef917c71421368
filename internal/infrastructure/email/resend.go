package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// Message is one outgoing HTML email
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
	Tags    map[string]string
}

// Sender delivers a message and returns the provider's message id
type Sender interface {
	Send(ctx context.Context, msg *Message) (string, error)
}

type emailAPI interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendSender sends through the Resend API
type ResendSender struct {
	emails emailAPI
}

func NewResendSender(apiKey string) *ResendSender {
	return &ResendSender{emails: resend.NewClient(apiKey).Emails}
}

func (s *ResendSender) Send(ctx context.Context, msg *Message) (string, error) {
	req := &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
	}
	for name, value := range msg.Tags {
		req.Tags = append(req.Tags, resend.Tag{Name: name, Value: value})
	}

	sent, err := s.emails.SendWithContext(ctx, req)
	if err != nil {
		return "", fmt.Errorf("resend: %w", err)
	}
	return sent.Id, nil
}

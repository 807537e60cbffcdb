// Package email provides the email client for submission notifications.
package email

import (
	"fmt"

	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/email/templates"
	"github.com/resendlabs/resend-go"
)

// Service defines the interface for sending emails, allowing for mock implementations in tests.
type Service interface {
	SendSubmissionNotification(toEmail string, props templates.SubmissionEmailProps) error
}

// ResendClient is the concrete implementation of the email Service using the Resend API.
type ResendClient struct {
	client    *resend.Client
	fromEmail string
	fromName  string
}

// NewService creates a Resend-backed email service.
func NewService(apiKey, fromEmail, fromName string) (Service, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("RESEND_API_KEY is required")
	}
	if fromEmail == "" {
		return nil, fmt.Errorf("EMAIL_FROM is required")
	}
	return &ResendClient{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}, nil
}

// SendSubmissionNotification mails the submitted values to toEmail.
func (c *ResendClient) SendSubmissionNotification(toEmail string, props templates.SubmissionEmailProps) error {
	htmlContent := templates.GetEmailLayout(templates.EmailLayoutProps{
		Preheader: "New form submission on " + props.PageTitle,
		Content:   templates.GetSubmissionEmailContent(props),
	})

	from := c.fromEmail
	if c.fromName != "" {
		from = fmt.Sprintf("%s <%s>", c.fromName, c.fromEmail)
	}
	params := &resend.SendEmailRequest{
		From:    from,
		To:      []string{toEmail},
		Subject: "New submission: " + props.PageTitle,
		Html:    htmlContent,
	}

	if _, err := c.client.Emails.Send(params); err != nil {
		return fmt.Errorf("failed to send submission email via Resend: %w", err)
	}
	return nil
}

package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// EmailService defines the interface for sending transactional email
type EmailService interface {
	SendOTPEmail(ctx context.Context, email, code string) error
	SendAbandonedCartEmail(ctx context.Context, email, outputKey string) error
	SendSupportAckEmail(ctx context.Context, email string) error
}

// AWSSESEmailService sends emails using AWS SES
type AWSSESEmailService struct {
	sesClient   *ses.Client
	fromAddress string
	siteBaseURL string
	logger      *slog.Logger
}

// NewAWSSESEmailService creates a new AWS SES email service
func NewAWSSESEmailService(region, fromAddress, siteBaseURL string, logger *slog.Logger) (*AWSSESEmailService, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESEmailService{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		siteBaseURL: siteBaseURL,
		logger:      logger,
	}, nil
}

// SendOTPEmail delivers a one-time sign-in code.
func (s *AWSSESEmailService) SendOTPEmail(ctx context.Context, email, code string) error {
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1>Your sign-in code</h1>
    <p>Enter this code to continue:</p>
    <p style="font-size: 32px; letter-spacing: 6px; font-weight: bold;">%s</p>
    <p>The code expires in 10 minutes. If you didn't request it, you can ignore this email.</p>
  </div>
</body>
</html>
`, code)

	textBody := fmt.Sprintf("Your sign-in code is: %s\n\nThe code expires in 10 minutes. If you didn't request it, you can ignore this email.\n", code)

	return s.send(ctx, email, "Your Pawtrait Studio sign-in code", htmlBody, textBody)
}

// SendAbandonedCartEmail reminds a user their finished portrait is waiting.
func (s *AWSSESEmailService) SendAbandonedCartEmail(ctx context.Context, email, outputKey string) error {
	previewURL := fmt.Sprintf("%s/portraits?ref=%s", s.siteBaseURL, outputKey)

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1>Your portrait is ready!</h1>
    <p>The AI portrait of your pet finished rendering and is waiting for you.</p>
    <p><a href="%s" style="display: inline-block; background-color: #e8743b; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px;">View your portrait</a></p>
    <p>Previews stay available for a limited time, so don't wait too long.</p>
  </div>
</body>
</html>
`, previewURL)

	textBody := fmt.Sprintf("Your pet's AI portrait finished rendering and is waiting for you.\n\nView it here: %s\n\nPreviews stay available for a limited time.\n", previewURL)

	return s.send(ctx, email, "Your pet's portrait is ready", htmlBody, textBody)
}

// SendSupportAckEmail confirms receipt of a support request.
func (s *AWSSESEmailService) SendSupportAckEmail(ctx context.Context, email string) error {
	htmlBody := `
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1>We got your message</h1>
    <p>Thanks for reaching out. Our team will get back to you within one business day.</p>
  </div>
</body>
</html>
`
	textBody := "Thanks for reaching out. Our team will get back to you within one business day.\n"

	return s.send(ctx, email, "We received your message", htmlBody, textBody)
}

func (s *AWSSESEmailService) send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data: aws.String(htmlBody),
				},
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	result, err := s.sesClient.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("failed to send email via SES",
			slog.String("subject", subject),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent",
		slog.String("subject", subject),
		slog.String("message_id", *result.MessageId))

	return nil
}

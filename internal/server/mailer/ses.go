package mailer

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// SESConfig configures the Amazon SES v2 transport. Empty credentials fall
// back to the default AWS credential chain; BaseEndpoint targets an
// SES-compatible endpoint such as LocalStack.
type SESConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	BaseEndpoint    string
	From            Sender
}

type sesAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newSESClientFromConfig = func(cfg aws.Config, optFns ...func(*sesv2.Options)) sesAPI {
		return sesv2.NewFromConfig(cfg, optFns...)
	}
)

// SESMailer sends mail through Amazon SES v2.
type SESMailer struct {
	client sesAPI
	from   Sender
}

func NewSESMailer(ctx context.Context, cfg SESConfig) (*SESMailer, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := newSESClientFromConfig(awsCfg, func(o *sesv2.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
		}
	})

	return &SESMailer{client: client, from: cfg.From}, nil
}

func (m *SESMailer) Send(ctx context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}

	body := &types.Body{}
	if msg.Text != "" {
		body.Text = &types.Content{Data: aws.String(msg.Text), Charset: aws.String("UTF-8")}
	}
	if msg.HTML != "" {
		body.Html = &types.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")}
	}

	_, err := m.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.from.String()),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body:    body,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send email via SES: %w", err)
	}
	return nil
}

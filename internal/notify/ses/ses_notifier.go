package ses

import (
	"context"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"prodnorm/internal/domain"
	"prodnorm/internal/port"
)

type sesNotifier struct {
	client      *sesv2.Client
	fromAddress string
	toAddress   string
}

// NewSESNotifier creates a new SES-backed RunNotifier.
func NewSESNotifier(region, fromAddress, toAddress string) (port.RunNotifier, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	client := sesv2.NewFromConfig(cfg)
	return &sesNotifier{
		client:      client,
		fromAddress: fromAddress,
		toAddress:   toAddress,
	}, nil
}

func (s *sesNotifier) NotifyRunComplete(ctx context.Context, summary domain.RunSummary) error {
	subject := fmt.Sprintf("Normalization run %s complete", summary.RunID)
	textBody := fmt.Sprintf(
		"Run %s finished at %s.\n\nRecords processed: %d\nRows written: %d\nPlaceholder rows: %d\nCache hits: %d\nRetries: %d\nAudit issues: %d\nDuration: %s\n",
		summary.RunID,
		summary.StartedAt.Add(summary.Duration).Format(time.RFC3339),
		summary.TotalRecords, summary.RowsWritten, summary.Placeholders,
		summary.CacheHits, summary.Retries, summary.AuditIssues, summary.Duration)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &s.fromAddress,
		Destination: &types.Destination{
			ToAddresses: []string{s.toAddress},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body: &types.Body{
					Text: &types.Content{Data: &textBody},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}
	return nil
}

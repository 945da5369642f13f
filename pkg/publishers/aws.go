package publishers

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// loadAWSConfig resolves the default AWS config for region, replacing the
// credential chain with static keys when both are configured.
func loadAWSConfig(ctx context.Context, c AWSConfig) (aws.Config, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	opts := []func(*awscfg.LoadOptions) error{awscfg.WithRegion(c.Region)}
	if c.AccessKeyID != "" && c.SecretAccessKey != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, c.SessionToken),
		))
	}
	return awscfg.LoadDefaultConfig(ctx, opts...)
}

func eventAttributes(evt Event) map[string]string {
	success := "false"
	if evt.Success {
		success = "true"
	}
	return map[string]string{
		"event_id": evt.ID,
		"method":   evt.Method,
		"success":  success,
	}
}

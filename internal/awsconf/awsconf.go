// Package awsconf builds the shared AWS SDK configuration from app config
package awsconf

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/wb-go/wbf/config"
)

const defaultRegion = "us-east-2"

// Load - статические ключи из конфига, если заданы, иначе стандартная цепочка AWS
func Load(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	region := cfg.GetString("AWS_REGION")
	if region == "" {
		region = defaultRegion
	}

	optFns := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
		awsconfig.WithRetryMaxAttempts(3),
	}

	key, secret := cfg.GetString("AWS_ACCESS_KEY_ID"), cfg.GetString("AWS_SECRET_ACCESS_KEY")
	if key != "" && secret != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(key, secret, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return awsCfg, nil
}

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/rs/zerolog"
	tableconfig "github.com/suparena/tableops/config"
)

// NewDynamoDBClient initializes a DynamoDB client from the AWS section of the configuration.
// Static credentials are used when both keys are set; otherwise the default chain applies.
func NewDynamoDBClient(ctx context.Context, cfg tableconfig.AWS, logger zerolog.Logger) (*sdk.Client, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, cfg.SessionToken),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := sdk.NewFromConfig(awsCfg, func(o *sdk.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	logger.Debug().
		Str("region", cfg.Region).
		Str("endpoint", cfg.Endpoint).
		Bool("static_credentials", cfg.AccessKey != "").
		Msg("dynamodb client initialized")
	return client, nil
}

package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// LoadEnv pulls secrets from AWS Secrets Manager (if configured) and then
// loads a local .env file. Values already present in the environment win
// unless AWS_SECRETS_MANAGER_OVERWRITE=true.
func LoadEnv(ctx context.Context, defaultEnvPath string) {
	if err := loadAWSSecretsIntoEnv(ctx); err != nil {
		log.Warn().Err(err).Msg("Skipping AWS Secrets Manager load")
	}
	loadDotEnv(defaultEnvPath)
}

func loadDotEnv(defaultEnvPath string) {
	envFile := GetEnv("ENV_FILE_PATH", defaultEnvPath)
	if err := godotenv.Load(envFile); err != nil {
		log.Debug().Str("path", envFile).Msg(".env file not found, using process environment")
	}
}

func loadAWSSecretsIntoEnv(ctx context.Context) error {
	secretID := os.Getenv("AWS_SECRETS_MANAGER_SECRET_ID")
	if secretID == "" {
		return nil
	}

	var opts []func(*awsconfig.LoadOptions) error
	if region := os.Getenv("AWS_SECRETS_MANAGER_REGION"); region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}

	output, err := secretsmanager.NewFromConfig(cfg).GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(secretID),
		VersionStage: aws.String(GetEnv("AWS_SECRETS_MANAGER_VERSION_STAGE", "AWSCURRENT")),
	})
	if err != nil {
		return fmt.Errorf("fetching secret %s: %w", secretID, err)
	}

	var payload string
	switch {
	case output.SecretString != nil:
		payload = *output.SecretString
	case len(output.SecretBinary) > 0:
		payload = string(output.SecretBinary)
	default:
		return fmt.Errorf("secret %s has no payload", secretID)
	}

	overwrite := strings.EqualFold(os.Getenv("AWS_SECRETS_MANAGER_OVERWRITE"), "true")
	applied, err := ApplySecretPayload(payload, overwrite)
	if err != nil {
		return fmt.Errorf("secret %s: %w", secretID, err)
	}
	log.Info().Int("applied", applied).Str("secret", secretID).Msg("Loaded env vars from AWS Secrets Manager")
	return nil
}

// ApplySecretPayload sets every key of a flat JSON object as an environment
// variable and returns how many were applied.
func ApplySecretPayload(payload string, overwrite bool) (int, error) {
	var kv map[string]any
	if err := json.Unmarshal([]byte(payload), &kv); err != nil {
		return 0, fmt.Errorf("parsing secret payload as JSON: %w", err)
	}

	applied := 0
	for key, val := range kv {
		if !overwrite && os.Getenv(key) != "" {
			continue
		}
		if err := os.Setenv(key, fmt.Sprint(val)); err != nil {
			return applied, fmt.Errorf("setting env %s from secret: %w", key, err)
		}
		applied++
	}
	return applied, nil
}

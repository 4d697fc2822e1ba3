// Copyright 2025 ClawGuard
// SPDX-License-Identifier: BUSL-1.1

package guard

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// secretRefScheme marks a configuration value as a secret reference of the
// form aws-sm://<secret-id>#<json-key>. The fragment is optional; without it
// the whole secret string is used verbatim.
const secretRefScheme = "aws-sm://"

// SecretsManager fetches secret payloads by id. Production uses AWS Secrets
// Manager; tests substitute a static implementation.
type SecretsManager interface {
	GetSecret(ctx context.Context, secretID string) (string, error)
}

// AWSSecretsManager resolves secrets through AWS Secrets Manager using the
// ambient credential chain (env, shared config, IAM role).
type AWSSecretsManager struct {
	client *secretsmanager.Client
}

// NewAWSSecretsManager loads the default AWS config and returns a resolver.
func NewAWSSecretsManager(ctx context.Context) (*AWSSecretsManager, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &AWSSecretsManager{client: secretsmanager.NewFromConfig(cfg)}, nil
}

// GetSecret fetches the secret string for secretID.
func (m *AWSSecretsManager) GetSecret(ctx context.Context, secretID string) (string, error) {
	out, err := m.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get secret %s: %w", secretID, err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", secretID)
	}
	return *out.SecretString, nil
}

// IsSecretRef reports whether value is an aws-sm:// reference.
func IsSecretRef(value string) bool {
	return strings.HasPrefix(value, secretRefScheme)
}

// ResolveSecretRef resolves value if it is a secret reference, otherwise
// returns it unchanged. References require a non-nil resolver.
func ResolveSecretRef(ctx context.Context, resolver SecretsManager, value string) (string, error) {
	if !IsSecretRef(value) {
		return value, nil
	}
	if resolver == nil {
		return "", fmt.Errorf("secret reference %s requires a secrets manager", value)
	}

	ref := strings.TrimPrefix(value, secretRefScheme)
	secretID, jsonKey := ref, ""
	if idx := strings.Index(ref, "#"); idx >= 0 {
		secretID, jsonKey = ref[:idx], ref[idx+1:]
	}
	if secretID == "" {
		return "", fmt.Errorf("secret reference %s has no secret id", value)
	}

	payload, err := resolver.GetSecret(ctx, secretID)
	if err != nil {
		return "", err
	}
	if jsonKey == "" {
		return payload, nil
	}

	var fields map[string]string
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return "", fmt.Errorf("secret %s is not a JSON object: %w", secretID, err)
	}
	resolved, ok := fields[jsonKey]
	if !ok {
		return "", fmt.Errorf("secret %s has no key %q", secretID, jsonKey)
	}
	return resolved, nil
}

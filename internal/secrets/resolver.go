package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/rs/zerolog"
)

var (
	ErrNoKey         = errors.New("serpapi key not provided: set SERPAPI_KEY, pass a key, or set SERPAPI_SECRET_NAME")
	ErrMissingSecret = errors.New("secret has no SecretString")
)

const (
	EnvKey        = "SERPAPI_KEY"
	EnvSecretName = "SERPAPI_SECRET_NAME"
)

// secretKeyFields are looked up in JSON secrets, in order.
var secretKeyFields = []string{"SERPAPI_KEY", "serpapi_key", "key", "api_key"}

// SecretsManagerAPI is the part of the Secrets Manager client the resolver
// uses.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Resolver finds the provider API key: an explicit key, then the
// environment, then a Secrets Manager secret read through the cache.
type Resolver struct {
	Key        string
	SecretName string
	Client     SecretsManagerAPI
	Cache      *Cache
	Getenv     func(string) string
	Logger     zerolog.Logger
}

func (r *Resolver) APIKey(ctx context.Context) (string, error) {
	if key := strings.TrimSpace(r.Key); key != "" {
		return key, nil
	}
	getenv := r.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if key := strings.TrimSpace(getenv(EnvKey)); key != "" {
		return key, nil
	}

	name := strings.TrimSpace(r.SecretName)
	if name == "" {
		name = strings.TrimSpace(getenv(EnvSecretName))
	}
	if name == "" {
		return "", ErrNoKey
	}
	if r.Client == nil {
		return "", fmt.Errorf("read secret %q: no secrets manager client configured", name)
	}

	cache := r.Cache
	if cache == nil {
		cache = NewCache(DefaultTTL)
		r.Cache = cache
	}
	return cache.GetOrFetch(ctx, func(ctx context.Context) (string, error) {
		r.Logger.Debug().Str("secret", name).Msg("fetching api key from secrets manager")
		return r.fetch(ctx, name)
	})
}

func (r *Resolver) fetch(ctx context.Context, name string) (string, error) {
	out, err := r.Client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		return "", fmt.Errorf("unable to read secret %q from secrets manager: %w", name, err)
	}
	if out.SecretString == nil || *out.SecretString == "" {
		return "", fmt.Errorf("secret %q: %w", name, ErrMissingSecret)
	}
	key, err := ParseSecret(*out.SecretString)
	if err != nil {
		return "", fmt.Errorf("secret %q: %w", name, err)
	}
	return key, nil
}

// ParseSecret pulls the key out of a secret value. JSON objects must carry
// one of the known key fields; anything that is not JSON is the key itself.
func ParseSecret(secret string) (string, error) {
	var decoded any
	if err := json.Unmarshal([]byte(secret), &decoded); err != nil {
		return secret, nil
	}
	switch value := decoded.(type) {
	case map[string]any:
		for _, field := range secretKeyFields {
			if key, ok := value[field].(string); ok && key != "" {
				return key, nil
			}
		}
		return "", errors.New("JSON secret does not contain a SERPAPI_KEY field")
	case string:
		return value, nil
	default:
		return secret, nil
	}
}

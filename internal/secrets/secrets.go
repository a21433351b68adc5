// Package secrets resolves the LLM API key from the environment or AWS SSM
// Parameter Store.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/insight-studio/backend/internal/llm"
)

// DefaultEnvVar holds the API key when no other source is configured.
const DefaultEnvVar = "GROQ_API_KEY"

// EnvSource reads the key from an environment variable.
type EnvSource struct {
	Var string
}

func (s EnvSource) APIKey(context.Context) (string, error) {
	name := s.Var
	if name == "" {
		name = DefaultEnvVar
	}
	key := strings.TrimSpace(os.Getenv(name))
	if key == "" {
		return "", fmt.Errorf("%w: %s is not set", llm.ErrMissingAPIKey, name)
	}
	return key, nil
}

// ssmAPI is the part of *ssm.Client the parameter source needs.
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// ParamStoreSource reads the key from an SSM parameter, decrypted. The value
// may be the raw key or a JSON object {"token": "..."}.
type ParamStoreSource struct {
	api  ssmAPI
	name string
}

// NewParamStoreSource wraps an SSM API.
func NewParamStoreSource(api ssmAPI, name string) (*ParamStoreSource, error) {
	if api == nil {
		return nil, errors.New("secrets: ssm api must not be nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("secrets: parameter name is required")
	}
	return &ParamStoreSource{api: api, name: name}, nil
}

// LoadParamStoreSource builds an SSM client from the default AWS config chain.
func LoadParamStoreSource(ctx context.Context, region, name string) (*ParamStoreSource, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("secrets: load aws config: %w", err)
	}
	return NewParamStoreSource(ssm.NewFromConfig(cfg), name)
}

func (s *ParamStoreSource) APIKey(ctx context.Context) (string, error) {
	out, err := s.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(s.name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("secrets: get parameter %q: %w", s.name, err)
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("%w: parameter %q has no value", llm.ErrMissingAPIKey, s.name)
	}
	return parseToken(*out.Parameter.Value)
}

type tokenPayload struct {
	Token string `json:"token"`
}

func parseToken(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "{") {
		var tp tokenPayload
		if err := json.Unmarshal([]byte(raw), &tp); err != nil {
			return "", fmt.Errorf("secrets: parameter value is not valid JSON: %w", err)
		}
		raw = strings.TrimSpace(tp.Token)
	}
	if raw == "" {
		return "", fmt.Errorf("%w: token is empty", llm.ErrMissingAPIKey)
	}
	return raw, nil
}

// Chain tries each source in order and returns the first key found.
type Chain []llm.KeySource

func (c Chain) APIKey(ctx context.Context) (string, error) {
	var errs []error
	for _, src := range c {
		if src == nil {
			continue
		}
		key, err := src.APIKey(ctx)
		if err == nil && key != "" {
			return key, nil
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return "", llm.ErrMissingAPIKey
	}
	return "", fmt.Errorf("%w: %w", llm.ErrMissingAPIKey, errors.Join(errs...))
}

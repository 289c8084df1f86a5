package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/25thblame/prompt-shield/pkg/infra/oracle"
	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	stsTypes "github.com/aws/aws-sdk-go-v2/service/sts/types"
	"github.com/mitchellh/mapstructure"
)

const (
	ProviderName     = "bedrock"
	DefaultModel     = "anthropic.claude-3-haiku-20240307-v1:0"
	DefaultRegion    = "us-east-1"
	AnthropicVersion = "bedrock-2023-05-31"
	roleSessionName  = "PromptShieldSession"
)

// Options are read from oracle.options. Without static keys the default
// AWS credential chain is used.
type Options struct {
	Region       string `mapstructure:"region"`
	AccessKey    string `mapstructure:"access_key"`
	SecretKey    string `mapstructure:"secret_key"`
	SessionToken string `mapstructure:"session_token"`
	RoleARN      string `mapstructure:"role_arn"`
}

type RuntimeAPI interface {
	InvokeModel(
		ctx context.Context,
		params *bedrockruntime.InvokeModelInput,
		optFns ...func(*bedrockruntime.Options),
	) (*bedrockruntime.InvokeModelOutput, error)
}

type claudeRequest struct {
	AnthropicVersion string          `json:"anthropic_version"`
	MaxTokens        int             `json:"max_tokens"`
	System           string          `json:"system"`
	Messages         []claudeMessage `json:"messages"`
	Temperature      float64         `json:"temperature"`
}

type claudeMessage struct {
	Role    string          `json:"role"`
	Content []claudeContent `json:"content"`
}

type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

type Transport struct {
	runtime RuntimeAPI
}

func NewTransport(ctx context.Context, settings map[string]interface{}) (*Transport, error) {
	var options Options
	if len(settings) > 0 {
		if err := mapstructure.Decode(settings, &options); err != nil {
			return nil, fmt.Errorf("invalid bedrock options: %w", err)
		}
	}
	cfg, err := buildAwsConfig(ctx, options)
	if err != nil {
		return nil, err
	}
	return NewTransportWithRuntime(bedrockruntime.NewFromConfig(cfg, func(o *bedrockruntime.Options) {
		o.RetryMaxAttempts = 1
	})), nil
}

func NewTransportWithRuntime(runtime RuntimeAPI) *Transport {
	return &Transport{runtime: runtime}
}

func (t *Transport) Name() string {
	return ProviderName
}

func (t *Transport) Send(ctx context.Context, req oracle.Request) (string, error) {
	model := req.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = oracle.DefaultMaxTokens
	}

	body, err := json.Marshal(claudeRequest{
		AnthropicVersion: AnthropicVersion,
		MaxTokens:        maxTokens,
		System:           req.SystemPrompt,
		Messages: []claudeMessage{{
			Role:    "user",
			Content: []claudeContent{{Type: "text", Text: req.Input}},
		}},
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := t.runtime.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(model),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		var respErr *awshttp.ResponseError
		if errors.As(err, &respErr) {
			return "", oracle.NewStatusError(ProviderName, respErr.HTTPStatusCode(), err)
		}
		return "", fmt.Errorf("failed to invoke model: %w", err)
	}

	var parsed claudeResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	for _, content := range parsed.Content {
		if content.Type == "text" && strings.TrimSpace(content.Text) != "" {
			return strings.TrimSpace(content.Text), nil
		}
	}
	return "", fmt.Errorf("no text content returned")
}

func buildAwsConfig(ctx context.Context, options Options) (aws.Config, error) {
	region := options.Region
	if region == "" {
		region = DefaultRegion
	}

	if options.AccessKey == "" || options.SecretKey == "" {
		cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
		if err != nil {
			return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
		}
		return cfg, nil
	}

	if options.RoleARN != "" {
		creds, err := assumeRole(ctx, options.AccessKey, options.SecretKey, options.RoleARN, region)
		if err != nil {
			return aws.Config{}, err
		}
		return loadAWSConfig(ctx, *creds.AccessKeyId, *creds.SecretAccessKey, *creds.SessionToken, region)
	}
	return loadAWSConfig(ctx, options.AccessKey, options.SecretKey, options.SessionToken, region)
}

func loadAWSConfig(ctx context.Context, accessKey, secretKey, sessionToken, region string) (aws.Config, error) {
	return config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(aws.CredentialsProviderFunc(
			func(ctx context.Context) (aws.Credentials, error) {
				return aws.Credentials{
					AccessKeyID:     accessKey,
					SecretAccessKey: secretKey,
					SessionToken:    sessionToken,
				}, nil
			},
		)),
		config.WithRegion(region),
	)
}

func assumeRole(ctx context.Context, accessKey, secretKey, roleARN, region string) (*stsTypes.Credentials, error) {
	baseCfg, err := loadAWSConfig(ctx, accessKey, secretKey, "", region)
	if err != nil {
		return nil, fmt.Errorf("unable to load base AWS config: %w", err)
	}
	output, err := sts.NewFromConfig(baseCfg).AssumeRole(ctx, &sts.AssumeRoleInput{
		RoleArn:         aws.String(roleARN),
		RoleSessionName: aws.String(roleSessionName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to assume role: %w", err)
	}
	return output.Credentials, nil
}

// Package lmstudio talks to a local LM Studio server. LM Studio exposes
// an OpenAI-compatible API, so the client is the plain openai-go client
// pointed at the configured base URL.
package lmstudio

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/sirupsen/logrus"

	coreconfig "github.com/inkwell-cms/inkwell/core/config"
	domainGenerate "github.com/inkwell-cms/inkwell/domains/generate"
	pkgError "github.com/inkwell-cms/inkwell/pkg/error"
	"github.com/inkwell-cms/inkwell/pkg/retry"
)

type Provider struct {
	client       openai.Client
	defaultModel string
	timeout      time.Duration
	retryConfig  retry.Config
}

func NewProvider(cfg coreconfig.LLMConfig) *Provider {
	opts := []option.RequestOption{
		option.WithBaseURL(cfg.BaseURL),
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	retryConfig := retry.DefaultConfig()
	if cfg.MaxRetries > 0 {
		retryConfig.MaxAttempts = cfg.MaxRetries
	}
	retryConfig.InitialDelay = time.Second

	return &Provider{
		client:       openai.NewClient(opts...),
		defaultModel: cfg.Model,
		timeout:      timeout,
		retryConfig:  retryConfig,
	}
}

func (p *Provider) Name() string {
	return "lmstudio"
}

func (p *Provider) Generate(ctx context.Context, params domainGenerate.Params) (domainGenerate.Result, error) {
	model := params.Model
	if model == "" {
		model = p.defaultModel
	}
	if model == "" {
		// LM Studio serves whatever model is loaded; pick the first one.
		models, err := p.Models(ctx)
		if err != nil || len(models) == 0 {
			return domainGenerate.Result{}, pkgError.UpstreamError("no model loaded in LM Studio and none configured")
		}
		model = models[0]
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if params.System != "" {
		messages = append(messages, openai.SystemMessage(params.System))
	}
	messages = append(messages, openai.UserMessage(params.Prompt))

	request := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: messages,
	}
	if params.MaxTokens > 0 {
		request.MaxTokens = openai.Int(int64(params.MaxTokens))
	}
	if params.Temperature > 0 {
		request.Temperature = openai.Float(params.Temperature)
	}

	start := time.Now()
	var completion *openai.ChatCompletion

	err := retry.Retry(ctx, p.retryConfig, func() error {
		callCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()

		var callErr error
		completion, callErr = p.client.Chat.Completions.New(callCtx, request)
		return callErr
	})
	if err != nil {
		return domainGenerate.Result{}, pkgError.UpstreamError(fmt.Sprintf("LM Studio request failed: %v", err))
	}
	if len(completion.Choices) == 0 {
		return domainGenerate.Result{}, pkgError.UpstreamError("LM Studio returned no choices")
	}

	result := domainGenerate.Result{
		Text:             completion.Choices[0].Message.Content,
		Model:            model,
		PromptTokens:     int(completion.Usage.PromptTokens),
		CompletionTokens: int(completion.Usage.CompletionTokens),
		DurationSeconds:  time.Since(start).Seconds(),
	}

	logrus.WithFields(logrus.Fields{
		"model":             result.Model,
		"prompt_tokens":     result.PromptTokens,
		"completion_tokens": result.CompletionTokens,
		"duration_s":        fmt.Sprintf("%.2f", result.DurationSeconds),
	}).Debug("[LLM] LM Studio generation completed")

	return result, nil
}

func (p *Provider) Models(ctx context.Context) ([]string, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	page, err := p.client.Models.List(callCtx)
	if err != nil {
		return nil, pkgError.UpstreamError(fmt.Sprintf("failed to list LM Studio models: %v", err))
	}

	models := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		models = append(models, m.ID)
	}
	return models, nil
}

func (p *Provider) Healthy(ctx context.Context) bool {
	callCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := p.client.Models.List(callCtx)
	return err == nil
}

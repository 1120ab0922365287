// Package gemini is the fallback text-generation provider, used when a
// Gemini API key is configured and LM Studio is not the chosen backend.
package gemini

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"

	coreconfig "github.com/inkwell-cms/inkwell/core/config"
	domainGenerate "github.com/inkwell-cms/inkwell/domains/generate"
	pkgError "github.com/inkwell-cms/inkwell/pkg/error"
	"github.com/inkwell-cms/inkwell/pkg/retry"
)

const defaultModel = "gemini-2.0-flash"

type Provider struct {
	apiKey       string
	defaultModel string
	timeout      time.Duration
	retryConfig  retry.Config
}

func NewProvider(cfg coreconfig.LLMConfig) *Provider {
	model := cfg.GeminiModel
	if model == "" {
		model = defaultModel
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
		apiKey:       cfg.GeminiAPIKey,
		defaultModel: model,
		timeout:      timeout,
		retryConfig:  retryConfig,
	}
}

func (p *Provider) Name() string {
	return "gemini"
}

func (p *Provider) newClient(ctx context.Context) (*genai.Client, error) {
	if p.apiKey == "" {
		return nil, pkgError.UpstreamError("GEMINI_API_KEY is not configured")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, pkgError.UpstreamError(fmt.Sprintf("failed to create Gemini client: %v", err))
	}
	return client, nil
}

func (p *Provider) Generate(ctx context.Context, params domainGenerate.Params) (domainGenerate.Result, error) {
	client, err := p.newClient(ctx)
	if err != nil {
		return domainGenerate.Result{}, err
	}

	model := params.Model
	if model == "" {
		model = p.defaultModel
	}

	config := &genai.GenerateContentConfig{}
	if params.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: params.System}},
		}
	}
	if params.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(params.Temperature))
	}
	if params.MaxTokens > 0 {
		config.MaxOutputTokens = int32(params.MaxTokens)
	}

	start := time.Now()
	var response *genai.GenerateContentResponse

	err = retry.Retry(ctx, p.retryConfig, func() error {
		callCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()

		var callErr error
		response, callErr = client.Models.GenerateContent(callCtx, model, genai.Text(params.Prompt), config)
		return callErr
	})
	if err != nil {
		return domainGenerate.Result{}, pkgError.UpstreamError(fmt.Sprintf("Gemini request failed: %v", err))
	}

	text := response.Text()
	if text == "" {
		return domainGenerate.Result{}, pkgError.UpstreamError("Gemini returned an empty response")
	}

	result := domainGenerate.Result{
		Text:            text,
		Model:           model,
		DurationSeconds: time.Since(start).Seconds(),
	}
	if response.UsageMetadata != nil {
		result.PromptTokens = int(response.UsageMetadata.PromptTokenCount)
		result.CompletionTokens = int(response.UsageMetadata.CandidatesTokenCount)
	}

	logrus.WithFields(logrus.Fields{
		"model":             result.Model,
		"prompt_tokens":     result.PromptTokens,
		"completion_tokens": result.CompletionTokens,
		"duration_s":        fmt.Sprintf("%.2f", result.DurationSeconds),
	}).Debug("[LLM] Gemini generation completed")

	return result, nil
}

func (p *Provider) Models(ctx context.Context) ([]string, error) {
	client, err := p.newClient(ctx)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	page, err := client.Models.List(callCtx, nil)
	if err != nil {
		return nil, pkgError.UpstreamError(fmt.Sprintf("failed to list Gemini models: %v", err))
	}

	models := make([]string, 0, len(page.Items))
	for _, m := range page.Items {
		models = append(models, m.Name)
	}
	return models, nil
}

func (p *Provider) Healthy(ctx context.Context) bool {
	client, err := p.newClient(ctx)
	if err != nil {
		return false
	}

	callCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err = client.Models.List(callCtx, nil)
	return err == nil
}

package generate

import "context"

// Params is a provider-agnostic text generation request.
type Params struct {
	System      string
	Prompt      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// Result carries the generated text plus accounting data.
type Result struct {
	Text             string  `json:"text"`
	Model            string  `json:"model"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	DurationSeconds  float64 `json:"duration_seconds"`
}

// Provider is implemented by each inference backend (LM Studio, Gemini).
type Provider interface {
	Name() string
	Generate(ctx context.Context, params Params) (Result, error)
	Models(ctx context.Context) ([]string, error)
	Healthy(ctx context.Context) bool
}

// BlogDraft is the parsed output of a blog generation prompt.
type BlogDraft struct {
	Title   string
	Content string
	Result  Result
}

// SocialDraft is the parsed output of a social generation prompt.
type SocialDraft struct {
	Content  string
	Hashtags []string
	Result   Result
}

type IGenerateUsecase interface {
	BlogPost(ctx context.Context, topic, length string, keywords []string, audience, purpose, sourceURL, model string) (BlogDraft, error)
	SocialPost(ctx context.Context, platform, topic, tone, model string) (SocialDraft, error)
	Models(ctx context.Context) ([]string, error)
	ProviderName() string
	Healthy(ctx context.Context) bool
}

package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	domainGenerate "github.com/inkwell-cms/inkwell/domains/generate"
	domainSocial "github.com/inkwell-cms/inkwell/domains/social"
	pkgError "github.com/inkwell-cms/inkwell/pkg/error"
	"github.com/inkwell-cms/inkwell/pkg/webmeta"
)

// wordsForLength maps the API's length names to word targets.
var wordsForLength = map[string]int{
	"short":  300,
	"medium": 600,
	"long":   1200,
}

const generationTemperature = 0.7

type generateService struct {
	provider domainGenerate.Provider
}

// NewGenerateService builds prompts and parses provider output. The
// provider is chosen at wiring time (LM Studio default, Gemini when
// configured).
func NewGenerateService(provider domainGenerate.Provider) domainGenerate.IGenerateUsecase {
	return &generateService{provider: provider}
}

func (s *generateService) ProviderName() string {
	return s.provider.Name()
}

func (s *generateService) Models(ctx context.Context) ([]string, error) {
	return s.provider.Models(ctx)
}

func (s *generateService) Healthy(ctx context.Context) bool {
	return s.provider.Healthy(ctx)
}

func (s *generateService) BlogPost(ctx context.Context, topic, length string, keywords []string, audience, purpose, sourceURL, model string) (domainGenerate.BlogDraft, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return domainGenerate.BlogDraft{}, pkgError.ValidationError("topic: cannot be blank.")
	}

	words, ok := wordsForLength[length]
	if !ok {
		if length != "" {
			return domainGenerate.BlogDraft{}, pkgError.ValidationError(fmt.Sprintf("length: must be short, medium or long, got %q.", length))
		}
		words = wordsForLength["medium"]
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Write a blog post about %q of roughly %d words.\n", topic, words)
	fmt.Fprintf(&prompt, "Start with the title on the first line, then a blank line, then the body in Markdown.\n")
	if len(keywords) > 0 {
		fmt.Fprintf(&prompt, "Work these keywords in naturally: %s.\n", strings.Join(keywords, ", "))
	}
	if audience != "" {
		fmt.Fprintf(&prompt, "Target audience: %s.\n", audience)
	}
	if purpose != "" {
		fmt.Fprintf(&prompt, "Content purpose: %s.\n", purpose)
	}

	if sourceURL != "" {
		meta, err := webmeta.Fetch(ctx, sourceURL)
		if err != nil {
			logrus.WithError(err).Warnf("[LLM] Could not research source URL %s; generating without it", sourceURL)
		} else if meta.Excerpt != "" || meta.Title != "" {
			fmt.Fprintf(&prompt, "\nUse the following source material as factual grounding:\nTitle: %s\n%s\n", meta.Title, meta.Excerpt)
		}
	}

	result, err := s.provider.Generate(ctx, domainGenerate.Params{
		System:      "You are a professional content writer for a company blog. Write clear, engaging Markdown.",
		Prompt:      prompt.String(),
		Model:       model,
		MaxTokens:   words * 3,
		Temperature: generationTemperature,
	})
	if err != nil {
		return domainGenerate.BlogDraft{}, err
	}

	title, content := splitTitle(result.Text)
	if title == "" {
		title = topic
	}

	return domainGenerate.BlogDraft{
		Title:   title,
		Content: content,
		Result:  result,
	}, nil
}

func (s *generateService) SocialPost(ctx context.Context, platform, topic, tone, model string) (domainGenerate.SocialDraft, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return domainGenerate.SocialDraft{}, pkgError.ValidationError("topic: cannot be blank.")
	}

	parsed, ok := domainSocial.ParsePlatform(platform)
	if !ok {
		return domainGenerate.SocialDraft{}, pkgError.ValidationError(fmt.Sprintf("platform: unsupported platform %q.", platform))
	}
	constraints := domainSocial.PlatformConstraints[parsed]

	if tone == "" {
		tone = "engaging"
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Write a %s post for %s about %q.\n", tone, parsed, topic)
	fmt.Fprintf(&prompt, "Hard limit: %d characters including spaces. Stay well under it.\n", constraints.CharLimit)
	fmt.Fprintf(&prompt, "End with a line starting with \"hashtags:\" listing 3-5 relevant hashtags.\n")

	result, err := s.provider.Generate(ctx, domainGenerate.Params{
		System:      "You are a social media copywriter. Output only the post text, no commentary.",
		Prompt:      prompt.String(),
		Model:       model,
		MaxTokens:   constraints.CharLimit/2 + 200,
		Temperature: generationTemperature,
	})
	if err != nil {
		return domainGenerate.SocialDraft{}, err
	}

	content, hashtags := splitHashtags(result.Text)

	return domainGenerate.SocialDraft{
		Content:  content,
		Hashtags: hashtags,
		Result:   result,
	}, nil
}

// splitTitle pulls the title line off generated blog text, tolerating a
// Markdown heading or a "Title:" prefix.
func splitTitle(text string) (string, string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ""
	}

	lines := strings.SplitN(text, "\n", 2)
	title := strings.TrimSpace(lines[0])
	title = strings.TrimLeft(title, "# ")
	title = strings.TrimPrefix(title, "Title:")
	title = strings.Trim(strings.TrimSpace(title), `"`)

	content := ""
	if len(lines) > 1 {
		content = strings.TrimSpace(lines[1])
	}
	if content == "" {
		// Single block of text; keep it all as content.
		return "", text
	}
	return title, content
}

// splitHashtags strips the trailing "hashtags:" line the prompt asks
// for and collects the tags, with and without the # prefix.
func splitHashtags(text string) (string, []string) {
	text = strings.TrimSpace(text)
	lines := strings.Split(text, "\n")

	var hashtags []string
	var kept []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		if strings.HasPrefix(lower, "hashtags:") {
			raw := strings.TrimSpace(trimmed[len("hashtags:"):])
			for _, tag := range strings.Fields(strings.ReplaceAll(raw, ",", " ")) {
				tag = strings.TrimPrefix(tag, "#")
				if tag != "" {
					hashtags = append(hashtags, tag)
				}
			}
			continue
		}
		kept = append(kept, line)
	}

	content := strings.TrimSpace(strings.Join(kept, "\n"))

	// Tags embedded in the body still count.
	if len(hashtags) == 0 {
		for _, field := range strings.Fields(content) {
			if strings.HasPrefix(field, "#") && len(field) > 1 {
				hashtags = append(hashtags, strings.Trim(field[1:], ".,!?"))
			}
		}
	}

	return content, hashtags
}

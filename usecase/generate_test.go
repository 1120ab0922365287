package usecase

import (
	"context"
	"strings"
	"testing"

	domainGenerate "github.com/inkwell-cms/inkwell/domains/generate"
)

// stubProvider records the last request so prompt-building can be
// asserted without a live backend.
type stubProvider struct {
	lastParams domainGenerate.Params
	text       string
	err        error
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Generate(ctx context.Context, params domainGenerate.Params) (domainGenerate.Result, error) {
	p.lastParams = params
	if p.err != nil {
		return domainGenerate.Result{}, p.err
	}
	return domainGenerate.Result{Text: p.text, Model: "stub-model"}, nil
}

func (p *stubProvider) Models(ctx context.Context) ([]string, error) {
	return []string{"stub-model"}, nil
}

func (p *stubProvider) Healthy(ctx context.Context) bool { return true }

func TestGenerateBlogPostParsesTitle(t *testing.T) {
	provider := &stubProvider{text: "# Why Go\n\nGo is a practical language."}
	svc := NewGenerateService(provider)

	draft, err := svc.BlogPost(context.Background(), "go", "short", []string{"golang"}, "engineers", "education", "", "")
	if err != nil {
		t.Fatalf("blog post: %v", err)
	}
	if draft.Title != "Why Go" {
		t.Fatalf("expected title stripped of heading marker, got %q", draft.Title)
	}
	if draft.Content != "Go is a practical language." {
		t.Fatalf("unexpected content: %q", draft.Content)
	}
	if !strings.Contains(provider.lastParams.Prompt, "300 words") {
		t.Fatalf("expected word target in prompt, got %q", provider.lastParams.Prompt)
	}
	if !strings.Contains(provider.lastParams.Prompt, "golang") {
		t.Fatal("expected keywords worked into the prompt")
	}
}

func TestGenerateBlogPostRejectsBadLength(t *testing.T) {
	svc := NewGenerateService(&stubProvider{text: "x"})

	if _, err := svc.BlogPost(context.Background(), "go", "enormous", nil, "", "", "", ""); err == nil {
		t.Fatal("expected error for unknown length")
	}
	if _, err := svc.BlogPost(context.Background(), "  ", "", nil, "", "", "", ""); err == nil {
		t.Fatal("expected error for blank topic")
	}
}

func TestGenerateSocialPostExtractsHashtags(t *testing.T) {
	provider := &stubProvider{text: "Ship day is here!\nhashtags: #golang #release, #shipit"}
	svc := NewGenerateService(provider)

	draft, err := svc.SocialPost(context.Background(), "twitter", "release", "", "")
	if err != nil {
		t.Fatalf("social post: %v", err)
	}
	if draft.Content != "Ship day is here!" {
		t.Fatalf("expected hashtags line stripped, got %q", draft.Content)
	}
	want := []string{"golang", "release", "shipit"}
	if len(draft.Hashtags) != len(want) {
		t.Fatalf("expected %v, got %v", want, draft.Hashtags)
	}
	for i, tag := range want {
		if draft.Hashtags[i] != tag {
			t.Fatalf("expected %v, got %v", want, draft.Hashtags)
		}
	}
	if !strings.Contains(provider.lastParams.Prompt, "280 characters") {
		t.Fatal("expected the platform char limit in the prompt")
	}
}

func TestSplitTitle(t *testing.T) {
	cases := []struct {
		in      string
		title   string
		content string
	}{
		{"# Heading\n\nBody", "Heading", "Body"},
		{"Title: Quoted\n\nBody", "Quoted", "Body"},
		{`"Plain"` + "\n\nBody", "Plain", "Body"},
		{"just one block of text", "", "just one block of text"},
		{"", "", ""},
	}
	for _, c := range cases {
		title, content := splitTitle(c.in)
		if title != c.title || content != c.content {
			t.Errorf("splitTitle(%q) = (%q, %q), want (%q, %q)", c.in, title, content, c.title, c.content)
		}
	}
}

func TestSplitHashtagsFallsBackToInlineTags(t *testing.T) {
	content, tags := splitHashtags("Loving #golang today! #coding")
	if content != "Loving #golang today! #coding" {
		t.Fatalf("inline tags must stay in the content, got %q", content)
	}
	if len(tags) != 2 || tags[0] != "golang" || tags[1] != "coding" {
		t.Fatalf("expected inline tags collected, got %v", tags)
	}
}

package blog

import (
	"context"
	"time"
)

// Status is the editorial state of a blog post, independent of whether
// it has been published by the scheduler.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusReview    Status = "review"
	StatusApproved  Status = "approved"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusDraft, StatusReview, StatusApproved, StatusPublished, StatusArchived:
		return Status(s), true
	default:
		return "", false
	}
}

// GenerationMeta records how a post was produced when the LLM wrote it.
type GenerationMeta struct {
	Model            string  `json:"model,omitempty"`
	RequestedWords   int     `json:"requested_words,omitempty"`
	PromptTokens     int     `json:"prompt_tokens,omitempty"`
	CompletionTokens int     `json:"completion_tokens,omitempty"`
	DurationSeconds  float64 `json:"duration_seconds,omitempty"`
	SourceURL        string  `json:"source_url,omitempty"`
}

type BlogPost struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Content        string          `json:"content"`
	Topic          string          `json:"topic"`
	Keywords       []string        `json:"keywords,omitempty"`
	Status         Status          `json:"status"`
	Published      bool            `json:"published"`
	PublishedAt    *time.Time      `json:"published_at,omitempty"`
	TargetAudience string          `json:"target_audience,omitempty"`
	ContentPurpose string          `json:"content_purpose,omitempty"`
	QualityScore   *float64        `json:"quality_score,omitempty"`
	GenerationMeta *GenerationMeta `json:"generation_meta,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type CreateBlogPostRequest struct {
	Title          string   `json:"title"`
	Content        string   `json:"content"`
	Topic          string   `json:"topic"`
	Keywords       []string `json:"keywords,omitempty"`
	Status         string   `json:"status,omitempty"`
	TargetAudience string   `json:"target_audience,omitempty"`
	ContentPurpose string   `json:"content_purpose,omitempty"`
}

type UpdateBlogPostRequest struct {
	Title          *string  `json:"title,omitempty"`
	Content        *string  `json:"content,omitempty"`
	Topic          *string  `json:"topic,omitempty"`
	Keywords       []string `json:"keywords,omitempty"`
	Status         *string  `json:"status,omitempty"`
	TargetAudience *string  `json:"target_audience,omitempty"`
	ContentPurpose *string  `json:"content_purpose,omitempty"`
	QualityScore   *float64 `json:"quality_score,omitempty"`
}

type ListBlogPostsRequest struct {
	Status string `query:"status"`
	Limit  int    `query:"limit"`
	Offset int    `query:"offset"`
}

type GenerateBlogPostRequest struct {
	Topic          string   `json:"topic"`
	Length         string   `json:"length,omitempty"` // short | medium | long
	Keywords       []string `json:"keywords,omitempty"`
	TargetAudience string   `json:"target_audience,omitempty"`
	ContentPurpose string   `json:"content_purpose,omitempty"`
	SourceURL      string   `json:"source_url,omitempty"`
	Model          string   `json:"model,omitempty"`
}

type IBlogUsecase interface {
	Create(ctx context.Context, request CreateBlogPostRequest) (BlogPost, error)
	List(ctx context.Context, request ListBlogPostsRequest) ([]BlogPost, error)
	Get(ctx context.Context, postID string) (BlogPost, error)
	Update(ctx context.Context, postID string, request UpdateBlogPostRequest) (BlogPost, error)
	Publish(ctx context.Context, postID string) (BlogPost, error)
	Delete(ctx context.Context, postID string) error
	Generate(ctx context.Context, request GenerateBlogPostRequest) (BlogPost, error)
}

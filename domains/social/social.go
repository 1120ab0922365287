package social

import (
	"context"
	"mime/multipart"
	"time"
)

// Platform is a supported social network.
type Platform string

const (
	PlatformTwitter   Platform = "twitter"
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformLinkedIn  Platform = "linkedin"
)

func ParsePlatform(s string) (Platform, bool) {
	switch Platform(s) {
	case PlatformTwitter, PlatformFacebook, PlatformInstagram, PlatformLinkedIn:
		return Platform(s), true
	default:
		return "", false
	}
}

// Constraints are the per-platform publishing rules enforced before a
// post can go live.
type Constraints struct {
	CharLimit     int
	MediaCount    int
	RequiresMedia bool
}

// PlatformConstraints mirrors each network's documented limits.
var PlatformConstraints = map[Platform]Constraints{
	PlatformTwitter:   {CharLimit: 280, MediaCount: 4},
	PlatformFacebook:  {CharLimit: 63206, MediaCount: 10},
	PlatformInstagram: {CharLimit: 2200, MediaCount: 10, RequiresMedia: true},
	PlatformLinkedIn:  {CharLimit: 3000, MediaCount: 9},
}

type Status string

const (
	StatusDraft     Status = "draft"
	StatusScheduled Status = "scheduled"
	StatusPublished Status = "published"
	StatusFailed    Status = "failed"
)

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusDraft, StatusScheduled, StatusPublished, StatusFailed:
		return Status(s), true
	default:
		return "", false
	}
}

type GenerationMeta struct {
	Model            string  `json:"model,omitempty"`
	PromptTokens     int     `json:"prompt_tokens,omitempty"`
	CompletionTokens int     `json:"completion_tokens,omitempty"`
	DurationSeconds  float64 `json:"duration_seconds,omitempty"`
}

type SocialPost struct {
	ID             string          `json:"id"`
	Platform       Platform        `json:"platform"`
	Content        string          `json:"content"`
	Topic          string          `json:"topic"`
	Hashtags       []string        `json:"hashtags,omitempty"`
	Status         Status          `json:"status"`
	Published      bool            `json:"published"`
	PublishedAt    *time.Time      `json:"published_at,omitempty"`
	ScheduledAt    *time.Time      `json:"scheduled_at,omitempty"`
	ErrorMessage   *string         `json:"error_message,omitempty"`
	MediaPaths     []string        `json:"media_paths,omitempty"`
	GenerationMeta *GenerationMeta `json:"generation_meta,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type CreateSocialPostRequest struct {
	Platform string   `json:"platform"`
	Content  string   `json:"content"`
	Topic    string   `json:"topic"`
	Hashtags []string `json:"hashtags,omitempty"`
	Status   string   `json:"status,omitempty"`
}

type UpdateSocialPostRequest struct {
	Content  *string  `json:"content,omitempty"`
	Topic    *string  `json:"topic,omitempty"`
	Hashtags []string `json:"hashtags,omitempty"`
	Status   *string  `json:"status,omitempty"`
}

type ListSocialPostsRequest struct {
	Platform string `query:"platform"`
	Status   string `query:"status"`
	Limit    int    `query:"limit"`
	Offset   int    `query:"offset"`
}

type GenerateSocialPostRequest struct {
	Platform string `json:"platform"`
	Topic    string `json:"topic"`
	Tone     string `json:"tone,omitempty"`
	Model    string `json:"model,omitempty"`
}

// MediaUploadResult describes one stored attachment.
type MediaUploadResult struct {
	Path          string `json:"path"`
	ThumbnailPath string `json:"thumbnail_path,omitempty"`
	Size          int64  `json:"size"`
	HumanSize     string `json:"human_size"`
	TotalStored   string `json:"total_stored"`
}

type ISocialUsecase interface {
	Create(ctx context.Context, request CreateSocialPostRequest) (SocialPost, error)
	List(ctx context.Context, request ListSocialPostsRequest) ([]SocialPost, error)
	Get(ctx context.Context, postID string) (SocialPost, error)
	Update(ctx context.Context, postID string, request UpdateSocialPostRequest) (SocialPost, error)
	Publish(ctx context.Context, postID string) (SocialPost, error)
	Delete(ctx context.Context, postID string) error
	Generate(ctx context.Context, request GenerateSocialPostRequest) (SocialPost, error)
	UploadMedia(ctx context.Context, postID string, file *multipart.FileHeader) (MediaUploadResult, error)
}

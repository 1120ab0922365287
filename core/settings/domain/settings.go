package domain

import "context"

// ValueType tags how a stored setting value should be interpreted.
type ValueType string

const (
	TypeString  ValueType = "string"
	TypeInteger ValueType = "integer"
	TypeFloat   ValueType = "float"
	TypeBoolean ValueType = "boolean"
	TypeJSON    ValueType = "json"
)

// Setting is a dynamic configuration value stored in the database.
// Values are kept as strings; ValueType drives the typed accessors.
type Setting struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	ValueType   ValueType `json:"value_type"`
	Group       string    `json:"group,omitempty"`
	Description string    `json:"description,omitempty"`
}

// ISettingsRepository defines the contract for persisting dynamic settings.
type ISettingsRepository interface {
	Get(ctx context.Context, key string) (*Setting, error)
	Set(ctx context.Context, setting Setting) error
	Delete(ctx context.Context, key string) error
	GetGroup(ctx context.Context, group string) ([]Setting, error)
	DeleteGroup(ctx context.Context, group string) error
	GetByPrefix(ctx context.Context, prefix string) ([]Setting, error)

	// InitSchema creates the necessary tables.
	InitSchema(ctx context.Context) error
}

// Common keys defined in the system.
const (
	KeySiteName             = "site_name"
	KeySiteURL              = "site_url"
	KeyDefaultBlogAudience  = "default_blog_audience"
	KeyDefaultSocialTone    = "default_social_tone"
	KeySchedulerPaused      = "scheduler_paused"
	KeyGenerationTemp       = "generation_temperature"
	KeyAnalyticsRetainDays  = "analytics_retain_days"
)

package keyword

import "context"

type Status string

const (
	StatusActive   Status = "active"
	StatusPaused   Status = "paused"
	StatusArchived Status = "archived"
)

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusActive, StatusPaused, StatusArchived:
		return Status(s), true
	default:
		return "", false
	}
}

type Keyword struct {
	ID           string  `json:"id"`
	Text         string  `json:"text"`
	Status       Status  `json:"status"`
	SearchVolume int     `json:"search_volume"`
	Difficulty   float64 `json:"difficulty"`
	CPC          float64 `json:"cpc"`
	Clicks       int     `json:"clicks"`
	Impressions  int     `json:"impressions"`
	Position     float64 `json:"position"`
	// CTR is derived from clicks/impressions; zero when there are no
	// impressions yet.
	CTR float64 `json:"ctr"`
}

type CreateKeywordRequest struct {
	Text         string  `json:"text"`
	Status       string  `json:"status,omitempty"`
	SearchVolume int     `json:"search_volume,omitempty"`
	Difficulty   float64 `json:"difficulty,omitempty"`
	CPC          float64 `json:"cpc,omitempty"`
}

type UpdateKeywordRequest struct {
	Text         *string  `json:"text,omitempty"`
	Status       *string  `json:"status,omitempty"`
	SearchVolume *int     `json:"search_volume,omitempty"`
	Difficulty   *float64 `json:"difficulty,omitempty"`
	CPC          *float64 `json:"cpc,omitempty"`
}

type RecordPerformanceRequest struct {
	Clicks      int     `json:"clicks"`
	Impressions int     `json:"impressions"`
	Position    float64 `json:"position,omitempty"`
}

type BatchStatusRequest struct {
	IDs    []string `json:"ids"`
	Status string   `json:"status"`
}

type BatchDeleteRequest struct {
	IDs []string `json:"ids"`
}

// Metrics aggregates performance over all keywords.
type Metrics struct {
	TotalKeywords    int     `json:"total_keywords"`
	ActiveKeywords   int     `json:"active_keywords"`
	TotalClicks      int     `json:"total_clicks"`
	TotalImpressions int     `json:"total_impressions"`
	AverageCTR       float64 `json:"average_ctr"`
	AveragePosition  float64 `json:"average_position"`
}

type IKeywordUsecase interface {
	Create(ctx context.Context, request CreateKeywordRequest) (Keyword, error)
	List(ctx context.Context, status string) ([]Keyword, error)
	Get(ctx context.Context, keywordID string) (Keyword, error)
	Update(ctx context.Context, keywordID string, request UpdateKeywordRequest) (Keyword, error)
	Delete(ctx context.Context, keywordID string) error
	BatchDelete(ctx context.Context, request BatchDeleteRequest) (int, error)
	BatchStatus(ctx context.Context, request BatchStatusRequest) (int, error)
	Search(ctx context.Context, query string) ([]Keyword, error)
	Metrics(ctx context.Context) (Metrics, error)
	TopPerforming(ctx context.Context, limit int) ([]Keyword, error)
	RecordPerformance(ctx context.Context, keywordID string, request RecordPerformanceRequest) (Keyword, error)
	LinkBlogPost(ctx context.Context, keywordID, blogPostID string) error
	BlogPostsForKeyword(ctx context.Context, keywordID string) ([]string, error)
}

package analytics

import (
	"context"
	"time"
)

// WebsiteMetric is one day of site-wide traffic numbers.
type WebsiteMetric struct {
	ID                string    `json:"id"`
	Date              time.Time `json:"date"`
	Visitors          int       `json:"visitors"`
	PageViews         int       `json:"page_views"`
	Impressions       int       `json:"impressions"`
	Clicks            int       `json:"clicks"`
	AvgSessionSeconds float64   `json:"avg_session_seconds"`
}

// PageAnalytic is one day of per-page traffic.
type PageAnalytic struct {
	ID             string    `json:"id"`
	Path           string    `json:"path"`
	Title          string    `json:"title"`
	Views          int       `json:"views"`
	UniqueVisitors int       `json:"unique_visitors"`
	AvgTimeSeconds float64   `json:"avg_time_seconds"`
	Date           time.Time `json:"date"`
}

type RecordMetricRequest struct {
	Date              string  `json:"date"` // YYYY-MM-DD, defaults to today
	Visitors          int     `json:"visitors"`
	PageViews         int     `json:"page_views"`
	Impressions       int     `json:"impressions"`
	Clicks            int     `json:"clicks"`
	AvgSessionSeconds float64 `json:"avg_session_seconds"`
}

type RecordPageViewRequest struct {
	Path           string  `json:"path"`
	Title          string  `json:"title,omitempty"`
	Views          int     `json:"views"`
	UniqueVisitors int     `json:"unique_visitors"`
	AvgTimeSeconds float64 `json:"avg_time_seconds"`
	Date           string  `json:"date,omitempty"`
}

// Overview aggregates a period.
type Overview struct {
	Days              int     `json:"days"`
	Visitors          int     `json:"visitors"`
	PageViews         int     `json:"page_views"`
	Impressions       int     `json:"impressions"`
	Clicks            int     `json:"clicks"`
	AvgSessionSeconds float64 `json:"avg_session_seconds"`
	CTR               float64 `json:"ctr"`
}

// Trend compares the current period with the previous one of the same
// length; Change* fields are percentages.
type Trend struct {
	Current         Overview `json:"current"`
	Previous        Overview `json:"previous"`
	ChangeVisitors  float64  `json:"change_visitors"`
	ChangePageViews float64  `json:"change_page_views"`
	ChangeClicks    float64  `json:"change_clicks"`
}

type SeriesPoint struct {
	Date  string `json:"date"`
	Value int    `json:"value"`
}

type Dashboard struct {
	Overview Overview       `json:"overview"`
	Trend    Trend          `json:"trend"`
	TopPages []PageAnalytic `json:"top_pages"`
}

type IAnalyticsUsecase interface {
	Record(ctx context.Context, request RecordMetricRequest) (WebsiteMetric, error)
	RecordPageView(ctx context.Context, request RecordPageViewRequest) (PageAnalytic, error)
	Overview(ctx context.Context, days int) (Overview, error)
	Trends(ctx context.Context, days int) (Trend, error)
	Series(ctx context.Context, metric string, days int) ([]SeriesPoint, error)
	TopPages(ctx context.Context, days, limit int) ([]PageAnalytic, error)
	Dashboard(ctx context.Context, days int) (Dashboard, error)

	// RefreshPageTitle fetches the page and stores its <title> (or
	// og:title) for nicer reporting.
	RefreshPageTitle(ctx context.Context, path string) (PageAnalytic, error)

	// RollUpDaily folds yesterday's page analytics into the website
	// metric row; wired to the runner's @daily cron.
	RollUpDaily(ctx context.Context) error
}

package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	coreconfig "github.com/inkwell-cms/inkwell/core/config"
	domainAnalytics "github.com/inkwell-cms/inkwell/domains/analytics"
	pkgError "github.com/inkwell-cms/inkwell/pkg/error"
	"github.com/inkwell-cms/inkwell/pkg/webmeta"
)

const dateLayout = "2006-01-02"

// --- Persistence Models ---

type websiteMetricModel struct {
	ID                string    `gorm:"primaryKey;column:id"`
	Date              time.Time `gorm:"column:date;uniqueIndex;not null"`
	Visitors          int       `gorm:"column:visitors;default:0"`
	PageViews         int       `gorm:"column:page_views;default:0"`
	Impressions       int       `gorm:"column:impressions;default:0"`
	Clicks            int       `gorm:"column:clicks;default:0"`
	AvgSessionSeconds float64   `gorm:"column:avg_session_seconds;default:0"`
}

func (websiteMetricModel) TableName() string {
	return "website_metrics"
}

type pageAnalyticModel struct {
	ID             string    `gorm:"primaryKey;column:id"`
	Path           string    `gorm:"column:path;not null;uniqueIndex:idx_page_date"`
	Title          string    `gorm:"column:title"`
	Views          int       `gorm:"column:views;default:0"`
	UniqueVisitors int       `gorm:"column:unique_visitors;default:0"`
	AvgTimeSeconds float64   `gorm:"column:avg_time_seconds;default:0"`
	Date           time.Time `gorm:"column:date;not null;uniqueIndex:idx_page_date"`
}

func (pageAnalyticModel) TableName() string {
	return "page_analytics"
}

type analyticsService struct {
	db *gorm.DB
}

func NewAnalyticsService(db *gorm.DB) domainAnalytics.IAnalyticsUsecase {
	s := &analyticsService{db: db}
	if db != nil {
		if err := db.AutoMigrate(&websiteMetricModel{}, &pageAnalyticModel{}); err != nil {
			logrus.WithError(err).Error("[ANALYTICS] failed to init schema")
		}
	} else {
		logrus.Error("[ANALYTICS] GORM DB is nil, service will be disabled")
	}
	return s
}

func (s *analyticsService) ensureDB() error {
	if s.db == nil {
		return pkgError.InternalServerError("analytics storage is not initialized")
	}
	return nil
}

// parseDay normalizes a YYYY-MM-DD string to midnight UTC; empty means
// today.
func parseDay(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	day, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, pkgError.ValidationError(fmt.Sprintf("date: expected YYYY-MM-DD, got %q", value))
	}
	return day.UTC(), nil
}

func (s *analyticsService) Record(ctx context.Context, request domainAnalytics.RecordMetricRequest) (domainAnalytics.WebsiteMetric, error) {
	if err := s.ensureDB(); err != nil {
		return domainAnalytics.WebsiteMetric{}, err
	}

	day, err := parseDay(request.Date)
	if err != nil {
		return domainAnalytics.WebsiteMetric{}, err
	}

	model := websiteMetricModel{
		ID:                uuid.NewString(),
		Date:              day,
		Visitors:          request.Visitors,
		PageViews:         request.PageViews,
		Impressions:       request.Impressions,
		Clicks:            request.Clicks,
		AvgSessionSeconds: request.AvgSessionSeconds,
	}

	// One row per day; later records replace the day's numbers.
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"visitors":            model.Visitors,
			"page_views":          model.PageViews,
			"impressions":         model.Impressions,
			"clicks":              model.Clicks,
			"avg_session_seconds": model.AvgSessionSeconds,
		}),
	}).Create(&model).Error
	if err != nil {
		return domainAnalytics.WebsiteMetric{}, err
	}

	var stored websiteMetricModel
	if err := s.db.WithContext(ctx).First(&stored, "date = ?", day).Error; err != nil {
		return domainAnalytics.WebsiteMetric{}, err
	}
	return metricFromModel(stored), nil
}

func (s *analyticsService) RecordPageView(ctx context.Context, request domainAnalytics.RecordPageViewRequest) (domainAnalytics.PageAnalytic, error) {
	if err := s.ensureDB(); err != nil {
		return domainAnalytics.PageAnalytic{}, err
	}

	path := strings.TrimSpace(request.Path)
	if path == "" {
		return domainAnalytics.PageAnalytic{}, pkgError.ValidationError("path: cannot be blank.")
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	day, err := parseDay(request.Date)
	if err != nil {
		return domainAnalytics.PageAnalytic{}, err
	}

	model := pageAnalyticModel{
		ID:             uuid.NewString(),
		Path:           path,
		Title:          strings.TrimSpace(request.Title),
		Views:          request.Views,
		UniqueVisitors: request.UniqueVisitors,
		AvgTimeSeconds: request.AvgTimeSeconds,
		Date:           day,
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "path"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"title":            model.Title,
			"views":            model.Views,
			"unique_visitors":  model.UniqueVisitors,
			"avg_time_seconds": model.AvgTimeSeconds,
		}),
	}).Create(&model).Error
	if err != nil {
		return domainAnalytics.PageAnalytic{}, err
	}

	var stored pageAnalyticModel
	if err := s.db.WithContext(ctx).First(&stored, "path = ? AND date = ?", path, day).Error; err != nil {
		return domainAnalytics.PageAnalytic{}, err
	}
	return pageFromModel(stored), nil
}

// periodMetrics loads the day rows between from (inclusive) and to
// (exclusive).
func (s *analyticsService) periodMetrics(ctx context.Context, from, to time.Time) ([]websiteMetricModel, error) {
	var models []websiteMetricModel
	err := s.db.WithContext(ctx).
		Where("date >= ? AND date < ?", from, to).
		Order("date ASC").
		Find(&models).Error
	return models, err
}

func overviewFromModels(days int, models []websiteMetricModel) domainAnalytics.Overview {
	overview := domainAnalytics.Overview{Days: days}
	var sessionSum float64
	var sessionDays int
	for _, m := range models {
		overview.Visitors += m.Visitors
		overview.PageViews += m.PageViews
		overview.Impressions += m.Impressions
		overview.Clicks += m.Clicks
		if m.AvgSessionSeconds > 0 {
			sessionSum += m.AvgSessionSeconds
			sessionDays++
		}
	}
	if sessionDays > 0 {
		overview.AvgSessionSeconds = sessionSum / float64(sessionDays)
	}
	if overview.Impressions > 0 {
		overview.CTR = float64(overview.Clicks) / float64(overview.Impressions) * 100
	}
	return overview
}

func clampDays(days int) int {
	if days <= 0 {
		return 30
	}
	if days > 365 {
		return 365
	}
	return days
}

func (s *analyticsService) Overview(ctx context.Context, days int) (domainAnalytics.Overview, error) {
	if err := s.ensureDB(); err != nil {
		return domainAnalytics.Overview{}, err
	}
	days = clampDays(days)

	now := time.Now().UTC()
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	from := to.AddDate(0, 0, -days)

	models, err := s.periodMetrics(ctx, from, to)
	if err != nil {
		return domainAnalytics.Overview{}, err
	}
	return overviewFromModels(days, models), nil
}

func percentChange(current, previous int) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	return (float64(current) - float64(previous)) / float64(previous) * 100
}

func (s *analyticsService) Trends(ctx context.Context, days int) (domainAnalytics.Trend, error) {
	if err := s.ensureDB(); err != nil {
		return domainAnalytics.Trend{}, err
	}
	days = clampDays(days)

	now := time.Now().UTC()
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	mid := to.AddDate(0, 0, -days)
	from := mid.AddDate(0, 0, -days)

	currentModels, err := s.periodMetrics(ctx, mid, to)
	if err != nil {
		return domainAnalytics.Trend{}, err
	}
	previousModels, err := s.periodMetrics(ctx, from, mid)
	if err != nil {
		return domainAnalytics.Trend{}, err
	}

	current := overviewFromModels(days, currentModels)
	previous := overviewFromModels(days, previousModels)

	return domainAnalytics.Trend{
		Current:         current,
		Previous:        previous,
		ChangeVisitors:  percentChange(current.Visitors, previous.Visitors),
		ChangePageViews: percentChange(current.PageViews, previous.PageViews),
		ChangeClicks:    percentChange(current.Clicks, previous.Clicks),
	}, nil
}

func (s *analyticsService) Series(ctx context.Context, metric string, days int) ([]domainAnalytics.SeriesPoint, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	days = clampDays(days)

	pick := func(m websiteMetricModel) int { return 0 }
	switch metric {
	case "visitors":
		pick = func(m websiteMetricModel) int { return m.Visitors }
	case "page_views":
		pick = func(m websiteMetricModel) int { return m.PageViews }
	case "impressions":
		pick = func(m websiteMetricModel) int { return m.Impressions }
	case "clicks":
		pick = func(m websiteMetricModel) int { return m.Clicks }
	default:
		return nil, pkgError.ValidationError(fmt.Sprintf("metric: must be visitors, page_views, impressions or clicks, got %q", metric))
	}

	now := time.Now().UTC()
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	from := to.AddDate(0, 0, -days)

	models, err := s.periodMetrics(ctx, from, to)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]int, len(models))
	for _, m := range models {
		byDay[m.Date.Format(dateLayout)] = pick(m)
	}

	// Dense series: every day in the window appears, zero-filled.
	points := make([]domainAnalytics.SeriesPoint, 0, days)
	for day := from; day.Before(to); day = day.AddDate(0, 0, 1) {
		key := day.Format(dateLayout)
		points = append(points, domainAnalytics.SeriesPoint{Date: key, Value: byDay[key]})
	}
	return points, nil
}

func (s *analyticsService) TopPages(ctx context.Context, days, limit int) ([]domainAnalytics.PageAnalytic, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	days = clampDays(days)
	if limit <= 0 {
		limit = 10
	}

	now := time.Now().UTC()
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	from := to.AddDate(0, 0, -days)

	var models []pageAnalyticModel
	if err := s.db.WithContext(ctx).
		Where("date >= ? AND date < ?", from, to).
		Order("views DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}

	pages := make([]domainAnalytics.PageAnalytic, len(models))
	for i, m := range models {
		pages[i] = pageFromModel(m)
	}
	return pages, nil
}

func (s *analyticsService) Dashboard(ctx context.Context, days int) (domainAnalytics.Dashboard, error) {
	overview, err := s.Overview(ctx, days)
	if err != nil {
		return domainAnalytics.Dashboard{}, err
	}
	trend, err := s.Trends(ctx, days)
	if err != nil {
		return domainAnalytics.Dashboard{}, err
	}
	topPages, err := s.TopPages(ctx, days, 5)
	if err != nil {
		return domainAnalytics.Dashboard{}, err
	}
	return domainAnalytics.Dashboard{
		Overview: overview,
		Trend:    trend,
		TopPages: topPages,
	}, nil
}

// RefreshPageTitle fetches the live page and stores its title on the
// most recent analytics row for that path.
func (s *analyticsService) RefreshPageTitle(ctx context.Context, path string) (domainAnalytics.PageAnalytic, error) {
	if err := s.ensureDB(); err != nil {
		return domainAnalytics.PageAnalytic{}, err
	}

	path = strings.TrimSpace(path)
	if path == "" {
		return domainAnalytics.PageAnalytic{}, pkgError.ValidationError("path: cannot be blank.")
	}

	var model pageAnalyticModel
	if err := s.db.WithContext(ctx).
		Where("path = ?", path).
		Order("date DESC").
		First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domainAnalytics.PageAnalytic{}, pkgError.NotFoundError(fmt.Sprintf("no analytics recorded for path %s", path))
		}
		return domainAnalytics.PageAnalytic{}, err
	}

	siteURL := "http://localhost:3000"
	if coreconfig.Global != nil && coreconfig.Global.App.BaseUrl != "" {
		siteURL = coreconfig.Global.App.BaseUrl
	}
	siteURL = strings.TrimSuffix(siteURL, "/")
	meta, err := webmeta.Fetch(ctx, siteURL+path)
	if err != nil {
		return domainAnalytics.PageAnalytic{}, err
	}
	if meta.Title == "" {
		return domainAnalytics.PageAnalytic{}, pkgError.UpstreamError(fmt.Sprintf("page %s has no title", path))
	}

	if err := s.db.WithContext(ctx).Model(&pageAnalyticModel{}).
		Where("path = ?", path).
		Update("title", meta.Title).Error; err != nil {
		return domainAnalytics.PageAnalytic{}, err
	}

	model.Title = meta.Title
	logrus.Infof("[ANALYTICS] Refreshed title for %s: %q", path, meta.Title)
	return pageFromModel(model), nil
}

// RollUpDaily folds yesterday's page rows into the site-wide day row
// when none was recorded directly. Wired to the runner's @daily cron.
func (s *analyticsService) RollUpDaily(ctx context.Context) error {
	if err := s.ensureDB(); err != nil {
		return err
	}

	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)

	var existing websiteMetricModel
	err := s.db.WithContext(ctx).First(&existing, "date = ?", yesterday).Error
	if err == nil {
		return nil // already recorded directly
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	var pages []pageAnalyticModel
	if err := s.db.WithContext(ctx).Find(&pages, "date = ?", yesterday).Error; err != nil {
		return err
	}
	if len(pages) == 0 {
		return nil
	}

	rollup := websiteMetricModel{
		ID:   uuid.NewString(),
		Date: yesterday,
	}
	var timeSum float64
	var timed int
	for _, p := range pages {
		rollup.PageViews += p.Views
		rollup.Visitors += p.UniqueVisitors
		if p.AvgTimeSeconds > 0 {
			timeSum += p.AvgTimeSeconds
			timed++
		}
	}
	if timed > 0 {
		rollup.AvgSessionSeconds = timeSum / float64(timed)
	}

	if err := s.db.WithContext(ctx).Create(&rollup).Error; err != nil {
		return err
	}

	logrus.Infof("[ANALYTICS] Rolled up %d page rows into %s", len(pages), yesterday.Format(dateLayout))
	return nil
}

// --- Helpers ---

func metricFromModel(m websiteMetricModel) domainAnalytics.WebsiteMetric {
	return domainAnalytics.WebsiteMetric{
		ID:                m.ID,
		Date:              m.Date,
		Visitors:          m.Visitors,
		PageViews:         m.PageViews,
		Impressions:       m.Impressions,
		Clicks:            m.Clicks,
		AvgSessionSeconds: m.AvgSessionSeconds,
	}
}

func pageFromModel(m pageAnalyticModel) domainAnalytics.PageAnalytic {
	return domainAnalytics.PageAnalytic{
		ID:             m.ID,
		Path:           m.Path,
		Title:          m.Title,
		Views:          m.Views,
		UniqueVisitors: m.UniqueVisitors,
		AvgTimeSeconds: m.AvgTimeSeconds,
		Date:           m.Date,
	}
}

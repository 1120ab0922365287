package usecase

import (
	"context"
	"math"
	"testing"
	"time"

	domainAnalytics "github.com/inkwell-cms/inkwell/domains/analytics"
)

func TestAnalyticsRecordReplacesSameDay(t *testing.T) {
	svc := NewAnalyticsService(newContentDB(t))
	ctx := context.Background()
	day := time.Now().UTC().Format("2006-01-02")

	first, err := svc.Record(ctx, domainAnalytics.RecordMetricRequest{Date: day, Visitors: 10, PageViews: 30})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if first.Visitors != 10 {
		t.Fatalf("expected 10 visitors, got %d", first.Visitors)
	}

	second, err := svc.Record(ctx, domainAnalytics.RecordMetricRequest{Date: day, Visitors: 25, PageViews: 80})
	if err != nil {
		t.Fatalf("record again: %v", err)
	}
	if second.Visitors != 25 || second.PageViews != 80 {
		t.Fatalf("expected the day replaced, got %+v", second)
	}

	overview, err := svc.Overview(ctx, 7)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if overview.Visitors != 25 {
		t.Fatalf("expected a single row per day, got %d visitors", overview.Visitors)
	}
}

func TestAnalyticsRecordRejectsBadDate(t *testing.T) {
	svc := NewAnalyticsService(newContentDB(t))

	_, err := svc.Record(context.Background(), domainAnalytics.RecordMetricRequest{Date: "23-08-2026"})
	if err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func TestAnalyticsOverviewComputesCTR(t *testing.T) {
	svc := NewAnalyticsService(newContentDB(t))
	ctx := context.Background()

	day := time.Now().UTC().Format("2006-01-02")
	if _, err := svc.Record(ctx, domainAnalytics.RecordMetricRequest{
		Date: day, Impressions: 1000, Clicks: 37,
	}); err != nil {
		t.Fatalf("record: %v", err)
	}

	overview, err := svc.Overview(ctx, 30)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if math.Abs(overview.CTR-3.7) > 1e-9 {
		t.Fatalf("expected CTR 3.7, got %f", overview.CTR)
	}
}

func TestAnalyticsSeriesIsDense(t *testing.T) {
	svc := NewAnalyticsService(newContentDB(t))
	ctx := context.Background()

	yesterday := time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
	if _, err := svc.Record(ctx, domainAnalytics.RecordMetricRequest{Date: yesterday, Visitors: 12}); err != nil {
		t.Fatalf("record: %v", err)
	}

	points, err := svc.Series(ctx, "visitors", 7)
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	if len(points) != 7 {
		t.Fatalf("expected 7 zero-filled points, got %d", len(points))
	}

	var seen bool
	for _, p := range points {
		if p.Date == yesterday {
			seen = true
			if p.Value != 12 {
				t.Fatalf("expected 12 visitors on %s, got %d", yesterday, p.Value)
			}
		} else if p.Value != 0 {
			t.Fatalf("expected empty day %s to be zero, got %d", p.Date, p.Value)
		}
	}
	if !seen {
		t.Fatalf("recorded day %s missing from series", yesterday)
	}

	if _, err := svc.Series(ctx, "bounce_rate", 7); err == nil {
		t.Fatal("expected error for unknown metric name")
	}
}

func TestAnalyticsTrendsComparePeriods(t *testing.T) {
	svc := NewAnalyticsService(newContentDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	// 50 visitors in the current 7 days, 25 in the 7 days before that.
	if _, err := svc.Record(ctx, domainAnalytics.RecordMetricRequest{
		Date: now.AddDate(0, 0, -2).Format("2006-01-02"), Visitors: 50,
	}); err != nil {
		t.Fatalf("record current: %v", err)
	}
	if _, err := svc.Record(ctx, domainAnalytics.RecordMetricRequest{
		Date: now.AddDate(0, 0, -9).Format("2006-01-02"), Visitors: 25,
	}); err != nil {
		t.Fatalf("record previous: %v", err)
	}

	trend, err := svc.Trends(ctx, 7)
	if err != nil {
		t.Fatalf("trends: %v", err)
	}
	if trend.Current.Visitors != 50 || trend.Previous.Visitors != 25 {
		t.Fatalf("unexpected period split: %+v", trend)
	}
	if math.Abs(trend.ChangeVisitors-100) > 1e-9 {
		t.Fatalf("expected +100%% visitors, got %f", trend.ChangeVisitors)
	}
}

func TestAnalyticsTopPages(t *testing.T) {
	svc := NewAnalyticsService(newContentDB(t))
	ctx := context.Background()
	day := time.Now().UTC().Format("2006-01-02")

	seed := []domainAnalytics.RecordPageViewRequest{
		{Path: "/blog/a", Views: 100, Date: day},
		{Path: "/blog/b", Views: 300, Date: day},
		{Path: "/blog/c", Views: 200, Date: day},
	}
	for _, req := range seed {
		if _, err := svc.RecordPageView(ctx, req); err != nil {
			t.Fatalf("record %s: %v", req.Path, err)
		}
	}

	top, err := svc.TopPages(ctx, 7, 2)
	if err != nil {
		t.Fatalf("top pages: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("expected limit 2, got %d", len(top))
	}
	if top[0].Path != "/blog/b" || top[1].Path != "/blog/c" {
		t.Fatalf("unexpected order: %s, %s", top[0].Path, top[1].Path)
	}
}

func TestAnalyticsRecordPageViewNormalizesPath(t *testing.T) {
	svc := NewAnalyticsService(newContentDB(t))
	ctx := context.Background()

	page, err := svc.RecordPageView(ctx, domainAnalytics.RecordPageViewRequest{Path: "blog/hello", Views: 1})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if page.Path != "/blog/hello" {
		t.Fatalf("expected leading slash added, got %q", page.Path)
	}

	if _, err := svc.RecordPageView(ctx, domainAnalytics.RecordPageViewRequest{Path: "   "}); err == nil {
		t.Fatal("expected error for blank path")
	}
}

func TestAnalyticsRollUpDaily(t *testing.T) {
	svc := NewAnalyticsService(newContentDB(t))
	ctx := context.Background()
	yesterday := time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")

	seed := []domainAnalytics.RecordPageViewRequest{
		{Path: "/a", Views: 40, UniqueVisitors: 10, Date: yesterday},
		{Path: "/b", Views: 60, UniqueVisitors: 15, Date: yesterday},
	}
	for _, req := range seed {
		if _, err := svc.RecordPageView(ctx, req); err != nil {
			t.Fatalf("record %s: %v", req.Path, err)
		}
	}

	if err := svc.RollUpDaily(ctx); err != nil {
		t.Fatalf("rollup: %v", err)
	}

	overview, err := svc.Overview(ctx, 7)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if overview.PageViews != 100 || overview.Visitors != 25 {
		t.Fatalf("expected rolled-up totals 100/25, got %d/%d", overview.PageViews, overview.Visitors)
	}

	// A second rollup must not double the numbers.
	if err := svc.RollUpDaily(ctx); err != nil {
		t.Fatalf("second rollup: %v", err)
	}
	overview, err = svc.Overview(ctx, 7)
	if err != nil {
		t.Fatalf("overview after second rollup: %v", err)
	}
	if overview.PageViews != 100 {
		t.Fatalf("rollup must be idempotent, got %d page views", overview.PageViews)
	}
}

package application

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/inkwell-cms/inkwell/core/settings/domain"
)

func newTestService(t *testing.T) *SettingsService {
	t.Helper()

	path := filepath.Join(t.TempDir(), "settings.db")
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?_journal_mode=WAL", path)), &gorm.Config{
		Logger:  logger.Discard,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	svc := NewSettingsService(db)
	if err := svc.InitSchema(context.Background()); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return svc
}

func TestTypedAccessorsWithFallbacks(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if got := svc.GetString(ctx, "missing", "default"); got != "default" {
		t.Fatalf("GetString fallback = %q", got)
	}
	if got := svc.GetInt(ctx, "missing", 7); got != 7 {
		t.Fatalf("GetInt fallback = %d", got)
	}
	if got := svc.GetBool(ctx, "missing", true); !got {
		t.Fatal("GetBool fallback = false")
	}

	settings := []domain.Setting{
		{Key: "site_name", Value: "Inkwell", ValueType: domain.TypeString},
		{Key: "analytics_retain_days", Value: "90", ValueType: domain.TypeInteger},
		{Key: "generation_temperature", Value: "0.7", ValueType: domain.TypeFloat},
		{Key: "scheduler_paused", Value: "true", ValueType: domain.TypeBoolean},
	}
	for _, setting := range settings {
		if err := svc.Set(ctx, setting); err != nil {
			t.Fatalf("Set(%s): %v", setting.Key, err)
		}
	}

	if got := svc.GetString(ctx, "site_name", ""); got != "Inkwell" {
		t.Fatalf("GetString = %q", got)
	}
	if got := svc.GetInt(ctx, "analytics_retain_days", 0); got != 90 {
		t.Fatalf("GetInt = %d", got)
	}
	if got := svc.GetFloat(ctx, "generation_temperature", 0); got != 0.7 {
		t.Fatalf("GetFloat = %v", got)
	}
	if !svc.GetBool(ctx, "scheduler_paused", false) {
		t.Fatal("GetBool = false, want true")
	}
}

func TestSetValidatesValueAgainstType(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	bad := []domain.Setting{
		{Key: "k1", Value: "abc", ValueType: domain.TypeInteger},
		{Key: "k2", Value: "1.2.3", ValueType: domain.TypeFloat},
		{Key: "k3", Value: "maybe", ValueType: domain.TypeBoolean},
		{Key: "k4", Value: "{broken", ValueType: domain.TypeJSON},
		{Key: "k5", Value: "x", ValueType: "uuid"},
		{Key: "", Value: "x"},
	}
	for _, setting := range bad {
		if err := svc.Set(ctx, setting); err == nil {
			t.Errorf("Set(%q/%s): expected validation error", setting.Key, setting.ValueType)
		}
	}
}

func TestSetUpsertsAndJSONRoundTrips(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if err := svc.Set(ctx, domain.Setting{Key: "limits", Value: `{"max":4}`, ValueType: domain.TypeJSON}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := svc.Set(ctx, domain.Setting{Key: "limits", Value: `{"max":10}`, ValueType: domain.TypeJSON}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	var out struct {
		Max int `json:"max"`
	}
	found, err := svc.GetJSON(ctx, "limits", &out)
	if err != nil || !found {
		t.Fatalf("GetJSON: found=%v err=%v", found, err)
	}
	if out.Max != 10 {
		t.Fatalf("max = %d, want 10 (upsert should replace)", out.Max)
	}

	found, err = svc.GetJSON(ctx, "missing", &out)
	if err != nil || found {
		t.Fatalf("GetJSON missing: found=%v err=%v", found, err)
	}
}

func TestGroupOperations(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	err := svc.SetGroup(ctx, "social", []domain.Setting{
		{Key: "social_default_tone", Value: "casual"},
		{Key: "social_max_hashtags", Value: "5", ValueType: domain.TypeInteger},
	})
	if err != nil {
		t.Fatalf("SetGroup: %v", err)
	}

	group, err := svc.GetGroup(ctx, "social")
	if err != nil {
		t.Fatalf("GetGroup: %v", err)
	}
	if len(group) != 2 {
		t.Fatalf("len(group) = %d, want 2", len(group))
	}
	for _, setting := range group {
		if setting.Group != "social" {
			t.Fatalf("setting %s has group %q", setting.Key, setting.Group)
		}
	}

	byPrefix, err := svc.GetByPrefix(ctx, "social_")
	if err != nil {
		t.Fatalf("GetByPrefix: %v", err)
	}
	if len(byPrefix) != 2 {
		t.Fatalf("len(byPrefix) = %d, want 2", len(byPrefix))
	}

	if err := svc.DeleteGroup(ctx, "social"); err != nil {
		t.Fatalf("DeleteGroup: %v", err)
	}
	group, err = svc.GetGroup(ctx, "social")
	if err != nil {
		t.Fatalf("GetGroup after delete: %v", err)
	}
	if len(group) != 0 {
		t.Fatalf("group not empty after delete: %d", len(group))
	}
}

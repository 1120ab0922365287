package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	domainBlog "github.com/inkwell-cms/inkwell/domains/blog"
	domainGenerate "github.com/inkwell-cms/inkwell/domains/generate"
	pkgError "github.com/inkwell-cms/inkwell/pkg/error"
	scheduleDomain "github.com/inkwell-cms/inkwell/schedule/domain"
	scheduleRepo "github.com/inkwell-cms/inkwell/schedule/repository"
)

func newContentDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "content.db")
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
	return db
}

func newScheduleRepo(t *testing.T, db *gorm.DB) scheduleRepo.IScheduleRepository {
	t.Helper()

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	repo := scheduleRepo.NewScheduleGormRepository(db, sqlDB, "sqlite")
	if err := repo.InitSchema(context.Background()); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return repo
}

// stubGenerator returns canned drafts so content tests never touch a
// real inference backend.
type stubGenerator struct {
	blogDraft   domainGenerate.BlogDraft
	socialDraft domainGenerate.SocialDraft
	err         error
}

func (g *stubGenerator) BlogPost(ctx context.Context, topic, length string, keywords []string, audience, purpose, sourceURL, model string) (domainGenerate.BlogDraft, error) {
	return g.blogDraft, g.err
}

func (g *stubGenerator) SocialPost(ctx context.Context, platform, topic, tone, model string) (domainGenerate.SocialDraft, error) {
	return g.socialDraft, g.err
}

func (g *stubGenerator) Models(ctx context.Context) ([]string, error) {
	return []string{"stub-model"}, nil
}

func (g *stubGenerator) ProviderName() string { return "stub" }

func (g *stubGenerator) Healthy(ctx context.Context) bool { return true }

func TestBlogCreateAndGet(t *testing.T) {
	svc := NewBlogService(newContentDB(t), nil, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, domainBlog.CreateBlogPostRequest{
		Title:    "Launch notes",
		Content:  "We shipped.",
		Topic:    "launch",
		Keywords: []string{"release", "launch"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Status != domainBlog.StatusDraft {
		t.Fatalf("expected draft status, got %s", created.Status)
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Launch notes" || len(got.Keywords) != 2 {
		t.Fatalf("unexpected post: %+v", got)
	}
}

func TestBlogCreateRejectsBlankTitle(t *testing.T) {
	svc := NewBlogService(newContentDB(t), nil, nil)

	_, err := svc.Create(context.Background(), domainBlog.CreateBlogPostRequest{Content: "body"})
	if err == nil {
		t.Fatal("expected validation error for blank title")
	}
	if _, ok := err.(pkgError.ValidationError); !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
}

func TestBlogGetUnknownReturnsNotFound(t *testing.T) {
	svc := NewBlogService(newContentDB(t), nil, nil)

	_, err := svc.Get(context.Background(), "ghost")
	if _, ok := err.(pkgError.NotFoundError); !ok {
		t.Fatalf("expected NotFoundError, got %T (%v)", err, err)
	}
}

func TestBlogListFiltersByStatus(t *testing.T) {
	svc := NewBlogService(newContentDB(t), nil, nil)
	ctx := context.Background()

	for i, status := range []string{"draft", "review", "draft"} {
		_, err := svc.Create(ctx, domainBlog.CreateBlogPostRequest{
			Title:   fmt.Sprintf("Post %d", i),
			Content: "body",
			Status:  status,
		})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	drafts, err := svc.List(ctx, domainBlog.ListBlogPostsRequest{Status: "draft"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(drafts) != 2 {
		t.Fatalf("expected 2 drafts, got %d", len(drafts))
	}

	if _, err := svc.List(ctx, domainBlog.ListBlogPostsRequest{Status: "bogus"}); err == nil {
		t.Fatal("expected error for unknown status filter")
	}
}

func TestBlogPublishIsIdempotent(t *testing.T) {
	svc := NewBlogService(newContentDB(t), nil, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, domainBlog.CreateBlogPostRequest{Title: "T", Content: "c"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := svc.Publish(ctx, created.ID)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if !first.Published || first.PublishedAt == nil {
		t.Fatalf("expected published post, got %+v", first)
	}

	second, err := svc.Publish(ctx, created.ID)
	if err != nil {
		t.Fatalf("second publish: %v", err)
	}
	if !second.PublishedAt.Equal(*first.PublishedAt) {
		t.Fatal("second publish must keep the original publish time")
	}
	if second.Status != domainBlog.StatusPublished {
		t.Fatalf("expected published status, got %s", second.Status)
	}
}

func TestBlogUpdatePatchesOnlyProvidedFields(t *testing.T) {
	svc := NewBlogService(newContentDB(t), nil, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, domainBlog.CreateBlogPostRequest{
		Title:   "Original",
		Content: "body",
		Topic:   "topic",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newTitle := "Updated"
	updated, err := svc.Update(ctx, created.ID, domainBlog.UpdateBlogPostRequest{Title: &newTitle})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Updated" || updated.Topic != "topic" {
		t.Fatalf("unexpected patch result: %+v", updated)
	}

	blank := "   "
	if _, err := svc.Update(ctx, created.ID, domainBlog.UpdateBlogPostRequest{Title: &blank}); err == nil {
		t.Fatal("expected error for blank title update")
	}
}

func TestBlogDeleteCascadesSchedules(t *testing.T) {
	db := newContentDB(t)
	repo := newScheduleRepo(t, db)
	svc := NewBlogService(db, repo, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, domainBlog.CreateBlogPostRequest{Title: "T", Content: "c"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	now := time.Now().UTC()
	item, err := scheduleDomain.NewItem(scheduleDomain.BlogTarget(created.ID), now.Add(time.Hour), now, scheduleDomain.Options{})
	if err != nil {
		t.Fatalf("new item: %v", err)
	}
	if err := repo.Create(ctx, item); err != nil {
		t.Fatalf("create schedule: %v", err)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	remaining, err := repo.ByBlogPost(ctx, created.ID)
	if err != nil {
		t.Fatalf("by blog post: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected schedules removed with the post, found %d", len(remaining))
	}

	if _, err := svc.Get(ctx, created.ID); err == nil {
		t.Fatal("expected post to be gone")
	}
}

func TestBlogGenerateStoresDraftWithMeta(t *testing.T) {
	gen := &stubGenerator{
		blogDraft: domainGenerate.BlogDraft{
			Title:   "Generated title",
			Content: "Generated body",
			Result: domainGenerate.Result{
				Model:            "stub-model",
				PromptTokens:     12,
				CompletionTokens: 240,
			},
		},
	}
	svc := NewBlogService(newContentDB(t), nil, gen)
	ctx := context.Background()

	post, err := svc.Generate(ctx, domainBlog.GenerateBlogPostRequest{Topic: "golang", Length: "short"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if post.Title != "Generated title" || post.Status != domainBlog.StatusDraft {
		t.Fatalf("unexpected generated post: %+v", post)
	}
	if post.GenerationMeta == nil || post.GenerationMeta.Model != "stub-model" {
		t.Fatalf("expected generation meta, got %+v", post.GenerationMeta)
	}
	if post.GenerationMeta.RequestedWords != 300 {
		t.Fatalf("expected 300 requested words for short, got %d", post.GenerationMeta.RequestedWords)
	}
}

package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	domainBlog "github.com/inkwell-cms/inkwell/domains/blog"
	domainGenerate "github.com/inkwell-cms/inkwell/domains/generate"
	pkgError "github.com/inkwell-cms/inkwell/pkg/error"
	scheduleDomain "github.com/inkwell-cms/inkwell/schedule/domain"
	scheduleRepo "github.com/inkwell-cms/inkwell/schedule/repository"
	"github.com/inkwell-cms/inkwell/validations"
)

// --- Persistence Model ---

type blogPostModel struct {
	ID             string     `gorm:"primaryKey;column:id"`
	Title          string     `gorm:"column:title;not null"`
	Content        string     `gorm:"column:content;type:text"`
	Topic          string     `gorm:"column:topic"`
	Keywords       string     `gorm:"column:keywords"` // comma separated
	Status         string     `gorm:"column:status;default:draft;index"`
	Published      bool       `gorm:"column:published;default:false"`
	PublishedAt    *time.Time `gorm:"column:published_at"`
	TargetAudience string     `gorm:"column:target_audience"`
	ContentPurpose string     `gorm:"column:content_purpose"`
	QualityScore   *float64   `gorm:"column:quality_score"`
	GenerationMeta *string    `gorm:"column:generation_meta;type:text"` // JSON
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (blogPostModel) TableName() string {
	return "blog_posts"
}

type blogService struct {
	db        *gorm.DB
	schedules scheduleRepo.IScheduleRepository
	generator domainGenerate.IGenerateUsecase
}

// NewBlogService wires blog post CRUD plus LLM generation. The schedule
// repository is used to cascade-delete schedules pointing at a removed
// post; generator may be nil when no LLM backend is configured.
func NewBlogService(db *gorm.DB, schedules scheduleRepo.IScheduleRepository, generator domainGenerate.IGenerateUsecase) domainBlog.IBlogUsecase {
	s := &blogService{db: db, schedules: schedules, generator: generator}
	if db != nil {
		if err := db.AutoMigrate(&blogPostModel{}); err != nil {
			logrus.WithError(err).Error("[BLOG] failed to init schema")
		}
	} else {
		logrus.Error("[BLOG] GORM DB is nil, service will be disabled")
	}
	return s
}

func (s *blogService) ensureDB() error {
	if s.db == nil {
		return pkgError.InternalServerError("blog storage is not initialized")
	}
	return nil
}

func (s *blogService) Create(ctx context.Context, request domainBlog.CreateBlogPostRequest) (domainBlog.BlogPost, error) {
	if err := s.ensureDB(); err != nil {
		return domainBlog.BlogPost{}, err
	}
	if err := validations.ValidateCreateBlogPost(ctx, request); err != nil {
		return domainBlog.BlogPost{}, err
	}

	status := domainBlog.StatusDraft
	if request.Status != "" {
		parsed, ok := domainBlog.ParseStatus(request.Status)
		if !ok {
			return domainBlog.BlogPost{}, pkgError.ValidationError(fmt.Sprintf("status: unsupported status %q.", request.Status))
		}
		status = parsed
	}

	model := blogPostModel{
		ID:             uuid.NewString(),
		Title:          strings.TrimSpace(request.Title),
		Content:        request.Content,
		Topic:          strings.TrimSpace(request.Topic),
		Keywords:       joinCSV(request.Keywords),
		Status:         string(status),
		TargetAudience: strings.TrimSpace(request.TargetAudience),
		ContentPurpose: strings.TrimSpace(request.ContentPurpose),
	}

	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domainBlog.BlogPost{}, err
	}

	logrus.Infof("[BLOG] Created post %s (%s)", model.ID, model.Title)
	return blogFromModel(model), nil
}

func (s *blogService) List(ctx context.Context, request domainBlog.ListBlogPostsRequest) ([]domainBlog.BlogPost, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Order("created_at DESC")
	if request.Status != "" {
		if _, ok := domainBlog.ParseStatus(request.Status); !ok {
			return nil, pkgError.ValidationError(fmt.Sprintf("status: unsupported status %q.", request.Status))
		}
		query = query.Where("status = ?", request.Status)
	}
	if request.Limit > 0 {
		query = query.Limit(request.Limit)
	}
	if request.Offset > 0 {
		query = query.Offset(request.Offset)
	}

	var models []blogPostModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	posts := make([]domainBlog.BlogPost, len(models))
	for i, m := range models {
		posts[i] = blogFromModel(m)
	}
	return posts, nil
}

func (s *blogService) Get(ctx context.Context, postID string) (domainBlog.BlogPost, error) {
	model, err := s.getModel(ctx, postID)
	if err != nil {
		return domainBlog.BlogPost{}, err
	}
	return blogFromModel(*model), nil
}

func (s *blogService) getModel(ctx context.Context, postID string) (*blogPostModel, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var model blogPostModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", postID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgError.NotFoundError(fmt.Sprintf("blog post with ID %s not found", postID))
		}
		return nil, err
	}
	return &model, nil
}

func (s *blogService) Update(ctx context.Context, postID string, request domainBlog.UpdateBlogPostRequest) (domainBlog.BlogPost, error) {
	model, err := s.getModel(ctx, postID)
	if err != nil {
		return domainBlog.BlogPost{}, err
	}

	if request.Title != nil {
		if strings.TrimSpace(*request.Title) == "" {
			return domainBlog.BlogPost{}, pkgError.ValidationError("title: cannot be blank.")
		}
		model.Title = strings.TrimSpace(*request.Title)
	}
	if request.Content != nil {
		model.Content = *request.Content
	}
	if request.Topic != nil {
		model.Topic = strings.TrimSpace(*request.Topic)
	}
	if request.Keywords != nil {
		model.Keywords = joinCSV(request.Keywords)
	}
	if request.Status != nil {
		parsed, ok := domainBlog.ParseStatus(*request.Status)
		if !ok {
			return domainBlog.BlogPost{}, pkgError.ValidationError(fmt.Sprintf("status: unsupported status %q.", *request.Status))
		}
		model.Status = string(parsed)
	}
	if request.TargetAudience != nil {
		model.TargetAudience = strings.TrimSpace(*request.TargetAudience)
	}
	if request.ContentPurpose != nil {
		model.ContentPurpose = strings.TrimSpace(*request.ContentPurpose)
	}
	if request.QualityScore != nil {
		model.QualityScore = request.QualityScore
	}

	if err := s.db.WithContext(ctx).Save(model).Error; err != nil {
		return domainBlog.BlogPost{}, err
	}
	return blogFromModel(*model), nil
}

// Publish marks the post live. Safe to call on an already-published
// post; the first publish time is kept.
func (s *blogService) Publish(ctx context.Context, postID string) (domainBlog.BlogPost, error) {
	model, err := s.getModel(ctx, postID)
	if err != nil {
		return domainBlog.BlogPost{}, err
	}

	if !model.Published {
		now := time.Now().UTC()
		model.Published = true
		model.PublishedAt = &now
		model.Status = string(domainBlog.StatusPublished)
		if err := s.db.WithContext(ctx).Save(model).Error; err != nil {
			return domainBlog.BlogPost{}, err
		}
		logrus.Infof("[BLOG] Published post %s (%s)", model.ID, model.Title)
	}

	return blogFromModel(*model), nil
}

func (s *blogService) Delete(ctx context.Context, postID string) error {
	model, err := s.getModel(ctx, postID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&blogPostModel{}, "id = ?", model.ID).Error; err != nil {
		return err
	}

	// Schedules pointing at the deleted post go with it.
	if s.schedules != nil {
		if err := s.schedules.DeleteByTarget(ctx, scheduleDomain.BlogTarget(model.ID)); err != nil {
			logrus.WithError(err).Warnf("[BLOG] Failed to cascade schedule deletion for post %s", model.ID)
		}
	}

	logrus.Infof("[BLOG] Deleted post %s", model.ID)
	return nil
}

func (s *blogService) Generate(ctx context.Context, request domainBlog.GenerateBlogPostRequest) (domainBlog.BlogPost, error) {
	if err := s.ensureDB(); err != nil {
		return domainBlog.BlogPost{}, err
	}
	if s.generator == nil {
		return domainBlog.BlogPost{}, pkgError.UpstreamError("no generation provider configured")
	}

	draft, err := s.generator.BlogPost(ctx, request.Topic, request.Length,
		request.Keywords, request.TargetAudience, request.ContentPurpose,
		request.SourceURL, request.Model)
	if err != nil {
		return domainBlog.BlogPost{}, err
	}

	meta := domainBlog.GenerationMeta{
		Model:            draft.Result.Model,
		RequestedWords:   wordsForLength[defaultLength(request.Length)],
		PromptTokens:     draft.Result.PromptTokens,
		CompletionTokens: draft.Result.CompletionTokens,
		DurationSeconds:  draft.Result.DurationSeconds,
		SourceURL:        request.SourceURL,
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return domainBlog.BlogPost{}, pkgError.InternalServerError(fmt.Sprintf("failed to encode generation meta: %v", err))
	}
	metaStr := string(metaJSON)

	model := blogPostModel{
		ID:             uuid.NewString(),
		Title:          draft.Title,
		Content:        draft.Content,
		Topic:          strings.TrimSpace(request.Topic),
		Keywords:       joinCSV(request.Keywords),
		Status:         string(domainBlog.StatusDraft),
		TargetAudience: strings.TrimSpace(request.TargetAudience),
		ContentPurpose: strings.TrimSpace(request.ContentPurpose),
		GenerationMeta: &metaStr,
	}

	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domainBlog.BlogPost{}, err
	}

	logrus.Infof("[BLOG] Generated post %s with %s (%d+%d tokens)",
		model.ID, meta.Model, meta.PromptTokens, meta.CompletionTokens)
	return blogFromModel(model), nil
}

// --- Helpers ---

func defaultLength(length string) string {
	if _, ok := wordsForLength[length]; ok {
		return length
	}
	return "medium"
}

func joinCSV(values []string) string {
	var kept []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			kept = append(kept, v)
		}
	}
	return strings.Join(kept, ",")
}

func splitCSV(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func blogFromModel(m blogPostModel) domainBlog.BlogPost {
	post := domainBlog.BlogPost{
		ID:             m.ID,
		Title:          m.Title,
		Content:        m.Content,
		Topic:          m.Topic,
		Keywords:       splitCSV(m.Keywords),
		Status:         domainBlog.Status(m.Status),
		Published:      m.Published,
		PublishedAt:    m.PublishedAt,
		TargetAudience: m.TargetAudience,
		ContentPurpose: m.ContentPurpose,
		QualityScore:   m.QualityScore,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if m.GenerationMeta != nil && *m.GenerationMeta != "" {
		var meta domainBlog.GenerationMeta
		if err := json.Unmarshal([]byte(*m.GenerationMeta), &meta); err == nil {
			post.GenerationMeta = &meta
		}
	}
	return post
}

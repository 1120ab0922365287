package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainKeyword "github.com/inkwell-cms/inkwell/domains/keyword"
	pkgError "github.com/inkwell-cms/inkwell/pkg/error"
	"github.com/inkwell-cms/inkwell/validations"
)

// --- Persistence Models ---

type keywordModel struct {
	ID           string  `gorm:"primaryKey;column:id"`
	Text         string  `gorm:"column:text;not null;uniqueIndex"`
	Status       string  `gorm:"column:status;default:active;index"`
	SearchVolume int     `gorm:"column:search_volume;default:0"`
	Difficulty   float64 `gorm:"column:difficulty;default:0"`
	CPC          float64 `gorm:"column:cpc;default:0"`
	Clicks       int     `gorm:"column:clicks;default:0"`
	Impressions  int     `gorm:"column:impressions;default:0"`
	Position     float64 `gorm:"column:position;default:0"`
}

func (keywordModel) TableName() string {
	return "keywords"
}

// keywordBlogLinkModel is the join table between keywords and blog posts.
type keywordBlogLinkModel struct {
	KeywordID  string `gorm:"primaryKey;column:keyword_id"`
	BlogPostID string `gorm:"primaryKey;column:blog_post_id"`
}

func (keywordBlogLinkModel) TableName() string {
	return "keyword_blog_posts"
}

type keywordService struct {
	db *gorm.DB
}

func NewKeywordService(db *gorm.DB) domainKeyword.IKeywordUsecase {
	s := &keywordService{db: db}
	if db != nil {
		if err := db.AutoMigrate(&keywordModel{}, &keywordBlogLinkModel{}); err != nil {
			logrus.WithError(err).Error("[KEYWORD] failed to init schema")
		}
	} else {
		logrus.Error("[KEYWORD] GORM DB is nil, service will be disabled")
	}
	return s
}

func (s *keywordService) ensureDB() error {
	if s.db == nil {
		return pkgError.InternalServerError("keyword storage is not initialized")
	}
	return nil
}

func (s *keywordService) Create(ctx context.Context, request domainKeyword.CreateKeywordRequest) (domainKeyword.Keyword, error) {
	if err := s.ensureDB(); err != nil {
		return domainKeyword.Keyword{}, err
	}
	if err := validations.ValidateCreateKeyword(ctx, request); err != nil {
		return domainKeyword.Keyword{}, err
	}

	text := strings.ToLower(strings.TrimSpace(request.Text))

	var existing keywordModel
	err := s.db.WithContext(ctx).First(&existing, "text = ?", text).Error
	if err == nil {
		return domainKeyword.Keyword{}, pkgError.ConflictError(fmt.Sprintf("keyword %q already exists", text))
	}
	if err != gorm.ErrRecordNotFound {
		return domainKeyword.Keyword{}, err
	}

	status := domainKeyword.StatusActive
	if request.Status != "" {
		status = domainKeyword.Status(request.Status)
	}

	model := keywordModel{
		ID:           uuid.NewString(),
		Text:         text,
		Status:       string(status),
		SearchVolume: request.SearchVolume,
		Difficulty:   request.Difficulty,
		CPC:          request.CPC,
	}

	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domainKeyword.Keyword{}, err
	}
	return keywordFromModel(model), nil
}

func (s *keywordService) List(ctx context.Context, status string) ([]domainKeyword.Keyword, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Order("text ASC")
	if status != "" {
		if _, ok := domainKeyword.ParseStatus(status); !ok {
			return nil, pkgError.ValidationError(fmt.Sprintf("status: unsupported status %q.", status))
		}
		query = query.Where("status = ?", status)
	}

	var models []keywordModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return keywordsFromModels(models), nil
}

func (s *keywordService) Get(ctx context.Context, keywordID string) (domainKeyword.Keyword, error) {
	model, err := s.getModel(ctx, keywordID)
	if err != nil {
		return domainKeyword.Keyword{}, err
	}
	return keywordFromModel(*model), nil
}

func (s *keywordService) getModel(ctx context.Context, keywordID string) (*keywordModel, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var model keywordModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", keywordID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgError.NotFoundError(fmt.Sprintf("keyword with ID %s not found", keywordID))
		}
		return nil, err
	}
	return &model, nil
}

func (s *keywordService) Update(ctx context.Context, keywordID string, request domainKeyword.UpdateKeywordRequest) (domainKeyword.Keyword, error) {
	model, err := s.getModel(ctx, keywordID)
	if err != nil {
		return domainKeyword.Keyword{}, err
	}

	if request.Text != nil {
		text := strings.ToLower(strings.TrimSpace(*request.Text))
		if text == "" {
			return domainKeyword.Keyword{}, pkgError.ValidationError("text: cannot be blank.")
		}
		model.Text = text
	}
	if request.Status != nil {
		parsed, ok := domainKeyword.ParseStatus(*request.Status)
		if !ok {
			return domainKeyword.Keyword{}, pkgError.ValidationError(fmt.Sprintf("status: unsupported status %q.", *request.Status))
		}
		model.Status = string(parsed)
	}
	if request.SearchVolume != nil {
		model.SearchVolume = *request.SearchVolume
	}
	if request.Difficulty != nil {
		model.Difficulty = *request.Difficulty
	}
	if request.CPC != nil {
		model.CPC = *request.CPC
	}

	if err := s.db.WithContext(ctx).Save(model).Error; err != nil {
		return domainKeyword.Keyword{}, err
	}
	return keywordFromModel(*model), nil
}

func (s *keywordService) Delete(ctx context.Context, keywordID string) error {
	if _, err := s.getModel(ctx, keywordID); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&keywordBlogLinkModel{}, "keyword_id = ?", keywordID).Error; err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&keywordModel{}, "id = ?", keywordID).Error
}

func (s *keywordService) BatchDelete(ctx context.Context, request domainKeyword.BatchDeleteRequest) (int, error) {
	if err := s.ensureDB(); err != nil {
		return 0, err
	}
	if len(request.IDs) == 0 {
		return 0, pkgError.ValidationError("ids: cannot be blank.")
	}

	if err := s.db.WithContext(ctx).Delete(&keywordBlogLinkModel{}, "keyword_id IN ?", request.IDs).Error; err != nil {
		return 0, err
	}
	result := s.db.WithContext(ctx).Delete(&keywordModel{}, "id IN ?", request.IDs)
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

func (s *keywordService) BatchStatus(ctx context.Context, request domainKeyword.BatchStatusRequest) (int, error) {
	if err := s.ensureDB(); err != nil {
		return 0, err
	}
	if err := validations.ValidateBatchStatus(ctx, request); err != nil {
		return 0, err
	}

	result := s.db.WithContext(ctx).Model(&keywordModel{}).
		Where("id IN ?", request.IDs).
		Update("status", request.Status)
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

func (s *keywordService) Search(ctx context.Context, query string) ([]domainKeyword.Keyword, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, pkgError.ValidationError("q: cannot be blank.")
	}

	var models []keywordModel
	if err := s.db.WithContext(ctx).
		Where("text LIKE ?", "%"+query+"%").
		Order("text ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return keywordsFromModels(models), nil
}

func (s *keywordService) Metrics(ctx context.Context) (domainKeyword.Metrics, error) {
	if err := s.ensureDB(); err != nil {
		return domainKeyword.Metrics{}, err
	}

	var models []keywordModel
	if err := s.db.WithContext(ctx).Find(&models).Error; err != nil {
		return domainKeyword.Metrics{}, err
	}

	metrics := domainKeyword.Metrics{TotalKeywords: len(models)}
	var positionSum float64
	var positioned int
	for _, m := range models {
		if m.Status == string(domainKeyword.StatusActive) {
			metrics.ActiveKeywords++
		}
		metrics.TotalClicks += m.Clicks
		metrics.TotalImpressions += m.Impressions
		if m.Position > 0 {
			positionSum += m.Position
			positioned++
		}
	}
	if metrics.TotalImpressions > 0 {
		metrics.AverageCTR = float64(metrics.TotalClicks) / float64(metrics.TotalImpressions) * 100
	}
	if positioned > 0 {
		metrics.AveragePosition = positionSum / float64(positioned)
	}
	return metrics, nil
}

func (s *keywordService) TopPerforming(ctx context.Context, limit int) ([]domainKeyword.Keyword, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	var models []keywordModel
	if err := s.db.WithContext(ctx).
		Where("impressions > 0").
		Order("clicks DESC, impressions DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	return keywordsFromModels(models), nil
}

func (s *keywordService) RecordPerformance(ctx context.Context, keywordID string, request domainKeyword.RecordPerformanceRequest) (domainKeyword.Keyword, error) {
	model, err := s.getModel(ctx, keywordID)
	if err != nil {
		return domainKeyword.Keyword{}, err
	}
	if request.Clicks < 0 || request.Impressions < 0 {
		return domainKeyword.Keyword{}, pkgError.ValidationError("clicks and impressions must be non-negative")
	}

	model.Clicks += request.Clicks
	model.Impressions += request.Impressions
	if request.Position > 0 {
		model.Position = request.Position
	}

	if err := s.db.WithContext(ctx).Save(model).Error; err != nil {
		return domainKeyword.Keyword{}, err
	}
	return keywordFromModel(*model), nil
}

func (s *keywordService) LinkBlogPost(ctx context.Context, keywordID, blogPostID string) error {
	if _, err := s.getModel(ctx, keywordID); err != nil {
		return err
	}
	if strings.TrimSpace(blogPostID) == "" {
		return pkgError.ValidationError("blog_post_id: cannot be blank.")
	}

	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&keywordBlogLinkModel{
		KeywordID:  keywordID,
		BlogPostID: blogPostID,
	}).Error
}

func (s *keywordService) BlogPostsForKeyword(ctx context.Context, keywordID string) ([]string, error) {
	if _, err := s.getModel(ctx, keywordID); err != nil {
		return nil, err
	}

	var links []keywordBlogLinkModel
	if err := s.db.WithContext(ctx).Find(&links, "keyword_id = ?", keywordID).Error; err != nil {
		return nil, err
	}

	ids := make([]string, len(links))
	for i, l := range links {
		ids[i] = l.BlogPostID
	}
	return ids, nil
}

// --- Helpers ---

func keywordFromModel(m keywordModel) domainKeyword.Keyword {
	k := domainKeyword.Keyword{
		ID:           m.ID,
		Text:         m.Text,
		Status:       domainKeyword.Status(m.Status),
		SearchVolume: m.SearchVolume,
		Difficulty:   m.Difficulty,
		CPC:          m.CPC,
		Clicks:       m.Clicks,
		Impressions:  m.Impressions,
		Position:     m.Position,
	}
	if m.Impressions > 0 {
		k.CTR = float64(m.Clicks) / float64(m.Impressions) * 100
	}
	return k
}

func keywordsFromModels(models []keywordModel) []domainKeyword.Keyword {
	keywords := make([]domainKeyword.Keyword, len(models))
	for i, m := range models {
		keywords[i] = keywordFromModel(m)
	}
	return keywords
}

package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	domainGenerate "github.com/inkwell-cms/inkwell/domains/generate"
	domainSocial "github.com/inkwell-cms/inkwell/domains/social"
	pkgError "github.com/inkwell-cms/inkwell/pkg/error"
	"github.com/inkwell-cms/inkwell/pkg/media"
	"github.com/inkwell-cms/inkwell/pkg/utils"
	scheduleDomain "github.com/inkwell-cms/inkwell/schedule/domain"
	scheduleRepo "github.com/inkwell-cms/inkwell/schedule/repository"
	"github.com/inkwell-cms/inkwell/validations"
)

// --- Persistence Model ---

type socialPostModel struct {
	ID             string     `gorm:"primaryKey;column:id"`
	Platform       string     `gorm:"column:platform;not null;index"`
	Content        string     `gorm:"column:content;type:text"`
	Topic          string     `gorm:"column:topic"`
	Hashtags       string     `gorm:"column:hashtags"` // comma separated
	Status         string     `gorm:"column:status;default:draft;index"`
	Published      bool       `gorm:"column:published;default:false"`
	PublishedAt    *time.Time `gorm:"column:published_at"`
	ScheduledAt    *time.Time `gorm:"column:scheduled_at"`
	ErrorMessage   *string    `gorm:"column:error_message"`
	MediaPaths     string     `gorm:"column:media_paths;type:text;default:'[]'"` // JSON list
	GenerationMeta *string    `gorm:"column:generation_meta;type:text"`          // JSON
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (socialPostModel) TableName() string {
	return "social_posts"
}

type socialService struct {
	db        *gorm.DB
	schedules scheduleRepo.IScheduleRepository
	generator domainGenerate.IGenerateUsecase
}

func NewSocialService(db *gorm.DB, schedules scheduleRepo.IScheduleRepository, generator domainGenerate.IGenerateUsecase) domainSocial.ISocialUsecase {
	s := &socialService{db: db, schedules: schedules, generator: generator}
	if db != nil {
		if err := db.AutoMigrate(&socialPostModel{}); err != nil {
			logrus.WithError(err).Error("[SOCIAL] failed to init schema")
		}
	} else {
		logrus.Error("[SOCIAL] GORM DB is nil, service will be disabled")
	}
	return s
}

func (s *socialService) ensureDB() error {
	if s.db == nil {
		return pkgError.InternalServerError("social storage is not initialized")
	}
	return nil
}

func (s *socialService) Create(ctx context.Context, request domainSocial.CreateSocialPostRequest) (domainSocial.SocialPost, error) {
	if err := s.ensureDB(); err != nil {
		return domainSocial.SocialPost{}, err
	}
	if err := validations.ValidateCreateSocialPost(ctx, request); err != nil {
		return domainSocial.SocialPost{}, err
	}

	platform, _ := domainSocial.ParsePlatform(request.Platform)

	status := domainSocial.StatusDraft
	if request.Status != "" {
		parsed, ok := domainSocial.ParseStatus(request.Status)
		if !ok {
			return domainSocial.SocialPost{}, pkgError.ValidationError(fmt.Sprintf("status: unsupported status %q.", request.Status))
		}
		status = parsed
	}

	if err := validateContentForPlatform(platform, request.Content); err != nil {
		return domainSocial.SocialPost{}, err
	}

	model := socialPostModel{
		ID:         uuid.NewString(),
		Platform:   string(platform),
		Content:    request.Content,
		Topic:      strings.TrimSpace(request.Topic),
		Hashtags:   joinCSV(request.Hashtags),
		Status:     string(status),
		MediaPaths: "[]",
	}

	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domainSocial.SocialPost{}, err
	}

	logrus.Infof("[SOCIAL] Created %s post %s", model.Platform, model.ID)
	return socialFromModel(model), nil
}

func (s *socialService) List(ctx context.Context, request domainSocial.ListSocialPostsRequest) ([]domainSocial.SocialPost, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Order("created_at DESC")
	if request.Platform != "" {
		if _, ok := domainSocial.ParsePlatform(request.Platform); !ok {
			return nil, pkgError.ValidationError(fmt.Sprintf("platform: unsupported platform %q.", request.Platform))
		}
		query = query.Where("platform = ?", request.Platform)
	}
	if request.Status != "" {
		if _, ok := domainSocial.ParseStatus(request.Status); !ok {
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

	var models []socialPostModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	posts := make([]domainSocial.SocialPost, len(models))
	for i, m := range models {
		posts[i] = socialFromModel(m)
	}
	return posts, nil
}

func (s *socialService) Get(ctx context.Context, postID string) (domainSocial.SocialPost, error) {
	model, err := s.getModel(ctx, postID)
	if err != nil {
		return domainSocial.SocialPost{}, err
	}
	return socialFromModel(*model), nil
}

func (s *socialService) getModel(ctx context.Context, postID string) (*socialPostModel, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var model socialPostModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", postID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgError.NotFoundError(fmt.Sprintf("social post with ID %s not found", postID))
		}
		return nil, err
	}
	return &model, nil
}

func (s *socialService) Update(ctx context.Context, postID string, request domainSocial.UpdateSocialPostRequest) (domainSocial.SocialPost, error) {
	model, err := s.getModel(ctx, postID)
	if err != nil {
		return domainSocial.SocialPost{}, err
	}

	if request.Content != nil {
		platform, _ := domainSocial.ParsePlatform(model.Platform)
		if err := validateContentForPlatform(platform, *request.Content); err != nil {
			return domainSocial.SocialPost{}, err
		}
		model.Content = *request.Content
	}
	if request.Topic != nil {
		model.Topic = strings.TrimSpace(*request.Topic)
	}
	if request.Hashtags != nil {
		model.Hashtags = joinCSV(request.Hashtags)
	}
	if request.Status != nil {
		parsed, ok := domainSocial.ParseStatus(*request.Status)
		if !ok {
			return domainSocial.SocialPost{}, pkgError.ValidationError(fmt.Sprintf("status: unsupported status %q.", *request.Status))
		}
		model.Status = string(parsed)
	}

	if err := s.db.WithContext(ctx).Save(model).Error; err != nil {
		return domainSocial.SocialPost{}, err
	}
	return socialFromModel(*model), nil
}

// Publish enforces the platform constraints, then marks the post live.
// Idempotent for already-published posts.
func (s *socialService) Publish(ctx context.Context, postID string) (domainSocial.SocialPost, error) {
	model, err := s.getModel(ctx, postID)
	if err != nil {
		return domainSocial.SocialPost{}, err
	}

	if !model.Published {
		platform, _ := domainSocial.ParsePlatform(model.Platform)
		if err := validateContentForPlatform(platform, model.Content); err != nil {
			return domainSocial.SocialPost{}, err
		}
		// Media requirements only bind at publish time; drafts may be
		// created without attachments.
		constraints := domainSocial.PlatformConstraints[platform]
		if constraints.RequiresMedia && len(decodeMediaPaths(model.MediaPaths)) == 0 {
			return domainSocial.SocialPost{}, pkgError.ValidationError(
				fmt.Sprintf("%s posts require at least one media attachment", platform))
		}

		now := time.Now().UTC()
		model.Published = true
		model.PublishedAt = &now
		model.Status = string(domainSocial.StatusPublished)
		model.ErrorMessage = nil
		if err := s.db.WithContext(ctx).Save(model).Error; err != nil {
			return domainSocial.SocialPost{}, err
		}
		logrus.Infof("[SOCIAL] Published %s post %s", model.Platform, model.ID)
	}

	return socialFromModel(*model), nil
}

func (s *socialService) Delete(ctx context.Context, postID string) error {
	model, err := s.getModel(ctx, postID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&socialPostModel{}, "id = ?", model.ID).Error; err != nil {
		return err
	}

	for _, path := range decodeMediaPaths(model.MediaPaths) {
		media.Remove(path, utils.GetThumbnailPath(model.ID, filepath.Base(path)))
	}

	if s.schedules != nil {
		if err := s.schedules.DeleteByTarget(ctx, scheduleDomain.SocialTarget(model.ID)); err != nil {
			logrus.WithError(err).Warnf("[SOCIAL] Failed to cascade schedule deletion for post %s", model.ID)
		}
	}

	logrus.Infof("[SOCIAL] Deleted post %s", model.ID)
	return nil
}

func (s *socialService) Generate(ctx context.Context, request domainSocial.GenerateSocialPostRequest) (domainSocial.SocialPost, error) {
	if err := s.ensureDB(); err != nil {
		return domainSocial.SocialPost{}, err
	}
	if s.generator == nil {
		return domainSocial.SocialPost{}, pkgError.UpstreamError("no generation provider configured")
	}
	if err := validations.ValidateGenerateSocialPost(ctx, request); err != nil {
		return domainSocial.SocialPost{}, err
	}

	draft, err := s.generator.SocialPost(ctx, request.Platform, request.Topic, request.Tone, request.Model)
	if err != nil {
		return domainSocial.SocialPost{}, err
	}

	platform, _ := domainSocial.ParsePlatform(request.Platform)
	content := draft.Content
	if limit := domainSocial.PlatformConstraints[platform].CharLimit; len([]rune(content)) > limit {
		content = string([]rune(content)[:limit])
	}

	meta := domainSocial.GenerationMeta{
		Model:            draft.Result.Model,
		PromptTokens:     draft.Result.PromptTokens,
		CompletionTokens: draft.Result.CompletionTokens,
		DurationSeconds:  draft.Result.DurationSeconds,
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return domainSocial.SocialPost{}, pkgError.InternalServerError(fmt.Sprintf("failed to encode generation meta: %v", err))
	}
	metaStr := string(metaJSON)

	model := socialPostModel{
		ID:             uuid.NewString(),
		Platform:       string(platform),
		Content:        content,
		Topic:          strings.TrimSpace(request.Topic),
		Hashtags:       joinCSV(draft.Hashtags),
		Status:         string(domainSocial.StatusDraft),
		MediaPaths:     "[]",
		GenerationMeta: &metaStr,
	}

	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domainSocial.SocialPost{}, err
	}

	logrus.Infof("[SOCIAL] Generated %s post %s with %s", model.Platform, model.ID, meta.Model)
	return socialFromModel(model), nil
}

// UploadMedia stores one attachment for a post, generating a thumbnail
// and enforcing the platform's media-count limit.
func (s *socialService) UploadMedia(ctx context.Context, postID string, file *multipart.FileHeader) (domainSocial.MediaUploadResult, error) {
	model, err := s.getModel(ctx, postID)
	if err != nil {
		return domainSocial.MediaUploadResult{}, err
	}

	platform, _ := domainSocial.ParsePlatform(model.Platform)
	constraints := domainSocial.PlatformConstraints[platform]

	mediaPaths := decodeMediaPaths(model.MediaPaths)
	if len(mediaPaths) >= constraints.MediaCount {
		return domainSocial.MediaUploadResult{}, pkgError.ValidationError(
			fmt.Sprintf("%s posts allow at most %d media attachments", platform, constraints.MediaCount))
	}

	src, err := file.Open()
	if err != nil {
		return domainSocial.MediaUploadResult{}, pkgError.InternalServerError(fmt.Sprintf("failed to open upload: %v", err))
	}
	head := make([]byte, 512)
	n, _ := src.Read(head)
	src.Close()

	if _, ok := media.IsSupportedImage(head[:n]); !ok {
		return domainSocial.MediaUploadResult{}, pkgError.ValidationError("only jpeg, png, gif and webp images are accepted")
	}

	filename := fmt.Sprintf("%s_%s", uuid.NewString()[:8], media.SanitizeFilename(file.Filename))
	storagePath := filepath.Join(utils.GetMediaStoragePath(model.ID), filename)

	if err := fasthttp.SaveMultipartFile(file, storagePath); err != nil {
		return domainSocial.MediaUploadResult{}, pkgError.InternalServerError(fmt.Sprintf("failed to store upload: %v", err))
	}

	thumbPath, err := media.GenerateThumbnail(storagePath, utils.GetThumbnailPath(model.ID, filename))
	if err != nil {
		logrus.WithError(err).Warnf("[SOCIAL] Thumbnail generation failed for %s", storagePath)
		thumbPath = ""
	}

	mediaPaths = append(mediaPaths, storagePath)
	encoded, err := json.Marshal(mediaPaths)
	if err != nil {
		return domainSocial.MediaUploadResult{}, pkgError.InternalServerError(fmt.Sprintf("failed to encode media paths: %v", err))
	}
	model.MediaPaths = string(encoded)
	if err := s.db.WithContext(ctx).Save(model).Error; err != nil {
		return domainSocial.MediaUploadResult{}, err
	}

	totalSize, _ := utils.DirSize(utils.GetMediaStoragePath(model.ID))

	logrus.Infof("[SOCIAL] Stored media %s for post %s (%s)", filename, model.ID, humanize.Bytes(uint64(file.Size)))

	return domainSocial.MediaUploadResult{
		Path:          storagePath,
		ThumbnailPath: thumbPath,
		Size:          file.Size,
		HumanSize:     humanize.Bytes(uint64(file.Size)),
		TotalStored:   humanize.Bytes(uint64(totalSize)),
	}, nil
}

// --- Helpers ---

func validateContentForPlatform(platform domainSocial.Platform, content string) error {
	constraints, ok := domainSocial.PlatformConstraints[platform]
	if !ok {
		return pkgError.ValidationError(fmt.Sprintf("platform: unsupported platform %q.", platform))
	}
	if length := len([]rune(content)); length > constraints.CharLimit {
		return pkgError.ValidationError(fmt.Sprintf("content: %d characters exceeds the %s limit of %d", length, platform, constraints.CharLimit))
	}
	return nil
}

func decodeMediaPaths(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var paths []string
	if err := json.Unmarshal([]byte(raw), &paths); err != nil {
		return nil
	}
	return paths
}

func socialFromModel(m socialPostModel) domainSocial.SocialPost {
	post := domainSocial.SocialPost{
		ID:           m.ID,
		Platform:     domainSocial.Platform(m.Platform),
		Content:      m.Content,
		Topic:        m.Topic,
		Hashtags:     splitCSV(m.Hashtags),
		Status:       domainSocial.Status(m.Status),
		Published:    m.Published,
		PublishedAt:  m.PublishedAt,
		ScheduledAt:  m.ScheduledAt,
		ErrorMessage: m.ErrorMessage,
		MediaPaths:   decodeMediaPaths(m.MediaPaths),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if m.GenerationMeta != nil && *m.GenerationMeta != "" {
		var meta domainSocial.GenerationMeta
		if err := json.Unmarshal([]byte(*m.GenerationMeta), &meta); err == nil {
			post.GenerationMeta = &meta
		}
	}
	return post
}

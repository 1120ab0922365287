package infrastructure

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/inkwell-cms/inkwell/core/settings/domain"
)

type SettingModel struct {
	Key         string `gorm:"primaryKey;column:key"`
	Value       string `gorm:"column:value;type:text"`
	ValueType   string `gorm:"column:value_type;default:string"`
	Group       string `gorm:"column:group_name;index"`
	Description string `gorm:"column:description"`
}

func (SettingModel) TableName() string {
	return "settings"
}

type SettingsGormRepository struct {
	db *gorm.DB
}

func NewSettingsGormRepository(db *gorm.DB) *SettingsGormRepository {
	return &SettingsGormRepository{db: db}
}

func (r *SettingsGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&SettingModel{})
}

func toSetting(m SettingModel) domain.Setting {
	valueType := domain.ValueType(m.ValueType)
	if valueType == "" {
		valueType = domain.TypeString
	}
	return domain.Setting{
		Key:         m.Key,
		Value:       strings.TrimSpace(m.Value),
		ValueType:   valueType,
		Group:       m.Group,
		Description: m.Description,
	}
}

func (r *SettingsGormRepository) Get(ctx context.Context, key string) (*domain.Setting, error) {
	var m SettingModel
	if err := r.db.WithContext(ctx).First(&m, "key = ?", key).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	setting := toSetting(m)
	return &setting, nil
}

func (r *SettingsGormRepository) Set(ctx context.Context, setting domain.Setting) error {
	valueType := setting.ValueType
	if valueType == "" {
		valueType = domain.TypeString
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":       setting.Value,
			"value_type":  string(valueType),
			"group_name":  setting.Group,
			"description": setting.Description,
		}),
	}).Create(&SettingModel{
		Key:         setting.Key,
		Value:       setting.Value,
		ValueType:   string(valueType),
		Group:       setting.Group,
		Description: setting.Description,
	}).Error
}

func (r *SettingsGormRepository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Delete(&SettingModel{}, "key = ?", key).Error
}

func (r *SettingsGormRepository) GetGroup(ctx context.Context, group string) ([]domain.Setting, error) {
	var models []SettingModel
	if err := r.db.WithContext(ctx).Where("group_name = ?", group).Order("key ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	settings := make([]domain.Setting, len(models))
	for i, m := range models {
		settings[i] = toSetting(m)
	}
	return settings, nil
}

func (r *SettingsGormRepository) DeleteGroup(ctx context.Context, group string) error {
	return r.db.WithContext(ctx).Delete(&SettingModel{}, "group_name = ?", group).Error
}

func (r *SettingsGormRepository) GetByPrefix(ctx context.Context, prefix string) ([]domain.Setting, error) {
	var models []SettingModel
	if err := r.db.WithContext(ctx).Where("key LIKE ?", prefix+"%").Order("key ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	settings := make([]domain.Setting, len(models))
	for i, m := range models {
		settings[i] = toSetting(m)
	}
	return settings, nil
}

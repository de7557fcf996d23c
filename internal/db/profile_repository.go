package db

import (
	"context"
	"fmt"

	"github.com/terraincognita07/tukicale/internal/models"
	"gorm.io/gorm"
)

type ProfileRepository struct {
	database *gorm.DB
}

func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{database: database}
}

// LoadProfile returns the single profile row, creating it when a restore
// or manual edit removed it.
func (repo *ProfileRepository) LoadProfile(ctx context.Context) (models.Profile, error) {
	profile := models.Profile{ID: models.ProfileID, Sync: models.DefaultSyncSettings()}
	err := repo.database.WithContext(ctx).
		Where(models.Profile{ID: models.ProfileID}).
		Attrs(profile).
		FirstOrCreate(&profile).Error
	if err != nil {
		return models.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	return profile, nil
}

func (repo *ProfileRepository) SaveSyncSettings(ctx context.Context, settings models.SyncSettings) error {
	return repo.update(ctx, syncSettingsColumns(settings))
}

func (repo *ProfileRepository) MarkSetupDone(ctx context.Context, settings models.SyncSettings) error {
	updates := syncSettingsColumns(settings)
	updates["setup_done"] = true
	return repo.update(ctx, updates)
}

func (repo *ProfileRepository) SaveAgeGroup(ctx context.Context, ageGroup string) error {
	return repo.update(ctx, map[string]any{"age_group": ageGroup})
}

func (repo *ProfileRepository) LoadSealedToken(ctx context.Context) (string, error) {
	profile, err := repo.LoadProfile(ctx)
	if err != nil {
		return "", err
	}
	return profile.SealedToken, nil
}

func (repo *ProfileRepository) SaveSealedToken(ctx context.Context, sealed string) error {
	return repo.update(ctx, map[string]any{"sealed_token": sealed})
}

func (repo *ProfileRepository) LoadSealedClientSecret(ctx context.Context) (string, error) {
	profile, err := repo.LoadProfile(ctx)
	if err != nil {
		return "", err
	}
	return profile.SealedClientSecret, nil
}

func (repo *ProfileRepository) SaveSealedClientSecret(ctx context.Context, sealed string) error {
	return repo.update(ctx, map[string]any{"sealed_client_secret": sealed})
}

func (repo *ProfileRepository) update(ctx context.Context, updates map[string]any) error {
	if _, err := repo.LoadProfile(ctx); err != nil {
		return err
	}
	return repo.database.WithContext(ctx).
		Model(&models.Profile{}).
		Where("id = ?", models.ProfileID).
		Updates(updates).Error
}

func syncSettingsColumns(settings models.SyncSettings) map[string]any {
	return map[string]any{
		"sync_period":   settings.Period,
		"sync_fertile":  settings.Fertile,
		"sync_pms":      settings.PMS,
		"sync_intimacy": settings.Intimacy,
		"sync_health":   settings.Health,
	}
}

package services

import (
	"context"
	"errors"
	"strings"

	"github.com/terraincognita07/tukicale/internal/models"
)

var (
	ErrSettingsLoadFailed = errors.New("load settings failed")
	ErrSettingsSaveFailed = errors.New("save settings failed")
	ErrInvalidAgeGroup    = errors.New("invalid age group")
)

type SettingsProfileRepository interface {
	LoadProfile(ctx context.Context) (models.Profile, error)
	SaveSyncSettings(ctx context.Context, settings models.SyncSettings) error
	SaveAgeGroup(ctx context.Context, ageGroup string) error
	MarkSetupDone(ctx context.Context, settings models.SyncSettings) error
}

type SettingsService struct {
	profiles SettingsProfileRepository
	syncer   CalendarSyncer
	features FeatureFlags
}

func NewSettingsService(profiles SettingsProfileRepository, syncer CalendarSyncer, features FeatureFlags) *SettingsService {
	return &SettingsService{
		profiles: profiles,
		syncer:   syncer,
		features: features,
	}
}

// EnsureInitialized writes the configured default toggles the first time the
// profile is used. Later runs keep whatever the user saved.
func (service *SettingsService) EnsureInitialized(ctx context.Context, defaults models.SyncSettings) error {
	profile, err := service.profiles.LoadProfile(ctx)
	if err != nil {
		return ErrSettingsLoadFailed
	}
	if profile.SetupDone {
		return nil
	}
	if err := service.profiles.MarkSetupDone(ctx, EffectiveSyncSettings(defaults, service.features)); err != nil {
		return ErrSettingsSaveFailed
	}
	return nil
}

func (service *SettingsService) LoadProfile(ctx context.Context) (models.Profile, error) {
	profile, err := service.profiles.LoadProfile(ctx)
	if err != nil {
		return models.Profile{}, ErrSettingsLoadFailed
	}
	profile.Sync = EffectiveSyncSettings(profile.Sync, service.features)
	return profile, nil
}

func (service *SettingsService) LoadSyncSettings(ctx context.Context) (models.SyncSettings, error) {
	profile, err := service.LoadProfile(ctx)
	if err != nil {
		return models.SyncSettings{}, err
	}
	return profile.Sync, nil
}

// UpdateSyncSettings stores the toggles and reconciles, since a toggle change
// adds or removes a whole event category.
func (service *SettingsService) UpdateSyncSettings(ctx context.Context, settings models.SyncSettings) (models.SyncSettings, bool, error) {
	settings = EffectiveSyncSettings(settings, service.features)
	if err := service.profiles.SaveSyncSettings(ctx, settings); err != nil {
		return models.SyncSettings{}, false, ErrSettingsSaveFailed
	}
	if service.syncer == nil {
		return settings, false, nil
	}
	return settings, service.syncer.Resync(ctx), nil
}

func (service *SettingsService) UpdateAgeGroup(ctx context.Context, raw string) (string, error) {
	ageGroup := strings.ToLower(strings.TrimSpace(raw))
	if !models.IsValidAgeGroup(ageGroup) {
		return "", ErrInvalidAgeGroup
	}
	if err := service.profiles.SaveAgeGroup(ctx, ageGroup); err != nil {
		return "", ErrSettingsSaveFailed
	}
	return ageGroup, nil
}

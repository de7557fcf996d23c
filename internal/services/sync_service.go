package services

import (
	"context"
	"errors"
	"log"

	"github.com/terraincognita07/tukicale/internal/models"
)

var (
	ErrSyncDisabled       = errors.New("calendar sync disabled")
	ErrSyncSettingsFailed = errors.New("load sync settings failed")
)

type SyncProfileReader interface {
	LoadProfile(ctx context.Context) (models.Profile, error)
}

type SyncRecordReader interface {
	LoadRecordSet(ctx context.Context) (models.RecordSet, error)
}

// SyncService feeds the reconciler with the stored settings. A nil
// reconciler means no calendar backend is configured and every pass reports
// false.
type SyncService struct {
	reconciler *Reconciler
	profiles   SyncProfileReader
	records    SyncRecordReader
	features   FeatureFlags
}

func NewSyncService(reconciler *Reconciler, profiles SyncProfileReader, records SyncRecordReader, features FeatureFlags) *SyncService {
	return &SyncService{
		reconciler: reconciler,
		profiles:   profiles,
		records:    records,
		features:   features,
	}
}

func (service *SyncService) Enabled() bool {
	return service != nil && service.reconciler != nil
}

// EffectiveSyncSettings masks the stored toggles with the tracking features,
// so a disabled record kind never reaches the calendar.
func EffectiveSyncSettings(settings models.SyncSettings, features FeatureFlags) models.SyncSettings {
	if !features.IntimacyTracking {
		settings.Intimacy = false
	}
	if !features.HealthTracking {
		settings.Health = false
	}
	return settings
}

func (service *SyncService) SyncRecords(ctx context.Context, records models.RecordSet) bool {
	if !service.Enabled() {
		return false
	}
	settings, err := service.settings(ctx)
	if err != nil {
		log.Printf("calendar sync skipped: %v", err)
		return false
	}
	return service.reconciler.Reconcile(ctx, records, settings)
}

func (service *SyncService) Resync(ctx context.Context) bool {
	_, err := service.SyncNow(ctx)
	return err == nil
}

// SyncNow reads the store and runs one pass, returning the detailed report.
func (service *SyncService) SyncNow(ctx context.Context) (ReconcileReport, error) {
	if !service.Enabled() {
		return ReconcileReport{}, ErrSyncDisabled
	}

	records, err := service.records.LoadRecordSet(ctx)
	if err != nil {
		return ReconcileReport{}, ErrRecordsLoadFailed
	}
	settings, err := service.settings(ctx)
	if err != nil {
		return ReconcileReport{}, err
	}

	report, err := service.reconciler.Run(ctx, records, settings)
	if err != nil {
		log.Printf("calendar sync %s failed: %v", report.PassID, err)
		return report, err
	}
	log.Printf("calendar sync %s done: deleted=%d created=%d", report.PassID, report.Deleted, report.Created)
	return report, nil
}

// WipeCalendar deletes every mirrored event in the lookback window and
// creates nothing.
func (service *SyncService) WipeCalendar(ctx context.Context) bool {
	if !service.Enabled() {
		return false
	}
	return service.reconciler.Reconcile(ctx, models.EmptyRecordSet(), models.SyncSettings{})
}

func (service *SyncService) settings(ctx context.Context) (models.SyncSettings, error) {
	profile, err := service.profiles.LoadProfile(ctx)
	if err != nil {
		return models.SyncSettings{}, ErrSyncSettingsFailed
	}
	return EffectiveSyncSettings(profile.Sync, service.features), nil
}

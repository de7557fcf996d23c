package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/terraincognita07/tukicale/internal/models"
)

const MaxBulkPeriods = 20

var (
	ErrRecordsLoadFailed    = errors.New("load records failed")
	ErrRecordSaveFailed     = errors.New("save record failed")
	ErrRecordDeleteFailed   = errors.New("delete record failed")
	ErrInvalidPeriodRange   = errors.New("invalid period range")
	ErrPeriodNotFound       = errors.New("period not found")
	ErrIntimacyNotFound     = errors.New("intimacy record not found")
	ErrHealthNotFound       = errors.New("health record not found")
	ErrBulkPeriodsEmpty     = errors.New("bulk periods empty")
	ErrBulkPeriodsTooMany   = errors.New("too many bulk periods")
	ErrFeatureDisabled      = errors.New("feature disabled")
	ErrInvalidHealthRecord  = errors.New("invalid health symptom")
	ErrInvalidRecordDate    = errors.New("invalid record date")
	ErrInvalidContraception = errors.New("invalid contraception status")
)

type RecordRepository interface {
	LoadRecordSet(ctx context.Context) (models.RecordSet, error)
	CreatePeriods(ctx context.Context, periods []models.PeriodRecord) error
	SavePeriod(ctx context.Context, period *models.PeriodRecord) error
	FindPeriod(ctx context.Context, id uint) (models.PeriodRecord, bool, error)
	DeletePeriod(ctx context.Context, id uint) (bool, error)
	SaveIntimacy(ctx context.Context, record *models.IntimacyRecord) error
	FindIntimacy(ctx context.Context, id uint) (models.IntimacyRecord, bool, error)
	DeleteIntimacy(ctx context.Context, id uint) (bool, error)
	SaveHealth(ctx context.Context, record *models.HealthRecord) error
	FindHealth(ctx context.Context, id uint) (models.HealthRecord, bool, error)
	DeleteHealth(ctx context.Context, id uint) (bool, error)
	ReplaceRecordSet(ctx context.Context, records models.RecordSet) error
}

// CalendarSyncer is the host side of the mirror: every mutation ends with one
// of these calls and reports its result as the synced flag.
type CalendarSyncer interface {
	SyncRecords(ctx context.Context, records models.RecordSet) bool
	Resync(ctx context.Context) bool
	WipeCalendar(ctx context.Context) bool
}

type FeatureFlags struct {
	IntimacyTracking bool
	HealthTracking   bool
}

func AllFeatures() FeatureFlags {
	return FeatureFlags{IntimacyTracking: true, HealthTracking: true}
}

type PeriodInput struct {
	StartDate time.Time
	EndDate   *time.Time
}

type IntimacyInput struct {
	Date          time.Time
	Contraception string
	Partner       string
	Memo          string
}

type HealthInput struct {
	Date    time.Time
	Symptom string
	Memo    string
}

type RecordService struct {
	records  RecordRepository
	syncer   CalendarSyncer
	features FeatureFlags
}

func NewRecordService(records RecordRepository, syncer CalendarSyncer, features FeatureFlags) *RecordService {
	return &RecordService{
		records:  records,
		syncer:   syncer,
		features: features,
	}
}

func (service *RecordService) Features() FeatureFlags {
	return service.features
}

// Load returns the stored record set with disabled record kinds hidden.
func (service *RecordService) Load(ctx context.Context) (models.RecordSet, error) {
	records, err := service.records.LoadRecordSet(ctx)
	if err != nil {
		return models.RecordSet{}, ErrRecordsLoadFailed
	}
	return service.visible(records), nil
}

// Reload re-reads the store and runs a reconciliation pass. It is the manual
// retry path after a failed sync.
func (service *RecordService) Reload(ctx context.Context) (models.RecordSet, bool, error) {
	records, err := service.Load(ctx)
	if err != nil {
		return models.RecordSet{}, false, err
	}
	return records, service.sync(ctx, records), nil
}

func (service *RecordService) AddPeriod(ctx context.Context, input PeriodInput) (models.PeriodRecord, bool, error) {
	current, err := service.Load(ctx)
	if err != nil {
		return models.PeriodRecord{}, false, err
	}

	period, err := buildPeriod(input, current.Periods)
	if err != nil {
		return models.PeriodRecord{}, false, err
	}
	if err := service.records.SavePeriod(ctx, &period); err != nil {
		return models.PeriodRecord{}, false, ErrRecordSaveFailed
	}
	return period, service.resync(ctx), nil
}

// AddPeriods registers up to MaxBulkPeriods periods in one write. Rows with
// no start date are skipped; rows without an end date get the average
// period length.
func (service *RecordService) AddPeriods(ctx context.Context, inputs []PeriodInput) ([]models.PeriodRecord, bool, error) {
	filled := make([]PeriodInput, 0, len(inputs))
	for _, input := range inputs {
		if input.StartDate.IsZero() {
			continue
		}
		filled = append(filled, input)
	}
	if len(filled) == 0 {
		return nil, false, ErrBulkPeriodsEmpty
	}
	if len(filled) > MaxBulkPeriods {
		return nil, false, ErrBulkPeriodsTooMany
	}

	current, err := service.Load(ctx)
	if err != nil {
		return nil, false, err
	}

	periods := make([]models.PeriodRecord, 0, len(filled))
	for _, input := range filled {
		period, err := buildPeriod(input, current.Periods)
		if err != nil {
			return nil, false, err
		}
		periods = append(periods, period)
	}

	if err := service.records.CreatePeriods(ctx, periods); err != nil {
		return nil, false, ErrRecordSaveFailed
	}
	return periods, service.resync(ctx), nil
}

func (service *RecordService) UpdatePeriod(ctx context.Context, id uint, input PeriodInput) (models.PeriodRecord, bool, error) {
	existing, found, err := service.records.FindPeriod(ctx, id)
	if err != nil {
		return models.PeriodRecord{}, false, ErrRecordsLoadFailed
	}
	if !found {
		return models.PeriodRecord{}, false, ErrPeriodNotFound
	}

	current, err := service.Load(ctx)
	if err != nil {
		return models.PeriodRecord{}, false, err
	}

	updated, err := buildPeriod(input, current.Periods)
	if err != nil {
		return models.PeriodRecord{}, false, err
	}
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt

	if err := service.records.SavePeriod(ctx, &updated); err != nil {
		return models.PeriodRecord{}, false, ErrRecordSaveFailed
	}
	return updated, service.resync(ctx), nil
}

func (service *RecordService) DeletePeriod(ctx context.Context, id uint) (bool, error) {
	deleted, err := service.records.DeletePeriod(ctx, id)
	if err != nil {
		return false, ErrRecordDeleteFailed
	}
	if !deleted {
		return false, ErrPeriodNotFound
	}
	return service.resync(ctx), nil
}

func (service *RecordService) AddIntimacy(ctx context.Context, input IntimacyInput) (models.IntimacyRecord, bool, error) {
	if !service.features.IntimacyTracking {
		return models.IntimacyRecord{}, false, ErrFeatureDisabled
	}

	record, err := buildIntimacy(input)
	if err != nil {
		return models.IntimacyRecord{}, false, err
	}
	if err := service.records.SaveIntimacy(ctx, &record); err != nil {
		return models.IntimacyRecord{}, false, ErrRecordSaveFailed
	}
	return record, service.resync(ctx), nil
}

func (service *RecordService) UpdateIntimacy(ctx context.Context, id uint, input IntimacyInput) (models.IntimacyRecord, bool, error) {
	if !service.features.IntimacyTracking {
		return models.IntimacyRecord{}, false, ErrFeatureDisabled
	}

	existing, found, err := service.records.FindIntimacy(ctx, id)
	if err != nil {
		return models.IntimacyRecord{}, false, ErrRecordsLoadFailed
	}
	if !found {
		return models.IntimacyRecord{}, false, ErrIntimacyNotFound
	}

	record, err := buildIntimacy(input)
	if err != nil {
		return models.IntimacyRecord{}, false, err
	}
	record.ID = existing.ID
	record.CreatedAt = existing.CreatedAt
	if err := service.records.SaveIntimacy(ctx, &record); err != nil {
		return models.IntimacyRecord{}, false, ErrRecordSaveFailed
	}
	return record, service.resync(ctx), nil
}

func (service *RecordService) DeleteIntimacy(ctx context.Context, id uint) (bool, error) {
	deleted, err := service.records.DeleteIntimacy(ctx, id)
	if err != nil {
		return false, ErrRecordDeleteFailed
	}
	if !deleted {
		return false, ErrIntimacyNotFound
	}
	return service.resync(ctx), nil
}

func (service *RecordService) AddHealth(ctx context.Context, input HealthInput) (models.HealthRecord, bool, error) {
	if !service.features.HealthTracking {
		return models.HealthRecord{}, false, ErrFeatureDisabled
	}

	record, err := buildHealth(input)
	if err != nil {
		return models.HealthRecord{}, false, err
	}
	if err := service.records.SaveHealth(ctx, &record); err != nil {
		return models.HealthRecord{}, false, ErrRecordSaveFailed
	}
	return record, service.resync(ctx), nil
}

func (service *RecordService) UpdateHealth(ctx context.Context, id uint, input HealthInput) (models.HealthRecord, bool, error) {
	if !service.features.HealthTracking {
		return models.HealthRecord{}, false, ErrFeatureDisabled
	}

	existing, found, err := service.records.FindHealth(ctx, id)
	if err != nil {
		return models.HealthRecord{}, false, ErrRecordsLoadFailed
	}
	if !found {
		return models.HealthRecord{}, false, ErrHealthNotFound
	}

	record, err := buildHealth(input)
	if err != nil {
		return models.HealthRecord{}, false, err
	}
	record.ID = existing.ID
	record.CreatedAt = existing.CreatedAt
	if err := service.records.SaveHealth(ctx, &record); err != nil {
		return models.HealthRecord{}, false, ErrRecordSaveFailed
	}
	return record, service.resync(ctx), nil
}

func (service *RecordService) DeleteHealth(ctx context.Context, id uint) (bool, error) {
	deleted, err := service.records.DeleteHealth(ctx, id)
	if err != nil {
		return false, ErrRecordDeleteFailed
	}
	if !deleted {
		return false, ErrHealthNotFound
	}
	return service.resync(ctx), nil
}

// Replace swaps the whole record set, as an import does, and reconciles once.
func (service *RecordService) Replace(ctx context.Context, records models.RecordSet) (bool, error) {
	for _, period := range records.Periods {
		if period.EndDate.Before(period.StartDate) {
			return false, ErrInvalidPeriodRange
		}
	}
	if err := service.records.ReplaceRecordSet(ctx, records); err != nil {
		return false, ErrRecordSaveFailed
	}
	return service.resync(ctx), nil
}

// ClearAll removes every record. The mirrored calendar is only emptied when
// wipeCalendar is set; otherwise its events stay until the next pass.
func (service *RecordService) ClearAll(ctx context.Context, wipeCalendar bool) (bool, error) {
	if err := service.records.ReplaceRecordSet(ctx, models.EmptyRecordSet()); err != nil {
		return false, ErrRecordDeleteFailed
	}
	if !wipeCalendar || service.syncer == nil {
		return false, nil
	}
	return service.syncer.WipeCalendar(ctx), nil
}

func (service *RecordService) visible(records models.RecordSet) models.RecordSet {
	if records.Periods == nil {
		records.Periods = []models.PeriodRecord{}
	}
	if records.Intimacy == nil || !service.features.IntimacyTracking {
		records.Intimacy = []models.IntimacyRecord{}
	}
	if records.Health == nil || !service.features.HealthTracking {
		records.Health = []models.HealthRecord{}
	}
	return records
}

func (service *RecordService) resync(ctx context.Context) bool {
	records, err := service.Load(ctx)
	if err != nil {
		return false
	}
	return service.sync(ctx, records)
}

func (service *RecordService) sync(ctx context.Context, records models.RecordSet) bool {
	if service.syncer == nil {
		return false
	}
	return service.syncer.SyncRecords(ctx, records)
}

func buildPeriod(input PeriodInput, history []models.PeriodRecord) (models.PeriodRecord, error) {
	if input.StartDate.IsZero() {
		return models.PeriodRecord{}, ErrInvalidPeriodRange
	}
	start := CalendarDay(input.StartDate)

	var end time.Time
	if input.EndDate == nil || input.EndDate.IsZero() {
		end = DefaultPeriodEnd(start, history)
	} else {
		end = CalendarDay(*input.EndDate)
	}
	if end.Before(start) {
		return models.PeriodRecord{}, ErrInvalidPeriodRange
	}
	return models.NewPeriodRecord(start, end), nil
}

func buildIntimacy(input IntimacyInput) (models.IntimacyRecord, error) {
	if input.Date.IsZero() {
		return models.IntimacyRecord{}, ErrInvalidRecordDate
	}
	contraception, ok := models.ParseContraception(input.Contraception)
	if !ok {
		return models.IntimacyRecord{}, ErrInvalidContraception
	}
	return models.IntimacyRecord{
		Date:          CalendarDay(input.Date),
		Contraception: contraception,
		Partner:       TrimPartner(input.Partner),
		Memo:          TrimMemo(input.Memo),
	}, nil
}

func buildHealth(input HealthInput) (models.HealthRecord, error) {
	if input.Date.IsZero() {
		return models.HealthRecord{}, ErrInvalidRecordDate
	}
	symptom := strings.TrimSpace(input.Symptom)
	if symptom == "" {
		symptom = models.SymptomOther
	}
	if !models.IsValidSymptom(symptom) {
		return models.HealthRecord{}, ErrInvalidHealthRecord
	}
	return models.HealthRecord{
		Date:    CalendarDay(input.Date),
		Symptom: symptom,
		Memo:    TrimMemo(input.Memo),
	}, nil
}

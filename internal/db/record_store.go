package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/terraincognita07/tukicale/internal/models"
	"gorm.io/gorm"
)

// RecordStore keeps the three record kinds in their own tables. Load and
// Save treat them as one blob; the remaining methods are row level.
type RecordStore struct {
	database *gorm.DB
}

func NewRecordStore(database *gorm.DB) *RecordStore {
	return &RecordStore{database: database}
}

func (store *RecordStore) Load(ctx context.Context) (models.RecordSet, error) {
	return store.LoadRecordSet(ctx)
}

func (store *RecordStore) Save(ctx context.Context, records models.RecordSet) error {
	return store.ReplaceRecordSet(ctx, records)
}

func (store *RecordStore) LoadRecordSet(ctx context.Context) (models.RecordSet, error) {
	records := models.EmptyRecordSet()
	database := store.database.WithContext(ctx)

	if err := database.Order("start_date ASC, id ASC").Find(&records.Periods).Error; err != nil {
		return models.RecordSet{}, fmt.Errorf("load periods: %w", err)
	}
	if err := database.Order("date ASC, id ASC").Find(&records.Intimacy).Error; err != nil {
		return models.RecordSet{}, fmt.Errorf("load intimacy records: %w", err)
	}
	if err := database.Order("date ASC, id ASC").Find(&records.Health).Error; err != nil {
		return models.RecordSet{}, fmt.Errorf("load health records: %w", err)
	}

	var profile models.Profile
	if err := database.Select("age_group").First(&profile, models.ProfileID).Error; err == nil {
		records.AgeGroup = profile.AgeGroup
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.RecordSet{}, fmt.Errorf("load profile: %w", err)
	}
	return records, nil
}

// ReplaceRecordSet swaps every stored record for the given set in one
// transaction. IDs on the input are dropped so rows get fresh keys.
func (store *RecordStore) ReplaceRecordSet(ctx context.Context, records models.RecordSet) error {
	return store.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []any{&models.PeriodRecord{}, &models.IntimacyRecord{}, &models.HealthRecord{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(table).Error; err != nil {
				return err
			}
		}

		periods := make([]models.PeriodRecord, 0, len(records.Periods))
		for _, period := range records.Periods {
			period.ID = 0
			period.Days = models.PeriodDays(period.StartDate, period.EndDate)
			periods = append(periods, period)
		}
		if len(periods) > 0 {
			if err := tx.Create(&periods).Error; err != nil {
				return err
			}
		}

		intimacy := make([]models.IntimacyRecord, 0, len(records.Intimacy))
		for _, record := range records.Intimacy {
			record.ID = 0
			intimacy = append(intimacy, record)
		}
		if len(intimacy) > 0 {
			if err := tx.Create(&intimacy).Error; err != nil {
				return err
			}
		}

		health := make([]models.HealthRecord, 0, len(records.Health))
		for _, record := range records.Health {
			record.ID = 0
			health = append(health, record)
		}
		if len(health) > 0 {
			if err := tx.Create(&health).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (store *RecordStore) CreatePeriods(ctx context.Context, periods []models.PeriodRecord) error {
	if len(periods) == 0 {
		return nil
	}
	return store.database.WithContext(ctx).Create(&periods).Error
}

func (store *RecordStore) SavePeriod(ctx context.Context, period *models.PeriodRecord) error {
	return store.database.WithContext(ctx).Save(period).Error
}

func (store *RecordStore) FindPeriod(ctx context.Context, id uint) (models.PeriodRecord, bool, error) {
	var period models.PeriodRecord
	found, err := findByID(ctx, store.database, &period, id)
	return period, found, err
}

func (store *RecordStore) DeletePeriod(ctx context.Context, id uint) (bool, error) {
	return deleteByID(ctx, store.database, &models.PeriodRecord{}, id)
}

func (store *RecordStore) SaveIntimacy(ctx context.Context, record *models.IntimacyRecord) error {
	return store.database.WithContext(ctx).Save(record).Error
}

func (store *RecordStore) FindIntimacy(ctx context.Context, id uint) (models.IntimacyRecord, bool, error) {
	var record models.IntimacyRecord
	found, err := findByID(ctx, store.database, &record, id)
	return record, found, err
}

func (store *RecordStore) DeleteIntimacy(ctx context.Context, id uint) (bool, error) {
	return deleteByID(ctx, store.database, &models.IntimacyRecord{}, id)
}

func (store *RecordStore) SaveHealth(ctx context.Context, record *models.HealthRecord) error {
	return store.database.WithContext(ctx).Save(record).Error
}

func (store *RecordStore) FindHealth(ctx context.Context, id uint) (models.HealthRecord, bool, error) {
	var record models.HealthRecord
	found, err := findByID(ctx, store.database, &record, id)
	return record, found, err
}

func (store *RecordStore) DeleteHealth(ctx context.Context, id uint) (bool, error) {
	return deleteByID(ctx, store.database, &models.HealthRecord{}, id)
}

func findByID(ctx context.Context, database *gorm.DB, dest any, id uint) (bool, error) {
	err := database.WithContext(ctx).First(dest, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func deleteByID(ctx context.Context, database *gorm.DB, model any, id uint) (bool, error) {
	result := database.WithContext(ctx).Delete(model, id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

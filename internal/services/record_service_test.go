package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/terraincognita07/tukicale/internal/models"
)

type memoryRecordRepository struct {
	records models.RecordSet
	nextID  uint
	saveErr error
}

func newMemoryRecordRepository() *memoryRecordRepository {
	return &memoryRecordRepository{records: models.EmptyRecordSet(), nextID: 1}
}

func (repo *memoryRecordRepository) id() uint {
	id := repo.nextID
	repo.nextID++
	return id
}

func (repo *memoryRecordRepository) LoadRecordSet(context.Context) (models.RecordSet, error) {
	copied := models.EmptyRecordSet()
	copied.Periods = append(copied.Periods, repo.records.Periods...)
	copied.Intimacy = append(copied.Intimacy, repo.records.Intimacy...)
	copied.Health = append(copied.Health, repo.records.Health...)
	return copied, nil
}

func (repo *memoryRecordRepository) CreatePeriods(_ context.Context, periods []models.PeriodRecord) error {
	if repo.saveErr != nil {
		return repo.saveErr
	}
	for i := range periods {
		periods[i].ID = repo.id()
		repo.records.Periods = append(repo.records.Periods, periods[i])
	}
	return nil
}

func (repo *memoryRecordRepository) SavePeriod(_ context.Context, period *models.PeriodRecord) error {
	if repo.saveErr != nil {
		return repo.saveErr
	}
	if period.ID == 0 {
		period.ID = repo.id()
		repo.records.Periods = append(repo.records.Periods, *period)
		return nil
	}
	for i := range repo.records.Periods {
		if repo.records.Periods[i].ID == period.ID {
			repo.records.Periods[i] = *period
		}
	}
	return nil
}

func (repo *memoryRecordRepository) FindPeriod(_ context.Context, id uint) (models.PeriodRecord, bool, error) {
	for _, period := range repo.records.Periods {
		if period.ID == id {
			return period, true, nil
		}
	}
	return models.PeriodRecord{}, false, nil
}

func (repo *memoryRecordRepository) DeletePeriod(_ context.Context, id uint) (bool, error) {
	for i, period := range repo.records.Periods {
		if period.ID == id {
			repo.records.Periods = append(repo.records.Periods[:i], repo.records.Periods[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (repo *memoryRecordRepository) SaveIntimacy(_ context.Context, record *models.IntimacyRecord) error {
	if record.ID == 0 {
		record.ID = repo.id()
		repo.records.Intimacy = append(repo.records.Intimacy, *record)
		return nil
	}
	for i := range repo.records.Intimacy {
		if repo.records.Intimacy[i].ID == record.ID {
			repo.records.Intimacy[i] = *record
		}
	}
	return nil
}

func (repo *memoryRecordRepository) FindIntimacy(_ context.Context, id uint) (models.IntimacyRecord, bool, error) {
	for _, record := range repo.records.Intimacy {
		if record.ID == id {
			return record, true, nil
		}
	}
	return models.IntimacyRecord{}, false, nil
}

func (repo *memoryRecordRepository) DeleteIntimacy(_ context.Context, id uint) (bool, error) {
	for i, record := range repo.records.Intimacy {
		if record.ID == id {
			repo.records.Intimacy = append(repo.records.Intimacy[:i], repo.records.Intimacy[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (repo *memoryRecordRepository) SaveHealth(_ context.Context, record *models.HealthRecord) error {
	if record.ID == 0 {
		record.ID = repo.id()
		repo.records.Health = append(repo.records.Health, *record)
		return nil
	}
	for i := range repo.records.Health {
		if repo.records.Health[i].ID == record.ID {
			repo.records.Health[i] = *record
		}
	}
	return nil
}

func (repo *memoryRecordRepository) FindHealth(_ context.Context, id uint) (models.HealthRecord, bool, error) {
	for _, record := range repo.records.Health {
		if record.ID == id {
			return record, true, nil
		}
	}
	return models.HealthRecord{}, false, nil
}

func (repo *memoryRecordRepository) DeleteHealth(_ context.Context, id uint) (bool, error) {
	for i, record := range repo.records.Health {
		if record.ID == id {
			repo.records.Health = append(repo.records.Health[:i], repo.records.Health[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (repo *memoryRecordRepository) ReplaceRecordSet(_ context.Context, records models.RecordSet) error {
	if repo.saveErr != nil {
		return repo.saveErr
	}
	repo.records = models.EmptyRecordSet()
	repo.records.Periods = append(repo.records.Periods, records.Periods...)
	repo.records.Intimacy = append(repo.records.Intimacy, records.Intimacy...)
	repo.records.Health = append(repo.records.Health, records.Health...)
	return nil
}

type stubSyncer struct {
	result  bool
	synced  []models.RecordSet
	resyncs int
	wipes   int
}

func (stub *stubSyncer) SyncRecords(_ context.Context, records models.RecordSet) bool {
	stub.synced = append(stub.synced, records)
	return stub.result
}

func (stub *stubSyncer) Resync(context.Context) bool {
	stub.resyncs++
	return stub.result
}

func (stub *stubSyncer) WipeCalendar(context.Context) bool {
	stub.wipes++
	return stub.result
}

func datePtr(t *testing.T, raw string) *time.Time {
	t.Helper()
	day := mustParseDay(t, raw)
	return &day
}

func TestRecordServiceAddPeriodSyncsAfterSave(t *testing.T) {
	repo := newMemoryRecordRepository()
	syncer := &stubSyncer{result: true}
	service := NewRecordService(repo, syncer, AllFeatures())

	period, synced, err := service.AddPeriod(context.Background(), PeriodInput{
		StartDate: mustParseDay(t, "2025-01-01"),
		EndDate:   datePtr(t, "2025-01-05"),
	})
	if err != nil {
		t.Fatalf("AddPeriod returned error: %v", err)
	}
	if !synced {
		t.Fatal("expected synced=true")
	}
	if period.ID == 0 || period.Days != 5 {
		t.Fatalf("unexpected period %+v", period)
	}
	if len(syncer.synced) != 1 || len(syncer.synced[0].Periods) != 1 {
		t.Fatalf("expected one sync with the new period, got %+v", syncer.synced)
	}
}

func TestRecordServiceRejectsInvertedRange(t *testing.T) {
	repo := newMemoryRecordRepository()
	syncer := &stubSyncer{result: true}
	service := NewRecordService(repo, syncer, AllFeatures())

	_, _, err := service.AddPeriod(context.Background(), PeriodInput{
		StartDate: mustParseDay(t, "2025-01-05"),
		EndDate:   datePtr(t, "2025-01-01"),
	})
	if !errors.Is(err, ErrInvalidPeriodRange) {
		t.Fatalf("expected ErrInvalidPeriodRange, got %v", err)
	}
	if len(repo.records.Periods) != 0 || len(syncer.synced) != 0 {
		t.Fatal("expected nothing stored or synced")
	}
}

func TestRecordServiceAddPeriodsFillsMissingEnd(t *testing.T) {
	repo := newMemoryRecordRepository()
	repo.records.Periods = []models.PeriodRecord{makePeriod(t, "2024-12-01", "2024-12-07")}
	service := NewRecordService(repo, nil, AllFeatures())

	periods, synced, err := service.AddPeriods(context.Background(), []PeriodInput{
		{StartDate: mustParseDay(t, "2025-01-01")},
		{},
		{StartDate: mustParseDay(t, "2025-01-29"), EndDate: datePtr(t, "2025-02-02")},
	})
	if err != nil {
		t.Fatalf("AddPeriods returned error: %v", err)
	}
	if synced {
		t.Fatal("expected synced=false without a syncer")
	}
	if len(periods) != 2 {
		t.Fatalf("expected blank row to be skipped, got %d periods", len(periods))
	}
	if FormatISODate(periods[0].EndDate) != "2025-01-07" || periods[0].Days != 7 {
		t.Fatalf("expected end filled from 7-day average, got %+v", periods[0])
	}
}

func TestRecordServiceAddPeriodsLimits(t *testing.T) {
	service := NewRecordService(newMemoryRecordRepository(), nil, AllFeatures())

	if _, _, err := service.AddPeriods(context.Background(), []PeriodInput{{}, {}}); !errors.Is(err, ErrBulkPeriodsEmpty) {
		t.Fatalf("expected ErrBulkPeriodsEmpty, got %v", err)
	}

	inputs := make([]PeriodInput, 0, MaxBulkPeriods+1)
	start := mustParseDay(t, "2020-01-01")
	for i := 0; i <= MaxBulkPeriods; i++ {
		inputs = append(inputs, PeriodInput{StartDate: start.AddDate(0, 0, 28*i)})
	}
	if _, _, err := service.AddPeriods(context.Background(), inputs); !errors.Is(err, ErrBulkPeriodsTooMany) {
		t.Fatalf("expected ErrBulkPeriodsTooMany, got %v", err)
	}
}

func TestRecordServiceUpdateAndDeletePeriod(t *testing.T) {
	repo := newMemoryRecordRepository()
	syncer := &stubSyncer{result: true}
	service := NewRecordService(repo, syncer, AllFeatures())

	created, _, err := service.AddPeriod(context.Background(), PeriodInput{StartDate: mustParseDay(t, "2025-01-01"), EndDate: datePtr(t, "2025-01-05")})
	if err != nil {
		t.Fatalf("AddPeriod returned error: %v", err)
	}

	updated, _, err := service.UpdatePeriod(context.Background(), created.ID, PeriodInput{StartDate: mustParseDay(t, "2025-01-02"), EndDate: datePtr(t, "2025-01-04")})
	if err != nil {
		t.Fatalf("UpdatePeriod returned error: %v", err)
	}
	if updated.ID != created.ID || updated.Days != 3 {
		t.Fatalf("unexpected update %+v", updated)
	}

	if _, _, err := service.UpdatePeriod(context.Background(), 999, PeriodInput{StartDate: mustParseDay(t, "2025-01-02")}); !errors.Is(err, ErrPeriodNotFound) {
		t.Fatalf("expected ErrPeriodNotFound, got %v", err)
	}

	synced, err := service.DeletePeriod(context.Background(), created.ID)
	if err != nil || !synced {
		t.Fatalf("DeletePeriod: synced=%v err=%v", synced, err)
	}
	if _, err := service.DeletePeriod(context.Background(), created.ID); !errors.Is(err, ErrPeriodNotFound) {
		t.Fatalf("expected ErrPeriodNotFound on second delete, got %v", err)
	}
	if len(syncer.synced) != 3 {
		t.Fatalf("expected a sync per successful mutation, got %d", len(syncer.synced))
	}
}

func TestRecordServiceIntimacyNormalizesInput(t *testing.T) {
	service := NewRecordService(newMemoryRecordRepository(), &stubSyncer{result: true}, AllFeatures())

	record, _, err := service.AddIntimacy(context.Background(), IntimacyInput{
		Date:          mustParseDay(t, "2025-01-14"),
		Contraception: "不使用",
		Partner:       "  A  ",
	})
	if err != nil {
		t.Fatalf("AddIntimacy returned error: %v", err)
	}
	if record.Contraception != models.ContraceptionNotUsed || record.Partner != "A" {
		t.Fatalf("unexpected record %+v", record)
	}

	if _, _, err := service.AddIntimacy(context.Background(), IntimacyInput{}); !errors.Is(err, ErrInvalidRecordDate) {
		t.Fatalf("expected ErrInvalidRecordDate, got %v", err)
	}

	blank, _, err := service.AddIntimacy(context.Background(), IntimacyInput{Date: mustParseDay(t, "2025-01-15")})
	if err != nil || blank.Contraception != models.ContraceptionUnknown {
		t.Fatalf("expected blank contraception to be unknown, got %+v, %v", blank, err)
	}
	_, _, err = service.AddIntimacy(context.Background(), IntimacyInput{Date: mustParseDay(t, "2025-01-16"), Contraception: "sometimes"})
	if !errors.Is(err, ErrInvalidContraception) {
		t.Fatalf("expected ErrInvalidContraception, got %v", err)
	}
}

func TestRecordServiceFeatureFlags(t *testing.T) {
	repo := newMemoryRecordRepository()
	repo.records = sampleRecordSet(t)
	service := NewRecordService(repo, nil, FeatureFlags{})

	if _, _, err := service.AddIntimacy(context.Background(), IntimacyInput{Date: mustParseDay(t, "2025-01-14")}); !errors.Is(err, ErrFeatureDisabled) {
		t.Fatalf("expected ErrFeatureDisabled for intimacy, got %v", err)
	}
	if _, _, err := service.AddHealth(context.Background(), HealthInput{Date: mustParseDay(t, "2025-01-14")}); !errors.Is(err, ErrFeatureDisabled) {
		t.Fatalf("expected ErrFeatureDisabled for health, got %v", err)
	}

	records, err := service.Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(records.Intimacy) != 0 || len(records.Health) != 0 || len(records.Periods) != 1 {
		t.Fatalf("expected disabled kinds hidden, got %+v", records)
	}
}

func TestRecordServiceHealthValidation(t *testing.T) {
	service := NewRecordService(newMemoryRecordRepository(), nil, AllFeatures())

	record, _, err := service.AddHealth(context.Background(), HealthInput{Date: mustParseDay(t, "2025-01-20")})
	if err != nil {
		t.Fatalf("AddHealth returned error: %v", err)
	}
	if record.Symptom != models.SymptomOther {
		t.Fatalf("expected empty symptom to default to other, got %q", record.Symptom)
	}

	if _, _, err := service.AddHealth(context.Background(), HealthInput{Date: mustParseDay(t, "2025-01-20"), Symptom: "fever"}); !errors.Is(err, ErrInvalidHealthRecord) {
		t.Fatalf("expected ErrInvalidHealthRecord, got %v", err)
	}
}

func TestRecordServiceClearAll(t *testing.T) {
	repo := newMemoryRecordRepository()
	repo.records = sampleRecordSet(t)
	syncer := &stubSyncer{result: true}
	service := NewRecordService(repo, syncer, AllFeatures())

	synced, err := service.ClearAll(context.Background(), false)
	if err != nil || synced {
		t.Fatalf("ClearAll without wipe: synced=%v err=%v", synced, err)
	}
	if !repo.records.IsEmpty() || syncer.wipes != 0 {
		t.Fatalf("expected empty store and no wipe, got %+v wipes=%d", repo.records, syncer.wipes)
	}

	synced, err = service.ClearAll(context.Background(), true)
	if err != nil || !synced || syncer.wipes != 1 {
		t.Fatalf("ClearAll with wipe: synced=%v err=%v wipes=%d", synced, err, syncer.wipes)
	}
}

func TestRecordServiceSaveFailureSkipsSync(t *testing.T) {
	repo := newMemoryRecordRepository()
	repo.saveErr = errors.New("disk full")
	syncer := &stubSyncer{result: true}
	service := NewRecordService(repo, syncer, AllFeatures())

	if _, _, err := service.AddPeriod(context.Background(), PeriodInput{StartDate: mustParseDay(t, "2025-01-01")}); !errors.Is(err, ErrRecordSaveFailed) {
		t.Fatalf("expected ErrRecordSaveFailed, got %v", err)
	}
	if len(syncer.synced) != 0 {
		t.Fatal("expected no sync after failed save")
	}
}

func TestRecordServiceReloadSyncs(t *testing.T) {
	repo := newMemoryRecordRepository()
	repo.records = sampleRecordSet(t)
	syncer := &stubSyncer{result: false}
	service := NewRecordService(repo, syncer, AllFeatures())

	records, synced, err := service.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload returned error: %v", err)
	}
	if synced || len(records.Periods) != 1 || len(syncer.synced) != 1 {
		t.Fatalf("unexpected reload result synced=%v records=%+v", synced, records)
	}
}

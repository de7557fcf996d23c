package services

import (
	"context"
	"encoding/csv"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/terraincognita07/tukicale/internal/models"
)

var ExportCSVHeaders = []string{
	"Type",
	"Date",
	"End date",
	"Days",
	"Contraception",
	"Partner",
	"Symptom",
	"Memo",
}

const (
	exportTypePeriod   = "period"
	exportTypeIntimacy = "intimacy"
	exportTypeHealth   = "health"
)

type ExportRecordReader interface {
	LoadRecordSet(ctx context.Context) (models.RecordSet, error)
}

type ExportService struct {
	records  ExportRecordReader
	features FeatureFlags
}

type ExportSummary struct {
	TotalEntries int    `json:"total_entries"`
	HasData      bool   `json:"has_data"`
	DateFrom     string `json:"date_from,omitempty"`
	DateTo       string `json:"date_to,omitempty"`
}

type ExportJSONDocument struct {
	ExportedAt string                `json:"exported_at"`
	Summary    ExportSummary         `json:"summary"`
	Periods    []ExportPeriodEntry   `json:"periods"`
	Intimacy   []ExportIntimacyEntry `json:"intimacy,omitempty"`
	Health     []ExportHealthEntry   `json:"health,omitempty"`
}

type ExportPeriodEntry struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Days      int    `json:"days"`
}

type ExportIntimacyEntry struct {
	Date          string `json:"date"`
	Contraception string `json:"contraception"`
	Partner       string `json:"partner,omitempty"`
	Memo          string `json:"memo,omitempty"`
}

type ExportHealthEntry struct {
	Date    string `json:"date"`
	Symptom string `json:"symptom"`
	Memo    string `json:"memo,omitempty"`
}

type ExportCSVRow struct {
	Type          string
	Date          string
	EndDate       string
	Days          int
	Contraception string
	Partner       string
	Symptom       string
	Memo          string
}

func NewExportService(records ExportRecordReader, features FeatureFlags) *ExportService {
	return &ExportService{
		records:  records,
		features: features,
	}
}

func (service *ExportService) load(ctx context.Context) (models.RecordSet, error) {
	records, err := service.records.LoadRecordSet(ctx)
	if err != nil {
		return models.RecordSet{}, ErrRecordsLoadFailed
	}
	if !service.features.IntimacyTracking {
		records.Intimacy = nil
	}
	if !service.features.HealthTracking {
		records.Health = nil
	}
	return records, nil
}

func (service *ExportService) BuildJSON(ctx context.Context, now time.Time, exportRange ExportRange) (ExportJSONDocument, error) {
	records, err := service.load(ctx)
	if err != nil {
		return ExportJSONDocument{}, err
	}
	return BuildExportJSON(exportRange.Apply(records), now), nil
}

func (service *ExportService) BuildCSVRows(ctx context.Context, exportRange ExportRange) ([]ExportCSVRow, error) {
	records, err := service.load(ctx)
	if err != nil {
		return nil, err
	}
	return BuildExportCSVRows(exportRange.Apply(records)), nil
}

func BuildExportSummary(records models.RecordSet) ExportSummary {
	dates := make([]string, 0, len(records.Periods)*2+len(records.Intimacy)+len(records.Health))
	for _, period := range records.Periods {
		dates = append(dates, FormatISODate(period.StartDate), FormatISODate(period.EndDate))
	}
	for _, record := range records.Intimacy {
		dates = append(dates, FormatISODate(record.Date))
	}
	for _, record := range records.Health {
		dates = append(dates, FormatISODate(record.Date))
	}

	total := len(records.Periods) + len(records.Intimacy) + len(records.Health)
	if total == 0 {
		return ExportSummary{}
	}
	sort.Strings(dates)
	return ExportSummary{
		TotalEntries: total,
		HasData:      true,
		DateFrom:     dates[0],
		DateTo:       dates[len(dates)-1],
	}
}

func BuildExportJSON(records models.RecordSet, now time.Time) ExportJSONDocument {
	document := ExportJSONDocument{
		ExportedAt: now.UTC().Format(time.RFC3339),
		Summary:    BuildExportSummary(records),
		Periods:    make([]ExportPeriodEntry, 0, len(records.Periods)),
	}
	for _, period := range SortPeriodsByStart(records.Periods) {
		document.Periods = append(document.Periods, ExportPeriodEntry{
			StartDate: FormatISODate(period.StartDate),
			EndDate:   FormatISODate(period.EndDate),
			Days:      period.Days,
		})
	}
	for _, record := range records.Intimacy {
		document.Intimacy = append(document.Intimacy, ExportIntimacyEntry{
			Date:          FormatISODate(record.Date),
			Contraception: record.Contraception,
			Partner:       record.Partner,
			Memo:          record.Memo,
		})
	}
	for _, record := range records.Health {
		document.Health = append(document.Health, ExportHealthEntry{
			Date:    FormatISODate(record.Date),
			Symptom: record.Symptom,
			Memo:    record.Memo,
		})
	}
	return document
}

// BuildExportCSVRows flattens every record kind into one table ordered by date.
func BuildExportCSVRows(records models.RecordSet) []ExportCSVRow {
	rows := make([]ExportCSVRow, 0, len(records.Periods)+len(records.Intimacy)+len(records.Health))
	for _, period := range records.Periods {
		rows = append(rows, ExportCSVRow{
			Type:    exportTypePeriod,
			Date:    FormatISODate(period.StartDate),
			EndDate: FormatISODate(period.EndDate),
			Days:    period.Days,
		})
	}
	for _, record := range records.Intimacy {
		rows = append(rows, ExportCSVRow{
			Type:          exportTypeIntimacy,
			Date:          FormatISODate(record.Date),
			Contraception: record.Contraception,
			Partner:       record.Partner,
			Memo:          record.Memo,
		})
	}
	for _, record := range records.Health {
		rows = append(rows, ExportCSVRow{
			Type:    exportTypeHealth,
			Date:    FormatISODate(record.Date),
			Symptom: record.Symptom,
			Memo:    record.Memo,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Date < rows[j].Date
	})
	return rows
}

func (row ExportCSVRow) Columns() []string {
	days := ""
	if row.Days > 0 {
		days = strconv.Itoa(row.Days)
	}
	return []string{
		row.Type,
		row.Date,
		row.EndDate,
		days,
		row.Contraception,
		row.Partner,
		row.Symptom,
		row.Memo,
	}
}

func WriteExportCSV(output io.Writer, rows []ExportCSVRow) error {
	writer := csv.NewWriter(output)
	if err := writer.Write(ExportCSVHeaders); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write(row.Columns()); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func BuildExportFilename(now time.Time, extension string) string {
	return "tukicale-" + now.Format("2006-01-02") + "." + extension
}

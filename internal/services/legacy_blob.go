package services

import (
	"encoding/json"
	"errors"
	"io"
	"strconv"

	"github.com/terraincognita07/tukicale/internal/models"
)

// LegacyBlobFileName is the name the web version used for its record blob.
const LegacyBlobFileName = "tukicale_data.json"

var ErrInvalidLegacyBlob = errors.New("invalid legacy blob")

type LegacyBlob struct {
	Periods     []LegacyPeriod      `json:"periods"`
	Intercourse []LegacyIntercourse `json:"intercourse"`
	Health      []LegacyHealth      `json:"health,omitempty"`
}

type LegacyPeriod struct {
	ID        json.Number `json:"id,omitempty"`
	StartDate string      `json:"startDate"`
	EndDate   string      `json:"endDate"`
	Days      int         `json:"days"`
}

type LegacyIntercourse struct {
	ID            json.Number `json:"id,omitempty"`
	Date          string      `json:"date"`
	Contraception string      `json:"contraception"`
	Partner       string      `json:"partner"`
	Memo          string      `json:"memo"`
}

type LegacyHealth struct {
	ID      json.Number `json:"id,omitempty"`
	Date    string      `json:"date"`
	Symptom string      `json:"symptom"`
	Memo    string      `json:"memo"`
}

// DecodeLegacyBlob reads the web version's JSON blob. Stored day counts are
// ignored and rederived from the dates; a missing end date gets the average
// period length of the rows read before it.
func DecodeLegacyBlob(input io.Reader) (models.RecordSet, error) {
	var blob LegacyBlob
	decoder := json.NewDecoder(input)
	decoder.UseNumber()
	if err := decoder.Decode(&blob); err != nil {
		return models.RecordSet{}, errors.Join(ErrInvalidLegacyBlob, err)
	}

	records := models.EmptyRecordSet()
	for _, entry := range blob.Periods {
		start, err := ParseISODate(entry.StartDate)
		if err != nil {
			return models.RecordSet{}, errors.Join(ErrInvalidLegacyBlob, err)
		}
		end := DefaultPeriodEnd(start, records.Periods)
		if entry.EndDate != "" {
			end, err = ParseISODate(entry.EndDate)
			if err != nil {
				return models.RecordSet{}, errors.Join(ErrInvalidLegacyBlob, err)
			}
		}
		if end.Before(start) {
			return models.RecordSet{}, ErrInvalidPeriodRange
		}
		records.Periods = append(records.Periods, models.NewPeriodRecord(start, end))
	}

	for _, entry := range blob.Intercourse {
		day, err := ParseISODate(entry.Date)
		if err != nil {
			return models.RecordSet{}, errors.Join(ErrInvalidLegacyBlob, err)
		}
		records.Intimacy = append(records.Intimacy, models.IntimacyRecord{
			Date:          day,
			Contraception: models.NormalizeContraception(entry.Contraception),
			Partner:       TrimPartner(entry.Partner),
			Memo:          TrimMemo(entry.Memo),
		})
	}

	for _, entry := range blob.Health {
		day, err := ParseISODate(entry.Date)
		if err != nil {
			return models.RecordSet{}, errors.Join(ErrInvalidLegacyBlob, err)
		}
		records.Health = append(records.Health, models.HealthRecord{
			Date:    day,
			Symptom: models.NormalizeSymptom(entry.Symptom),
			Memo:    TrimMemo(entry.Memo),
		})
	}

	return records, nil
}

func EncodeLegacyBlob(output io.Writer, records models.RecordSet) error {
	blob := LegacyBlob{
		Periods:     make([]LegacyPeriod, 0, len(records.Periods)),
		Intercourse: make([]LegacyIntercourse, 0, len(records.Intimacy)),
	}
	for _, period := range records.Periods {
		blob.Periods = append(blob.Periods, LegacyPeriod{
			ID:        legacyID(period.ID),
			StartDate: FormatISODate(period.StartDate),
			EndDate:   FormatISODate(period.EndDate),
			Days:      period.Days,
		})
	}
	for _, record := range records.Intimacy {
		blob.Intercourse = append(blob.Intercourse, LegacyIntercourse{
			ID:            legacyID(record.ID),
			Date:          FormatISODate(record.Date),
			Contraception: models.LegacyContraceptionLabel(record.Contraception),
			Partner:       record.Partner,
			Memo:          record.Memo,
		})
	}
	for _, record := range records.Health {
		blob.Health = append(blob.Health, LegacyHealth{
			ID:      legacyID(record.ID),
			Date:    FormatISODate(record.Date),
			Symptom: record.Symptom,
			Memo:    record.Memo,
		})
	}

	encoder := json.NewEncoder(output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(blob)
}

func legacyID(id uint) json.Number {
	if id == 0 {
		return ""
	}
	return json.Number(strconv.FormatUint(uint64(id), 10))
}

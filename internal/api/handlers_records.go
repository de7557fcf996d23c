package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/tukicale/internal/services"
)

type periodPayload struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type bulkPeriodsPayload struct {
	Periods []periodPayload `json:"periods"`
}

type intimacyPayload struct {
	Date          string `json:"date"`
	Contraception string `json:"contraception"`
	Partner       string `json:"partner"`
	Memo          string `json:"memo"`
}

type healthPayload struct {
	Date    string `json:"date"`
	Symptom string `json:"symptom"`
	Memo    string `json:"memo"`
}

func (payload periodPayload) input() (services.PeriodInput, error) {
	start, err := parseRequiredDate(payload.StartDate)
	if err != nil {
		return services.PeriodInput{}, err
	}
	end, err := parseOptionalDate(payload.EndDate)
	if err != nil {
		return services.PeriodInput{}, err
	}
	return services.PeriodInput{StartDate: start, EndDate: end}, nil
}

func (payload intimacyPayload) input() (services.IntimacyInput, error) {
	date, err := parseRequiredDate(payload.Date)
	if err != nil {
		return services.IntimacyInput{}, err
	}
	return services.IntimacyInput{
		Date:          date,
		Contraception: payload.Contraception,
		Partner:       payload.Partner,
		Memo:          payload.Memo,
	}, nil
}

func (payload healthPayload) input() (services.HealthInput, error) {
	date, err := parseRequiredDate(payload.Date)
	if err != nil {
		return services.HealthInput{}, err
	}
	return services.HealthInput{Date: date, Symptom: payload.Symptom, Memo: payload.Memo}, nil
}

func (handler *Handler) GetRecords(c *fiber.Ctx) error {
	records, err := handler.records.Load(c.UserContext())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"records":  records,
		"features": featuresPayload(handler.records.Features()),
	})
}

func (handler *Handler) ClearRecords(c *fiber.Ctx) error {
	wipeCalendar := c.QueryBool("calendar", false)
	synced, err := handler.records.ClearAll(c.UserContext(), wipeCalendar)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "synced": synced})
}

func (handler *Handler) CreatePeriod(c *fiber.Ctx) error {
	payload := periodPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}
	input, err := payload.input()
	if err != nil {
		return serviceError(c, err)
	}

	period, synced, err := handler.records.AddPeriod(c.UserContext(), input)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"period": period, "synced": synced})
}

// CreatePeriods registers several periods in one request. Rows without a
// start date are ignored.
func (handler *Handler) CreatePeriods(c *fiber.Ctx) error {
	payload := bulkPeriodsPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	inputs := make([]services.PeriodInput, 0, len(payload.Periods))
	for _, row := range payload.Periods {
		if row.StartDate == "" {
			continue
		}
		input, err := row.input()
		if err != nil {
			return serviceError(c, err)
		}
		inputs = append(inputs, input)
	}

	periods, synced, err := handler.records.AddPeriods(c.UserContext(), inputs)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"periods": periods, "synced": synced})
}

func (handler *Handler) UpdatePeriod(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, err.Error())
	}
	payload := periodPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}
	input, err := payload.input()
	if err != nil {
		return serviceError(c, err)
	}

	period, synced, err := handler.records.UpdatePeriod(c.UserContext(), id, input)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"period": period, "synced": synced})
}

func (handler *Handler) DeletePeriod(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, err.Error())
	}
	synced, err := handler.records.DeletePeriod(c.UserContext(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "synced": synced})
}

func (handler *Handler) CreateIntimacy(c *fiber.Ctx) error {
	payload := intimacyPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}
	input, err := payload.input()
	if err != nil {
		return serviceError(c, err)
	}

	record, synced, err := handler.records.AddIntimacy(c.UserContext(), input)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"intimacy": record, "synced": synced})
}

func (handler *Handler) UpdateIntimacy(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, err.Error())
	}
	payload := intimacyPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}
	input, err := payload.input()
	if err != nil {
		return serviceError(c, err)
	}

	record, synced, err := handler.records.UpdateIntimacy(c.UserContext(), id, input)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"intimacy": record, "synced": synced})
}

func (handler *Handler) DeleteIntimacy(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, err.Error())
	}
	synced, err := handler.records.DeleteIntimacy(c.UserContext(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "synced": synced})
}

func (handler *Handler) CreateHealth(c *fiber.Ctx) error {
	payload := healthPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}
	input, err := payload.input()
	if err != nil {
		return serviceError(c, err)
	}

	record, synced, err := handler.records.AddHealth(c.UserContext(), input)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"health": record, "synced": synced})
}

func (handler *Handler) UpdateHealth(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, err.Error())
	}
	payload := healthPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}
	input, err := payload.input()
	if err != nil {
		return serviceError(c, err)
	}

	record, synced, err := handler.records.UpdateHealth(c.UserContext(), id, input)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"health": record, "synced": synced})
}

func (handler *Handler) DeleteHealth(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, err.Error())
	}
	synced, err := handler.records.DeleteHealth(c.UserContext(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "synced": synced})
}

func featuresPayload(features services.FeatureFlags) fiber.Map {
	return fiber.Map{
		"intimacy_tracking": features.IntimacyTracking,
		"health_tracking":   features.HealthTracking,
	}
}

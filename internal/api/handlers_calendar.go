package api

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/tukicale/internal/services"
)

func (handler *Handler) GetDay(c *fiber.Ctx) error {
	day, err := services.ParseISODate(c.Params("date"))
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid date")
	}
	records, err := handler.records.Load(c.UserContext())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(services.BuildDayDetail(day, records))
}

// GetCalendar returns the month grid for ?month=YYYY-MM, defaulting to the
// current month.
func (handler *Handler) GetCalendar(c *fiber.Ctx) error {
	monthStart, err := handler.parseMonth(c.Query("month"))
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid month")
	}
	records, err := handler.records.Load(c.UserContext())
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"month": monthStart.Format("2006-01"),
		"days":  services.BuildCalendarDayStates(monthStart, records, handler.now(), handler.location),
	})
}

func (handler *Handler) GetPredictions(c *fiber.Ctx) error {
	records, err := handler.records.Load(c.UserContext())
	if err != nil {
		return serviceError(c, err)
	}

	response := fiber.Map{"predictions": services.BuildPredictions(records.Periods)}
	if next, ok := services.NextPeriodStart(records.Periods); ok {
		response["next_period_start"] = services.FormatISODate(next)
	}
	return c.JSON(response)
}

func (handler *Handler) parseMonth(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		today := handler.today()
		return time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	}
	return time.ParseInLocation("2006-01", raw, time.UTC)
}

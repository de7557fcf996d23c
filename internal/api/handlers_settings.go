package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/tukicale/internal/models"
	"github.com/terraincognita07/tukicale/internal/services"
)

type profilePayload struct {
	AgeGroup string `json:"age_group"`
}

func (handler *Handler) GetStats(c *fiber.Ctx) error {
	forecast := c.QueryInt("forecast", services.DefaultForecastCycles)
	stats, err := handler.stats.Build(c.UserContext(), handler.now(), handler.location, forecast)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(stats)
}

func (handler *Handler) GetSyncSettings(c *fiber.Ctx) error {
	settings, err := handler.settings.LoadSyncSettings(c.UserContext())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"settings": settings,
		"enabled":  handler.sync.Enabled(),
	})
}

func (handler *Handler) UpdateSyncSettings(c *fiber.Ctx) error {
	payload := models.SyncSettings{}
	if err := c.BodyParser(&payload); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}
	settings, synced, err := handler.settings.UpdateSyncSettings(c.UserContext(), payload)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"settings": settings, "synced": synced})
}

func (handler *Handler) GetProfile(c *fiber.Ctx) error {
	profile, err := handler.settings.LoadProfile(c.UserContext())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"age_group": profile.AgeGroup,
		"sync":      profile.Sync,
		"features":  featuresPayload(handler.records.Features()),
	})
}

func (handler *Handler) UpdateProfile(c *fiber.Ctx) error {
	payload := profilePayload{}
	if err := c.BodyParser(&payload); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}
	ageGroup, err := handler.settings.UpdateAgeGroup(c.UserContext(), payload.AgeGroup)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"age_group": ageGroup})
}

// SyncNow re-reads the store and runs one reconciliation pass.
func (handler *Handler) SyncNow(c *fiber.Ctx) error {
	report, err := handler.sync.SyncNow(c.UserContext())
	if err != nil {
		if report.PassID == "" {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":  err.Error(),
			"synced": false,
			"report": report,
		})
	}
	return c.JSON(fiber.Map{"synced": true, "report": report})
}

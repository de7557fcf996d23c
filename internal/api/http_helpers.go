package api

import (
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/tukicale/internal/services"
)

const (
	contextSubjectKey  = "subject"
	contextLanguageKey = "lang"
)

var errInvalidID = errors.New("invalid id")

func apiError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// serviceError maps service sentinels onto HTTP statuses. Anything unknown is
// logged and reported as a 500 without details.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrPeriodNotFound),
		errors.Is(err, services.ErrIntimacyNotFound),
		errors.Is(err, services.ErrHealthNotFound):
		return apiError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrFeatureDisabled):
		return apiError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrInvalidPeriodRange),
		errors.Is(err, services.ErrBulkPeriodsEmpty),
		errors.Is(err, services.ErrBulkPeriodsTooMany),
		errors.Is(err, services.ErrInvalidHealthRecord),
		errors.Is(err, services.ErrInvalidContraception),
		errors.Is(err, services.ErrInvalidRecordDate),
		errors.Is(err, services.ErrInvalidAgeGroup),
		errors.Is(err, services.ErrInvalidISODate),
		errors.Is(err, services.ErrInvalidLegacyBlob),
		errors.Is(err, services.ErrExportFromDateInvalid),
		errors.Is(err, services.ErrExportToDateInvalid),
		errors.Is(err, services.ErrExportRangeInvalid):
		return apiError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrSyncDisabled):
		return apiError(c, fiber.StatusConflict, err.Error())
	default:
		log.Printf("api %s %s failed: %v", c.Method(), c.Path(), err)
		return apiError(c, fiber.StatusInternalServerError, "internal error")
	}
}

func parseIDParam(c *fiber.Ctx) (uint, error) {
	raw := strings.TrimSpace(c.Params("id"))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, errInvalidID
	}
	return uint(id), nil
}

// parseOptionalDate returns nil for an empty value.
func parseOptionalDate(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parsed, err := services.ParseISODate(raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parseRequiredDate(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, services.ErrInvalidRecordDate
	}
	return services.ParseISODate(raw)
}

func setExportAttachmentHeaders(c *fiber.Ctx, contentType string, filename string) {
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
}

// LanguageMiddleware resolves the response language from ?lang or
// Accept-Language.
func (handler *Handler) LanguageMiddleware(c *fiber.Ctx) error {
	language := handler.i18n.DefaultLanguage()
	if raw := strings.TrimSpace(c.Query("lang")); raw != "" {
		language = handler.i18n.NormalizeLanguage(raw)
	} else if header := c.Get(fiber.HeaderAcceptLanguage); header != "" {
		language = handler.i18n.DetectFromAcceptLanguage(header)
	}
	c.Locals(contextLanguageKey, language)
	return c.Next()
}

func currentLanguage(c *fiber.Ctx) string {
	language, _ := c.Locals(contextLanguageKey).(string)
	return language
}

package api

import (
	"bytes"

	"github.com/gofiber/fiber/v2"
)

func (handler *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Labels returns the message catalog for the negotiated language.
func (handler *Handler) Labels(c *fiber.Ctx) error {
	language := currentLanguage(c)
	return c.JSON(fiber.Map{
		"language": language,
		"messages": handler.i18n.Messages(language),
	})
}

func (handler *Handler) CalendarFeed(c *fiber.Ctx) error {
	if handler.feed == nil {
		return apiError(c, fiber.StatusNotFound, "calendar feed disabled")
	}

	var output bytes.Buffer
	if err := handler.feed.WriteFeed(c.UserContext(), handler.calendarName, &output); err != nil {
		return serviceError(c, err)
	}
	c.Set(fiber.HeaderContentType, "text/calendar; charset=utf-8")
	return c.Send(output.Bytes())
}

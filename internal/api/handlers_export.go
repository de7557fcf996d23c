package api

import (
	"bytes"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/tukicale/internal/services"
)

// ExportJSON and ExportCSV accept optional ?from= and ?to= dates.
func (handler *Handler) ExportJSON(c *fiber.Ctx) error {
	exportRange, err := services.ParseExportRange(c.Query("from"), c.Query("to"))
	if err != nil {
		return serviceError(c, err)
	}
	now := handler.now().In(handler.location)
	document, err := handler.exports.BuildJSON(c.UserContext(), now, exportRange)
	if err != nil {
		return serviceError(c, err)
	}
	setExportAttachmentHeaders(c, fiber.MIMEApplicationJSONCharsetUTF8, services.BuildExportFilename(now, "json"))
	return c.JSON(document)
}

func (handler *Handler) ExportCSV(c *fiber.Ctx) error {
	exportRange, err := services.ParseExportRange(c.Query("from"), c.Query("to"))
	if err != nil {
		return serviceError(c, err)
	}
	rows, err := handler.exports.BuildCSVRows(c.UserContext(), exportRange)
	if err != nil {
		return serviceError(c, err)
	}

	var output bytes.Buffer
	if err := services.WriteExportCSV(&output, rows); err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to build export")
	}

	now := handler.now().In(handler.location)
	setExportAttachmentHeaders(c, "text/csv; charset=utf-8", services.BuildExportFilename(now, "csv"))
	return c.Send(output.Bytes())
}

// ExportLegacy writes the record set in the legacy JSON blob shape.
func (handler *Handler) ExportLegacy(c *fiber.Ctx) error {
	records, err := handler.records.Load(c.UserContext())
	if err != nil {
		return serviceError(c, err)
	}

	var output bytes.Buffer
	if err := services.EncodeLegacyBlob(&output, records); err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to build export")
	}
	setExportAttachmentHeaders(c, fiber.MIMEApplicationJSONCharsetUTF8, services.LegacyBlobFileName)
	return c.Send(output.Bytes())
}

// ImportLegacy replaces every record with the uploaded legacy JSON blob.
func (handler *Handler) ImportLegacy(c *fiber.Ctx) error {
	records, err := services.DecodeLegacyBlob(bytes.NewReader(c.Body()))
	if err != nil {
		return serviceError(c, err)
	}
	synced, err := handler.records.Replace(c.UserContext(), records)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"ok":       true,
		"synced":   synced,
		"periods":  len(records.Periods),
		"intimacy": len(records.Intimacy),
		"health":   len(records.Health),
	})
}

package api

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Get("/healthz", handler.Health)
	app.Get("/calendar.ics", handler.FeedAuthRequired, handler.CalendarFeed)
	registerAPIRoutes(app, handler)
}

func registerAPIRoutes(app *fiber.App, handler *Handler) {
	api := app.Group("/api", handler.LanguageMiddleware, handler.AuthRequired)

	api.Get("/labels", handler.Labels)

	api.Get("/records", handler.GetRecords)
	api.Delete("/records", handler.ClearRecords)

	periods := api.Group("/periods")
	periods.Post("", handler.CreatePeriod)
	periods.Post("/bulk", handler.CreatePeriods)
	periods.Put("/:id", handler.UpdatePeriod)
	periods.Delete("/:id", handler.DeletePeriod)

	intimacy := api.Group("/intimacy")
	intimacy.Post("", handler.CreateIntimacy)
	intimacy.Put("/:id", handler.UpdateIntimacy)
	intimacy.Delete("/:id", handler.DeleteIntimacy)

	health := api.Group("/health")
	health.Post("", handler.CreateHealth)
	health.Put("/:id", handler.UpdateHealth)
	health.Delete("/:id", handler.DeleteHealth)

	api.Get("/days/:date", handler.GetDay)
	api.Get("/calendar", handler.GetCalendar)
	api.Get("/predictions", handler.GetPredictions)
	api.Get("/stats", handler.GetStats)

	settings := api.Group("/settings")
	settings.Get("/sync", handler.GetSyncSettings)
	settings.Put("/sync", handler.UpdateSyncSettings)
	settings.Get("/profile", handler.GetProfile)
	settings.Put("/profile", handler.UpdateProfile)

	api.Post("/sync", handler.SyncNow)

	export := api.Group("/export")
	export.Get("/json", handler.ExportJSON)
	export.Get("/csv", handler.ExportCSV)
	export.Get("/legacy", handler.ExportLegacy)
	api.Post("/import/legacy", handler.ImportLegacy)
}

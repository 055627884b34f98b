package httpapi

import (
	"github.com/gofiber/fiber/v2"

	"radar-cuaca/internal/runner"
)

// RegisterRoutes wires the daemon status handlers into the Fiber app.
// The endpoint is read-only: it exposes the last rendered report and pass
// counters, nothing more.
func RegisterRoutes(app *fiber.App, r *runner.Runner) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "radar-cuaca",
		})
	})

	v1 := app.Group("/api/v1")

	v1.Get("/report", func(c *fiber.Ctx) error {
		text, ok := r.LastReport()
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no pass has completed yet")
		}

		passes, failures := r.Stats()
		return c.JSON(fiber.Map{
			"passes":   passes,
			"failures": failures,
			"report":   text,
		})
	})
}

package routes

import (
	"github.com/gofiber/fiber/v2"
)

type docEndpoint struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Auth   string `json:"auth"`
	Notes  string `json:"notes,omitempty"`
}

type docSection struct {
	Name      string        `json:"name"`
	Endpoints []docEndpoint `json:"endpoints"`
}

var docCatalog = []docSection{
	{
		Name: "Auth",
		Endpoints: []docEndpoint{
			{Method: "POST", Path: "/api/auth/register", Auth: "none", Notes: "Roles: patient, practitioner. Practitioners start unapproved."},
			{Method: "POST", Path: "/api/auth/login", Auth: "none"},
			{Method: "GET", Path: "/api/auth/me", Auth: "bearer"},
		},
	},
	{
		Name: "Therapies",
		Endpoints: []docEndpoint{
			{Method: "GET", Path: "/api/v1/therapies", Auth: "bearer"},
			{Method: "GET", Path: "/api/v1/therapies/:id", Auth: "bearer"},
			{Method: "POST", Path: "/api/v1/therapies", Auth: "admin"},
			{Method: "PUT", Path: "/api/v1/therapies/:id", Auth: "admin"},
		},
	},
	{
		Name: "Practitioners",
		Endpoints: []docEndpoint{
			{Method: "GET", Path: "/api/v1/practitioners/:id/availability", Auth: "bearer", Notes: "Query params: date (YYYY-MM-DD), duration (minutes)."},
			{Method: "GET", Path: "/api/v1/practitioners/:id/feedback", Auth: "bearer"},
			{Method: "PUT", Path: "/api/v1/practitioners/:id/approval", Auth: "admin"},
		},
	},
	{
		Name: "Sessions",
		Endpoints: []docEndpoint{
			{Method: "POST", Path: "/api/v1/sessions/book", Auth: "patient", Notes: "RFC3339 start_time/end_time. Booking is rejected when either party has an overlapping active session."},
			{Method: "GET", Path: "/api/v1/sessions", Auth: "bearer", Notes: "Filters: status, timeframe (upcoming|past), limit, offset."},
			{Method: "GET", Path: "/api/v1/sessions/:id", Auth: "bearer", Notes: "Includes reschedule history."},
			{Method: "PUT", Path: "/api/v1/sessions/:id/status", Auth: "bearer", Notes: "Lifecycle transitions only; cancellation has its own endpoint."},
			{Method: "POST", Path: "/api/v1/sessions/:id/cancel", Auth: "bearer", Notes: "Fee depends on notice: under 2h 50%, under 24h 25%, otherwise free."},
			{Method: "POST", Path: "/api/v1/sessions/:id/reschedule", Auth: "bearer", Notes: "Only scheduled or confirmed sessions; status resets to scheduled."},
			{Method: "POST", Path: "/api/v1/sessions/:id/feedback", Auth: "patient", Notes: "Completed sessions only, once per session."},
		},
	},
	{
		Name: "Profiles",
		Endpoints: []docEndpoint{
			{Method: "GET", Path: "/api/v1/profiles/patient", Auth: "patient"},
			{Method: "PUT", Path: "/api/v1/profiles/patient", Auth: "patient"},
			{Method: "GET", Path: "/api/v1/profiles/practitioner", Auth: "practitioner"},
			{Method: "PUT", Path: "/api/v1/profiles/practitioner", Auth: "practitioner"},
		},
	},
	{
		Name: "Notifications",
		Endpoints: []docEndpoint{
			{Method: "GET", Path: "/api/v1/notifications", Auth: "bearer"},
			{Method: "PUT", Path: "/api/v1/notifications/:id/read", Auth: "bearer"},
		},
	},
	{
		Name: "Realtime",
		Endpoints: []docEndpoint{
			{Method: "GET", Path: "/api/v1/ws", Auth: "bearer", Notes: "WebSocket upgrade; token via ?token= or Authorization header."},
		},
	},
}

// RegisterDocs exposes a machine-readable route catalog. Gated behind
// ENABLE_DOCS so production deployments can leave it off.
func RegisterDocs(app *fiber.App) {
	app.Get("/docs", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"name":     "Panchkarma Sutra API",
			"sections": docCatalog,
		})
	})
}

package routes

import (
	"github.com/gofiber/fiber/v2"
	providerpkg "github.com/like-mike/relai-chat/provider"
	"github.com/like-mike/relai-chat/shared/config"
)

// RegisterRoutes attaches the relay, probe, health and static frontend
// routes. provider may be nil when no API key is configured; the relay
// routes then answer 400 without calling upstream.
func RegisterRoutes(app *fiber.App, cfg *config.Config, provider providerpkg.CompletionProvider) {
	h := &chatHandler{cfg: cfg, provider: provider}

	api := app.Group("/api")
	api.Post("/chat", h.Chat)
	api.Get("/test", h.Probe)

	app.Get("/health", HealthHandler)

	// Must stay last: the wildcard swallows every remaining GET.
	app.Get("/*", StaticHandler(cfg.PublicDir))
}

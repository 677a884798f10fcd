package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/venue-seatmap/internal/handler" // import the handlers that drive viewer sessions
	"github.com/iliyamo/venue-seatmap/internal/viewer"  // import the session manager for readiness
)

// RegisterRoutes registers routes that sit outside the viewer API: the
// liveness check and a readiness check reporting open sessions.
func RegisterRoutes(e *echo.Echo, m *viewer.Manager) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(m))
}

// RegisterViewer registers the /v1/viewers API.  moveLimit guards pointer
// input and frameLimit guards frame polling, the endpoints a page calls at
// display refresh rate.
func RegisterViewer(e *echo.Echo, h *handler.ViewerHandler, moveLimit, frameLimit echo.MiddlewareFunc) {
	g := e.Group("/v1/viewers")
	g.POST("", h.Create)
	g.DELETE("/:id", h.Delete)
	g.PUT("/:id/map", h.Retarget)
	g.POST("/:id/resize", h.Resize)
	// pointer moves arrive once per animation frame; clicks are never limited
	g.POST("/:id/pointer", h.Pointer, moveLimit)
	g.GET("/:id/frame.png", h.Frame, frameLimit)
	g.GET("/:id/selection", h.Selection)
	g.GET("/:id/state", h.State)
	g.GET("/:id/events", h.Events)
}

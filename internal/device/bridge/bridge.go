// Package bridge exposes the device timer controller over a local HTTP API.
// The companion app talks to this endpoint instead of linking the controller
// directly, mirroring the server's transport layer on a smaller scale.
package bridge

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ScreenBuddy/screenbuddy_backend/internal/device/timer"
	"github.com/gin-gonic/gin"
)

// UnlockRequest lifts the block on an app for a granted session.
type UnlockRequest struct {
	SessionID string `json:"sessionID" binding:"required"`
	Minutes   int    `json:"minutes" binding:"required,gt=0"`
}

// RemainingResponse reports the remaining unlock time for an app.
type RemainingResponse struct {
	AppRef           string  `json:"appRef"`
	Blocked          bool    `json:"blocked"`
	RemainingSeconds float64 `json:"remainingSeconds"`
}

// Bridge wires the controller into HTTP handlers.
type Bridge struct {
	controller *timer.Controller
	logger     *slog.Logger

	permissionGranted bool
}

// New creates a Bridge for the given controller.
func New(controller *timer.Controller, logger *slog.Logger) *Bridge {
	return &Bridge{controller: controller, logger: logger}
}

// Router builds the gin engine serving the local device API.
func (b *Bridge) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/permissions/request", b.requestPermission)
	r.GET("/apps/unblocked", b.listUnblocked)
	r.POST("/apps/:appRef/unblock", b.unlockApp)
	r.POST("/apps/:appRef/block", b.blockApp)
	r.GET("/apps/:appRef/remaining", b.remaining)
	r.GET("/events", b.streamEvents)

	return r
}

// requestPermission stands in for the platform's screen-time permission
// prompt. On a real device this would route through the OS; here it simply
// records that the prompt was accepted.
func (b *Bridge) requestPermission(c *gin.Context) {
	b.permissionGranted = true
	b.logger.Info("Screen time permission granted")
	c.JSON(http.StatusOK, gin.H{"granted": true})
}

func (b *Bridge) listUnblocked(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"unblocked": b.controller.Unblocked()})
}

func (b *Bridge) unlockApp(c *gin.Context) {
	var req UnlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	appRef := c.Param("appRef")
	if err := b.controller.Unlock(req.SessionID, appRef, req.Minutes); err != nil {
		b.logger.Error("Unlock failed", slog.String("app_ref", appRef), slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (b *Bridge) blockApp(c *gin.Context) {
	b.controller.Block(c.Param("appRef"))
	c.Status(http.StatusNoContent)
}

func (b *Bridge) remaining(c *gin.Context) {
	appRef := c.Param("appRef")
	remaining, unblocked := b.controller.Remaining(appRef)
	c.JSON(http.StatusOK, RemainingResponse{
		AppRef:           appRef,
		Blocked:          !unblocked,
		RemainingSeconds: remaining.Seconds(),
	})
}

// streamEvents pushes controller events to the client as server-sent events.
// The subscription is dropped as soon as the client disconnects.
func (b *Bridge) streamEvents(c *gin.Context) {
	events := make(chan timer.Event, 16)
	unsubscribe := b.controller.Subscribe(func(ev timer.Event) {
		select {
		case events <- ev:
		default:
			// Slow consumer: drop rather than block timer goroutines.
		}
	})
	defer unsubscribe()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")

	c.Stream(func(w io.Writer) bool {
		select {
		case ev := <-events:
			c.SSEvent(string(ev.Type), gin.H{
				"appRef":           ev.AppRef,
				"sessionID":        ev.SessionID,
				"remainingSeconds": ev.Remaining.Seconds(),
				"at":               ev.At.UTC().Format(time.RFC3339),
			})
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

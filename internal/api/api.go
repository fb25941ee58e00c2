package api

import (
	"context"
	"net/http"
	"time"

	"github.com/celerix-dev/wizards-profile/internal/facts"
	"github.com/celerix-dev/wizards-profile/internal/logger"
	"github.com/celerix-dev/wizards-profile/internal/profile"
	"github.com/celerix-dev/wizards-profile/pkg/schema"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	Identity profile.Identity
	Facts    facts.Provider
	Log      *logger.Logger

	// FactTimeout bounds the single provider attempt made per /me request.
	FactTimeout time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// Root serves the service identity document.
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, schema.Root())
}

// Me always answers 200 with a success envelope. A provider failure only
// swaps the fact for the fallback sentence.
func (h *Handler) Me(c *gin.Context) {
	ctx := c.Request.Context()
	if h.FactTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.FactTimeout)
		defer cancel()
	}

	var result profile.Result
	f, err := h.Facts.Fetch(ctx)
	if err != nil {
		result = profile.Failed(err)
		if h.Log != nil {
			h.Log.WithError(err).
				WithField("request_id", RequestIDFrom(c)).
				Error("Error fetching cat fact")
		}
	} else {
		result = profile.Ok(f.Fact)
		if h.Log != nil {
			h.Log.WithFields(map[string]any{
				"request_id": RequestIDFrom(c),
				"length":     f.Length,
			}).Debug("Fetched cat fact")
		}
	}

	c.JSON(http.StatusOK, profile.Compose(h.Identity, result, h.now()))
}

// NotFound answers every unmatched method/path.
func (h *Handler) NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, schema.NotFound())
}

package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/01moynul/zemmon-store/internal/apperr"
)

// respondError renders err as {"success": false, "message": ...} with the
// status of its kind. Dependency failures are logged and never leak their
// cause.
func (h *Handlers) respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindDependency {
		h.Log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		_ = c.Error(err)
	}
	c.JSON(kind.HTTPStatus(), gin.H{"success": false, "message": apperr.PublicMessage(err)})
}

func badRequest(message string) error {
	return apperr.Validation("bad_request", "%s", message)
}

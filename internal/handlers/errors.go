package handlers

import (
	"errors"

	"healthcare-portal/internal/clinicalapi"
	"healthcare-portal/internal/middleware"
	"healthcare-portal/internal/models"
	"healthcare-portal/internal/utils"
	"healthcare-portal/internal/views"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps registry and clinical API errors onto the response
// envelope. Transient upstream failures get a generic message.
func respondError(c *gin.Context, log *zap.Logger, loginPath string, err error) {
	switch {
	case errors.Is(err, views.ErrSessionExpired), errors.Is(err, clinicalapi.ErrUnauthorized):
		utils.SessionExpired(c, loginPath)
	case errors.Is(err, views.ErrNotMounted):
		utils.NotFound(c, "No view is mounted for this user. Open the view first.")
	case errors.Is(err, views.ErrNoFeed):
		utils.Forbidden(c, "The consultation feed is not available for your role.")
	case errors.Is(err, clinicalapi.ErrSendRequest),
		errors.Is(err, clinicalapi.ErrUnexpectedStatus),
		errors.Is(err, clinicalapi.ErrDecodeResponse):
		log.Warn("handlers clinical API request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		utils.BadGateway(c, "Could not reach the clinical service. Please try again.")
	default:
		log.Error("handlers unexpected error",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		utils.InternalServerError(c, "Something went wrong. Please try again.")
	}
}

// currentView resolves the caller's mounted view, writing the error response
// when it cannot.
func currentView(c *gin.Context, registry *views.Registry, log *zap.Logger, loginPath string) (*views.View, models.Viewer, bool) {
	viewer, ok := middleware.GetViewerFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return nil, models.Viewer{}, false
	}
	view, err := registry.Get(viewer.UserID)
	if err != nil {
		respondError(c, log, loginPath, err)
		return nil, viewer, false
	}
	return view, viewer, true
}

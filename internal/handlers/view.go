package handlers

import (
	"errors"
	"io"

	"healthcare-portal/internal/calendar"
	"healthcare-portal/internal/clinicalapi"
	"healthcare-portal/internal/middleware"
	"healthcare-portal/internal/models"
	"healthcare-portal/internal/utils"
	"healthcare-portal/internal/views"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ViewHandler mounts and tears down a viewer's calendar/triage view.
type ViewHandler struct {
	Registry  *views.Registry
	LoginPath string
	Log       *zap.Logger
}

// NewViewHandler creates a new ViewHandler.
func NewViewHandler(registry *views.Registry, loginPath string, logger *zap.Logger) *ViewHandler {
	return &ViewHandler{Registry: registry, LoginPath: loginPath, Log: logger}
}

// MountViewRequest carries the clinical API token when it differs from the
// portal bearer token.
type MountViewRequest struct {
	ClinicalToken string `json:"clinicalToken"`
}

// MountViewResponse describes a freshly mounted view.
type MountViewResponse struct {
	Viewer   models.Viewer  `json:"viewer"`
	Calendar calendar.State `json:"calendar"`
	Feed     bool           `json:"feed"`
}

// Mount handles opening the view: stores the viewer's clinical credentials and
// starts the consultation feed for roles that have one.
func (h *ViewHandler) Mount(c *gin.Context) {
	viewer, ok := middleware.GetViewerFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req MountViewRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	creds := clinicalapi.Credentials{UserID: viewer.UserID, Token: req.ClinicalToken}
	if creds.Token == "" {
		creds.Token = middleware.GetBearerTokenFromContext(c)
	}

	view, err := h.Registry.Mount(c.Request.Context(), viewer, creds)
	if err != nil {
		respondError(c, h.Log, h.LoginPath, err)
		return
	}

	utils.Created(c, "View mounted", MountViewResponse{
		Viewer:   viewer,
		Calendar: view.Calendar.State(),
		Feed:     view.Feed != nil,
	})
}

// Unmount handles navigating away. With ?logout=true the stored clinical
// credentials are cleared as well.
func (h *ViewHandler) Unmount(c *gin.Context) {
	viewer, ok := middleware.GetViewerFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	if c.Query("logout") == "true" {
		if err := h.Registry.Logout(c.Request.Context(), viewer.UserID); err != nil {
			respondError(c, h.Log, h.LoginPath, err)
			return
		}
		utils.Success(c, "Logged out", nil)
		return
	}

	if !h.Registry.Unmount(viewer.UserID) {
		utils.NotFound(c, "No view is mounted for this user.")
		return
	}
	utils.Success(c, "View unmounted", nil)
}

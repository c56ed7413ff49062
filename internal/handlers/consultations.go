package handlers

import (
	"time"

	"healthcare-portal/internal/consultations"
	"healthcare-portal/internal/models"
	"healthcare-portal/internal/triage"
	"healthcare-portal/internal/utils"
	"healthcare-portal/internal/views"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ConsultationHandler handles the live consultation triage feed.
type ConsultationHandler struct {
	Registry  *views.Registry
	LoginPath string
	Log       *zap.Logger
}

// NewConsultationHandler creates a new ConsultationHandler.
func NewConsultationHandler(registry *views.Registry, loginPath string, logger *zap.Logger) *ConsultationHandler {
	return &ConsultationHandler{Registry: registry, LoginPath: loginPath, Log: logger}
}

// ConsultationView is a consultation with its triage classification.
type ConsultationView struct {
	models.Consultation
	Category triage.Category `json:"category"`
	Risk     *triage.Badge   `json:"risk,omitempty"`
	Selected bool            `json:"selected"`
}

// FeedResponse is the current consultation feed.
type FeedResponse struct {
	Items      []ConsultationView `json:"items"`
	SelectedID string             `json:"selectedId,omitempty"`
	// Loading is true until the first fetch has been applied.
	Loading  bool       `json:"loading"`
	SyncedAt *time.Time `json:"syncedAt,omitempty"`
}

// SelectConsultationRequest represents the request body for selecting a consultation.
type SelectConsultationRequest struct {
	ID string `json:"id" binding:"required"`
}

// GetFeed returns the latest applied consultation list, newest activity first.
func (h *ConsultationHandler) GetFeed(c *gin.Context) {
	feed, ok := h.feed(c)
	if !ok {
		return
	}

	selectedID := feed.SelectedID()
	items := feed.Items()
	resp := FeedResponse{
		Items:      make([]ConsultationView, len(items)),
		SelectedID: selectedID,
		Loading:    feed.AppliedSeq() == 0,
	}
	for i, item := range items {
		resp.Items[i] = toConsultationView(item, selectedID)
	}
	if synced := feed.SyncedAt(); !synced.IsZero() {
		resp.SyncedAt = &synced
	}
	utils.Success(c, "Consultations retrieved successfully", resp)
}

// SelectConsultation opens the consultation detail. The selection follows the
// record across refreshes.
func (h *ConsultationHandler) SelectConsultation(c *gin.Context) {
	var req SelectConsultationRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	feed, ok := h.feed(c)
	if !ok {
		return
	}
	sel, ok := feed.Select(req.ID)
	if !ok {
		utils.NotFound(c, "Consultation not found")
		return
	}
	utils.Success(c, "Consultation selected", toConsultationView(sel, sel.ID))
}

// GetSelected returns the selected consultation as it appears in the latest feed.
func (h *ConsultationHandler) GetSelected(c *gin.Context) {
	feed, ok := h.feed(c)
	if !ok {
		return
	}
	sel, found := feed.Selected()
	if !found {
		if feed.SelectedID() != "" {
			utils.NotFound(c, "The selected consultation is no longer in the feed")
			return
		}
		utils.NotFound(c, "No consultation selected")
		return
	}
	utils.Success(c, "Consultation retrieved successfully", toConsultationView(sel, sel.ID))
}

// ClearSelection closes the consultation detail.
func (h *ConsultationHandler) ClearSelection(c *gin.Context) {
	feed, ok := h.feed(c)
	if !ok {
		return
	}
	feed.ClearSelection()
	utils.Success(c, "Selection cleared", nil)
}

func (h *ConsultationHandler) feed(c *gin.Context) (*consultations.Reconciler, bool) {
	view, _, ok := currentView(c, h.Registry, h.Log, h.LoginPath)
	if !ok {
		return nil, false
	}
	if view.Feed == nil {
		respondError(c, h.Log, h.LoginPath, views.ErrNoFeed)
		return nil, false
	}
	// the poller may have lost the clinical session since the view was resolved
	if !view.Feed.Active() {
		if _, err := h.Registry.Get(view.Viewer.UserID); err != nil {
			respondError(c, h.Log, h.LoginPath, err)
			return nil, false
		}
	}
	return view.Feed, true
}

func toConsultationView(item models.Consultation, selectedID string) ConsultationView {
	v := ConsultationView{
		Consultation: item,
		Category:     triage.ClassifyStatus(item.Status),
		Selected:     selectedID != "" && item.ID == selectedID,
	}
	if badge, ok := triage.ClassifyRisk(item.RiskLevel); ok {
		v.Risk = &badge
	}
	return v
}

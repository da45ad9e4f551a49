package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fintrack/internal/services"
)

// SyncHandler handles transaction sync triggers.
type SyncHandler struct {
	syncService  services.SyncServicer
	auditService services.AuditServicer
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(syncService services.SyncServicer, auditService services.AuditServicer) *SyncHandler {
	return &SyncHandler{syncService: syncService, auditService: auditService}
}

// TriggerSync runs a sync for the authenticated user
// @Summary     Sync transactions
// @Description Pull incremental transaction changes for all of the user's linked institutions
// @Tags        sync
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.SyncReport "Sync report"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /sync [post]
func (h *SyncHandler) TriggerSync(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	report, err := h.syncService.SyncUser(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "SYNC", "sync_run", 0, c.ClientIP(),
		map[string]interface{}{"run_id": report.RunID})

	c.JSON(http.StatusOK, gin.H{"report": report})
}

// PipelineSync runs a sync for every user. Authenticated with the pipeline
// API key, not a user JWT; meant to be called by an external scheduler.
// @Summary     Sync all users
// @Description Pull incremental transaction changes for every user's linked institutions
// @Tags        pipeline
// @Produce     json
// @Security    ApiKeyAuth
// @Success     200 {array} services.SyncReport "Per-user sync reports"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /pipeline/sync [post]
func (h *SyncHandler) PipelineSync(c *gin.Context) {
	reports, err := h.syncService.SyncAll(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/services"
)

// LinkHandler handles the institution link lifecycle.
type LinkHandler struct {
	credentialService services.CredentialServicer
	auditService      services.AuditServicer
}

// NewLinkHandler creates a new LinkHandler.
func NewLinkHandler(credentialService services.CredentialServicer, auditService services.AuditServicer) *LinkHandler {
	return &LinkHandler{credentialService: credentialService, auditService: auditService}
}

// LinkRequest represents the payload to complete the link handshake
type LinkRequest struct {
	PublicToken string `json:"public_token" binding:"required"`
	Institution string `json:"institution" binding:"required,min=1,max=100"`
}

// LinkInstitution completes an institution link
// @Summary     Link an institution
// @Description Exchange a public token from the link flow and create linked accounts
// @Tags        links
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body LinkRequest true "Link handshake data"
// @Success     201 {object} models.Credential "Institution linked"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     502 {object} ErrorResponse "Provider error"
// @Router      /links [post]
func (h *LinkHandler) LinkInstitution(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req LinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	credential, err := h.credentialService.LinkInstitution(c.Request.Context(), userID, req.PublicToken, req.Institution)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "LINK_INSTITUTION", "credential", credential.ID, c.ClientIP(),
		map[string]interface{}{"institution": req.Institution})

	c.JSON(http.StatusCreated, gin.H{"credential": credential})
}

// GetUserCredentials lists the user's linked institutions
// @Summary     List linked institutions
// @Description Get the user's linked institutions with their accounts and sync state
// @Tags        links
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.Credential "Linked institutions"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /links [get]
func (h *LinkHandler) GetUserCredentials(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	credentials, err := h.credentialService.GetUserCredentials(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"credentials": credentials})
}

// Disconnect removes a linked institution
// @Summary     Disconnect an institution
// @Description Remove a linked institution, its accounts, and its synced transactions
// @Tags        links
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Credential ID"
// @Success     200 {object} map[string]string "Disconnected"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Credential not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /links/{id} [delete]
func (h *LinkHandler) Disconnect(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	credentialID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.credentialService.Disconnect(userID, credentialID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DISCONNECT_INSTITUTION", "credential", credentialID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"status": "disconnected"})
}

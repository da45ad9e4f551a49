package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/pagination"
	"fintrack/internal/services"
)

// HoldingHandler handles Bitcoin holding requests.
type HoldingHandler struct {
	holdingService services.HoldingServicer
	auditService   services.AuditServicer
}

// NewHoldingHandler creates a new HoldingHandler.
func NewHoldingHandler(holdingService services.HoldingServicer, auditService services.AuditServicer) *HoldingHandler {
	return &HoldingHandler{holdingService: holdingService, auditService: auditService}
}

// AddHoldingRequest represents the payload for recording a Bitcoin position
type AddHoldingRequest struct {
	Satoshis   int64  `json:"satoshis" binding:"required,gt=0"`
	CostBasis  int64  `json:"cost_basis" binding:"gte=0"`
	AcquiredAt string `json:"acquired_at" binding:"omitempty"`
	Note       string `json:"note" binding:"max=500"`
}

// AddHolding records a Bitcoin position
// @Summary     Add a holding
// @Description Record a self-custodied Bitcoin position in satoshis
// @Tags        holdings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body AddHoldingRequest true "Holding details"
// @Success     201 {object} models.BitcoinHolding "Holding recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /holdings [post]
func (h *HoldingHandler) AddHolding(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AddHoldingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var acquiredAt time.Time
	if req.AcquiredAt != "" {
		acquiredAt, err = parseDate(req.AcquiredAt)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid acquired_at date"))
			return
		}
	}

	holding, err := h.holdingService.AddHolding(userID, req.Satoshis, req.CostBasis, acquiredAt, req.Note)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "ADD_HOLDING", "holding", holding.ID, c.ClientIP(),
		map[string]interface{}{"satoshis": req.Satoshis})

	c.JSON(http.StatusCreated, gin.H{"holding": holding})
}

// GetUserHoldings returns the user's holdings
// @Summary     List holdings
// @Description Get a paginated list of the user's Bitcoin holdings
// @Tags        holdings
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.BitcoinHolding] "Holdings"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /holdings [get]
func (h *HoldingHandler) GetUserHoldings(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.holdingService.GetUserHoldings(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// DeleteHolding removes a holding
// @Summary     Delete a holding
// @Description Remove one of the user's Bitcoin holdings
// @Tags        holdings
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Holding ID"
// @Success     200 {object} map[string]string "Deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Holding not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /holdings/{id} [delete]
func (h *HoldingHandler) DeleteHolding(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	holdingID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.holdingService.DeleteHolding(userID, holdingID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_HOLDING", "holding", holdingID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// GetValuation values the user's holdings at the current spot price
// @Summary     Value holdings
// @Description Total the user's Bitcoin holdings and value them at the current spot price
// @Tags        holdings
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.HoldingValuation "Valuation"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     502 {object} ErrorResponse "Price provider error"
// @Router      /holdings/valuation [get]
func (h *HoldingHandler) GetValuation(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	valuation, err := h.holdingService.GetValuation(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"valuation": valuation})
}

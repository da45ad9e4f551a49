package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/services"
)

// CashflowHandler handles cash-flow report requests.
type CashflowHandler struct {
	cashflowService services.CashflowServicer
}

// NewCashflowHandler creates a new CashflowHandler.
func NewCashflowHandler(cashflowService services.CashflowServicer) *CashflowHandler {
	return &CashflowHandler{cashflowService: cashflowService}
}

// GetCashflow returns the user's monthly cash-flow report
// @Summary     Cash-flow report
// @Description Aggregate income and spending per month over a date range; transfers are excluded
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       from query string false "Start date (YYYY-MM-DD), defaults to 6 months ago"
// @Param       to query string false "End date (YYYY-MM-DD), defaults to today"
// @Success     200 {object} services.CashflowReport "Cash-flow report"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/cashflow [get]
func (h *CashflowHandler) GetCashflow(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	to := time.Now()
	from := to.AddDate(0, -6, 0)

	if v := c.Query("from"); v != "" {
		from, err = parseDate(v)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid 'from' date"))
			return
		}
	}
	if v := c.Query("to"); v != "" {
		to, err = parseDate(v)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid 'to' date"))
			return
		}
	}

	report, err := h.cashflowService.GetCashflow(userID, from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}

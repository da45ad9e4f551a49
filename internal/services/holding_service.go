package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/provider"
)

// satoshisPerBTC converts the spot price (cents per BTC) to holding value.
const satoshisPerBTC = 100_000_000

// holdingService tracks self-custodied Bitcoin positions.
type holdingService struct {
	db     *gorm.DB
	prices provider.PriceSource
}

// NewHoldingService creates a new HoldingServicer.
func NewHoldingService(db *gorm.DB, prices provider.PriceSource) HoldingServicer {
	return &holdingService{db: db, prices: prices}
}

// AddHolding records a new Bitcoin position.
func (s *holdingService) AddHolding(userID uint, satoshis, costBasis int64, acquiredAt time.Time, note string) (*models.BitcoinHolding, error) {
	if satoshis <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "satoshis must be greater than zero")
	}
	if costBasis < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "cost basis cannot be negative")
	}

	if acquiredAt.IsZero() {
		acquiredAt = time.Now()
	}

	holding := &models.BitcoinHolding{
		UserID:     userID,
		Satoshis:   satoshis,
		CostBasis:  costBasis,
		AcquiredAt: acquiredAt,
		Note:       note,
	}

	if err := s.db.Create(holding).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return holding, nil
}

// GetUserHoldings retrieves a paginated list of the user's holdings.
func (s *holdingService) GetUserHoldings(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.BitcoinHolding], error) {
	page.Defaults()

	base := s.db.Model(&models.BitcoinHolding{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var holdings []models.BitcoinHolding
	if err := base.Scopes(pagination.Paginate(page)).
		Order("acquired_at DESC").
		Find(&holdings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(holdings, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetHoldingByID retrieves a holding by ID for a specific user
func (s *holdingService) GetHoldingByID(userID, holdingID uint) (*models.BitcoinHolding, error) {
	var holding models.BitcoinHolding
	if err := s.db.Where("id = ? AND user_id = ?", holdingID, userID).First(&holding).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrHoldingNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &holding, nil
}

// DeleteHolding removes a holding.
func (s *holdingService) DeleteHolding(userID, holdingID uint) error {
	holding, err := s.GetHoldingByID(userID, holdingID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(holding).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetValuation totals the user's holdings and values them at the current
// spot price.
func (s *holdingService) GetValuation(ctx context.Context, userID uint) (*HoldingValuation, error) {
	var totals struct {
		Satoshis  int64
		CostBasis int64
	}
	if err := s.db.Model(&models.BitcoinHolding{}).
		Select("COALESCE(SUM(satoshis), 0) AS satoshis, COALESCE(SUM(cost_basis), 0) AS cost_basis").
		Where("user_id = ? AND deleted_at IS NULL", userID).
		Scan(&totals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	spot, err := s.prices.BitcoinPrice(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrProvider, err)
	}

	// Value in cents: satoshis * (cents per BTC) / (satoshis per BTC).
	marketValue := totals.Satoshis / satoshisPerBTC * spot
	remainder := totals.Satoshis % satoshisPerBTC
	marketValue += remainder * spot / satoshisPerBTC

	return &HoldingValuation{
		TotalSatoshis:  totals.Satoshis,
		TotalCostBasis: totals.CostBasis,
		SpotPrice:      spot,
		MarketValue:    marketValue,
		GainLoss:       marketValue - totals.CostBasis,
		PricedAt:       time.Now(),
	}, nil
}

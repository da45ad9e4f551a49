package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/provider"
)

// credentialService handles the institution link lifecycle.
type credentialService struct {
	db   *gorm.DB
	link provider.LinkSource
}

// NewCredentialService creates a new CredentialServicer.
func NewCredentialService(db *gorm.DB, link provider.LinkSource) CredentialServicer {
	return &credentialService{db: db, link: link}
}

// LinkInstitution completes the link handshake: it exchanges the public token
// for a permanent access token, stores the credential, and creates a local
// account for every account the provider reports. The credential row is
// written once and never mutated afterwards.
func (s *credentialService) LinkInstitution(ctx context.Context, userID uint, publicToken, institution string) (*models.Credential, error) {
	if publicToken == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "public token is required")
	}

	accessToken, itemID, err := s.link.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrProvider, err)
	}

	linked, err := s.link.GetAccounts(ctx, accessToken)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrProvider, err)
	}

	credential := &models.Credential{
		UserID:      userID,
		AccessToken: accessToken,
		ItemID:      itemID,
		Institution: institution,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(credential).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		for _, la := range linked {
			providerAccountID := la.AccountID
			currency := la.Currency
			if currency == "" {
				currency = "USD"
			}
			account := &models.Account{
				UserID:            userID,
				Name:              la.Name,
				Type:              mapAccountType(la.Type),
				Currency:          currency,
				IsActive:          true,
				CredentialID:      &credential.ID,
				ProviderAccountID: &providerAccountID,
			}
			if err := tx.Create(account).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return credential, nil
}

// GetUserCredentials lists the user's linked institutions with their accounts.
func (s *credentialService) GetUserCredentials(userID uint) ([]models.Credential, error) {
	var credentials []models.Credential
	if err := s.db.Preload("Accounts").Preload("Cursor").
		Where("user_id = ?", userID).Find(&credentials).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return credentials, nil
}

// Disconnect revokes a credential: the credential row, its cursor, its linked
// accounts, and every provider-sourced transaction under it are removed.
// Manually entered rows are untouched.
func (s *credentialService) Disconnect(userID, credentialID uint) error {
	var credential models.Credential
	if err := s.db.Where("id = ? AND user_id = ?", credentialID, userID).First(&credential).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrCredentialNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("credential_id = ?", credential.ID).
			Delete(&models.Transaction{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("credential_id = ?", credential.ID).
			Delete(&models.Account{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("credential_id = ?", credential.ID).
			Delete(&models.SyncCursor{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&credential).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// mapAccountType converts the provider's account type to the local type tag.
func mapAccountType(providerType string) models.AccountType {
	switch providerType {
	case "depository":
		return models.AccountTypeDepository
	case "credit":
		return models.AccountTypeCredit
	case "investment", "brokerage":
		return models.AccountTypeInvestment
	default:
		return models.AccountTypeOther
	}
}

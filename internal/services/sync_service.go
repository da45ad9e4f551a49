package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/logger"
	"fintrack/internal/models"
	"fintrack/internal/provider"
	"fintrack/internal/uuid"
)

// syncService reconciles locally stored transactions with the authoritative
// state held by the aggregation provider. The provider handle is injected at
// construction; there is no process-wide client state.
type syncService struct {
	db     *gorm.DB
	source provider.TransactionSource
}

// NewSyncService creates a new SyncServicer.
func NewSyncService(db *gorm.DB, source provider.TransactionSource) SyncServicer {
	return &syncService{db: db, source: source}
}

// SyncUser reconciles every credential linked by the user. Each credential is
// an independent unit of work: a failing credential is recorded in the report
// and never aborts the others. Only a failure to enumerate the credentials
// themselves is fatal.
func (s *syncService) SyncUser(ctx context.Context, userID uint) (*SyncReport, error) {
	report := &SyncReport{
		RunID:     uuid.New(),
		UserID:    userID,
		StartedAt: time.Now(),
	}

	var credentials []models.Credential
	if err := s.db.Where("user_id = ?", userID).Order("id").Find(&credentials).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrAccountLookup, err)
	}

	log := logger.Get()
	for i := range credentials {
		result := s.SyncCredential(ctx, &credentials[i])
		report.Results = append(report.Results, *result)

		if result.Status == SyncStatusSuccess {
			log.Infow("credential synced",
				"run_id", report.RunID,
				"credential_id", result.CredentialID,
				"pages", result.Pages,
				"added", result.Added,
				"modified", result.Modified,
				"removed", result.Removed,
				"skipped", result.Skipped,
			)
		} else {
			log.Warnw("credential sync failed",
				"run_id", report.RunID,
				"credential_id", result.CredentialID,
				"status", result.Status,
				"pages_applied", result.Pages,
				"error", result.Error,
			)
		}
	}

	report.FinishedAt = time.Now()
	return report, nil
}

// SyncAll reconciles every active user, one report per user. Used by the
// scheduled pipeline trigger.
func (s *syncService) SyncAll(ctx context.Context) ([]*SyncReport, error) {
	var userIDs []uint
	if err := s.db.Model(&models.User{}).Where("is_active = ?", true).
		Order("id").Pluck("id", &userIDs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStorage, err)
	}

	reports := make([]*SyncReport, 0, len(userIDs))
	for _, userID := range userIDs {
		report, err := s.SyncUser(ctx, userID)
		if err != nil {
			logger.Get().Errorw("user sync aborted", "user_id", userID, "error", err)
			continue
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// SyncCredential is the unit of sync work: it pages through the provider's
// incremental changes for one credential, applies each page atomically, and
// persists the final cursor only after every page has been applied. On any
// failure the cursor is left untouched so a retry resumes from the previous
// position; upsert and scoped delete make re-application idempotent.
func (s *syncService) SyncCredential(ctx context.Context, cred *models.Credential) *CredentialSyncResult {
	result := &CredentialSyncResult{
		CredentialID: cred.ID,
		Institution:  cred.Institution,
		Status:       SyncStatusSuccess,
	}

	accounts, err := s.loadAccountIndex(cred)
	if err != nil {
		return failResult(result, apperrors.Wrap(apperrors.ErrAccountLookup, err))
	}

	cursor, err := s.loadCursor(cred)
	if err != nil {
		return failResult(result, apperrors.Wrap(apperrors.ErrStorage, err))
	}

	for {
		page, err := s.source.SyncTransactions(ctx, cred.AccessToken, cursor)
		if err != nil {
			return failResult(result, apperrors.Wrap(apperrors.ErrProvider, err))
		}

		if err := s.applyPage(cred, accounts, page, result); err != nil {
			return failResult(result, apperrors.Wrap(apperrors.ErrStorage, err))
		}

		result.Pages++
		cursor = page.NextCursor
		if !page.HasMore {
			break
		}
	}

	if err := s.persistCursor(cred, cursor); err != nil {
		return failResult(result, apperrors.Wrap(apperrors.ErrStorage, err))
	}

	return result
}

// applyPage applies one page of changes as a single database transaction, so
// a page is never left half-applied.
func (s *syncService) applyPage(cred *models.Credential, accounts map[string]*models.Account, page *provider.SyncPage, result *CredentialSyncResult) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for i := range page.Added {
			applied, err := s.upsertRecord(tx, cred, accounts, &page.Added[i])
			if err != nil {
				return err
			}
			if applied {
				result.Added++
			} else {
				result.Skipped++
			}
		}

		for i := range page.Modified {
			applied, err := s.upsertRecord(tx, cred, accounts, &page.Modified[i])
			if err != nil {
				return err
			}
			if applied {
				result.Modified++
			} else {
				result.Skipped++
			}
		}

		for _, removed := range page.Removed {
			// Hard delete scoped to this credential: an identifier collision
			// with another provider's namespace must never cross-delete, and
			// the same key may legitimately reappear in a later added set.
			res := tx.Unscoped().
				Where("credential_id = ? AND external_id = ?", cred.ID, removed.TransactionID).
				Delete(&models.Transaction{})
			if res.Error != nil {
				return res.Error
			}
			result.Removed += int(res.RowsAffected)
		}

		return nil
	})
}

// upsertRecord inserts or fully overwrites the local row keyed by
// (credential, external id). Records for accounts not linked locally are
// skipped; the provider may report accounts the user chose not to link.
func (s *syncService) upsertRecord(tx *gorm.DB, cred *models.Credential, accounts map[string]*models.Account, rec *provider.Record) (bool, error) {
	account, ok := accounts[rec.AccountID]
	if !ok {
		return false, nil
	}

	category := Categorize(rec.Categories, account.Type, rec.Amount)

	var existing models.Transaction
	err := tx.Where("credential_id = ? AND external_id = ?", cred.ID, rec.TransactionID).
		First(&existing).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		externalID := rec.TransactionID
		row := models.Transaction{
			UserID:           account.UserID,
			AccountID:        account.ID,
			CredentialID:     &cred.ID,
			ExternalID:       &externalID,
			Category:         category,
			Amount:           rec.Amount,
			Description:      rec.Description,
			Currency:         rec.Currency,
			Date:             rec.Date,
			ProviderCategory: strings.Join(rec.Categories, ", "),
			Pending:          rec.Pending,
		}
		return true, tx.Create(&row).Error
	}

	existing.AccountID = account.ID
	existing.UserID = account.UserID
	existing.Category = category
	existing.Amount = rec.Amount
	existing.Description = rec.Description
	existing.Currency = rec.Currency
	existing.Date = rec.Date
	existing.ProviderCategory = strings.Join(rec.Categories, ", ")
	existing.Pending = rec.Pending
	return true, tx.Save(&existing).Error
}

// loadAccountIndex maps provider account ids to the credential's local accounts.
func (s *syncService) loadAccountIndex(cred *models.Credential) (map[string]*models.Account, error) {
	var accounts []models.Account
	if err := s.db.Where("credential_id = ?", cred.ID).Find(&accounts).Error; err != nil {
		return nil, err
	}

	index := make(map[string]*models.Account, len(accounts))
	for i := range accounts {
		if accounts[i].ProviderAccountID != nil {
			index[*accounts[i].ProviderAccountID] = &accounts[i]
		}
	}
	return index, nil
}

// loadCursor returns the persisted cursor for the credential, or the empty
// string on first sync (meaning full history).
func (s *syncService) loadCursor(cred *models.Credential) (string, error) {
	var cursor models.SyncCursor
	err := s.db.Where("credential_id = ?", cred.ID).First(&cursor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return cursor.Cursor, nil
}

// persistCursor writes the final cursor for the credential. This runs once
// per successful credential run, after every page has been applied.
func (s *syncService) persistCursor(cred *models.Credential, cursor string) error {
	var existing models.SyncCursor
	err := s.db.Where("credential_id = ?", cred.ID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.db.Create(&models.SyncCursor{
			UserID:       cred.UserID,
			CredentialID: cred.ID,
			Cursor:       cursor,
			LastSyncedAt: time.Now(),
		}).Error
	}
	if err != nil {
		return err
	}

	return s.db.Model(&existing).Updates(map[string]interface{}{
		"cursor":         cursor,
		"last_synced_at": time.Now(),
	}).Error
}

// failResult marks the result failed (or partial, when pages were already
// applied) and records the cause. The cursor is never persisted on failure.
func failResult(result *CredentialSyncResult, err error) *CredentialSyncResult {
	if result.Pages > 0 {
		result.Status = SyncStatusPartial
	} else {
		result.Status = SyncStatusFailed
	}
	result.Error = err.Error()
	return result
}

// Categorize resolves a provider record into a local category. A provider
// label containing "transfer" always wins. Otherwise the provider's sign
// convention is resolved by account type: a positive amount is income on
// depository and investment accounts but a charge on credit accounts.
// Unknown account types default to spending.
func Categorize(labels []string, accountType models.AccountType, amount int64) models.Category {
	for _, label := range labels {
		if strings.Contains(strings.ToLower(label), "transfer") {
			return models.CategoryTransfer
		}
	}

	switch accountType {
	case models.AccountTypeDepository, models.AccountTypeInvestment:
		if amount > 0 {
			return models.CategoryIncome
		}
		return models.CategorySpending
	case models.AccountTypeCredit:
		if amount > 0 {
			return models.CategorySpending
		}
		return models.CategoryIncome
	default:
		return models.CategorySpending
	}
}

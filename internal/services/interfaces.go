package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"fintrack/internal/models"
	"fintrack/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID uint, tokenHash string) error
	GetRefreshTokenHash(userID uint) (string, error)
}

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(userID uint, name, description, currency string, accountType models.AccountType, initialBalance int64) (*models.Account, error)
	GetUserAccounts(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	GetAccountByID(userID, accountID uint) (*models.Account, error)
	UpdateAccount(userID, accountID uint, name, description *string) (*models.Account, error)
	UpdateAccountBalance(tx *gorm.DB, account *models.Account, category models.Category, amount int64) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate  *time.Time
	ToDate    *time.Time
	Category  *models.Category
	AccountID *uint
	MinAmount *int64
	MaxAmount *int64
}

// TransactionServicer defines the contract for manual transaction entry and queries.
type TransactionServicer interface {
	CreateTransaction(userID, accountID uint, category models.Category, amount int64, description string, date time.Time) (*models.Transaction, error)
	GetUserTransactions(userID uint, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetAccountTransactions(userID, accountID uint, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID uint) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID uint) error
}

// CredentialServicer defines the contract for the institution link lifecycle.
type CredentialServicer interface {
	LinkInstitution(ctx context.Context, userID uint, publicToken, institution string) (*models.Credential, error)
	GetUserCredentials(userID uint) ([]models.Credential, error)
	Disconnect(userID, credentialID uint) error
}

// SyncStatus is the outcome of one credential's sync run.
type SyncStatus string

const (
	// SyncStatusSuccess means every page was applied and the cursor advanced.
	SyncStatusSuccess SyncStatus = "success"
	// SyncStatusPartial means at least one page was applied before a
	// failure; the cursor did not advance, so a retry re-applies safely.
	SyncStatusPartial SyncStatus = "partial"
	// SyncStatusFailed means no page was applied.
	SyncStatusFailed SyncStatus = "failed"
)

// CredentialSyncResult reports the outcome of syncing one credential.
type CredentialSyncResult struct {
	CredentialID uint       `json:"credential_id"`
	Institution  string     `json:"institution"`
	Status       SyncStatus `json:"status"`
	Pages        int        `json:"pages"`
	Added        int        `json:"added"`
	Modified     int        `json:"modified"`
	Removed      int        `json:"removed"`
	Skipped      int        `json:"skipped"`
	Error        string     `json:"error,omitempty"`
}

// SyncReport aggregates per-credential outcomes for one sync run. A failed
// credential never aborts the others.
type SyncReport struct {
	RunID      string                 `json:"run_id"`
	UserID     uint                   `json:"user_id"`
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt time.Time              `json:"finished_at"`
	Results    []CredentialSyncResult `json:"results"`
}

// SyncServicer defines the contract for the transaction reconciliation engine.
type SyncServicer interface {
	SyncUser(ctx context.Context, userID uint) (*SyncReport, error)
	SyncCredential(ctx context.Context, cred *models.Credential) *CredentialSyncResult
	SyncAll(ctx context.Context) ([]*SyncReport, error)
}

// HoldingValuation contains the aggregate value of a user's Bitcoin holdings.
type HoldingValuation struct {
	TotalSatoshis  int64     `json:"total_satoshis"`
	TotalCostBasis int64     `json:"total_cost_basis"`
	SpotPrice      int64     `json:"spot_price"`
	MarketValue    int64     `json:"market_value"`
	GainLoss       int64     `json:"gain_loss"`
	PricedAt       time.Time `json:"priced_at"`
}

// HoldingServicer defines the contract for Bitcoin holdings tracking.
type HoldingServicer interface {
	AddHolding(userID uint, satoshis, costBasis int64, acquiredAt time.Time, note string) (*models.BitcoinHolding, error)
	GetUserHoldings(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.BitcoinHolding], error)
	GetHoldingByID(userID, holdingID uint) (*models.BitcoinHolding, error)
	DeleteHolding(userID, holdingID uint) error
	GetValuation(ctx context.Context, userID uint) (*HoldingValuation, error)
}

// MonthlyCashflow is the aggregated flow for one calendar month.
type MonthlyCashflow struct {
	Month    string `json:"month"` // YYYY-MM
	Income   int64  `json:"income"`
	Spending int64  `json:"spending"`
	Net      int64  `json:"net"`
}

// CashflowReport aggregates income and spending over a date range.
// Transfers are excluded; amounts are absolute values in cents.
type CashflowReport struct {
	From          time.Time         `json:"from"`
	To            time.Time         `json:"to"`
	Months        []MonthlyCashflow `json:"months"`
	TotalIncome   int64             `json:"total_income"`
	TotalSpending int64             `json:"total_spending"`
	TotalNet      int64             `json:"total_net"`
}

// CashflowServicer defines the contract for cash-flow aggregation.
type CashflowServicer interface {
	GetCashflow(userID uint, from, to time.Time) (*CashflowReport, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]interface{})
}

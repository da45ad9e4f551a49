package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"fintrack/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestAccount creates a manually managed account of the given type with zero balance.
func CreateTestAccount(t *testing.T, db *gorm.DB, userID uint, accountType models.AccountType) *models.Account {
	t.Helper()
	return CreateTestAccountWithBalance(t, db, userID, accountType, 0)
}

// CreateTestAccountWithBalance creates a manually managed account with the given balance (in cents).
func CreateTestAccountWithBalance(t *testing.T, db *gorm.DB, userID uint, accountType models.AccountType, balance int64) *models.Account {
	t.Helper()

	account := &models.Account{
		UserID:   userID,
		Name:     fmt.Sprintf("Test Account %d", nextID()),
		Type:     accountType,
		Balance:  balance,
		Currency: "USD",
		IsActive: true,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestCredential creates a linked institution credential.
func CreateTestCredential(t *testing.T, db *gorm.DB, userID uint) *models.Credential {
	t.Helper()

	n := nextID()
	credential := &models.Credential{
		UserID:      userID,
		AccessToken: fmt.Sprintf("access-token-%d", n),
		ItemID:      fmt.Sprintf("item-%d", n),
		Institution: fmt.Sprintf("Test Bank %d", n),
	}
	if err := db.Create(credential).Error; err != nil {
		t.Fatalf("failed to create test credential: %v", err)
	}
	return credential
}

// CreateTestLinkedAccount creates an account tied to a credential with the
// given provider account id.
func CreateTestLinkedAccount(t *testing.T, db *gorm.DB, userID, credentialID uint, providerAccountID string, accountType models.AccountType) *models.Account {
	t.Helper()

	account := &models.Account{
		UserID:            userID,
		Name:              fmt.Sprintf("Linked Account %d", nextID()),
		Type:              accountType,
		Currency:          "USD",
		IsActive:          true,
		CredentialID:      &credentialID,
		ProviderAccountID: &providerAccountID,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test linked account: %v", err)
	}
	return account
}

// CreateTestTransaction creates a manually entered transaction (in cents).
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID, accountID uint, category models.Category, amount int64, date time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:    userID,
		AccountID: accountID,
		Category:  category,
		Amount:    amount,
		Currency:  "USD",
		Date:      date,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestHolding creates a Bitcoin holding (satoshis and cost basis in cents).
func CreateTestHolding(t *testing.T, db *gorm.DB, userID uint, satoshis, costBasis int64) *models.BitcoinHolding {
	t.Helper()

	holding := &models.BitcoinHolding{
		UserID:     userID,
		Satoshis:   satoshis,
		CostBasis:  costBasis,
		AcquiredAt: time.Now(),
	}
	if err := db.Create(holding).Error; err != nil {
		t.Fatalf("failed to create test holding: %v", err)
	}
	return holding
}

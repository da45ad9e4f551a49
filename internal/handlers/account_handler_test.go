package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/services"
)

// --- mock account service ---

type mockAccountService struct {
	createAccountFn        func(userID uint, name, description, currency string, accountType models.AccountType, initialBalance int64) (*models.Account, error)
	getUserAccountsFn      func(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	getAccountByIDFn       func(userID, accountID uint) (*models.Account, error)
	updateAccountFn        func(userID, accountID uint, name, description *string) (*models.Account, error)
	updateAccountBalanceFn func(tx *gorm.DB, account *models.Account, category models.Category, amount int64) error
}

func (m *mockAccountService) CreateAccount(userID uint, name, description, currency string, accountType models.AccountType, initialBalance int64) (*models.Account, error) {
	if m.createAccountFn != nil {
		return m.createAccountFn(userID, name, description, currency, accountType, initialBalance)
	}
	return &models.Account{}, nil
}

func (m *mockAccountService) GetUserAccounts(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	if m.getUserAccountsFn != nil {
		return m.getUserAccountsFn(userID, page)
	}
	resp := pagination.NewPageResponse([]models.Account{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockAccountService) GetAccountByID(userID, accountID uint) (*models.Account, error) {
	if m.getAccountByIDFn != nil {
		return m.getAccountByIDFn(userID, accountID)
	}
	return &models.Account{}, nil
}

func (m *mockAccountService) UpdateAccount(userID, accountID uint, name, description *string) (*models.Account, error) {
	if m.updateAccountFn != nil {
		return m.updateAccountFn(userID, accountID, name, description)
	}
	return &models.Account{}, nil
}

func (m *mockAccountService) UpdateAccountBalance(tx *gorm.DB, account *models.Account, category models.Category, amount int64) error {
	if m.updateAccountBalanceFn != nil {
		return m.updateAccountBalanceFn(tx, account, category, amount)
	}
	return nil
}

var _ services.AccountServicer = (*mockAccountService)(nil)

func setupAccountRouter(handler *AccountHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(1))
	auth.POST("/accounts", handler.CreateAccount)
	auth.GET("/accounts", handler.GetUserAccounts)
	auth.GET("/accounts/:id", handler.GetAccountByID)
	auth.PUT("/accounts/:id", handler.UpdateAccount)
	return r
}

func TestAccountHandler_CreateAccount(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		svc := &mockAccountService{
			createAccountFn: func(userID uint, name, desc, currency string, accountType models.AccountType, balance int64) (*models.Account, error) {
				return &models.Account{
					Base:     models.Base{ID: 1},
					UserID:   userID,
					Name:     name,
					Type:     accountType,
					Balance:  balance,
					Currency: currency,
					IsActive: true,
				}, nil
			},
		}
		handler := NewAccountHandler(svc, &mockAuditService{})
		r := setupAccountRouter(handler)

		rec := doRequest(r, "POST", "/accounts",
			`{"name":"Savings","type":"depository","currency":"USD","initial_balance":5000}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		acct := result["account"].(map[string]interface{})
		if acct["name"] != "Savings" {
			t.Errorf("unexpected name: %v", acct["name"])
		}
		if acct["type"] != "depository" {
			t.Errorf("unexpected type: %v", acct["type"])
		}
	})

	t.Run("rejects unknown account type", func(t *testing.T) {
		handler := NewAccountHandler(&mockAccountService{}, &mockAuditService{})
		r := setupAccountRouter(handler)

		rec := doRequest(r, "POST", "/accounts",
			`{"name":"Weird","type":"offshore","currency":"USD"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("rejects invalid currency", func(t *testing.T) {
		handler := NewAccountHandler(&mockAccountService{}, &mockAuditService{})
		r := setupAccountRouter(handler)

		rec := doRequest(r, "POST", "/accounts",
			`{"name":"Savings","type":"depository","currency":"DOGE"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAccountHandler_GetUserAccounts(t *testing.T) {
	svc := &mockAccountService{
		getUserAccountsFn: func(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
			resp := pagination.NewPageResponse([]models.Account{
				{Base: models.Base{ID: 1}, UserID: userID, Name: "Checking"},
			}, 1, 20, 1)
			return &resp, nil
		},
	}
	handler := NewAccountHandler(svc, &mockAuditService{})
	r := setupAccountRouter(handler)

	rec := doRequest(r, "GET", "/accounts", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	result := parseJSON(t, rec)
	if result["total_items"].(float64) != 1 {
		t.Errorf("unexpected total_items: %v", result["total_items"])
	}
}

func TestAccountHandler_GetAccountByID(t *testing.T) {
	t.Run("returns 404 when missing", func(t *testing.T) {
		svc := &mockAccountService{
			getAccountByIDFn: func(_, _ uint) (*models.Account, error) {
				return nil, apperrors.ErrAccountNotFound
			},
		}
		handler := NewAccountHandler(svc, &mockAuditService{})
		r := setupAccountRouter(handler)

		rec := doRequest(r, "GET", "/accounts/42", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ACCOUNT_NOT_FOUND")
	})

	t.Run("returns 400 for non-numeric id", func(t *testing.T) {
		handler := NewAccountHandler(&mockAccountService{}, &mockAuditService{})
		r := setupAccountRouter(handler)

		rec := doRequest(r, "GET", "/accounts/abc", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAccountHandler_UpdateAccount(t *testing.T) {
	svc := &mockAccountService{
		updateAccountFn: func(userID, accountID uint, name, description *string) (*models.Account, error) {
			account := &models.Account{Base: models.Base{ID: accountID}, UserID: userID}
			if name != nil {
				account.Name = *name
			}
			return account, nil
		},
	}
	handler := NewAccountHandler(svc, &mockAuditService{})
	r := setupAccountRouter(handler)

	rec := doRequest(r, "PUT", "/accounts/1", `{"name":"Renamed"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	acct := result["account"].(map[string]interface{})
	if acct["name"] != "Renamed" {
		t.Errorf("unexpected name: %v", acct["name"])
	}
}

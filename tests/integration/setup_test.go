package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"fintrack/internal/handlers"
	"fintrack/internal/logger"
	"fintrack/internal/middleware"
	"fintrack/internal/models"
	"fintrack/internal/provider"
	"fintrack/internal/services"
	"fintrack/internal/validator"
)

const pipelineKey = "test-pipeline-key"

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:integrationdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Credential{},
		&models.Account{},
		&models.Transaction{},
		&models.SyncCursor{},
		&models.BitcoinHolding{},
		&models.AuditLog{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory
// SQLite database. Provider traffic goes through the real HTTP clients to the
// given base URLs, so tests stub the provider with httptest servers.
func setupApp(t *testing.T, providerURL, priceURL string) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	httpClient := &http.Client{Timeout: 5 * time.Second}
	providerClient := provider.NewClient(httpClient, providerURL, "test-client-id", "test-secret")
	priceClient := provider.NewCoinGeckoClientWithBaseURL(httpClient, priceURL)

	// Services
	userService := services.NewUserService(db)
	accountService := services.NewAccountService(db)
	transactionService := services.NewTransactionService(db, accountService)
	credentialService := services.NewCredentialService(db, providerClient)
	syncService := services.NewSyncService(db, providerClient)
	holdingService := services.NewHoldingService(db, priceClient)
	cashflowService := services.NewCashflowService(db)
	auditService := services.NewAuditService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, auditService)
	accountHandler := handlers.NewAccountHandler(accountService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)
	linkHandler := handlers.NewLinkHandler(credentialService, auditService)
	syncHandler := handlers.NewSyncHandler(syncService, auditService)
	holdingHandler := handlers.NewHoldingHandler(holdingService, auditService)
	cashflowHandler := handlers.NewCashflowHandler(cashflowService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	pipeline := v1.Group("/pipeline")
	pipeline.Use(middleware.PipelineAuthMiddleware(pipelineKey))
	pipeline.POST("/sync", syncHandler.PipelineSync)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)

	accounts := protected.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.GetUserAccounts)
	accounts.GET("/:id", accountHandler.GetAccountByID)
	accounts.PUT("/:id", accountHandler.UpdateAccount)
	accounts.GET("/:id/transactions", transactionHandler.GetAccountTransactions)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	links := protected.Group("/links")
	links.POST("", linkHandler.LinkInstitution)
	links.GET("", linkHandler.GetUserCredentials)
	links.DELETE("/:id", linkHandler.Disconnect)

	protected.POST("/sync", syncHandler.TriggerSync)

	holdings := protected.Group("/holdings")
	holdings.POST("", holdingHandler.AddHolding)
	holdings.GET("", holdingHandler.GetUserHoldings)
	holdings.GET("/valuation", holdingHandler.GetValuation)
	holdings.DELETE("/:id", holdingHandler.DeleteHolding)

	reports := protected.Group("/reports")
	reports.GET("/cashflow", cashflowHandler.GetCashflow)

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the access token and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (accessToken string, userID float64) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"first_name":"Test","last_name":"User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["access_token"].(string), user["id"].(float64)
}

// --- fake aggregation provider ---

// fakeProvider stubs the Plaid-style API with scriptable sync pages keyed by
// the cursor the client sends.
type fakeProvider struct {
	server   *httptest.Server
	accounts []map[string]interface{}
	// pages maps an incoming cursor to the JSON page to serve.
	pages map[string]map[string]interface{}
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()
	f := &fakeProvider{pages: make(map[string]map[string]interface{})}

	mux := http.NewServeMux()
	mux.HandleFunc("/item/public_token/exchange", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"access_token": "access-sandbox-token",
			"item_id":      "item-sandbox-1",
		})
	})
	mux.HandleFunc("/accounts/get", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"accounts": f.accounts})
	})
	mux.HandleFunc("/transactions/sync", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Cursor string `json:"cursor"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		page, ok := f.pages[req.Cursor]
		if !ok {
			page = map[string]interface{}{
				"added": []interface{}{}, "modified": []interface{}{}, "removed": []interface{}{},
				"next_cursor": req.Cursor, "has_more": false,
			}
		}
		writeJSON(w, page)
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func wireTx(id, account, date string, amount float64, categories ...string) map[string]interface{} {
	if categories == nil {
		categories = []string{}
	}
	return map[string]interface{}{
		"transaction_id":    id,
		"account_id":        account,
		"date":              date,
		"amount":            amount,
		"category":          categories,
		"name":              "Wire " + id,
		"iso_currency_code": "USD",
		"pending":           false,
	}
}

// newFakePriceServer stubs the CoinGecko simple-price endpoint.
func newFakePriceServer(t *testing.T, usd float64) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"bitcoin": map[string]interface{}{"usd": usd},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

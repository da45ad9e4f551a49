package integration

import (
	"fmt"
	"net/http"
	"testing"
)

// TestAuthFlow walks register, login, refresh rotation, and the lockout after
// repeated failed logins.
func TestAuthFlow(t *testing.T) {
	fake := newFakeProvider(t)
	prices := newFakePriceServer(t, 50000)
	app := setupApp(t, fake.server.URL, prices.URL)

	rec := app.request("POST", "/api/v1/auth/register",
		`{"email":"auth@example.com","password":"Password123!","first_name":"Ada","last_name":"Lovelace"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}

	// Duplicate registration is rejected.
	rec = app.request("POST", "/api/v1/auth/register",
		`{"email":"auth@example.com","password":"Password123!"}`, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", rec.Code)
	}

	rec = app.request("POST", "/api/v1/auth/login",
		`{"email":"auth@example.com","password":"Password123!"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	tokens := parseJSON(t, rec)
	accessToken := tokens["access_token"].(string)
	refreshToken := tokens["refresh_token"].(string)

	rec = app.request("GET", "/api/v1/profile", "", accessToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile failed: %d %s", rec.Code, rec.Body.String())
	}
	user := parseJSON(t, rec)["user"].(map[string]interface{})
	if user["email"] != "auth@example.com" {
		t.Fatalf("unexpected profile: %v", user)
	}

	// A refresh token is not accepted as an access token.
	rec = app.request("GET", "/api/v1/profile", "", refreshToken)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 using refresh token as access token, got %d", rec.Code)
	}

	// Refresh rotates the pair; the old refresh token stops working.
	rec = app.request("POST", "/api/v1/auth/refresh",
		fmt.Sprintf(`{"refresh_token":%q}`, refreshToken), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh failed: %d %s", rec.Code, rec.Body.String())
	}
	rotated := parseJSON(t, rec)["refresh_token"].(string)
	if rotated == refreshToken {
		t.Fatal("expected refresh token rotation")
	}

	rec = app.request("POST", "/api/v1/auth/refresh",
		fmt.Sprintf(`{"refresh_token":%q}`, refreshToken), "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 reusing rotated-out refresh token, got %d", rec.Code)
	}

	rec = app.request("POST", "/api/v1/auth/refresh",
		fmt.Sprintf(`{"refresh_token":%q}`, rotated), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh with rotated token failed: %d %s", rec.Code, rec.Body.String())
	}
}

func TestLoginLockout(t *testing.T) {
	fake := newFakeProvider(t)
	prices := newFakePriceServer(t, 50000)
	app := setupApp(t, fake.server.URL, prices.URL)
	app.registerUser(t, "lockout@example.com", "Password123!")

	for i := 0; i < 5; i++ {
		rec := app.request("POST", "/api/v1/auth/login",
			`{"email":"lockout@example.com","password":"wrong-password"}`, "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, rec.Code)
		}
	}

	// Account is locked now, even with the correct password.
	rec := app.request("POST", "/api/v1/auth/login",
		`{"email":"lockout@example.com","password":"Password123!"}`, "")
	if rec.Code != http.StatusLocked {
		t.Fatalf("expected 423 after lockout, got %d %s", rec.Code, rec.Body.String())
	}
}

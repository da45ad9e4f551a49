package services

import (
	"testing"
	"time"

	"fintrack/internal/models"
	"fintrack/internal/testutil"
)

func TestCreateUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	t.Run("success", func(t *testing.T) {
		user, err := svc.CreateUser("new@example.com", "password123", "Ada", "Lovelace")
		testutil.AssertNoError(t, err)
		if user.ID == 0 {
			t.Error("expected user ID to be set")
		}
		if user.Password == "password123" {
			t.Error("password must be stored hashed")
		}
	})

	t.Run("email_normalized", func(t *testing.T) {
		user, err := svc.CreateUser("MiXeD@Example.COM", "password123", "", "")
		testutil.AssertNoError(t, err)
		if user.Email != "mixed@example.com" {
			t.Errorf("expected lowercased email, got %s", user.Email)
		}
	})

	t.Run("duplicate_email", func(t *testing.T) {
		_, err := svc.CreateUser("dup@example.com", "password123", "", "")
		testutil.AssertNoError(t, err)
		_, err = svc.CreateUser("DUP@example.com", "password456", "", "")
		testutil.AssertAppError(t, err, "DUPLICATE_EMAIL")
	})

	t.Run("missing_fields", func(t *testing.T) {
		_, err := svc.CreateUser("", "password123", "", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
		_, err = svc.CreateUser("nopass@example.com", "", "", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetUserByEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	created, err := svc.CreateUser("lookup@example.com", "password123", "", "")
	testutil.AssertNoError(t, err)

	found, err := svc.GetUserByEmail("LOOKUP@example.com")
	testutil.AssertNoError(t, err)
	if found.ID != created.ID {
		t.Errorf("expected user %d, got %d", created.ID, found.ID)
	}

	_, err = svc.GetUserByEmail("missing@example.com")
	testutil.AssertAppError(t, err, "USER_NOT_FOUND")
}

func TestAttemptLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	t.Run("success_resets_counter", func(t *testing.T) {
		created, err := svc.CreateUser("login@example.com", "password123", "", "")
		testutil.AssertNoError(t, err)

		testutil.AssertNoError(t, db.Model(created).Update("failed_login_attempts", 3).Error)

		user, err := svc.AttemptLogin("login@example.com", "password123")
		testutil.AssertNoError(t, err)
		if user.LastLoginAt == nil {
			t.Error("expected last login timestamp")
		}

		var fresh models.User
		testutil.AssertNoError(t, db.First(&fresh, created.ID).Error)
		if fresh.FailedLoginAttempts != 0 {
			t.Errorf("expected counter reset, got %d", fresh.FailedLoginAttempts)
		}
	})

	t.Run("wrong_password", func(t *testing.T) {
		_, err := svc.CreateUser("wrongpw@example.com", "password123", "", "")
		testutil.AssertNoError(t, err)

		_, err = svc.AttemptLogin("wrongpw@example.com", "nope")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("unknown_email", func(t *testing.T) {
		_, err := svc.AttemptLogin("ghost@example.com", "password123")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("lockout_after_repeated_failures", func(t *testing.T) {
		created, err := svc.CreateUser("locked@example.com", "password123", "", "")
		testutil.AssertNoError(t, err)

		for i := 0; i < maxFailedLogins; i++ {
			_, err = svc.AttemptLogin("locked@example.com", "nope")
			testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
		}

		_, err = svc.AttemptLogin("locked@example.com", "password123")
		testutil.AssertAppError(t, err, "ACCOUNT_LOCKED")

		var fresh models.User
		testutil.AssertNoError(t, db.First(&fresh, created.ID).Error)
		if fresh.LockedUntil == nil || !fresh.LockedUntil.After(time.Now()) {
			t.Error("expected a future lockout deadline")
		}
	})

	t.Run("expired_lock_allows_login", func(t *testing.T) {
		created, err := svc.CreateUser("expired@example.com", "password123", "", "")
		testutil.AssertNoError(t, err)

		past := time.Now().Add(-time.Minute)
		testutil.AssertNoError(t, db.Model(created).Updates(map[string]interface{}{
			"failed_login_attempts": maxFailedLogins,
			"locked_until":          past,
		}).Error)

		_, err = svc.AttemptLogin("expired@example.com", "password123")
		testutil.AssertNoError(t, err)
	})
}

func TestRefreshTokenHash(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	user, err := svc.CreateUser("token@example.com", "password123", "", "")
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, svc.StoreRefreshTokenHash(user.ID, "abc123hash"))

	hash, err := svc.GetRefreshTokenHash(user.ID)
	testutil.AssertNoError(t, err)
	if hash != "abc123hash" {
		t.Errorf("expected stored hash, got %q", hash)
	}

	_, err = svc.GetRefreshTokenHash(99999)
	testutil.AssertAppError(t, err, "USER_NOT_FOUND")
}

package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/freshkart-labs/freshkart-backend/pkg/db/models"
	"github.com/freshkart-labs/freshkart-backend/pkg/enums"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func TestCreateAndFind(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	user, err := repo.Create(ctx, CreateUserDTO{
		Email:        "ravi@example.com",
		PasswordHash: "hash",
		FullName:     "Ravi Kumar",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if user.Role != enums.UserRoleCustomer {
		t.Fatalf("expected default customer role, got %s", user.Role)
	}
	if !user.IsActive {
		t.Fatal("expected new user to be active")
	}

	byEmail, err := repo.FindByEmail(ctx, "ravi@example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if byEmail.ID != user.ID {
		t.Fatalf("id mismatch: %s vs %s", byEmail.ID, user.ID)
	}

	byID, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if byID.Email != "ravi@example.com" {
		t.Fatalf("unexpected email %q", byID.Email)
	}
}

func TestFindByEmailNotFound(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	_, err := repo.FindByEmail(context.Background(), "missing@example.com")
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found, got %v", err)
	}
}

func TestUpdateLastLogin(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	user, err := repo.Create(ctx, CreateUserDTO{
		Email:        "seller@example.com",
		PasswordHash: "hash",
		FullName:     "Store Owner",
		Role:         enums.UserRoleSeller,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	at := time.Now().UTC().Truncate(time.Second)
	if err := repo.UpdateLastLogin(ctx, user.ID, at); err != nil {
		t.Fatalf("UpdateLastLogin: %v", err)
	}

	reloaded, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if reloaded.LastLoginAt == nil || !reloaded.LastLoginAt.Equal(at) {
		t.Fatalf("last login not recorded: %+v", reloaded.LastLoginAt)
	}
}

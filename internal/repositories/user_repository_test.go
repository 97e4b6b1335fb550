package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"userauth/internal/models"
)

var userCols = []string{
	"id", "name", "email", "password_hash",
	"gender", "date_of_birth", "image",
	"role", "device_token", "created_at", "updated_at",
}

func userRow(id int, name, email string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(userCols).AddRow(
		id, name, email, "$2a$10$hash",
		"Female", nil, "",
		"user", "", now, now,
	)
}

func newMockRepo(t *testing.T) (UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewUserRepository(db), mock
}

func TestGetByEmail(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT .* FROM users WHERE email = \$1`).
		WithArgs("alice@example.com").
		WillReturnRows(userRow(1, "Alice", "alice@example.com"))

	u, err := repo.GetByEmail("alice@example.com")
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}
	if u.ID != 1 || u.Email != "alice@example.com" || u.Name != "Alice" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByEmailNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT .* FROM users WHERE email = \$1`).
		WithArgs("missing@example.com").
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err := repo.GetByEmail("missing@example.com")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestCreateAssignsID(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("Bob", "bob@example.com", "$2a$10$hash", "Male", nil, "", "user", "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(5, now, now))

	u := &models.User{Name: "Bob", Email: "bob@example.com", PasswordHash: "$2a$10$hash", Gender: "Male"}
	if err := repo.Create(u); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if u.ID != 5 {
		t.Fatalf("expected assigned id 5, got %d", u.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdatePasswordByEmailReturnsRow(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`UPDATE users SET password_hash=\$1, updated_at=NOW\(\)`).
		WithArgs("$2a$10$newhash", "alice@example.com").
		WillReturnRows(userRow(1, "Alice", "alice@example.com"))

	u, err := repo.UpdatePasswordByEmail("alice@example.com", "$2a$10$newhash")
	if err != nil {
		t.Fatalf("UpdatePasswordByEmail error: %v", err)
	}
	if u.Email != "alice@example.com" {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestUpdatePasswordByEmailNoMatch(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`UPDATE users SET password_hash=\$1, updated_at=NOW\(\)`).
		WithArgs("$2a$10$newhash", "missing@example.com").
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err := repo.UpdatePasswordByEmail("missing@example.com", "$2a$10$newhash")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestUpdateDeviceToken(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`UPDATE users SET device_token=NULLIF\(\$1,''\), updated_at=NOW\(\)`).
		WithArgs("device-xyz", 3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateDeviceToken(3, "device-xyz"); err != nil {
		t.Fatalf("UpdateDeviceToken error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

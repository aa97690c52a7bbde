package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrUserNotFound is returned by store lookups that match no row.
var ErrUserNotFound = errors.New("user not found")

// UserStore is the persistence boundary for the auth service. The service
// never touches gorm directly; tests swap in an in-memory implementation.
type UserStore interface {
	FindActiveByEmail(email string) (*User, error)
	FindActiveByUsername(username string) (*User, error)
	FindByID(id uint) (*User, error)
	// ExistsByUsernameOrEmail is the combined pre-insert uniqueness check.
	ExistsByUsernameOrEmail(username, email string) (bool, error)
	Count() (int64, error)
	ListUsers() ([]User, error)
	// Create inserts the user. A uniqueness violation at the database
	// layer is reported as ErrConflict even when the pre-check passed.
	Create(user *User) error
	UpdateLastLogin(id uint, at time.Time) error
	UpdatePasswordHash(id uint, hash string) error
}

// GormUserStore backs UserStore with the shared gorm connection.
type GormUserStore struct {
	db *gorm.DB
}

func NewGormUserStore(db *gorm.DB) *GormUserStore {
	return &GormUserStore{db: db}
}

func (s *GormUserStore) FindActiveByEmail(email string) (*User, error) {
	return s.findActive("email = ?", email)
}

func (s *GormUserStore) FindActiveByUsername(username string) (*User, error) {
	return s.findActive("username = ?", username)
}

func (s *GormUserStore) findActive(query string, arg string) (*User, error) {
	var user User
	err := s.db.Where("is_active = ?", true).First(&user, query, arg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

func (s *GormUserStore) FindByID(id uint) (*User, error) {
	var user User
	err := s.db.First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

func (s *GormUserStore) ExistsByUsernameOrEmail(username, email string) (bool, error) {
	var count int64
	err := s.db.Model(&User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("uniqueness check: %w", err)
	}
	return count > 0, nil
}

func (s *GormUserStore) Count() (int64, error) {
	var count int64
	if err := s.db.Model(&User{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

func (s *GormUserStore) ListUsers() ([]User, error) {
	var users []User
	if err := s.db.Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *GormUserStore) Create(user *User) error {
	err := s.db.Create(user).Error
	if err == nil {
		return nil
	}
	// The unique constraints are the final authority against concurrent
	// registrations that both pass the pre-check.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrConflict
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	return fmt.Errorf("create user: %w", err)
}

func (s *GormUserStore) UpdateLastLogin(id uint, at time.Time) error {
	return s.db.Model(&User{}).Where("id = ?", id).Update("last_login", at).Error
}

func (s *GormUserStore) UpdatePasswordHash(id uint, hash string) error {
	return s.db.Model(&User{}).Where("id = ?", id).Update("password_hash", hash).Error
}

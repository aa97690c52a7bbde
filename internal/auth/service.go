package auth

import (
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/FilmPriceGuide/FPG-Gateway/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when no user matches a login identifier,
// so that the not-found path costs a bcrypt verification just like the
// found path. It never matches any password.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

const minPasswordLength = 8

// Service implements the session-backed authentication flow: credential
// verification, registration with first-user-becomes-admin bootstrap, and
// session lifecycle. It owns the session store exclusively.
type Service struct {
	users    UserStore
	sessions *SessionStore
}

func NewService(users UserStore, sessions *SessionStore) *Service {
	return &Service{users: users, sessions: sessions}
}

// RegisterRequest carries the registration form fields.
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
}

// Login verifies the identifier/password pair and establishes a session.
// The identifier is matched as an email when it parses as one, otherwise
// as a username; only active users are considered. Every failure returns
// ErrInvalidCredentials.
func (s *Service) Login(identifier, password string) (utils.SessionData, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return utils.SessionData{}, ErrInvalidCredentials
	}

	var (
		user *User
		err  error
	)
	if isEmail(identifier) {
		user, err = s.users.FindActiveByEmail(identifier)
	} else {
		user, err = s.users.FindActiveByUsername(identifier)
	}
	if err != nil {
		// Burn a hash verification so this path is not measurably
		// faster than a wrong password.
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
		return utils.SessionData{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Printf("[auth] failed login attempt for user id=%d", user.ID)
		return utils.SessionData{}, ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.users.UpdateLastLogin(user.ID, now); err != nil {
		log.Printf("[auth] update last_login: %v", err)
	}

	session := s.sessions.Create(utils.SessionData{
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		IsAdmin:   user.IsAdmin,
	})
	log.Printf("[auth] login user=%s admin=%t", user.Username, user.IsAdmin)
	return session, nil
}

// Register validates the request, checks uniqueness, and inserts the user.
// The first user created against an empty store becomes admin.
func (s *Service) Register(req RegisterRequest) (*User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)

	if req.Username == "" || req.Email == "" || req.Password == "" {
		return nil, invalid("", "please fill in all required fields")
	}
	if !isEmail(req.Email) {
		return nil, invalid("email", "please enter a valid email address")
	}
	if len(req.Password) < minPasswordLength {
		return nil, invalid("password", "password must be at least 8 characters long")
	}
	if req.Password != req.ConfirmPassword {
		return nil, invalid("confirm_password", "passwords do not match")
	}

	taken, err := s.users.ExistsByUsernameOrEmail(req.Username, req.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrConflict
	}

	count, err := s.users.Count()
	if err != nil {
		return nil, err
	}

	user, err := s.insertUser(req.Username, req.Email, req.Password, req.FirstName, req.LastName, count == 0)
	if err != nil {
		return nil, err
	}
	log.Printf("[auth] registered user=%s admin=%t", user.Username, user.IsAdmin)
	return user, nil
}

// CreateBootstrapAdmin inserts the initial admin account. Only allowed
// while the user store is empty.
func (s *Service) CreateBootstrapAdmin(username, email, password string) (*User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" || email == "" || password == "" {
		return nil, invalid("", "please fill in all admin fields")
	}

	count, err := s.users.Count()
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrConflict
	}

	user, err := s.insertUser(username, email, password, "Admin", "User", true)
	if err != nil {
		return nil, err
	}
	log.Printf("[auth] bootstrap admin created: %s", user.Username)
	return user, nil
}

func (s *Service) insertUser(username, email, password, firstName, lastName string, admin bool) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    firstName,
		LastName:     lastName,
		IsAdmin:      admin,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Logout destroys the session. Safe to call with an unknown or empty ID.
func (s *Service) Logout(sessionID string) {
	if sessionID == "" {
		return
	}
	s.sessions.Delete(sessionID)
}

// ChangePassword verifies the current password before storing a new hash.
func (s *Service) ChangePassword(userID uint, currentPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return invalid("new_password", "password must be at least 8 characters long")
	}

	user, err := s.users.FindByID(userID)
	if err != nil {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.users.UpdatePasswordHash(user.ID, string(hash))
}

// RequireAdmin guards admin-only operations. Anonymous callers and
// authenticated non-admins get the same error.
func (s *Service) RequireAdmin(session *utils.SessionData) error {
	if session == nil || session.SessionID == "" || !session.IsAdmin {
		return ErrUnauthorized
	}
	return nil
}

// ListUsers returns every account, for the admin user screen.
func (s *Service) ListUsers() ([]User, error) {
	return s.users.ListUsers()
}

// HasUsers reports whether any account exists, for the initial-setup path.
func (s *Service) HasUsers() (bool, error) {
	count, err := s.users.Count()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func isEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

package users

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/isgnet/devreg/internal/common"
	"github.com/isgnet/devreg/internal/database"
	"github.com/isgnet/devreg/internal/store"
	"github.com/isgnet/devreg/model"
	"github.com/isgnet/devreg/params"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var passwordHashCost = bcrypt.DefaultCost

type CreateUserOptions struct {
	Username string
	Email    string
	Password string
}

type PasswordResetOptions struct {
	Secret      string // HMAC key for stored reset codes
	CodeTTL     time.Duration
	MaxAttempts int
}

type UserService struct {
	userRepo   UserRepository
	resetStore *resetCodeStore
	resetOpts  PasswordResetOptions
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func checkPasswordLength(password string) error {
	if len(password) < params.PasswordMinLength {
		return ErrPasswordTooShort
	}
	return nil
}

func (s *UserService) firstUser(ctx context.Context, query interface{}, args ...interface{}) (*model.User, error) {
	user, err := s.userRepo.First(ctx, query, args...)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, database.NewStorageError("get user", err)
	}
	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, userID uint) (*model.User, error) {
	return s.firstUser(ctx, "id = ?", userID)
}

func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrUserNotFound
	}
	return s.firstUser(ctx, "email = ?", email)
}

func (s *UserService) GetUserByUsernameOrEmail(ctx context.Context, identifier string) (*model.User, error) {
	if _, err := mail.ParseAddress(identifier); err == nil {
		return s.firstUser(ctx, "email = ?", identifier)
	}
	return s.firstUser(ctx, "username = ?", identifier)
}

func (s *UserService) checkUserExist(ctx context.Context, email string, username string) error {
	existing, err := s.userRepo.First(ctx, "username = ? OR email = ?", username, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return database.NewStorageError("check user exists", err)
	}
	if existing.Username == username {
		return ErrUsernameTaken
	}
	return ErrEmailRegistered
}

// Register creates an account. Uniqueness is checked up front and again by
// the unique indexes on insert.
func (s *UserService) Register(ctx context.Context, opts CreateUserOptions) (*model.User, error) {
	opts.Email = strings.ToLower(strings.TrimSpace(opts.Email))
	if err := checkPasswordLength(opts.Password); err != nil {
		return nil, err
	}
	if err := s.checkUserExist(ctx, opts.Email, opts.Username); err != nil {
		return nil, err
	}

	passwordHash, err := hashPassword(opts.Password)
	if err != nil {
		return nil, err
	}
	user := model.User{
		Username: opts.Username,
		Email:    opts.Email,
		Password: passwordHash,
	}
	err = s.userRepo.Create(ctx, &user)
	if database.IsDuplicateKey(err) {
		if existErr := s.checkUserExist(ctx, opts.Email, opts.Username); existErr != nil {
			return nil, existErr
		}
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, database.NewStorageError("create user", err)
	}
	slog.Info("User registered", "userID", user.ID, "username", user.Username)
	return &user, nil
}

// Authenticate checks a username (or email) and password pair. Unknown users
// and wrong passwords are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, identifier string, password string) (*model.User, error) {
	user, err := s.GetUserByUsernameOrEmail(ctx, identifier)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, ErrUserDisabled
	}
	return user, nil
}

func (s *UserService) UpdatePassword(ctx context.Context, userID uint, newPassword string) error {
	if err := checkPasswordLength(newPassword); err != nil {
		return err
	}
	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	updates := map[string]interface{}{
		"password": passwordHash,
	}
	affected, err := s.userRepo.Updates(ctx, updates, "id = ?", userID)
	if err != nil {
		return database.NewStorageError("update password", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *UserService) ChangePassword(ctx context.Context, user *model.User, oldPassword, newPassword string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return ErrIncorrectPassword
	}
	if err := s.UpdatePassword(ctx, user.ID, newPassword); err != nil {
		return err
	}
	slog.Info("Password changed", "userID", user.ID)
	return nil
}

// RequestPasswordReset issues a new numeric reset code for the account with
// the given email, replacing any pending one. The plain code is returned for
// delivery and never stored.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) (*model.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	code, err := common.GenerateDigits(params.ResetCodeLength)
	if err != nil {
		return nil, "", err
	}
	resetCode := ResetCode{
		UserID:    user.ID,
		CodeHash:  s.resetCodeHash(email, code),
		ExpiresAt: time.Now().Add(s.resetOpts.CodeTTL).Unix(),
	}
	// kept past its expiry so a late attempt reports expired instead of invalid
	if err := s.resetStore.Set(ctx, email, resetCode, 2*s.resetOpts.CodeTTL); err != nil {
		return nil, "", err
	}
	return user, code, nil
}

func (s *UserService) resetCodeHash(email string, code string) string {
	return common.CalculateHash(s.resetOpts.Secret, email, code)
}

func (s *UserService) checkResetCode(ctx context.Context, email string, code string) (*ResetCode, error) {
	resetCode, err := s.resetStore.Get(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidResetCode
	}
	if err != nil {
		return nil, err
	}
	if resetCode.Attempts >= s.resetOpts.MaxAttempts {
		s.resetStore.Delete(ctx, email)
		return nil, ErrInvalidResetCode
	}
	if resetCode.CodeHash != s.resetCodeHash(email, code) {
		attempts, err := s.resetStore.IncreaseAttempts(ctx, email)
		if err != nil {
			return nil, err
		}
		if attempts >= s.resetOpts.MaxAttempts {
			s.resetStore.Delete(ctx, email)
		}
		return nil, ErrInvalidResetCode
	}
	if resetCode.IsExpired() {
		s.resetStore.Delete(ctx, email)
		return nil, ErrResetCodeExpired
	}
	return &resetCode, nil
}

// VerifyResetCode checks a reset code without consuming it.
func (s *UserService) VerifyResetCode(ctx context.Context, email string, code string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	_, err := s.checkResetCode(ctx, email, code)
	return err
}

func (s *UserService) SetNewPassword(ctx context.Context, email string, code string, newPassword string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := checkPasswordLength(newPassword); err != nil {
		return err
	}
	resetCode, err := s.checkResetCode(ctx, email, code)
	if err != nil {
		return err
	}
	if err := s.UpdatePassword(ctx, resetCode.UserID, newPassword); err != nil {
		return err
	}
	if err := s.resetStore.Delete(ctx, email); err != nil && !errors.Is(err, store.ErrNotFound) {
		slog.Warn("Failed to delete used reset code", "email", email, "error", err)
	}
	slog.Info("Password reset", "userID", resetCode.UserID)
	return nil
}

func NewUserService(userRepo UserRepository, storage store.Storage, resetOpts PasswordResetOptions) *UserService {
	if resetOpts.CodeTTL == 0 {
		resetOpts.CodeTTL = params.ResetCodeExpiration
	}
	if resetOpts.MaxAttempts == 0 {
		resetOpts.MaxAttempts = params.ResetCodeMaxAttempts
	}
	return &UserService{
		userRepo:   userRepo,
		resetStore: newResetCodeStore(storage, params.ResetCodeKeyPrefix),
		resetOpts:  resetOpts,
	}
}

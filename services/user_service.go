package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/engforum/engforum/models"
	"github.com/engforum/engforum/utils"
)

// UserService is the identity store: registration, credential checks and lookups.
type UserService struct {
	db     *gorm.DB
	hasher utils.PasswordHasher
}

// NewUserService creates a UserService hashing new passwords with hasher.
func NewUserService(db *gorm.DB, hasher utils.PasswordHasher) *UserService {
	return &UserService{db: db, hasher: hasher}
}

func byUsername(tx *gorm.DB, username string) *gorm.DB {
	return tx.Where("LOWER(username) = LOWER(?)", username)
}

// Register creates a non-admin user. It returns ErrAlreadyExists when the
// username matches an existing one case-insensitively.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := byUsername(tx.Model(&models.User{}), username).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrAlreadyExists
		}
		return tx.Create(&user).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrAlreadyExists
	}
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("register %q: %w", username, err)
	}
	return &user, nil
}

// Validate returns the user when password matches the stored credential.
// A missing user and a wrong password are both reported as (nil, nil).
func (s *UserService) Validate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.GetByUsername(ctx, username)
	if err != nil || user == nil {
		return nil, err
	}
	if !utils.CheckPassword(user.PasswordHash, password) {
		return nil, nil
	}
	return user, nil
}

// Exists reports whether a user with that name (any case) is registered.
func (s *UserService) Exists(ctx context.Context, username string) (bool, error) {
	var n int64
	if err := byUsername(s.db.WithContext(ctx).Model(&models.User{}), username).Count(&n).Error; err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return n > 0, nil
}

// GetByUsername looks a user up case-insensitively; (nil, nil) when absent.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := byUsername(s.db.WithContext(ctx), username).First(&user).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %q: %w", username, err)
	}
	return &user, nil
}

// GetByID returns the user with id; (nil, nil) when absent.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return &user, nil
}

// ListAll returns every user, most recently created first.
func (s *UserService) ListAll(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Count returns the number of registered users.
func (s *UserService) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// SetAdmin promotes or demotes a user. It reports false when the user does not exist.
func (s *UserService) SetAdmin(ctx context.Context, username string, admin bool) (bool, error) {
	user, err := s.GetByUsername(ctx, username)
	if err != nil || user == nil {
		return false, err
	}
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Update("is_admin", admin).Error; err != nil {
		return false, fmt.Errorf("set admin %q: %w", username, err)
	}
	return true, nil
}

// EnsureAdmins grants administrator rights to every listed user that exists
// and returns how many were found.
func (s *UserService) EnsureAdmins(ctx context.Context, usernames []string) (int, error) {
	found := 0
	for _, name := range usernames {
		if name == "" {
			continue
		}
		ok, err := s.SetAdmin(ctx, name, true)
		if err != nil {
			return found, err
		}
		if ok {
			found++
		}
	}
	return found, nil
}

package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/storage"
	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/zodiac"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = apperr.Validation("email already registered")
	ErrInvalidCredentials = apperr.Auth("invalid email or password")
	ErrInvalidToken       = apperr.Auth("invalid or expired refresh token")
	ErrInvalidResetToken  = apperr.Auth("invalid or expired reset token")
	ErrUserNotFound       = apperr.NotFound("user not found")
	ErrNotGuest           = apperr.Validation("account already has an email")
	ErrWeakPassword       = apperr.Validation("password must be at least 8 characters")
)

const minPasswordLen = 8

// LoginRecorder notes a sign-in for the daily activity calendar.
// *activity.CheckIns satisfies it.
type LoginRecorder interface {
	RecordLogin(ctx context.Context, userID uuid.UUID, loc *time.Location) (bool, error)
}

// AccountCleaner removes the data a component keeps for an account. It runs
// inside the account deletion transaction and returns object storage paths to
// delete once that transaction commits.
type AccountCleaner interface {
	PurgeAccountTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]string, error)
}

// CleanerFunc adapts a function to AccountCleaner.
type CleanerFunc func(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]string, error)

func (f CleanerFunc) PurgeAccountTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]string, error) {
	return f(ctx, tx, userID)
}

type AuthDeps struct {
	Logins  LoginRecorder
	Mailer  Mailer
	Objects storage.ObjectStore
	Now     func() time.Time
}

type AuthService struct {
	db       *gorm.DB
	cfg      *config.Config
	logins   LoginRecorder
	mailer   Mailer
	objects  storage.ObjectStore
	now      func() time.Time
	cleaners []AccountCleaner
}

func NewAuthService(db *gorm.DB, cfg *config.Config, deps AuthDeps) *AuthService {
	s := &AuthService{
		db:      db,
		cfg:     cfg,
		logins:  deps.Logins,
		mailer:  deps.Mailer,
		objects: deps.Objects,
		now:     deps.Now,
	}
	if s.mailer == nil {
		s.mailer = LogMailer{}
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// AddCleaners registers components whose data goes with a deleted account.
func (s *AuthService) AddCleaners(cleaners ...AccountCleaner) {
	s.cleaners = append(s.cleaners, cleaners...)
}

func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest, loc *time.Location) (*dto.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, apperr.Validation("email is required")
	}
	if len(req.Password) < minPasswordLen {
		return nil, ErrWeakPassword
	}

	taken, err := s.emailTaken(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = strings.Split(email, "@")[0]
	}
	now := s.now()
	user := models.User{
		ID:           uuid.New(),
		DisplayName:  displayName,
		Email:        &email,
		Password:     string(hash),
		Role:         models.RoleUser,
		AuthProvider: models.ProviderEmail,
		LastLoginAt:  &now,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, apperr.Transport(fmt.Errorf("failed to create user: %w", err))
	}

	s.recordLogin(ctx, &user, loc)
	return s.generateTokenPair(ctx, &user)
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest, loc *time.Location) (*dto.AuthResponse, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(req.Email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, apperr.Transport(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	s.touchLastLogin(ctx, &user)
	s.recordLogin(ctx, &user, loc)
	return s.generateTokenPair(ctx, &user)
}

// LoginAnonymously creates a guest account with no credentials. The guest can
// later keep its data by linking an email.
func (s *AuthService) LoginAnonymously(ctx context.Context, req *dto.AnonymousLoginRequest, loc *time.Location) (*dto.AuthResponse, error) {
	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = "Guest"
	}
	now := s.now()
	user := models.User{
		ID:           uuid.New(),
		DisplayName:  displayName,
		Role:         models.RoleUser,
		AuthProvider: models.ProviderAnonymous,
		LastLoginAt:  &now,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, apperr.Transport(fmt.Errorf("failed to create guest: %w", err))
	}

	s.recordLogin(ctx, &user, loc)
	return s.generateTokenPair(ctx, &user)
}

// LinkEmail upgrades a guest to an email account, keeping its id and data.
func (s *AuthService) LinkEmail(ctx context.Context, userID uuid.UUID, req *dto.LinkEmailRequest) (*dto.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if len(req.Password) < minPasswordLen {
		return nil, ErrWeakPassword
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsGuest() {
		return nil, ErrNotGuest
	}

	taken, err := s.emailTaken(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.db.WithContext(ctx).Model(user).Updates(map[string]interface{}{
		"email":         email,
		"password":      string(hash),
		"auth_provider": models.ProviderEmail,
	}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, apperr.Transport(err)
	}
	user.Email = &email
	user.AuthProvider = models.ProviderEmail

	slog.Info("guest linked email", "user_id", userID.String())
	return s.generateTokenPair(ctx, user)
}

func (s *AuthService) Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	db := s.db.WithContext(ctx)

	var stored models.RefreshToken
	if err := db.Where("token_hash = ?", hashToken(req.RefreshToken)).First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, apperr.Transport(err)
	}
	if stored.Revoked {
		if stored.RevokeReason == models.RevokeRotated {
			slog.Warn("rotated refresh token reused, ending all sessions", "user_id", stored.UserID.String())
			if err := s.revokeAll(db, stored.UserID, models.RevokeReused); err != nil {
				return nil, apperr.Transport(err)
			}
		}
		return nil, ErrInvalidToken
	}

	reason := models.RevokeRotated
	if s.now().After(stored.ExpiresAt) {
		reason = models.RevokeExpired
	}
	// Single use: the conditional update lets exactly one caller through.
	res := db.Model(&models.RefreshToken{}).
		Where("id = ? AND revoked = ?", stored.ID, false).
		Updates(map[string]interface{}{"revoked": true, "revoke_reason": reason})
	if res.Error != nil {
		return nil, apperr.Transport(res.Error)
	}
	if res.RowsAffected == 0 || reason == models.RevokeExpired {
		return nil, ErrInvalidToken
	}

	user, err := s.GetUser(ctx, stored.UserID)
	if err != nil {
		return nil, err
	}
	return s.generateTokenPair(ctx, user)
}

func (s *AuthService) revokeAll(db *gorm.DB, userID uuid.UUID, reason string) error {
	return db.Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Updates(map[string]interface{}{"revoked": true, "revoke_reason": reason}).Error
}

func (s *AuthService) Logout(ctx context.Context, req *dto.LogoutRequest) error {
	err := s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ? AND revoked = ?", hashToken(req.RefreshToken), false).
		Updates(map[string]interface{}{"revoked": true, "revoke_reason": models.RevokeLogout}).Error
	return apperr.Transport(err)
}

// RequestPasswordReset mails a single-use reset token. Unknown and guest
// addresses succeed silently so the endpoint cannot be used to discover
// accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return apperr.Transport(err)
	}

	raw, err := randomToken()
	if err != nil {
		return err
	}
	reset := models.PasswordReset{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: hashToken(raw),
		ExpiresAt: s.now().Add(s.cfg.PasswordResetExpiry),
	}
	if err := s.db.WithContext(ctx).Create(&reset).Error; err != nil {
		return apperr.Transport(fmt.Errorf("failed to store reset token: %w", err))
	}

	if err := s.mailer.SendPasswordReset(ctx, email, raw); err != nil {
		slog.Error("password reset mail failed", "user_id", user.ID.String(), "error", err)
		return fmt.Errorf("%w: failed to send reset email", apperr.ErrTransport)
	}
	return nil
}

// ResetPassword consumes a reset token, sets the new password and signs the
// account out everywhere.
func (s *AuthService) ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error {
	if len(req.NewPassword) < minPasswordLen {
		return ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reset models.PasswordReset
		err := tx.Where("token_hash = ? AND used_at IS NULL", hashToken(req.Token)).First(&reset).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidResetToken
		}
		if err != nil {
			return err
		}
		if now.After(reset.ExpiresAt) {
			return ErrInvalidResetToken
		}

		used := tx.Model(&models.PasswordReset{}).
			Where("id = ? AND used_at IS NULL", reset.ID).
			Update("used_at", now)
		if used.Error != nil {
			return used.Error
		}
		if used.RowsAffected == 0 {
			return ErrInvalidResetToken
		}
		if err := tx.Model(&models.User{}).Where("id = ?", reset.UserID).Update("password", string(hash)).Error; err != nil {
			return err
		}
		return s.revokeAll(tx, reset.UserID, models.RevokePasswordReset)
	})
	return apperr.Transport(err)
}

// DeleteAccount removes the account and everything it owns. This is the only
// hard delete in the system. Guests have no password to confirm.
func (s *AuthService) DeleteAccount(ctx context.Context, userID uuid.UUID, password string) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	if !user.IsGuest() {
		if password == "" {
			return apperr.Validation("password is required")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
			return ErrInvalidCredentials
		}
	}

	var objects []string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, c := range s.cleaners {
			paths, err := c.PurgeAccountTx(ctx, tx, userID)
			if err != nil {
				return err
			}
			objects = append(objects, paths...)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.PasswordReset{}).Error; err != nil {
			return err
		}
		if err := tx.Where("reporter_id = ?", userID).Delete(&models.Report{}).Error; err != nil {
			return err
		}
		if err := tx.Where("blocker_id = ? OR blocked_id = ?", userID, userID).Delete(&models.Block{}).Error; err != nil {
			return err
		}
		return tx.Delete(user).Error
	})
	if err != nil {
		return apperr.Transport(err)
	}

	// Orphaned blobs are harmless, so storage failures are only logged.
	if s.objects != nil {
		for _, p := range objects {
			if err := s.objects.Delete(context.WithoutCancel(ctx), p); err != nil {
				slog.Warn("failed to delete stored object", "path", p, "user_id", userID.String(), "error", err)
			}
		}
	}
	slog.Info("account deleted", "user_id", userID.String(), "objects", len(objects))
	return nil
}

func (s *AuthService) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, apperr.Transport(err)
	}
	return &user, nil
}

// UpdateProfile changes the display name and birth date.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *dto.UpdateProfileRequest) (*models.User, error) {
	updates := map[string]interface{}{}
	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		if name == "" {
			return nil, apperr.Validation("display_name must not be empty")
		}
		updates["display_name"] = name
	}
	if req.BirthDate != nil {
		if *req.BirthDate == "" {
			updates["birth_date"] = nil
		} else {
			d, err := time.Parse("2006-01-02", *req.BirthDate)
			if err != nil {
				return nil, apperr.Validation("birth_date must be YYYY-MM-DD")
			}
			if d.After(s.now()) {
				return nil, apperr.Validation("birth_date must be in the past")
			}
			updates["birth_date"] = d
		}
	}
	if len(updates) > 0 {
		result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(updates)
		if result.Error != nil {
			return nil, apperr.Transport(result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, ErrUserNotFound
		}
	}
	return s.GetUser(ctx, userID)
}

func (s *AuthService) emailTaken(ctx context.Context, email string) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return false, apperr.Transport(err)
	}
	return n > 0, nil
}

func (s *AuthService) touchLastLogin(ctx context.Context, user *models.User) {
	now := s.now()
	if err := s.db.WithContext(ctx).Model(user).UpdateColumn("last_login_at", now).Error; err != nil {
		slog.Warn("failed to stamp last login", "user_id", user.ID.String(), "error", err)
		return
	}
	user.LastLoginAt = &now
}

// recordLogin never fails the sign-in; a missed bonus is logged by the
// activity package.
func (s *AuthService) recordLogin(ctx context.Context, user *models.User, loc *time.Location) {
	if s.logins == nil {
		return
	}
	if _, err := s.logins.RecordLogin(ctx, user.ID, loc); err != nil {
		slog.Warn("failed to record daily login", "user_id", user.ID.String(), "error", err)
	}
}

func (s *AuthService) generateTokenPair(ctx context.Context, user *models.User) (*dto.AuthResponse, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(ctx, user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         UserResponse(user),
	}, nil
}

// UserResponse renders an account for API responses.
func UserResponse(user *models.User) dto.UserResponse {
	resp := dto.UserResponse{
		ID:           user.ID,
		DisplayName:  user.DisplayName,
		IsGuest:      user.IsGuest(),
		KarmaBalance: user.KarmaBalance,
		BirthDate:    user.BirthDate,
	}
	if user.Email != nil {
		resp.Email = *user.Email
	}
	if user.BirthDate != nil {
		resp.ZodiacSign = string(zodiac.SignFor(*user.BirthDate))
	}
	return resp
}

func (s *AuthService) generateAccessToken(user *models.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"guest": user.IsGuest(),
		"role":  user.Role,
		"iat":   now.Unix(),
		"exp":   now.Add(s.cfg.JWTAccessExpiry).Unix(),
	}
	if user.Email != nil {
		claims["email"] = *user.Email
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) generateRefreshToken(ctx context.Context, user *models.User) (string, error) {
	rawToken, err := randomToken()
	if err != nil {
		return "", err
	}

	record := models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: hashToken(rawToken),
		ExpiresAt: s.now().Add(s.cfg.JWTRefreshExpiry),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return "", apperr.Transport(fmt.Errorf("failed to store refresh token: %w", err))
	}

	return rawToken, nil
}

func randomToken() (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.URLEncoding.EncodeToString(rawBytes), nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

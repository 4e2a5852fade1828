package service

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"estatehub/config"
	"estatehub/internal/apperr"
	"estatehub/internal/auth"
	"estatehub/internal/domain"
	"estatehub/internal/mail"
	"estatehub/internal/models"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserStore is the subset of the user repository the auth flows need. Lookups return
// gorm.ErrRecordNotFound on a miss; Create returns gorm.ErrDuplicatedKey for a taken email.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByProviderID(ctx context.Context, provider, id string) (*models.User, error)
	Update(ctx context.Context, u *models.User) error
}

type PasswordResetStore interface {
	Put(ctx context.Context, t *models.PasswordResetToken) error
	Get(ctx context.Context, email string) (*models.PasswordResetToken, error)
	Delete(ctx context.Context, email string) error
}

var (
	ErrEmailExists          = apperr.NewFieldError("email", "The email has already been taken.")
	ErrInvalidCreds         = apperr.NewUnauthenticatedError("Invalid login credentials")
	ErrDeactivated          = apperr.NewForbiddenError("Your account has been deactivated")
	ErrResetLinkFailed      = apperr.NewBadRequestError("Unable to send reset link")
	ErrResetFailed          = apperr.NewBadRequestError("Unable to reset password")
	ErrInvalidVerification  = apperr.NewBadRequestError("Invalid verification link")
	ErrVerificationUserGone = apperr.NewNotFoundError("User", nil)
	ErrUnsupportedProvider  = apperr.NewNotFoundError("Login provider", nil)
)

// SocialProfile is what an identity provider tells us about the signed-in user.
type SocialProfile struct {
	ID        string
	Email     string
	Name      string
	AvatarURL string
}

type AuthService struct {
	cfg    *config.Config
	users  UserStore
	resets PasswordResetStore
	mailer mail.Mailer
	log    *zap.Logger
	now    func() time.Time
}

func NewAuthService(cfg *config.Config, users UserStore, resets PasswordResetStore, mailer mail.Mailer, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	if mailer == nil {
		mailer = mail.New(&cfg.Mail, log)
	}
	return &AuthService{cfg: cfg, users: users, resets: resets, mailer: mailer, log: log, now: time.Now}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, auth.TokenPair, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, auth.TokenPair{}, err
	}
	_, err := s.users.GetByEmail(ctx, in.Email)
	if err == nil {
		return nil, auth.TokenPair{}, ErrEmailExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, auth.TokenPair{}, s.internal(ctx, "look up email", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, auth.TokenPair{}, s.internal(ctx, "hash password", err)
	}
	role := in.Role
	if role != domain.RoleOwner {
		role = domain.RoleUser
	}
	u := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, auth.TokenPair{}, ErrEmailExists
		}
		return nil, auth.TokenPair{}, s.internal(ctx, "create user", err)
	}
	s.log.Info("User registered", zap.Uint("user_id", u.ID), zap.String("role", u.Role))
	if err := s.sendVerification(ctx, u); err != nil {
		s.log.Warn("Failed to send verification email", zap.Uint("user_id", u.ID), zap.Error(err))
	}
	return s.issue(ctx, u)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*models.User, auth.TokenPair, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, auth.TokenPair{}, err
	}
	u, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.TokenPair{}, ErrInvalidCreds
		}
		return nil, auth.TokenPair{}, s.internal(ctx, "look up email", err)
	}
	if u.PasswordHash == "" {
		return nil, auth.TokenPair{}, ErrInvalidCreds
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return nil, auth.TokenPair{}, ErrInvalidCreds
	}
	if !u.IsActive {
		return nil, auth.TokenPair{}, ErrDeactivated
	}
	return s.issue(ctx, u)
}

// LoginWithProvider finds the user by provider id, links an existing email account, or creates
// a new user. The bool reports whether a user was created. Deactivated accounts are refused
// and never linked. Provider sign-in counts as a verified email.
func (s *AuthService) LoginWithProvider(ctx context.Context, provider string, p SocialProfile) (*models.User, auth.TokenPair, bool, error) {
	if provider != domain.ProviderGoogle && provider != domain.ProviderFacebook {
		return nil, auth.TokenPair{}, false, ErrUnsupportedProvider
	}
	u, err := s.users.GetByProviderID(ctx, provider, p.ID)
	if err == nil {
		if !u.IsActive {
			return nil, auth.TokenPair{}, false, ErrDeactivated
		}
		pair, err := s.pairFor(ctx, u)
		return u, pair, false, err
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, auth.TokenPair{}, false, s.internal(ctx, "look up "+provider+" id", err)
	}

	email := normalizeEmail(p.Email)
	now := s.now()
	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if !existing.IsActive {
			return nil, auth.TokenPair{}, false, ErrDeactivated
		}
		linkProvider(existing, provider, p.ID)
		if p.AvatarURL != "" {
			existing.AvatarURL = p.AvatarURL
		}
		if existing.EmailVerifiedAt == nil {
			existing.EmailVerifiedAt = &now
		}
		if err := s.users.Update(ctx, existing); err != nil {
			return nil, auth.TokenPair{}, false, s.internal(ctx, "link "+provider+" account", err)
		}
		pair, err := s.pairFor(ctx, existing)
		return existing, pair, false, err
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, auth.TokenPair{}, false, s.internal(ctx, "look up email", err)
	}

	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = strings.Split(email, "@")[0]
	}
	u = &models.User{
		Name:            name,
		Email:           email,
		Role:            domain.RoleUser,
		AvatarURL:       p.AvatarURL,
		IsActive:        true,
		EmailVerifiedAt: &now,
	}
	linkProvider(u, provider, p.ID)
	if err := s.users.Create(ctx, u); err != nil {
		return nil, auth.TokenPair{}, false, s.internal(ctx, "create "+provider+" user", err)
	}
	s.log.Info("User registered", zap.Uint("user_id", u.ID), zap.String("provider", provider))
	pair, err := s.pairFor(ctx, u)
	return u, pair, true, err
}

func linkProvider(u *models.User, provider, id string) {
	switch provider {
	case domain.ProviderGoogle:
		u.GoogleID = &id
	case domain.ProviderFacebook:
		u.FacebookID = &id
	}
}

// Refresh exchanges a refresh token for a new pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	userID, err := auth.ParseRefreshToken(&s.cfg.JWT, refreshToken)
	if err != nil {
		return auth.TokenPair{}, apperr.NewUnauthenticatedError("")
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return auth.TokenPair{}, apperr.NewUnauthenticatedError("")
		}
		return auth.TokenPair{}, s.internal(ctx, "load user", err)
	}
	if !u.IsActive {
		return auth.TokenPair{}, apperr.NewUnauthenticatedError("")
	}
	return s.pairFor(ctx, u)
}

func (s *AuthService) Me(ctx context.Context, userID uint) (*models.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewUnauthenticatedError("")
		}
		return nil, s.internal(ctx, "load user", err)
	}
	return u, nil
}

// ForgotPassword mails a single-use reset link. A new request replaces any earlier token.
func (s *AuthService) ForgotPassword(ctx context.Context, in EmailInput) error {
	in.Email = normalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return err
	}
	u, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrResetLinkFailed
		}
		return s.internal(ctx, "look up email", err)
	}
	token, err := randomToken()
	if err != nil {
		return s.internal(ctx, "generate reset token", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return s.internal(ctx, "hash reset token", err)
	}
	rec := &models.PasswordResetToken{Email: u.Email, TokenHash: string(hash), CreatedAt: s.now()}
	if err := s.resets.Put(ctx, rec); err != nil {
		return s.internal(ctx, "store reset token", err)
	}
	msg := mail.ResetPassword(s.cfg.Mail.FrontendURL, u.Name, u.Email, token, s.cfg.Mail.ResetExpiry)
	if err := s.mailer.Send(ctx, msg); err != nil {
		return s.internal(ctx, "send reset link", err, zap.Uint("user_id", u.ID))
	}
	return nil
}

// ResetPassword sets a new password when the token matches and has not expired.
// Any mismatch reports the same error.
func (s *AuthService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	in.Email = normalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return err
	}
	u, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrResetFailed
		}
		return s.internal(ctx, "look up email", err)
	}
	rec, err := s.resets.Get(ctx, u.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrResetFailed
		}
		return s.internal(ctx, "load reset token", err)
	}
	if s.now().Sub(rec.CreatedAt) > s.cfg.Mail.ResetExpiry {
		if err := s.resets.Delete(ctx, u.Email); err != nil {
			s.log.Warn("Failed to delete expired reset token", zap.Error(err))
		}
		return ErrResetFailed
	}
	if bcrypt.CompareHashAndPassword([]byte(rec.TokenHash), []byte(in.Token)) != nil {
		return ErrResetFailed
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return s.internal(ctx, "hash password", err)
	}
	u.PasswordHash = string(hash)
	if err := s.users.Update(ctx, u); err != nil {
		return s.internal(ctx, "update password", err)
	}
	if err := s.resets.Delete(ctx, u.Email); err != nil {
		return s.internal(ctx, "delete reset token", err)
	}
	s.log.Info("Password reset", zap.Uint("user_id", u.ID))
	return nil
}

// VerifyEmail marks the address verified when hash matches the link mailed to the user.
// The bool reports whether it was already verified.
func (s *AuthService) VerifyEmail(ctx context.Context, userID uint, hash string) (bool, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrInvalidVerification
		}
		return false, s.internal(ctx, "load user", err)
	}
	if !hmac.Equal([]byte(hash), []byte(s.verificationHash(u))) {
		return false, ErrInvalidVerification
	}
	if u.EmailVerifiedAt != nil {
		return true, nil
	}
	now := s.now()
	u.EmailVerifiedAt = &now
	if err := s.users.Update(ctx, u); err != nil {
		return false, s.internal(ctx, "mark email verified", err)
	}
	return false, nil
}

// ResendVerification mails the verification link again. The bool reports whether the
// address was already verified, in which case nothing is sent.
func (s *AuthService) ResendVerification(ctx context.Context, in EmailInput) (bool, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return false, err
	}
	u, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrVerificationUserGone
		}
		return false, s.internal(ctx, "look up email", err)
	}
	if u.EmailVerifiedAt != nil {
		return true, nil
	}
	if err := s.sendVerification(ctx, u); err != nil {
		return false, s.internal(ctx, "send verification email", err, zap.Uint("user_id", u.ID))
	}
	return false, nil
}

func (s *AuthService) sendVerification(ctx context.Context, u *models.User) error {
	return s.mailer.Send(ctx, mail.VerifyEmail(s.cfg.Mail.FrontendURL, u.Name, u.Email, u.ID, s.verificationHash(u)))
}

// verificationHash binds the link to the user id and the current email address.
func (s *AuthService) verificationHash(u *models.User) string {
	mac := hmac.New(sha256.New, []byte(s.cfg.JWT.AccessSecret))
	fmt.Fprintf(mac, "verify-email:%d:%s", u.ID, u.Email)
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *AuthService) issue(ctx context.Context, u *models.User) (*models.User, auth.TokenPair, error) {
	pair, err := s.pairFor(ctx, u)
	if err != nil {
		return nil, auth.TokenPair{}, err
	}
	return u, pair, nil
}

func (s *AuthService) pairFor(ctx context.Context, u *models.User) (auth.TokenPair, error) {
	pair, err := auth.GeneratePair(&s.cfg.JWT, u.ID, u.Email, u.Role)
	if err != nil {
		return auth.TokenPair{}, s.internal(ctx, "sign tokens", err)
	}
	return pair, nil
}

func (s *AuthService) internal(ctx context.Context, op string, err error, fields ...zap.Field) error {
	if ctx.Err() != nil {
		return apperr.From(ctx.Err())
	}
	s.log.Error("Failed to "+op, append(fields, zap.Error(err))...)
	return apperr.NewInternalError(err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

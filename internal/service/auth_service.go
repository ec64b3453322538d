package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/bentansusanto/travel-api/internal/besteffort"
	"github.com/bentansusanto/travel-api/internal/domain"
	"github.com/bentansusanto/travel-api/internal/dto"
	"github.com/bentansusanto/travel-api/internal/notification"
	"github.com/bentansusanto/travel-api/internal/repository"
	"github.com/bentansusanto/travel-api/pkg/logger"
	"github.com/bentansusanto/travel-api/pkg/middleware"
	"github.com/bentansusanto/travel-api/pkg/telemetry"
)

const minPasswordLength = 8

// Site is the front end a request comes from
type Site string

const (
	SiteClient Site = "client"
	SiteAdmin  Site = "admin"
)

// ParseSite validates a site name; empty means the client site
func ParseSite(s string) (Site, error) {
	switch Site(strings.ToLower(s)) {
	case "", SiteClient:
		return SiteClient, nil
	case SiteAdmin:
		return SiteAdmin, nil
	}
	return "", domain.ErrInvalidSite
}

// TokenIssuer signs access tokens. Set in jwt mode, where the session
// token only serves refresh and logout.
type TokenIssuer interface {
	Issue(p middleware.Principal, ttl time.Duration) (string, error)
}

// AuthService defines the interface for account and session operations
type AuthService interface {
	// Register creates an unverified account and mails its verify code
	Register(ctx context.Context, req *dto.RegisterRequest) (*domain.User, error)
	// VerifyAccount consumes a verify code
	VerifyAccount(ctx context.Context, code string) (*domain.User, error)
	// ResendVerification replaces the verify code of an unverified account
	ResendVerification(ctx context.Context, email string) error
	// Login checks credentials and opens a session
	Login(ctx context.Context, req *dto.LoginRequest, ip string) (*dto.AuthResponse, error)
	// RefreshSession swaps a live session for a new one
	RefreshSession(ctx context.Context, refreshToken, ip string) (*dto.AuthResponse, error)
	// Logout ends the session of token; unknown tokens are ignored
	Logout(ctx context.Context, token string) error
	// ForgotPassword mails a reset code. Unknown emails succeed silently.
	ForgotPassword(ctx context.Context, email string) error
	// ResetPassword sets a new password and ends every session
	ResetPassword(ctx context.Context, code, password string) error
	GetProfile(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileRequest) (*domain.User, error)
}

// AuthDeps holds the collaborators of the auth service
type AuthDeps struct {
	Accounts repository.AccountRepository
	Sessions repository.SessionRepository
	Notifier notification.Dispatcher
	// Issuer is nil in session mode
	Issuer TokenIssuer
	Logger *logger.Logger
}

// AuthServiceConfig contains configuration for auth service
type AuthServiceConfig struct {
	BcryptCost int
	SessionTTL time.Duration
	AccessTTL  time.Duration
	VerifyTTL  time.Duration
	ResetTTL   time.Duration
	// ClientSiteURL and AdminSiteURL prefix the links in account emails
	ClientSiteURL string
	AdminSiteURL  string
	MaxOwners     int
	Now           func() time.Time
}

type authService struct {
	accounts repository.AccountRepository
	sessions repository.SessionRepository
	notifier notification.Dispatcher
	issuer   TokenIssuer
	runner   *besteffort.Runner
	log      *logger.Logger
	config   AuthServiceConfig
}

// NewAuthService creates a new auth service
func NewAuthService(deps AuthDeps, cfg *AuthServiceConfig) AuthService {
	c := AuthServiceConfig{}
	if cfg != nil {
		c = *cfg
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = bcrypt.DefaultCost
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 24 * time.Hour
	}
	if c.AccessTTL <= 0 {
		c.AccessTTL = time.Hour
	}
	if c.VerifyTTL <= 0 {
		c.VerifyTTL = time.Hour
	}
	if c.ResetTTL <= 0 {
		c.ResetTTL = 24 * time.Hour
	}
	if c.MaxOwners <= 0 {
		c.MaxOwners = 2
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &authService{
		accounts: deps.Accounts,
		sessions: deps.Sessions,
		notifier: deps.Notifier,
		issuer:   deps.Issuer,
		runner:   besteffort.NewRunner(log),
		log:      log,
		config:   c,
	}
}

func (s *authService) now() time.Time { return s.config.Now().UTC() }

// Register creates an unverified account
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*domain.User, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.register")
	defer span.End()

	site, err := ParseSite(req.Site)
	if err != nil {
		return nil, err
	}
	if len(req.Password) < minPasswordLength {
		return nil, domain.ErrWeakPassword
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, domain.ErrNameRequired
	}
	span.SetAttributes(attribute.String("site", string(site)))

	role := domain.RoleTraveller
	if site == SiteAdmin {
		role = domain.RoleOwner
		owners, err := s.accounts.CountByRole(ctx, domain.RoleOwner)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		if owners >= s.config.MaxOwners {
			span.SetStatus(codes.Error, "owner limit reached")
			return nil, domain.ErrOwnerLimitReached
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.BcryptCost)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("hash password: %w", err)
	}
	code, err := newVerifyCode(s.now())
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := domain.NewUser(strings.TrimSpace(req.Name), normalizeEmail(req.Email), role, string(hashed), now)
	user.SetVerifyCode(code, s.config.VerifyTTL, now)
	if err := s.accounts.Create(ctx, user); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.mailCode(ctx, notification.KindVerifyAccount, user, "/verify-account", "Verify your account")

	span.SetAttributes(attribute.String("user_id", user.ID))
	span.SetStatus(codes.Ok, "")
	return user, nil
}

// VerifyAccount marks the holder of code verified
func (s *authService) VerifyAccount(ctx context.Context, code string) (*domain.User, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.verify_account")
	defer span.End()

	user, err := s.userByCode(ctx, code)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if user.IsVerified {
		return nil, domain.ErrAccountAlreadyVerified
	}
	now := s.now()
	if !user.VerifyCodeValid(code, now) {
		return nil, domain.ErrInvalidVerifyCode
	}

	user.IsVerified = true
	user.ClearVerifyCode(now)
	if err := s.accounts.Update(ctx, user); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("user_id", user.ID))
	span.SetStatus(codes.Ok, "")
	return user, nil
}

// ResendVerification issues a fresh verify code
func (s *authService) ResendVerification(ctx context.Context, email string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.resend_verification")
	defer span.End()

	user, err := s.accounts.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if user.IsVerified {
		return domain.ErrAccountAlreadyVerified
	}
	if err := s.replaceCode(ctx, user, s.config.VerifyTTL); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	s.mailCode(ctx, notification.KindVerifyAccount, user, "/verify-account", "Verify your account")
	span.SetStatus(codes.Ok, "")
	return nil
}

// Login opens a session for valid credentials
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest, ip string) (*dto.AuthResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.login")
	defer span.End()

	site, err := ParseSite(req.Site)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("site", string(site)))

	user, err := s.accounts.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			err = domain.ErrInvalidCredentials
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if user.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		span.SetStatus(codes.Error, "invalid credentials")
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsVerified {
		span.SetStatus(codes.Error, "not verified")
		return nil, domain.ErrAccountNotVerified
	}
	if site == SiteAdmin && !user.IsStaff() {
		s.log.Warn("Traveller attempted admin sign-in", zap.String("user_id", user.ID))
		span.SetStatus(codes.Error, "admin login denied")
		return nil, domain.ErrAdminLoginDenied
	}

	resp, err := s.openSession(ctx, user, ip)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("user_id", user.ID))
	span.SetStatus(codes.Ok, "")
	return resp, nil
}

// RefreshSession rotates a session; the old token stops working
func (s *authService) RefreshSession(ctx context.Context, refreshToken, ip string) (*dto.AuthResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.refresh_session")
	defer span.End()

	hash := repository.HashToken(refreshToken)
	session, err := s.sessions.GetSession(ctx, hash)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if session.IsExpired(s.now()) {
		_ = s.sessions.DeleteSession(ctx, hash)
		span.SetStatus(codes.Error, "session expired")
		return nil, domain.ErrSessionNotFound
	}
	span.SetAttributes(attribute.String("user_id", session.UserID))

	user, err := s.accounts.GetByID(ctx, session.UserID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if err := s.sessions.DeleteSession(ctx, hash); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	resp, err := s.openSession(ctx, user, ip)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return resp, nil
}

// Logout deletes the session of token
func (s *authService) Logout(ctx context.Context, token string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.logout")
	defer span.End()

	if err := s.sessions.DeleteSession(ctx, repository.HashToken(token)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// ForgotPassword mails a reset code to a known account
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.forgot_password")
	defer span.End()

	user, err := s.accounts.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrUserNotFound) {
		s.log.Debug("Password reset for unknown email")
		span.SetStatus(codes.Ok, "")
		return nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := s.replaceCode(ctx, user, s.config.ResetTTL); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	s.mailCode(ctx, notification.KindResetPassword, user, "/reset-password", "Reset your password")
	span.SetAttributes(attribute.String("user_id", user.ID))
	span.SetStatus(codes.Ok, "")
	return nil
}

// ResetPassword consumes a reset code
func (s *authService) ResetPassword(ctx context.Context, code, password string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.reset_password")
	defer span.End()

	if len(password) < minPasswordLength {
		return domain.ErrWeakPassword
	}
	user, err := s.userByCode(ctx, code)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	now := s.now()
	if !user.VerifyCodeValid(code, now) {
		return domain.ErrInvalidVerifyCode
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.config.BcryptCost)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hashed)
	// the code reached the mailbox, which proves the address
	user.IsVerified = true
	user.ClearVerifyCode(now)
	if err := s.accounts.Update(ctx, user); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := s.sessions.DeleteUserSessions(ctx, user.ID); err != nil {
		s.log.ErrorContext(ctx, "Sessions not ended after password reset",
			zap.String("user_id", user.ID), zap.Error(err))
	}

	span.SetAttributes(attribute.String("user_id", user.ID))
	span.SetStatus(codes.Ok, "")
	return nil
}

// GetProfile returns a verified account
func (s *authService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.get_profile")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	user, err := s.accounts.GetByID(ctx, userID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if !user.IsVerified {
		return nil, domain.ErrUserNotFound
	}
	span.SetStatus(codes.Ok, "")
	return user, nil
}

// UpdateProfile renames an account
func (s *authService) UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileRequest) (*domain.User, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.update_profile")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	user.Name = name
	user.UpdatedAt = s.now()
	if err := s.accounts.Update(ctx, user); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return user, nil
}

// openSession stores a new session for user and builds the token pair
func (s *authService) openSession(ctx context.Context, user *domain.User, ip string) (*dto.AuthResponse, error) {
	token, err := randomHex(32)
	if err != nil {
		return nil, err
	}
	now := s.now()
	session := &domain.Session{
		TokenHash: repository.HashToken(token),
		UserID:    user.ID,
		IP:        ip,
		ExpiresAt: now.Add(s.config.SessionTTL),
		CreatedAt: now,
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	resp := &dto.AuthResponse{
		AccessToken:  token,
		RefreshToken: token,
		TokenType:    "Bearer",
		ExpiresAt:    session.ExpiresAt,
		User:         user,
	}
	if s.issuer != nil {
		access, err := s.issuer.Issue(middleware.Principal{UserID: user.ID, Email: user.Email, Role: user.Role}, s.config.AccessTTL)
		if err != nil {
			_ = s.sessions.DeleteSession(ctx, session.TokenHash)
			return nil, err
		}
		resp.AccessToken = access
		resp.ExpiresAt = now.Add(s.config.AccessTTL)
	}
	return resp, nil
}

func (s *authService) userByCode(ctx context.Context, code string) (*domain.User, error) {
	if code == "" {
		return nil, domain.ErrInvalidVerifyCode
	}
	user, err := s.accounts.GetByVerifyCode(ctx, code)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrInvalidVerifyCode
	}
	return user, err
}

func (s *authService) replaceCode(ctx context.Context, user *domain.User, ttl time.Duration) error {
	now := s.now()
	code, err := newVerifyCode(now)
	if err != nil {
		return err
	}
	user.SetVerifyCode(code, ttl, now)
	return s.accounts.Update(ctx, user)
}

// mailCode sends the link carrying the user's outstanding code. Travellers
// land on the client site, staff on the admin site.
func (s *authService) mailCode(ctx context.Context, kind notification.Kind, user *domain.User, path, subject string) {
	base := s.config.ClientSiteURL
	if user.IsStaff() {
		base = s.config.AdminSiteURL
	}
	link := strings.TrimRight(base, "/") + path + "?verify_token=" + url.QueryEscape(user.VerifyCode)

	s.runner.Do(ctx, "email."+string(kind), func(ctx context.Context) error {
		return s.notifier.Send(ctx, kind, user.Email, notification.Fields{
			Subject:      subject,
			Link:         link,
			CustomerName: user.Name,
		})
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// newVerifyCode is 40 random bytes in hex, suffixed with the issue time
func newVerifyCode(now time.Time) (string, error) {
	token, err := randomHex(40)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d", token, now.UnixMilli()), nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

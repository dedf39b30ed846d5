package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"otp-auth/internal/data/entity"
	"otp-auth/internal/data/repository"
	"otp-auth/internal/dto/request"
	"otp-auth/internal/dto/response"
	"otp-auth/pkg/mailer"
	"otp-auth/pkg/token"
	"otp-auth/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Caller identifies the authenticated request a logout applies to.
type Caller struct {
	UserID          uuid.UUID
	AccessToken     string
	AccessExpiresAt time.Time
}

type AuthService interface {
	SendOTP(ctx context.Context, req *request.SendOTPRequest) (*response.SendOTPResponse, error)
	Register(ctx context.Context, req *request.RegisterRequest) (*response.AuthResponse, error)
	Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error)
	RefreshToken(ctx context.Context, req *request.RefreshTokenRequest) (*response.AuthResponse, error)
	Logout(ctx context.Context, caller Caller, refreshToken string) error
	LogoutAll(ctx context.Context, caller Caller) error
}

type authService struct {
	repo   *repository.Repository
	config *utils.Config
	tokens *token.Manager
	mail   mailer.Sender
	log    *zap.Logger
	now    func() time.Time
}

func NewAuthService(
	repo *repository.Repository,
	config *utils.Config,
	tokens *token.Manager,
	mail mailer.Sender,
	log *zap.Logger,
) AuthService {
	return &authService{
		repo:   repo,
		config: config,
		tokens: tokens,
		mail:   mail,
		log:    log.With(zap.String("service", "auth")),
		now:    time.Now,
	}
}

func (s *authService) SendOTP(ctx context.Context, req *request.SendOTPRequest) (*response.SendOTPResponse, error) {
	email := utils.NormalizeEmail(req.Email)

	exists, err := s.repo.User.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}

	code, err := utils.GenerateOTP(s.config.OTP.Length)
	if err != nil {
		return nil, fmt.Errorf("generate OTP: %w", err)
	}

	// Replacing the row invalidates any earlier code for this email.
	now := s.now()
	challenge := &entity.OTPChallenge{
		Email:     email,
		CodeHash:  utils.HashOTP(email, code),
		ExpiresAt: now.Add(s.config.OTP.TTL()),
		CreatedAt: now,
	}
	if err := s.repo.OTP.Replace(ctx, challenge); err != nil {
		return nil, err
	}

	subject, html, err := mailer.RenderOTPEmail(s.config.Email.FromName, code, !exists, s.config.OTP.TTL())
	if err != nil {
		return nil, err
	}
	if err := s.mail.Send(ctx, email, subject, html); err != nil {
		return nil, fmt.Errorf("deliver OTP: %w", err)
	}

	s.log.Info("OTP issued",
		zap.String("email", utils.MaskEmail(email)),
		zap.Bool("new_user", !exists),
	)

	return &response.SendOTPResponse{
		IsNewUser: !exists,
		Email:     utils.MaskEmail(email),
	}, nil
}

func (s *authService) Register(ctx context.Context, req *request.RegisterRequest) (*response.AuthResponse, error) {
	email := utils.NormalizeEmail(req.Email)

	dob, err := utils.ParseDate(req.DateOfBirth)
	if err != nil {
		return nil, fmt.Errorf("%w: dateOfBirth", ErrValidation)
	}

	// 1. Live, unused, matching challenge
	challenge, err := s.repo.OTP.FindActive(ctx, email)
	if err != nil {
		return nil, err
	}
	if challenge == nil || challenge.Used || !s.codeMatches(challenge, email, req.OTP) {
		return nil, ErrInvalidOTP
	}

	// 2. Attempts as stored before this request; registration never counts
	if challenge.Attempts >= s.config.OTP.MaxAttempts {
		s.log.Warn("OTP attempts exhausted", zap.String("email", utils.MaskEmail(email)))
		return nil, ErrTooManyAttempts
	}

	// 3. Account must not exist yet; the OTP is left unused if it does
	exists, err := s.repo.User.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	// 4. Consume
	ok, err := s.repo.OTP.Consume(ctx, email, challenge.CodeHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidOTP
	}

	// 5. Create
	now := s.now()
	user := &entity.User{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		Email:       email,
		PhoneNumber: strings.TrimSpace(req.PhoneNumber),
		DateOfBirth: dob,
		IsVerified:  true,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	resp, err := s.startSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info("User registered", zap.String("user_id", user.ID.String()))
	return resp, nil
}

func (s *authService) Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error) {
	email := utils.NormalizeEmail(req.Email)

	challenge, err := s.repo.OTP.FindActive(ctx, email)
	if err != nil {
		return nil, err
	}
	if challenge == nil || challenge.Used {
		return nil, ErrInvalidOTP
	}
	if !s.codeMatches(challenge, email, req.OTP) {
		if err := s.repo.OTP.IncrementAttempts(ctx, email); err != nil {
			return nil, err
		}
		return nil, ErrInvalidOTP
	}

	user, err := s.repo.User.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotRegistered
	}

	ok, err := s.repo.OTP.Consume(ctx, email, challenge.CodeHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidOTP
	}

	resp, err := s.startSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info("User logged in", zap.String("user_id", user.ID.String()))
	return resp, nil
}

// RefreshToken rotates a refresh session in place. Every rejection is the
// same ErrInvalidToken so callers cannot tell which check failed.
func (s *authService) RefreshToken(ctx context.Context, req *request.RefreshTokenRequest) (*response.AuthResponse, error) {
	old := req.RefreshToken

	revoked, err := s.repo.Blacklist.IsRevoked(ctx, old)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrInvalidToken
	}

	claims, ok := s.tokens.Verify(old, entity.TokenRefresh)
	if !ok {
		return nil, ErrInvalidToken
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.repo.User.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidToken
	}

	session, err := s.repo.Session.FindByToken(ctx, userID, old)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrInvalidToken
	}

	pair, err := s.tokens.Mint(userID.String())
	if err != nil {
		return nil, err
	}

	if err := s.repo.Blacklist.Revoke(ctx, old, entity.TokenRefresh, s.tokens.TTL(entity.TokenRefresh)); err != nil {
		return nil, err
	}

	rotated, err := s.repo.Session.Rotate(ctx, userID, old, &entity.RefreshSession{
		Token:     pair.RefreshToken,
		CreatedAt: s.now(),
		ExpiresAt: pair.RefreshExpiresAt,
	})
	if err != nil {
		return nil, err
	}
	if !rotated {
		// lost a race with another refresh or a logout
		return nil, ErrInvalidToken
	}

	s.log.Info("Refresh token rotated", zap.String("user_id", userID.String()))
	return s.authResponse(user, pair), nil
}

func (s *authService) Logout(ctx context.Context, caller Caller, refreshToken string) error {
	if refreshToken != "" {
		if _, err := s.repo.Session.Delete(ctx, caller.UserID, refreshToken); err != nil {
			return err
		}
		if err := s.repo.Blacklist.Revoke(ctx, refreshToken, entity.TokenRefresh, s.tokens.TTL(entity.TokenRefresh)); err != nil {
			return err
		}
	}

	if err := s.revokeAccess(ctx, caller); err != nil {
		return err
	}

	s.log.Info("User logged out", zap.String("user_id", caller.UserID.String()))
	return nil
}

func (s *authService) LogoutAll(ctx context.Context, caller Caller) error {
	sessions, err := s.repo.Session.FindActiveByUser(ctx, caller.UserID)
	if err != nil {
		return err
	}

	if err := s.revokeSessions(ctx, caller.UserID, sessions); err != nil {
		return err
	}

	if err := s.revokeAccess(ctx, caller); err != nil {
		return err
	}

	s.log.Info("User logged out from all devices",
		zap.String("user_id", caller.UserID.String()),
		zap.Int("sessions", len(sessions)),
	)
	return nil
}

func (s *authService) codeMatches(challenge *entity.OTPChallenge, email, code string) bool {
	if len(code) != s.config.OTP.Length {
		return false
	}
	return challenge.CodeHash == utils.HashOTP(email, code)
}

// startSession mints a pair, records the refresh session, trims the oldest
// sessions over the cap and stamps lastLogin.
func (s *authService) startSession(ctx context.Context, user *entity.User) (*response.AuthResponse, error) {
	pair, err := s.tokens.Mint(user.ID.String())
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &entity.RefreshSession{
		UserID:    user.ID,
		Token:     pair.RefreshToken,
		CreatedAt: now,
		ExpiresAt: pair.RefreshExpiresAt,
	}
	if err := s.repo.Session.Create(ctx, session); err != nil {
		return nil, err
	}

	if err := s.enforceSessionCap(ctx, user.ID); err != nil {
		// the caller never sees this token, so do not leave it behind
		if _, delErr := s.repo.Session.Delete(ctx, user.ID, session.Token); delErr != nil {
			s.log.Error("Failed to drop session after eviction error", zap.Error(delErr))
		}
		return nil, err
	}

	if err := s.repo.User.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLogin = &now

	return s.authResponse(user, pair), nil
}

func (s *authService) enforceSessionCap(ctx context.Context, userID uuid.UUID) error {
	sessions, err := s.repo.Session.FindActiveByUser(ctx, userID)
	if err != nil {
		return err
	}

	excess := len(sessions) - s.config.Session.MaxSessions
	if excess <= 0 {
		return nil
	}

	if err := s.revokeSessions(ctx, userID, sessions[:excess]); err != nil {
		return err
	}

	s.log.Info("Evicted oldest sessions",
		zap.String("user_id", userID.String()),
		zap.Int("evicted", excess),
	)
	return nil
}

// revokeSessions blacklists every token before deleting the rows, so a
// failed blacklist write never drops a session silently.
func (s *authService) revokeSessions(ctx context.Context, userID uuid.UUID, sessions []*entity.RefreshSession) error {
	if len(sessions) == 0 {
		return nil
	}

	ttl := s.tokens.TTL(entity.TokenRefresh)
	ids := make([]int64, 0, len(sessions))
	for _, session := range sessions {
		if err := s.repo.Blacklist.Revoke(ctx, session.Token, entity.TokenRefresh, ttl); err != nil {
			return err
		}
		ids = append(ids, session.ID)
	}

	return s.repo.Session.DeleteByIDs(ctx, userID, ids)
}

func (s *authService) revokeAccess(ctx context.Context, caller Caller) error {
	if caller.AccessToken == "" {
		return nil
	}

	ttl := s.tokens.TTL(entity.TokenAccess)
	if !caller.AccessExpiresAt.IsZero() {
		ttl = caller.AccessExpiresAt.Sub(s.now())
	}

	return s.repo.Blacklist.Revoke(ctx, caller.AccessToken, entity.TokenAccess, ttl)
}

func (s *authService) authResponse(user *entity.User, pair *token.Pair) *response.AuthResponse {
	return &response.AuthResponse{
		User:         response.UserToResponse(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenExpiry: response.TokenExpiry{
			AccessToken:  utils.FormatTTL(s.tokens.TTL(entity.TokenAccess)),
			RefreshToken: utils.FormatTTL(s.tokens.TTL(entity.TokenRefresh)),
		},
	}
}

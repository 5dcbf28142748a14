package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/nutriplan/nutriplan/internal/domain/client"
	"github.com/nutriplan/nutriplan/internal/platform/apperr"
	"github.com/nutriplan/nutriplan/internal/platform/auth"
)

// AccountFinder resolves login accounts. client.Service implements it.
type AccountFinder interface {
	FindAccount(ctx context.Context, kind auth.Kind, emailHash string) (*client.Account, error)
}

// Lockout bounds failed logins per source address.
type Lockout struct {
	MaxFailures int
	Window      time.Duration
}

type Service struct {
	accounts AccountFinder
	attempts AttemptRepository
	tokens   *auth.TokenManager
	lockout  Lockout
	now      func() time.Time
	logger   zerolog.Logger
}

func NewService(accounts AccountFinder, attempts AttemptRepository, tokens *auth.TokenManager, lockout Lockout, logger zerolog.Logger) *Service {
	return &Service{
		accounts: accounts,
		attempts: attempts,
		tokens:   tokens,
		lockout:  lockout,
		now:      time.Now,
		logger:   logger.With().Str("component", "account").Logger(),
	}
}

var errInvalidCredentials = fmt.Errorf("%w: invalid email or password", apperr.ErrUnauthorized)

// Login verifies credentials for the requested account type and issues an
// access token. Callers whose address has too many recent failures are
// rejected with apperr.ErrLocked before the password is checked.
func (s *Service) Login(ctx context.Context, req LoginRequest, remoteIP string) (*LoginResponse, error) {
	kind, err := auth.ParseKind(req.UserType)
	if err != nil {
		return nil, apperr.Validation("user_type must be dietitian or client")
	}
	email, ok := auth.SanitizeEmail(req.Email)
	if !ok {
		return nil, apperr.Validation("invalid email")
	}
	if _, ok := auth.SanitizePassword(req.Password); !ok {
		return nil, errInvalidCredentials
	}

	ipHash := auth.HashIP(remoteIP)
	emailHash := auth.HashEmail(email)
	log := s.logger.With().Str("user_type", string(kind)).Str("ip_hash", ipHash).Logger()

	if ipHash != "" && s.lockout.MaxFailures > 0 {
		failures, err := s.attempts.CountFailures(ctx, ipHash, s.now().Add(-s.lockout.Window))
		if err != nil {
			return nil, apperr.Persistence("count login failures", err)
		}
		if failures >= s.lockout.MaxFailures {
			log.Warn().Int("failures", failures).Msg("login locked out")
			return nil, apperr.ErrLocked
		}
	}

	acct, err := s.accounts.FindAccount(ctx, kind, emailHash)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	if err != nil || !acct.Active || !auth.CheckPassword(acct.PasswordHash, req.Password) {
		s.record(ctx, emailHash, ipHash, false)
		log.Info().Msg("login failed")
		return nil, errInvalidCredentials
	}

	token, exp, err := s.tokens.Issue(acct.Identity)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	s.record(ctx, emailHash, ipHash, true)
	log.Info().Str("account_id", acct.Identity.ID.String()).Msg("login succeeded")

	return &LoginResponse{
		Token:     token,
		ExpiresAt: exp,
		UserType:  string(kind),
		User:      User{ID: acct.Identity.ID, Name: acct.Name, Email: email},
	}, nil
}

// record stores an attempt. A storage failure is logged and does not fail
// the login itself.
func (s *Service) record(ctx context.Context, emailHash, ipHash string, success bool) {
	a := &LoginAttempt{EmailHash: emailHash, IPHash: ipHash, Success: success}
	if err := s.attempts.Record(ctx, a); err != nil {
		s.logger.Error().Err(err).Msg("record login attempt")
	}
}

package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/localbizsite/localbiz/internal/common"
	"github.com/localbizsite/localbiz/internal/logging"
	"github.com/localbizsite/localbiz/internal/server/auth"
	"github.com/localbizsite/localbiz/internal/server/metrics"
	"github.com/localbizsite/localbiz/internal/server/models"
	"github.com/localbizsite/localbiz/internal/server/repositories/repomanager"
	"github.com/localbizsite/localbiz/internal/timex"
)

// Session is a freshly issued token together with the account it belongs to.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Account   *models.Account
}

// ProfileUpdate carries the self-service profile fields. Nil means unchanged.
type ProfileUpdate struct {
	Name  *string
	Phone *string
}

// AccountService implements registration, login and session checks.
type AccountService struct {
	repomanager repomanager.RepositoryManager
	hasher      auth.PasswordHasher
	tokens      *auth.TokenIssuer
	clock       timex.Clock
	logger      logging.Logger
}

func NewAccountService(m repomanager.RepositoryManager, hasher auth.PasswordHasher, tokens *auth.TokenIssuer,
	clock timex.Clock, logger logging.Logger) *AccountService {
	if clock == nil {
		clock = timex.RealClock{}
	}
	return &AccountService{
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		clock:       clock,
		logger:      logger.With("module", "accounts"),
	}
}

// internal logs err and returns the opaque internal error.
func (s *AccountService) internal(ctx context.Context, msg string, err error) error {
	s.logger.Error(ctx, msg, "error", err)
	return common.ErrorInternal
}

func (s *AccountService) issue(ctx context.Context, a *models.Account) (*Session, error) {
	token, exp, err := s.tokens.Issue(a.ID, a.TokenEpoch)
	if err != nil {
		return nil, s.internal(ctx, "token issue failed", err)
	}
	return &Session{Token: token, ExpiresAt: exp, Account: a}, nil
}

// Register validates in, stores a new owner account and signs it in.
func (s *AccountService) Register(ctx context.Context, in auth.Registration) (*Session, error) {
	reg, err := auth.ValidateRegistration(in)
	if err != nil {
		metrics.RecordAuthEvent("register", metrics.OutcomeInvalid)
		return nil, err
	}

	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		metrics.RecordAuthEvent("register", metrics.OutcomeError)
		return nil, s.internal(ctx, "password hash failed", err)
	}

	a := &models.Account{
		Email:        reg.Email,
		PasswordHash: hash,
		Name:         reg.Name,
		Phone:        reg.Phone,
		Role:         models.RoleOwner,
		PlanKey:      models.PlanFree,
		IsActive:     true,
	}

	a, err = s.repomanager.Accounts(s.repomanager.Conn()).Create(ctx, a)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) {
			metrics.RecordAuthEvent("register", metrics.OutcomeDuplicate)
			return nil, common.ErrDuplicateEmail
		}
		metrics.RecordAuthEvent("register", metrics.OutcomeError)
		return nil, s.internal(ctx, "account create failed", err)
	}

	sess, err := s.issue(ctx, a)
	if err != nil {
		return nil, err
	}

	metrics.RecordAuthEvent("register", metrics.OutcomeSuccess)
	s.logger.Info(ctx, "account registered", "account_id", a.ID)
	return sess, nil
}

// Login checks credentials. Unknown emails and wrong passwords yield the
// same error after comparable work.
func (s *AccountService) Login(ctx context.Context, email, password string) (*Session, error) {
	email, err := auth.ValidateLogin(email, password)
	if err != nil {
		metrics.RecordAuthEvent("login", metrics.OutcomeInvalid)
		return nil, err
	}

	repo := s.repomanager.Accounts(s.repomanager.Conn())

	a, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.DummyVerify(password)
			metrics.RecordAuthEvent("login", metrics.OutcomeBadCreds)
			return nil, common.ErrInvalidCredentials
		}
		metrics.RecordAuthEvent("login", metrics.OutcomeError)
		return nil, s.internal(ctx, "account lookup failed", err)
	}

	ok, err := s.hasher.Verify(password, a.PasswordHash)
	if err != nil {
		metrics.RecordAuthEvent("login", metrics.OutcomeError)
		return nil, s.internal(ctx, "password verify failed", err)
	}
	if !ok || !a.IsActive {
		metrics.RecordAuthEvent("login", metrics.OutcomeBadCreds)
		return nil, common.ErrInvalidCredentials
	}

	now := s.clock.Now()
	if err := repo.UpdateLastLogin(ctx, a.ID, now); err != nil {
		s.logger.Warn(ctx, "last login not recorded", "account_id", a.ID, "error", err)
	} else {
		a.LastLoginAt = &now
	}

	sess, err := s.issue(ctx, a)
	if err != nil {
		return nil, err
	}

	metrics.RecordAuthEvent("login", metrics.OutcomeSuccess)
	return sess, nil
}

// Authenticate resolves a bearer token to its account. Tokens whose epoch
// no longer matches the account (after logout or a role change) are
// rejected as invalid; a token for an account that no longer exists yields
// common.ErrorNotFound.
func (s *AccountService) Authenticate(ctx context.Context, token string) (*models.Account, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	a, err := s.repomanager.Accounts(s.repomanager.Conn()).GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, s.internal(ctx, "account lookup failed", err)
	}

	if claims.Epoch != a.TokenEpoch || !a.IsActive {
		return nil, common.ErrInvalidToken
	}
	return a, nil
}

// ValidateToken is Authenticate with the outcome counted for monitoring.
func (s *AccountService) ValidateToken(ctx context.Context, token string) (*models.Account, error) {
	a, err := s.Authenticate(ctx, token)
	switch {
	case err == nil:
		metrics.RecordAuthEvent("validate", metrics.OutcomeSuccess)
	case errors.Is(err, common.ErrTokenExpired):
		metrics.RecordAuthEvent("validate", metrics.OutcomeExpired)
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrorNotFound):
		metrics.RecordAuthEvent("validate", metrics.OutcomeBadToken)
	default:
		metrics.RecordAuthEvent("validate", metrics.OutcomeError)
	}
	return a, err
}

// Logout revokes every token issued to a so far.
func (s *AccountService) Logout(ctx context.Context, a *models.Account) error {
	epoch, err := s.repomanager.Accounts(s.repomanager.Conn()).BumpTokenEpoch(ctx, a.ID)
	if err != nil {
		return s.internal(ctx, "token revoke failed", err)
	}
	a.TokenEpoch = epoch

	metrics.RecordAuthEvent("logout", metrics.OutcomeSuccess)
	s.logger.Info(ctx, "account logged out", "account_id", a.ID, "epoch", epoch)
	return nil
}

// UpdateProfile changes the caller's own name and phone.
func (s *AccountService) UpdateProfile(ctx context.Context, a *models.Account, upd ProfileUpdate) (*models.Account, error) {
	name, phone := a.Name, a.Phone

	verr := &auth.ValidationError{}
	if upd.Name != nil {
		n, ok := auth.NormalizeName(*upd.Name)
		if !ok {
			verr.Add("name", auth.CodeInvalidName, "name must be at least 2 characters and contain only letters and spaces")
		}
		name = n
	}
	if upd.Phone != nil {
		phone = strings.TrimSpace(*upd.Phone)
		if len(phone) > 30 {
			verr.Add("phone", auth.CodeInvalidValue, "phone must be at most 30 characters")
		}
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	out, err := s.repomanager.Accounts(s.repomanager.Conn()).UpdateProfile(ctx, a.ID, name, phone)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, s.internal(ctx, "profile update failed", err)
	}
	return out, nil
}

// ChangeRole lets an admin set another account's role. The target's
// existing tokens stop working.
func (s *AccountService) ChangeRole(ctx context.Context, actor *models.Account, targetID string, role models.Role) (*models.Account, error) {
	if actor.Role != models.RoleAdmin {
		return nil, common.ErrForbidden
	}
	if !role.Valid() {
		verr := &auth.ValidationError{}
		verr.Add("role", auth.CodeInvalidValue, "role must be one of user, owner, admin")
		return nil, verr
	}

	out, err := s.repomanager.Accounts(s.repomanager.Conn()).UpdateRole(ctx, targetID, role)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, s.internal(ctx, "role update failed", err)
	}

	s.logger.Info(ctx, "account role changed", "actor_id", actor.ID, "account_id", out.ID, "role", string(role))
	return out, nil
}

// EnsureAdmin makes sure an admin account exists for email, creating it
// with password or promoting an existing account. created reports which.
func (s *AccountService) EnsureAdmin(ctx context.Context, email, password string) (a *models.Account, created bool, err error) {
	email = auth.NormalizeEmail(email)

	verr := &auth.ValidationError{}
	if !auth.ValidEmail(email) {
		verr.Add("email", auth.CodeInvalidEmail, "email is not a valid address")
	}
	for _, msg := range auth.PasswordWeaknesses(password) {
		verr.Add("password", auth.CodeWeakPassword, msg)
	}
	if err := verr.Err(); err != nil {
		return nil, false, err
	}

	repo := s.repomanager.Accounts(s.repomanager.Conn())

	existing, err := repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role == models.RoleAdmin {
			return existing, false, nil
		}
		promoted, err := repo.UpdateRole(ctx, existing.ID, models.RoleAdmin)
		if err != nil {
			return nil, false, s.internal(ctx, "admin promote failed", err)
		}
		s.logger.Info(ctx, "account promoted to admin", "account_id", promoted.ID)
		return promoted, false, nil
	case !errors.Is(err, common.ErrorNotFound):
		return nil, false, s.internal(ctx, "account lookup failed", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, false, s.internal(ctx, "password hash failed", err)
	}

	a, err = repo.Create(ctx, &models.Account{
		Email:        email,
		PasswordHash: hash,
		Name:         "Administrator",
		Role:         models.RoleAdmin,
		PlanKey:      models.PlanFree,
		IsVerified:   true,
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) {
			return nil, false, err
		}
		return nil, false, s.internal(ctx, "admin create failed", err)
	}

	s.logger.Info(ctx, "admin account created", "account_id", a.ID)
	return a, true, nil
}

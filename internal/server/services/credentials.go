// Package services contains the server-side business logic. This file
// implements CredentialService, which drives signup, password reset, login
// and federated login on top of the account store, the verification code
// registry and the mail transport.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/shopauth/internal/common"
	"github.com/dmitrijs2005/shopauth/internal/logging"
	"github.com/dmitrijs2005/shopauth/internal/server/auth"
	"github.com/dmitrijs2005/shopauth/internal/server/config"
	"github.com/dmitrijs2005/shopauth/internal/server/events"
	"github.com/dmitrijs2005/shopauth/internal/server/identity"
	"github.com/dmitrijs2005/shopauth/internal/server/mailer"
	"github.com/dmitrijs2005/shopauth/internal/server/models"
	"github.com/dmitrijs2005/shopauth/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/shopauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/shopauth/internal/server/verification"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"
)

// ResetScope selects which accounts a password reset applies to. Each scope
// has its own code keyspace.
type ResetScope int

const (
	// ScopeCustomer resets any account.
	ScopeCustomer ResetScope = iota
	// ScopeAdmin resets admin accounts only.
	ScopeAdmin
)

func (s ResetScope) purpose() verification.Purpose {
	if s == ScopeAdmin {
		return verification.PurposeAdminResetPassword
	}
	return verification.PurposeResetPassword
}

func (s ResetScope) mailKind() mailer.Kind {
	if s == ScopeAdmin {
		return mailer.KindAdminResetCode
	}
	return mailer.KindResetCode
}

func (s ResetScope) String() string {
	if s == ScopeAdmin {
		return "admin"
	}
	return "customer"
}

// admits reports whether an account is eligible for a reset in this scope.
func (s ResetScope) admits(a *models.Account) bool {
	return s != ScopeAdmin || a.Role == models.RoleAdmin
}

// SignupRequest is the input of CompleteSignup.
type SignupRequest struct {
	Name     string
	Email    string
	Password string
	Mobile   string
	Code     string
}

// Session is the outcome of a successful login.
type Session struct {
	Account   *models.Account
	Token     string
	ExpiresAt time.Time
}

// Dependencies are the collaborators of CredentialService. Verifier and
// Events may be nil: Google login is then rejected and events are dropped.
type Dependencies struct {
	Repos    repomanager.RepositoryManager
	Registry verification.Registry
	Mailer   mailer.Mailer
	Composer *mailer.Composer
	Verifier identity.Verifier
	Events   events.Publisher
	Logger   logging.Logger
}

// CredentialService implements the credential lifecycle.
type CredentialService struct {
	repos    repomanager.RepositoryManager
	registry verification.Registry
	mailer   mailer.Mailer
	composer *mailer.Composer
	verifier identity.Verifier
	events   events.Publisher
	logger   logging.Logger
	tracer   trace.Tracer

	jwtSecret                    []byte
	sessionTokenValidityDuration time.Duration
	hashCost                     int
	now                          func() time.Time
}

// NewCredentialService wires a CredentialService from its dependencies and config.
func NewCredentialService(d Dependencies, cfg *config.Config) *CredentialService {
	pub := d.Events
	if pub == nil {
		pub = events.Nop{}
	}
	logger := d.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &CredentialService{
		repos:                        d.Repos,
		registry:                     d.Registry,
		mailer:                       d.Mailer,
		composer:                     d.Composer,
		verifier:                     d.Verifier,
		events:                       pub,
		logger:                       logger.With("module", "services.credentials"),
		tracer:                       otel.Tracer("github.com/dmitrijs2005/shopauth/internal/server/services"),
		jwtSecret:                    []byte(cfg.SecretKey),
		sessionTokenValidityDuration: cfg.SessionTokenValidityDuration,
		hashCost:                     bcrypt.DefaultCost,
		now:                          time.Now,
	}
}

// RequestSignupCode issues a signup code for email and mails it. It does not
// check whether the email is already registered; that happens at completion.
// A mail failure invalidates the code and yields common.ErrTransport.
func (s *CredentialService) RequestSignupCode(ctx context.Context, email string) (err error) {
	ctx, span := s.startSpan(ctx, "RequestSignupCode")
	defer func() { endSpan(span, err) }()

	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required: %w", common.ErrValidation)
	}

	if err := s.sendCode(ctx, verification.PurposeSignup, mailer.KindSignupCode, email); err != nil {
		return err
	}

	s.logger.Info(ctx, "signup code sent", "email", email)
	return nil
}

// CompleteSignup creates a user account once the code checks out. A taken
// email or mobile is reported before the code is looked at.
func (s *CredentialService) CompleteSignup(ctx context.Context, req SignupRequest) (account *models.Account, err error) {
	ctx, span := s.startSpan(ctx, "CompleteSignup")
	defer func() { endSpan(span, err) }()

	req.Email = strings.TrimSpace(req.Email)
	req.Mobile = strings.TrimSpace(req.Mobile)
	if req.Email == "" || req.Code == "" {
		return nil, fmt.Errorf("email and code are required: %w", common.ErrValidation)
	}

	repo := s.repos.Accounts()
	if err := s.checkUnique(ctx, repo, req.Email, req.Mobile); err != nil {
		return nil, err
	}

	if err := s.registry.Verify(ctx, verification.PurposeSignup, req.Email, req.Code); err != nil {
		return nil, err
	}
	if err := ValidatePassword(req.Password); err != nil {
		return nil, err
	}
	hash, err := s.hashPassword([]byte(req.Password))
	if err != nil {
		return nil, err
	}

	if err := s.registry.Consume(ctx, verification.PurposeSignup, req.Email, req.Code); err != nil {
		return nil, err
	}

	account, err = models.NewAccount(req.Name, req.Email, req.Mobile, models.RoleUser, hash)
	if err != nil {
		return nil, err
	}
	account, err = repo.Create(ctx, account)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateIdentity) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating account: %w", err)
	}

	s.logger.Info(ctx, "account created", "account_id", account.ID, "email", account.Email)
	s.publish(ctx, events.AccountCreated, account)
	return account, nil
}

// RequestResetCode mails a reset code when email belongs to an account
// admitted by scope. The result is the same whether or not such an account
// exists, and mail or store failures are only logged. An empty email is
// answered the same way.
func (s *CredentialService) RequestResetCode(ctx context.Context, scope ResetScope, email string) (err error) {
	ctx, span := s.startSpan(ctx, "RequestResetCode", attribute.String("scope", scope.String()))
	defer func() { endSpan(span, err) }()

	email = strings.TrimSpace(email)
	if email == "" {
		s.logger.Debug(ctx, "reset requested without email", "scope", scope.String())
		return nil
	}

	account, err := s.repos.Accounts().GetByEmail(ctx, email)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		s.logger.Debug(ctx, "reset requested for unknown email", "scope", scope.String())
		return nil
	case err != nil:
		s.logger.Error(ctx, "reset request lookup failed", "scope", scope.String(), "error", err)
		return nil
	case !scope.admits(account):
		s.logger.Debug(ctx, "reset requested for account outside scope", "scope", scope.String())
		return nil
	}

	if err := s.sendCode(ctx, scope.purpose(), scope.mailKind(), email); err != nil {
		s.logger.Error(ctx, "reset code not delivered", "scope", scope.String(), "account_id", account.ID, "error", err)
		return nil
	}

	s.logger.Info(ctx, "reset code sent", "scope", scope.String(), "account_id", account.ID)
	return nil
}

// VerifyResetCode checks a reset code without consuming it.
func (s *CredentialService) VerifyResetCode(ctx context.Context, scope ResetScope, email, code string) (err error) {
	ctx, span := s.startSpan(ctx, "VerifyResetCode", attribute.String("scope", scope.String()))
	defer func() { endSpan(span, err) }()

	email = strings.TrimSpace(email)
	if email == "" || code == "" {
		return fmt.Errorf("email and code are required: %w", common.ErrValidation)
	}
	return s.registry.Verify(ctx, scope.purpose(), email, code)
}

// CompleteReset sets a new password once the code checks out. Unlike
// RequestResetCode it reports common.ErrAccountNotFound for unknown emails.
func (s *CredentialService) CompleteReset(ctx context.Context, scope ResetScope, email, code, password string) (err error) {
	ctx, span := s.startSpan(ctx, "CompleteReset", attribute.String("scope", scope.String()))
	defer func() { endSpan(span, err) }()

	email = strings.TrimSpace(email)
	if email == "" || code == "" {
		return fmt.Errorf("email and code are required: %w", common.ErrValidation)
	}

	purpose := scope.purpose()
	if err := s.registry.Verify(ctx, purpose, email, code); err != nil {
		return err
	}
	if err := ValidatePassword(password); err != nil {
		return err
	}

	repo := s.repos.Accounts()
	account, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrAccountNotFound
		}
		return fmt.Errorf("error loading account: %w", err)
	}
	if !scope.admits(account) {
		return common.ErrAccountNotFound
	}

	hash, err := s.hashPassword([]byte(password))
	if err != nil {
		return err
	}
	if err := s.registry.Consume(ctx, purpose, email, code); err != nil {
		return err
	}

	if err := repo.UpdatePassword(ctx, account.ID, hash); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrAccountNotFound
		}
		return fmt.Errorf("error updating password: %w", err)
	}

	s.logger.Info(ctx, "password reset", "scope", scope.String(), "account_id", account.ID)
	s.publish(ctx, events.AccountPasswordReset, account)
	return nil
}

// Login checks credentials for the requested role. Only "admin" selects the
// admin gate; any other value means user. An account of another role fails
// with common.ErrRoleMismatch even when the password is right.
func (s *CredentialService) Login(ctx context.Context, email, password, role string) (session *Session, err error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer func() { endSpan(span, err) }()

	requested := models.RequestedRole(role)
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required: %w", common.ErrValidation)
	}

	account, err := s.repos.Accounts().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error loading account: %w", err)
	}

	if account.Role != requested {
		s.logger.Warn(ctx, "login role mismatch", "account_id", account.ID, "requested", string(requested))
		return nil, common.ErrRoleMismatch
	}

	if !account.HasPassword() || bcrypt.CompareHashAndPassword(account.PasswordHash, []byte(password)) != nil {
		return nil, common.ErrInvalidCredentials
	}

	return s.newSession(account)
}

// GoogleLogin signs in with a Google ID token, creating a user account for
// a previously unseen email.
func (s *CredentialService) GoogleLogin(ctx context.Context, idToken string) (session *Session, err error) {
	ctx, span := s.startSpan(ctx, "GoogleLogin")
	defer func() { endSpan(span, err) }()

	if s.verifier == nil {
		return nil, fmt.Errorf("federated login disabled: %w", common.ErrExternalTokenInvalid)
	}

	id, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}

	account, err := s.findOrCreateFederated(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.newSession(account)
}

// Authenticate resolves a session token to its account.
func (s *CredentialService) Authenticate(ctx context.Context, token string) (account *models.Account, err error) {
	ctx, span := s.startSpan(ctx, "Authenticate")
	defer func() { endSpan(span, err) }()

	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	account, err = s.repos.Accounts().GetByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("error loading account: %w", err)
	}
	return account, nil
}

// EnsureAdmin creates an admin account for email, or promotes the existing
// account and replaces its password. It reports whether an account was created.
// password is not retained, so the caller may wipe it afterwards.
func (s *CredentialService) EnsureAdmin(ctx context.Context, name, email string, password []byte) (account *models.Account, created bool, err error) {
	ctx, span := s.startSpan(ctx, "EnsureAdmin")
	defer func() { endSpan(span, err) }()

	email = strings.TrimSpace(email)
	if email == "" {
		return nil, false, fmt.Errorf("email is required: %w", common.ErrValidation)
	}
	if err := validatePassword(password); err != nil {
		return nil, false, err
	}
	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, false, err
	}

	err = s.repos.WithinTx(ctx, func(ctx context.Context, repo accounts.Repository) error {
		existing, err := repo.GetByEmail(ctx, email)
		switch {
		case errors.Is(err, common.ErrorNotFound):
			a, err := models.NewAccount(name, email, "", models.RoleAdmin, hash)
			if err != nil {
				return err
			}
			account, err = repo.Create(ctx, a)
			created = true
			return err
		case err != nil:
			return err
		}

		if err := repo.UpdateRole(ctx, existing.ID, models.RoleAdmin, hash); err != nil {
			return err
		}
		existing.Role = models.RoleAdmin
		existing.PasswordHash = hash
		account = existing
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	s.logger.Info(ctx, "admin ensured", "account_id", account.ID, "created", created)
	if created {
		s.publish(ctx, events.AccountCreated, account)
	}
	return account, created, nil
}

// --- helpers below ---

// sendCode issues a code and mails it; on mail failure the code is invalidated.
func (s *CredentialService) sendCode(ctx context.Context, purpose verification.Purpose, kind mailer.Kind, email string) error {
	code, err := s.registry.Issue(ctx, purpose, email)
	if err != nil {
		return fmt.Errorf("error issuing code: %w", err)
	}

	msg, err := s.composer.CodeMessage(kind, email, code)
	if err == nil {
		err = s.mailer.Send(ctx, msg)
	}
	if err != nil {
		if ierr := s.registry.Invalidate(ctx, purpose, email); ierr != nil {
			s.logger.Warn(ctx, "code invalidation failed", "purpose", string(purpose), "error", ierr)
		}
		s.logger.Error(ctx, "mail delivery failed", "purpose", string(purpose), "error", err)
		return fmt.Errorf("%w: %v", common.ErrTransport, err)
	}
	return nil
}

func (s *CredentialService) checkUnique(ctx context.Context, repo accounts.Repository, email, mobile string) error {
	_, err := repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return common.ErrEmailTaken
	case !errors.Is(err, common.ErrorNotFound):
		return fmt.Errorf("error checking email: %w", err)
	}

	if mobile == "" {
		return nil
	}
	_, err = repo.GetByMobile(ctx, mobile)
	switch {
	case err == nil:
		return common.ErrMobileTaken
	case !errors.Is(err, common.ErrorNotFound):
		return fmt.Errorf("error checking mobile: %w", err)
	}
	return nil
}

func (s *CredentialService) findOrCreateFederated(ctx context.Context, id *identity.Identity) (*models.Account, error) {
	repo := s.repos.Accounts()

	account, err := repo.GetByEmail(ctx, id.Email)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error loading account: %w", err)
	}

	name := id.Name
	if name == "" {
		name = id.Email
	}
	account, err = models.NewAccount(name, id.Email, "", models.RoleUser, nil)
	if err != nil {
		return nil, err
	}

	account, err = repo.Create(ctx, account)
	if errors.Is(err, common.ErrEmailTaken) {
		// lost a race with a concurrent first login
		return repo.GetByEmail(ctx, id.Email)
	}
	if err != nil {
		return nil, fmt.Errorf("error creating account: %w", err)
	}

	s.logger.Info(ctx, "account created via google", "account_id", account.ID)
	s.publish(ctx, events.AccountCreated, account)
	return account, nil
}

func (s *CredentialService) newSession(account *models.Account) (*Session, error) {
	token, expiresAt, err := auth.GenerateToken(account.ID, account.Role, s.jwtSecret, s.sessionTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &Session{Account: account, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *CredentialService) hashPassword(password []byte) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword(password, s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}
	return hash, nil
}

func (s *CredentialService) publish(ctx context.Context, typ string, account *models.Account) {
	err := s.events.Publish(ctx, events.Event{
		Type:       typ,
		AccountID:  account.ID,
		Email:      account.Email,
		OccurredAt: s.now().UTC(),
	})
	if err != nil {
		s.logger.Warn(ctx, "event not published", "type", typ, "account_id", account.ID, "error", err)
	}
}

func (s *CredentialService) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "CredentialService."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

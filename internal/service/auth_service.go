package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jetwallet/internal/core/domain"
	"jetwallet/internal/core/ports"
	"jetwallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AuthServiceImpl implements ports.AuthService.
type AuthServiceImpl struct {
	userRepo   ports.UserRepository
	walletRepo ports.WalletRepository
	transactor ports.DBTransactor
	hashSvc    ports.HashService
	encSvc     ports.EncryptionService
	tokenSvc   ports.TokenService
	blocklist  ports.TokenBlocklist
	auditSvc   ports.AuditService
	log        zerolog.Logger
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(
	userRepo ports.UserRepository,
	walletRepo ports.WalletRepository,
	transactor ports.DBTransactor,
	hashSvc ports.HashService,
	encSvc ports.EncryptionService,
	tokenSvc ports.TokenService,
	blocklist ports.TokenBlocklist,
	auditSvc ports.AuditService,
	log zerolog.Logger,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		userRepo:   userRepo,
		walletRepo: walletRepo,
		transactor: transactor,
		hashSvc:    hashSvc,
		encSvc:     encSvc,
		tokenSvc:   tokenSvc,
		blocklist:  blocklist,
		auditSvc:   auditSvc,
		log:        log,
	}
}

// Register creates a user with a seeded wallet.
// The recovery phrase is returned in plaintext only here.
func (s *AuthServiceImpl) Register(ctx context.Context, req ports.RegisterRequest) (*ports.RegisterResponse, error) {
	email := domain.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, apperror.Validation("email and password are required")
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check email: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrEmailExists()
	}

	passwordHash, err := s.hashSvc.Hash(req.Password)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}

	seed := GenerateSeedPhrase(SeedPhraseLength)
	seedEnc, err := s.encSvc.Encrypt(JoinSeedPhrase(seed))
	if err != nil {
		return nil, apperror.ErrEncryptionFailure(fmt.Errorf("encrypt seed phrase: %w", err))
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:             uuid.NewString(),
		Email:          email,
		PasswordHash:   passwordHash,
		SeedPhraseEnc:  seedEnc,
		Role:           domain.RoleUser,
		RegisteredAt:   now,
		Theme:          domain.ThemeLight,
		Notifications:  domain.DefaultNotificationSettings(),
		PaymentMethods: []domain.PaymentMethod{},
		UpdatedAt:      now,
	}

	if err := createAccount(ctx, s.transactor, s.userRepo, s.walletRepo, user); err != nil {
		return nil, err
	}

	session, err := issueSession(s.tokenSvc, user, "")
	if err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, auditEntry(domain.AuditActionRegister, user.ID, "", "user", user.ID, req.ClientIP))
	s.log.Info().Str("user_id", user.ID).Msg("user registered")

	return &ports.RegisterResponse{Session: *session, SeedPhrase: seed}, nil
}

// Login validates credentials and returns a session. Consecutive failures
// lock the account after domain.MaxLoginAttempts.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*ports.Session, error) {
	user, err := s.userRepo.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrInvalidCredentials()
	}
	if user.AccountLocked {
		return nil, apperror.ErrAccountLocked()
	}

	valid, err := s.hashSvc.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("verify password: %w", err))
	}
	if !valid {
		locked := user.RecordFailedLogin()
		user.UpdatedAt = time.Now().UTC()
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("record failed login: %w", err))
		}
		if locked {
			s.log.Warn().Str("user_id", user.ID).Int("attempts", user.LoginAttempts).Msg("account locked")
			return nil, apperror.ErrAccountLocked()
		}
		return nil, apperror.ErrInvalidCredentials()
	}

	now := time.Now().UTC()
	user.RecordLogin(now)
	user.UpdatedAt = now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("record login: %w", err))
	}

	session, err := issueSession(s.tokenSvc, user, "")
	if err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, auditEntry(domain.AuditActionLogin, user.ID, "", "session", "", ""))
	return session, nil
}

// Logout revokes the token until it would have expired.
func (s *AuthServiceImpl) Logout(ctx context.Context, claims *ports.TokenClaims) error {
	if claims == nil || claims.TokenID == "" {
		return apperror.ErrInvalidToken()
	}
	ttl := time.Until(claims.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.blocklist.Revoke(ctx, claims.TokenID, ttl); err != nil {
		return apperror.InternalError(fmt.Errorf("revoke token: %w", err))
	}
	s.auditSvc.Log(ctx, auditEntry(domain.AuditActionLogout, claims.UserID, claims.ActorID, "session", claims.TokenID, ""))
	return nil
}

// createAccount stores a user and its initial wallet atomically.
func createAccount(ctx context.Context, transactor ports.DBTransactor, userRepo ports.UserRepository, walletRepo ports.WalletRepository, user *domain.User) error {
	dbTx, err := transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := userRepo.Create(ctx, dbTx, user); err != nil {
		if errors.Is(err, ports.ErrDuplicate) {
			return apperror.ErrEmailExists()
		}
		return apperror.InternalError(fmt.Errorf("create user: %w", err))
	}

	state := domain.NewWalletState()
	state.Wallets = domain.InitialWallets()
	if err := walletRepo.Create(ctx, dbTx, user.ID, state); err != nil {
		return apperror.InternalError(fmt.Errorf("create wallet: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

// issueSession signs a token for user. actorID marks an impersonating admin.
func issueSession(tokenSvc ports.TokenService, user *domain.User, actorID string) (*ports.Session, error) {
	issued, err := tokenSvc.Generate(ports.TokenSubject{UserID: user.ID, Role: user.Role, ActorID: actorID})
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}
	return &ports.Session{User: user, Token: issued.Token, ExpiresAt: issued.ExpiresAt}, nil
}

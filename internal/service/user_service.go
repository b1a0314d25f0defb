package service

import (
	"context"
	"fmt"
	"time"

	"jetwallet/internal/core/domain"
	"jetwallet/internal/core/ports"
	"jetwallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// UserServiceImpl implements ports.UserService for administrators.
type UserServiceImpl struct {
	userRepo   ports.UserRepository
	walletRepo ports.WalletRepository
	transactor ports.DBTransactor
	hashSvc    ports.HashService
	encSvc     ports.EncryptionService
	tokenSvc   ports.TokenService
	auditSvc   ports.AuditService
	log        zerolog.Logger
}

// NewUserService creates a new UserServiceImpl.
func NewUserService(
	userRepo ports.UserRepository,
	walletRepo ports.WalletRepository,
	transactor ports.DBTransactor,
	hashSvc ports.HashService,
	encSvc ports.EncryptionService,
	tokenSvc ports.TokenService,
	auditSvc ports.AuditService,
	log zerolog.Logger,
) *UserServiceImpl {
	return &UserServiceImpl{
		userRepo:   userRepo,
		walletRepo: walletRepo,
		transactor: transactor,
		hashSvc:    hashSvc,
		encSvc:     encSvc,
		tokenSvc:   tokenSvc,
		auditSvc:   auditSvc,
		log:        log,
	}
}

// ListUsers returns a page of accounts.
func (s *UserServiceImpl) ListUsers(ctx context.Context, params ports.UserListParams) ([]domain.User, int64, error) {
	params.Page, params.PageSize = normalizePage(params.Page, params.PageSize)
	if params.Role != nil && !params.Role.IsValid() {
		return nil, 0, apperror.Validation("invalid role filter")
	}
	users, total, err := s.userRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list users: %w", err))
	}
	return users, total, nil
}

// GetUser returns one account.
func (s *UserServiceImpl) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrNotFound("user")
	}
	return user, nil
}

// CreateUser creates an account with a seeded wallet on behalf of an admin.
func (s *UserServiceImpl) CreateUser(ctx context.Context, req ports.CreateUserRequest) (*domain.User, error) {
	role := req.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !role.IsValid() {
		return nil, apperror.Validation("invalid role")
	}
	return s.create(ctx, uuid.NewString(), req.Email, req.Password, role)
}

// UpdateUser applies an admin patch to an account.
func (s *UserServiceImpl) UpdateUser(ctx context.Context, id string, patch ports.UserPatch) (*domain.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Email != nil {
		email := domain.NormalizeEmail(*patch.Email)
		if email == "" {
			return nil, apperror.Validation("email must not be empty")
		}
		if email != user.Email {
			other, err := s.userRepo.GetByEmail(ctx, email)
			if err != nil {
				return nil, apperror.InternalError(fmt.Errorf("check email: %w", err))
			}
			if other != nil {
				return nil, apperror.ErrEmailExists()
			}
			user.Email = email
		}
	}
	if patch.Password != nil {
		hash, err := s.hashSvc.Hash(*patch.Password)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
		}
		user.PasswordHash = hash
	}
	if patch.Role != nil {
		if !patch.Role.IsValid() {
			return nil, apperror.Validation("invalid role")
		}
		user.Role = *patch.Role
	}
	if patch.Theme != nil {
		if !patch.Theme.IsValid() {
			return nil, apperror.Validation("invalid theme")
		}
		user.Theme = *patch.Theme
	}
	if patch.TwoFactorEnabled != nil {
		user.TwoFactorEnabled = *patch.TwoFactorEnabled
	}
	if patch.AccountLocked != nil {
		user.AccountLocked = *patch.AccountLocked
		if !user.AccountLocked {
			user.LoginAttempts = 0
		}
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update user: %w", err))
	}

	s.auditSvc.Log(ctx, auditEntry(domain.AuditActionAdminUpdateUser, user.ID, "", "user", user.ID, ""))
	return user, nil
}

// DeleteUser removes an account and its wallet. Admins cannot delete themselves.
func (s *UserServiceImpl) DeleteUser(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return apperror.ErrCannotDeleteSelf()
	}
	if _, err := s.GetUser(ctx, id); err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return apperror.InternalError(fmt.Errorf("delete user: %w", err))
	}

	s.auditSvc.Log(ctx, auditEntry(domain.AuditActionAdminDeleteUser, id, actorID, "user", id, ""))
	s.log.Info().Str("user_id", id).Str("actor_id", actorID).Msg("user deleted")
	return nil
}

// Impersonate issues a session for another user carrying the admin as actor.
func (s *UserServiceImpl) Impersonate(ctx context.Context, actorID, id string) (*ports.Session, error) {
	if actorID == id {
		return nil, apperror.Validation("cannot impersonate yourself")
	}
	target, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if target.IsAdmin() {
		return nil, apperror.ErrForbidden()
	}

	session, err := issueSession(s.tokenSvc, target, actorID)
	if err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, auditEntry(domain.AuditActionImpersonate, target.ID, actorID, "session", target.ID, ""))
	s.log.Warn().Str("user_id", target.ID).Str("actor_id", actorID).Msg("impersonation session issued")
	return session, nil
}

// EnsureAdmin makes sure an administrator with email exists.
// An existing account is promoted rather than recreated.
func (s *UserServiceImpl) EnsureAdmin(ctx context.Context, email, password string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find admin: %w", err))
	}
	if existing != nil {
		if existing.IsAdmin() {
			return existing, nil
		}
		existing.Role = domain.RoleAdmin
		existing.UpdatedAt = time.Now().UTC()
		if err := s.userRepo.Update(ctx, existing); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("promote admin: %w", err))
		}
		return existing, nil
	}

	id := uuid.NewString()
	if email == domain.AdminUserEmail {
		id = domain.AdminUserID
	}
	return s.create(ctx, id, email, password, domain.RoleAdmin)
}

func (s *UserServiceImpl) create(ctx context.Context, id, email, password string, role domain.Role) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperror.Validation("email and password are required")
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check email: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrEmailExists()
	}

	passwordHash, err := s.hashSvc.Hash(password)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}
	seedEnc, err := s.encSvc.Encrypt(JoinSeedPhrase(GenerateSeedPhrase(SeedPhraseLength)))
	if err != nil {
		return nil, apperror.ErrEncryptionFailure(fmt.Errorf("encrypt seed phrase: %w", err))
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:             id,
		Email:          email,
		PasswordHash:   passwordHash,
		SeedPhraseEnc:  seedEnc,
		Role:           role,
		RegisteredAt:   now,
		Theme:          domain.ThemeLight,
		Notifications:  domain.DefaultNotificationSettings(),
		PaymentMethods: []domain.PaymentMethod{},
		UpdatedAt:      now,
	}
	if err := createAccount(ctx, s.transactor, s.userRepo, s.walletRepo, user); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, auditEntry(domain.AuditActionAdminCreateUser, user.ID, "", "user", user.ID, ""))
	s.log.Info().Str("user_id", user.ID).Str("role", string(role)).Msg("user created")
	return user, nil
}

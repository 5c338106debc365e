package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MikeRez0/novacart/internal/core/domain"
	"github.com/MikeRez0/novacart/internal/core/port"
	"github.com/MikeRez0/novacart/internal/core/utils"
	"go.uber.org/zap"
)

const defaultNumberAttempts = 5

type Policy struct {
	// NumberAttempts bounds order number regeneration on collision.
	NumberAttempts int
	// RestockOnCancel returns reserved stock when an order is cancelled.
	RestockOnCancel bool
}

type Service struct {
	repo         port.Repository
	tx           port.Transactor
	tokenService port.TokenService
	notifier     port.Notifier
	policy       Policy
	newNumber    func(time.Time) domain.OrderNumber
	now          func() time.Time
	logger       *zap.Logger
}

func NewService(repo port.Repository, tx port.Transactor, tokenService port.TokenService,
	notifier port.Notifier, policy Policy, logger *zap.Logger) (*Service, error) {
	if policy.NumberAttempts <= 0 {
		policy.NumberAttempts = defaultNumberAttempts
	}
	return &Service{
		repo:         repo,
		tx:           tx,
		tokenService: tokenService,
		notifier:     notifier,
		policy:       policy,
		newNumber:    domain.NewOrderNumber,
		now:          time.Now,
		logger:       logger,
	}, nil
}

// WithOrderNumbers replaces the order number generator.
func (s *Service) WithOrderNumbers(gen func(time.Time) domain.OrderNumber) *Service {
	s.newNumber = gen
	return s
}

func (s *Service) RegisterUser(ctx context.Context, who *domain.Identity, user *domain.User) (*domain.User, error) {
	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	user.Email = normalizeEmail(user.Email)
	if err := validateUser(user); err != nil {
		return nil, err
	}
	if user.Role == domain.RoleAdmin {
		if err := domain.Authorize(who, domain.AnyOwner, domain.RoleAdmin); err != nil {
			return nil, err
		}
	}

	return s.createUser(ctx, user)
}

// EnsureAdmin creates an administrator account unless the email is already
// registered. It bootstraps the first admin, who can then register further admins.
func (s *Service) EnsureAdmin(ctx context.Context, name, email, password string) error {
	user := &domain.User{Name: name, Email: normalizeEmail(email), Password: password, Role: domain.RoleAdmin}
	if err := validateUser(user); err != nil {
		return err
	}

	_, err := s.createUser(ctx, user)
	if errors.Is(err, domain.ErrConflictingData) {
		return nil
	}
	if err != nil {
		return err
	}
	s.logger.Info("Admin account created", zap.String("email", user.Email))
	return nil
}

func (s *Service) createUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	exUser, err := s.repo.GetUserByEmail(ctx, user.Email)
	if err != nil && !errors.Is(err, domain.ErrDataNotFound) {
		s.logger.Error("Get user", zap.Error(err))
		return nil, domain.ErrInternal
	}
	if exUser != nil {
		return nil, domain.ErrConflictingData
	}

	hashed, err := utils.HashPassword(user.Password)
	if err != nil {
		s.logger.Error("Hash password", zap.Error(err))
		return nil, domain.ErrInternal
	}
	user.Password = hashed

	newUser, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, domain.ErrConflictingData) {
			return nil, err
		}
		s.logger.Error("Create user", zap.Error(err))
		return nil, domain.ErrInternal
	}

	return newUser, nil
}

func validateUser(user *domain.User) error {
	verr := &domain.ValidationError{}
	if strings.TrimSpace(user.Name) == "" {
		verr.Add("name", "name is required")
	}
	if !strings.Contains(user.Email, "@") {
		verr.Add("email", "email is invalid")
	}
	if len(user.Password) < 6 {
		verr.Add("password", "password must be at least 6 characters")
	}
	if !user.Role.Valid() {
		verr.Add("role", "role must be user or admin")
	}
	return verr.OrNil()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) LoginUser(ctx context.Context, email string, password string) (string, error) {
	user, err := s.repo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrDataNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		s.logger.Error("Get user", zap.Error(err))
		return "", domain.ErrInternal
	}

	err = utils.ComparePassword(password, user.Password)
	if err != nil {
		return "", domain.ErrInvalidCredentials
	}

	token, err := s.tokenService.CreateToken(user)
	if err != nil {
		s.logger.Error("Create token", zap.Error(err))
		return "", domain.ErrTokenCreation
	}

	return token, nil
}

// clientError passes business errors through and hides everything else,
// including causes wrapped into ErrInternal.
func (s *Service) clientError(op string, err error) error {
	if errors.Is(err, domain.ErrInternal) {
		return domain.ErrInternal
	}
	for _, known := range []error{
		domain.ErrInvalidRequest,
		domain.ErrDataNotFound,
		domain.ErrConflictingData,
		domain.ErrInsufficientStock,
		domain.ErrInvalidTransition,
		domain.ErrForbidden,
		domain.ErrUnauthenticated,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	s.logger.Error(op, zap.Error(err))
	return domain.ErrInternal
}

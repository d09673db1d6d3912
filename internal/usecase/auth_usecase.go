package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/cfg"
	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthUseCase реализует регистрацию и вход. Проверка токена на входящих
// запросах живёт в middleware, здесь только выпуск.
type AuthUseCase struct {
	userRepo     UserRepository
	customerRepo CustomerRepository
	dbPool       transaction.Transactional
	cfg          *cfg.AuthCfg
	logger       logger.Logger
}

func NewAuthUC(
	userRepo UserRepository,
	customerRepo CustomerRepository,
	dbPool transaction.Transactional,
	cfg *cfg.AuthCfg,
	logger logger.Logger,
) *AuthUseCase {
	return &AuthUseCase{
		userRepo:     userRepo,
		customerRepo: customerRepo,
		dbPool:       dbPool,
		cfg:          cfg,
		logger:       logger,
	}
}

// Register создаёт учётную запись и привязанного к ней покупателя одной
// транзакцией: либо появляются обе записи, либо ни одной.
func (a *AuthUseCase) Register(ctx context.Context, req *RegisterReq) error {
	const op = "AuthUseCase.Register"

	var err error
	if err = a.validateRegistration(req); err != nil {
		return e.Wrap(op, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return e.Wrap(op, err)
	}

	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, a.dbPool)
	if err != nil {
		return e.Wrap(op, e.WrapTransaction(err))
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	_, err = a.userRepo.GetByUsername(ctx, req.Username)
	switch {
	case err == nil:
		err = e.ErrUsernameTaken
		return e.Wrap(op, err)
	case !errors.Is(err, e.ErrUserNotFound):
		err = e.WrapTransaction(err)
		return e.Wrap(op, err)
	}
	err = nil

	user, err := a.userRepo.Create(ctx, domain.NewUser(req.Username, string(hash), domain.RoleUser))
	if err != nil {
		err = e.WrapTransaction(err)
		return e.Wrap(op, err)
	}

	if _, err = a.customerRepo.Create(ctx, domain.NewCustomer(req.Name, req.Address, req.Phone, &user.Username)); err != nil {
		err = e.WrapTransaction(err)
		return e.Wrap(op, err)
	}

	if err = tx.Commit(ctx); err != nil {
		err = e.WrapTransaction(err)
		return e.Wrap(op, err)
	}

	return nil
}

// Login проверяет пароль и выпускает JWT с идентификатором покупателя внутри.
func (a *AuthUseCase) Login(ctx context.Context, req *LoginReq) (*LoginRes, error) {
	const op = "AuthUseCase.Login"

	if req.Username == "" || req.Password == "" {
		return nil, e.Wrap(op, e.ErrMissingFields)
	}

	user, err := a.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, e.ErrUserNotFound) {
			return nil, e.Wrap(op, e.ErrInvalidCredentials)
		}
		return nil, e.Wrap(op, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, e.Wrap(op, e.ErrInvalidCredentials)
	}

	token, err := a.issueToken(user)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return &LoginRes{
		Token:      token,
		Username:   user.Username,
		CustomerID: user.CustomerID,
		Role:       user.Role,
	}, nil
}

func (a *AuthUseCase) issueToken(user *UserWithCustomer) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		UserID:     user.ID,
		Username:   user.Username,
		CustomerID: user.CustomerID,
		Role:       user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.cfg.TokenTTL)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.cfg.JWTSecret))
}

func (a *AuthUseCase) validateRegistration(req *RegisterReq) error {
	if strings.TrimSpace(req.Username) == "" || req.Password == "" || strings.TrimSpace(req.Name) == "" {
		return e.ErrMissingFields
	}

	if len(req.Password) < 6 {
		return e.ErrPasswordTooShort
	}

	if req.Password != req.ConfirmPassword {
		return e.ErrPasswordMismatch
	}

	return nil
}

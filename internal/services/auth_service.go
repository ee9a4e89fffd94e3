package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"taskhub/internal/models"
	"taskhub/internal/repositories"
)

// AuthService registers users and exchanges credentials for access tokens.
type AuthService struct {
	users  repositories.UserRepository
	tokens *TokenService
	cost   int
}

func NewAuthService(users repositories.UserRepository, tokens *TokenService) *AuthService {
	return &AuthService{users: users, tokens: tokens, cost: bcrypt.DefaultCost}
}

type registerInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	in := registerInput{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Password: req.Password,
	}
	verr := &ValidationError{}
	collectFieldErrors(verr, "", validate.Struct(in))
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, &PersistenceError{Op: "hash password", Err: err}
	}
	user := &models.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, storageErr("create user", err)
	}
	log.Infof("[auth][register][ok] user=%s", user.ID)
	return user, nil
}

// Login verifies the password and issues a token. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (string, *models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			log.Debugf("[auth][login] unknown email=%q", email)
			return "", nil, ErrUnauthenticated
		}
		return "", nil, storageErr("find user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		log.Debugf("[auth][login] password mismatch user=%s", user.ID)
		return "", nil, ErrUnauthenticated
	}
	token, _, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", nil, err
	}
	log.Infof("[auth][login][ok] user=%s", user.ID)
	return token, user, nil
}

func (s *AuthService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	users, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, storageErr("list users", err)
	}
	return users, nil
}

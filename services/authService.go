package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"task-management-app/tasks-service/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"
)

const (
	passwordCost      = 10
	minPasswordLength = 6
	DefaultTokenTTL   = 7 * 24 * time.Hour
)

type AuthService struct {
	users    UserStore
	secret   []byte
	tokenTTL time.Duration
	tracer   trace.Tracer
}

func NewAuthService(users UserStore, secret string, tokenTTL time.Duration, tracer trace.Tracer) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	return &AuthService{users: users, secret: []byte(secret), tokenTTL: tokenTTL, tracer: tracer}
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (string, *domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Register")
	defer span.End()

	verr := &domain.ValidationError{}
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" {
		verr.Add("name", "is required")
	}
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		verr.Add("email", "must be a valid email address")
	}
	if len(in.Password) < minPasswordLength {
		verr.Add("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	if err := verr.Err(); err != nil {
		return "", nil, err
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return "", nil, domain.ErrUserAlreadyExists()
	} else if !errors.Is(err, domain.ErrUserNotFound()) {
		span.SetStatus(codes.Error, err.Error())
		return "", nil, err
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return "", nil, err
	}
	user := &domain.User{
		Id:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Password:  hash,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return "", nil, err
	}

	token, err := s.CreateToken(*user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *AuthService) LogIn(ctx context.Context, email, password string) (string, *domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.LogIn")
	defer span.End()

	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound()) {
			return "", nil, domain.ErrInvalidCredentials()
		}
		span.SetStatus(codes.Error, err.Error())
		return "", nil, err
	}
	if !CheckPasswordHash(password, user.Password) {
		return "", nil, domain.ErrInvalidCredentials()
	}

	token, err := s.CreateToken(*user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *AuthService) Me(ctx context.Context, userId string) (*domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Me")
	defer span.End()

	return s.users.FindById(ctx, userId)
}

func (s *AuthService) Users(ctx context.Context) (domain.Users, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Users")
	defer span.End()

	return s.users.FindAll(ctx)
}

func (s *AuthService) CreateToken(user domain.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256,
		jwt.MapClaims{
			"userId": user.Id,
			"exp":    time.Now().Add(s.tokenTTL).Unix(),
		})

	return token.SignedString(s.secret)
}

// VerifyToken returns the user id carried by a valid, unexpired token.
func (s *AuthService) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", domain.ErrInvalidToken()
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", domain.ErrInvalidToken()
	}
	userId, ok := claims["userId"].(string)
	if !ok || userId == "" {
		return "", domain.ErrInvalidToken()
	}
	return userId, nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

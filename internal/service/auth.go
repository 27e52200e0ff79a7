package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/repository"
	"github.com/pageza/foodgram/backend/internal/types"
	"golang.org/x/crypto/bcrypt"
)

// Registration is the validated input of a sign-up.
type Registration struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Password  string
}

type AuthService struct {
	users     repository.UserRepo
	tokens    TokenStore
	jwtSecret []byte
	ttl       time.Duration
	now       func() time.Time
	log       *logger.Logger
}

func NewAuthService(users repository.UserRepo, tokens TokenStore, jwtSecret string, ttl time.Duration, baseLog *logger.Logger) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		jwtSecret: []byte(jwtSecret),
		ttl:       ttl,
		now:       time.Now,
		log:       baseLog.With("service", "AuthService"),
	}
}

func (s *AuthService) Register(ctx context.Context, reg Registration) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(reg.Email))
	username := strings.TrimSpace(reg.Username)

	taken, err := s.users.EmailExists(ctx, nil, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}
	if taken, err = s.users.UsernameExists(ctx, nil, username); err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		Username:     username,
		FirstName:    strings.TrimSpace(reg.FirstName),
		LastName:     strings.TrimSpace(reg.LastName),
		PasswordHash: string(hashedPassword),
		IsActive:     true,
	}
	if err := s.users.Create(ctx, nil, user); err != nil {
		// A concurrent sign-up won the race on one of the unique indexes.
		return nil, translateStorageError(err, ErrEmailTaken)
	}

	s.log.Info("User registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Login checks the credentials and issues a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetByEmail(ctx, nil, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(translateStorageError(err, ErrIntegrity), ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if !user.IsActive {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := s.GenerateToken(user)
	if err != nil {
		return "", err
	}
	s.log.Info("User logged in", "user_id", user.ID)
	return token, nil
}

func (s *AuthService) GenerateToken(user *models.User) (string, error) {
	now := s.now()
	claims := &types.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		UserID:   user.ID,
		Username: user.Username,
		IsStaff:  user.IsStaff,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken parses a token and rejects it when it is expired or was logged out.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*types.TokenClaims, error) {
	claims := &types.TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, Detail(ErrUnauthenticated, "Недопустимый токен")
	}
	if claims.UserID == uuid.Nil || claims.ID == "" {
		return nil, Detail(ErrUnauthenticated, "Недопустимый токен")
	}

	revoked, err := s.tokens.IsRevoked(ctx, claims.ID)
	if err != nil {
		s.log.Error("Token revocation lookup failed", "error", err)
		return nil, err
	}
	if revoked {
		return nil, Detail(ErrUnauthenticated, "Токен отозван")
	}
	return claims, nil
}

// Logout revokes the token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, claims *types.TokenClaims) error {
	if claims == nil || claims.ID == "" {
		return ErrUnauthenticated
	}
	var ttl time.Duration
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Time.Sub(s.now())
	}
	if err := s.tokens.Revoke(ctx, claims.ID, ttl); err != nil {
		s.log.Error("Token revocation failed", "user_id", claims.UserID, "error", err)
		return err
	}
	s.log.Info("User logged out", "user_id", claims.UserID)
	return nil
}

// SetPassword replaces the caller's password after checking the current one.
// The token used for the request is revoked, so the caller has to log in again.
func (s *AuthService) SetPassword(ctx context.Context, claims *types.TokenClaims, currentPassword, newPassword string) error {
	if claims == nil || claims.ID == "" {
		return ErrUnauthenticated
	}
	user, err := s.users.GetByID(ctx, nil, claims.UserID)
	if err != nil {
		return translateStorageError(err, ErrIntegrity)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrWrongPassword
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, nil, user.ID, string(hashedPassword)); err != nil {
		return translateStorageError(err, ErrIntegrity)
	}
	s.log.Info("Password changed", "user_id", user.ID)

	return s.Logout(ctx, claims)
}

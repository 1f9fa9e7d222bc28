package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"

	"storefront-backend/internal/models"
	"storefront-backend/internal/repositories"
	"storefront-backend/pkg/logger"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// JWTClaims is the token payload: the numeric user id plus standard
// expiry claims.
type JWTClaims struct {
	UserID int64 `json:"userId"`
	jwt.StandardClaims
}

type AuthServiceInterface interface {
	Register(ctx context.Context, req RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req LoginRequest) (*models.User, string, error)
	ParseToken(token string) (int64, error)
}

type AuthService struct {
	userRepo  repositories.UserRepositoryInterface
	seqRepo   repositories.SequenceRepositoryInterface
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    *logger.Logger
}

func NewAuthService(userRepo repositories.UserRepositoryInterface, seqRepo repositories.SequenceRepositoryInterface, jwtSecret []byte, log *logger.Logger) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		seqRepo:   seqRepo,
		jwtSecret: jwtSecret,
		tokenTTL:  24 * time.Hour,
		logger:    log.WithComponent("auth_service"),
	}
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if req.Name == "" || req.Email == "" {
		return nil, fmt.Errorf("%w: name and email are required", ErrMissingDetails)
	}
	if len(req.Password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", ErrMissingDetails)
	}

	if _, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil {
		s.logger.Warn("Registration rejected: email taken", "email", req.Email)
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	id, err := s.seqRepo.Next(ctx, "users")
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:       id,
		Code:     fmt.Sprintf("UID%05d", id),
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: string(hashed),
	}

	if err := s.userRepo.Add(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User registered", "user_id", user.ID, "user_code", user.Code)

	// never send the hash back
	user.Password = ""
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*models.User, string, error) {
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.logger.Warn("Login failed: unknown email", "email", req.Email)
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		s.logger.Warn("Login failed: wrong password", "user_id", user.ID)
		return nil, "", ErrInvalidCredentials
	}

	claims := JWTClaims{
		UserID: user.ID,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(s.tokenTTL).Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign token: %w", err)
	}

	s.logger.Info("User logged in", "user_id", user.ID)

	user.Password = ""
	return user, tokenStr, nil
}

// ParseToken validates a bearer token and returns the user id it carries.
func (s *AuthService) ParseToken(tokenStr string) (int64, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return 0, ErrInvalidToken
	}
	return claims.UserID, nil
}

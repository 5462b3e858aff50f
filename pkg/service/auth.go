package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/maktabati/pkg/models"
	"github.com/example/maktabati/pkg/repository"
)

const passwordCost = 12

// validate applies the same tag rules gin binding uses, for callers that
// bypass HTTP binding.
var validate = validator.New()

type RegisterInput struct {
	Username string `json:"username" binding:"required,min=3"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Claims are carried by every admin token.
type Claims struct {
	UserID string      `json:"userId"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

type AuthService struct {
	admins    repository.AdminRepository
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

func NewAuthService(admins repository.AdminRepository, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{admins: admins, jwtSecret: []byte(jwtSecret), tokenTTL: tokenTTL, now: time.Now}
}

// Register creates an active account with the admin role. Username and
// email are stored lower-cased.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.AdminUser, error) {
	return s.create(ctx, in, models.RoleAdmin)
}

// Bootstrap creates a super admin unless the email is already registered.
func (s *AuthService) Bootstrap(ctx context.Context, in RegisterInput) (*models.AdminUser, bool, error) {
	existing, err := s.admins.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, fmt.Errorf("get admin: %w", err)
	}
	u, err := s.create(ctx, in, models.RoleSuperAdmin)
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}

func (s *AuthService) create(ctx context.Context, in RegisterInput, role models.Role) (*models.AdminUser, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.ToLower(strings.TrimSpace(in.Email))

	switch {
	case username == "" || email == "" || in.Password == "":
		return nil, invalid("", "username, email and password are required")
	case len([]rune(username)) < 3:
		return nil, invalid("username", "username must be at least 3 characters")
	case len(in.Password) < 6:
		return nil, invalid("password", "password must be at least 6 characters")
	}
	if err := validate.Var(email, "email"); err != nil {
		return nil, invalid("email", "email is not valid")
	}

	if _, err := s.admins.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if _, err := s.admins.GetByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check username: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), passwordCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.AdminUser{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashed),
		Role:         role,
		IsActive:     true,
	}
	if err := s.admins.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create admin: %w", err)
	}
	return u, nil
}

// Login checks credentials and issues a token. A disabled account is
// rejected before the password is compared.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (string, *models.AdminUser, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return "", nil, invalid("", "email and password are required")
	}

	u, err := s.admins.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("get admin: %w", err)
	}
	if !u.IsActive {
		return "", nil, ErrAccountDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	now := s.now()
	if err := s.admins.TouchLastLogin(ctx, u.ID, now); err != nil {
		return "", nil, fmt.Errorf("update last login: %w", err)
	}
	u.LastLogin = &now

	token, err := s.generateToken(u)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}
	return token, u, nil
}

func (s *AuthService) generateToken(u *models.AdminUser) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: u.ID.Hex(),
		Email:  u.Email,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

// Verify resolves a token to a live account. Tokens of deleted or disabled
// accounts stop working immediately.
func (s *AuthService) Verify(ctx context.Context, tokenString string) (*models.AdminUser, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	u, err := s.admins.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	if !u.IsActive {
		return nil, ErrAccountDisabled
	}
	return u, nil
}

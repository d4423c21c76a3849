package auth

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"agendaki/internal/domain"
	"agendaki/internal/store"
)

var (
	// ErrInvalidCredentials covers both unknown usernames and wrong
	// passwords; callers must not be able to tell the two apart.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Principal is the authenticated identity a verified token asserts. It
// authorizes management operations and never scopes data.
type Principal struct {
	UserID   int64
	Username string
	Role     string
}

type Service struct {
	users    store.UserRepository
	secret   []byte
	tokenTTL time.Duration
}

func NewService(users store.UserRepository, secret []byte, tokenTTL time.Duration) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Service{users: users, secret: secret, tokenTTL: tokenTTL}
}

func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", validationError("username e senha são obrigatórios")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}

	return s.issueToken(user)
}

func (s *Service) issueToken(user domain.User) (string, error) {
	return s.issueTokenAt(user, s.tokenTTL)
}

func (s *Service) issueTokenAt(user domain.User, ttl time.Duration) (string, error) {
	role := RoleStaff
	if user.IsAdmin {
		role = RoleAdmin
	}

	now := time.Now()
	claims := Claims{
		Username: user.Username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// VerifyToken is a pure function of the credential: no store access happens
// here or anywhere before it on protected routes.
func (s *Service) VerifyToken(tokenString string) (Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, ErrTokenExpired
		}
		return Principal{}, ErrTokenInvalid
	}
	if !token.Valid {
		return Principal{}, ErrTokenInvalid
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return Principal{}, ErrTokenInvalid
	}

	return Principal{
		UserID:   userID,
		Username: claims.Username,
		Role:     claims.Role,
	}, nil
}

type SetupAdminInput struct {
	Username string
	Email    string
	Password string
	Name     string
}

// SetupAdmin creates the one and only first user. The store refuses with
// ErrAlreadyExists once any user row exists.
func (s *Service) SetupAdmin(ctx context.Context, in SetupAdminInput) (domain.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	if username == "" || email == "" || in.Password == "" {
		return domain.User{}, validationError("username, email e senha são obrigatórios")
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = "Administrador"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}

	return s.users.CreateFirstAdmin(ctx, domain.User{
		Name:         name,
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		IsAdmin:      true,
	})
}

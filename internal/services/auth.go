package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/mestermind/backend/internal/apierr"
	"github.com/mestermind/backend/internal/logger"
	"github.com/mestermind/backend/internal/normalization"
	"github.com/mestermind/backend/internal/repos"
	"github.com/mestermind/backend/internal/requestdata"
	"github.com/mestermind/backend/internal/types"
)

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

type AuthService interface {
	RegisterUser(ctx context.Context, req RegisterRequest) (*types.User, error)
	LoginUser(ctx context.Context, email, password string) (string, string, error)
	RefreshUser(ctx context.Context, refreshToken string) (string, string, error)
	LogoutUser(ctx context.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	jwtSecretKey  string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	serviceLog := log.With("service", "AuthService")
	return &authService{
		db:            db,
		log:           serviceLog,
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}

func (as *authService) RegisterUser(ctx context.Context, req RegisterRequest) (*types.User, error) {
	email := normalization.Email(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, apierr.Validation(fmt.Errorf("a valid email is required"))
	}
	if len(req.Password) < 8 {
		return nil, apierr.Validation(fmt.Errorf("password must be at least 8 characters"))
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return nil, apierr.Validation(fmt.Errorf("first and last name are required"))
	}
	role := req.Role
	if role == "" {
		role = types.RoleCustomer
	}
	if role != types.RoleCustomer && role != types.RolePro {
		return nil, apierr.Validation(fmt.Errorf("role must be %q or %q", types.RoleCustomer, types.RolePro))
	}

	exists, err := as.userRepo.EmailExists(ctx, nil, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, apierr.Conflict(fmt.Errorf("email is already registered"))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &types.User{
		Email:     email,
		Password:  string(hashed),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Role:      role,
	}
	created, err := as.userRepo.Create(ctx, nil, []*types.User{user})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return created[0], nil
}

func (as *authService) LoginUser(ctx context.Context, email, password string) (string, string, error) {
	email = normalization.Email(email)
	user, err := as.userRepo.GetByEmail(ctx, nil, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", apierr.Forbidden(fmt.Errorf("invalid email or password"))
		}
		return "", "", fmt.Errorf("load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", "", apierr.Forbidden(fmt.Errorf("invalid email or password"))
	}

	var accessToken, refreshToken string
	if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tok, genErr := as.generateAccessToken(user)
		if genErr != nil {
			return fmt.Errorf("generate access token: %w", genErr)
		}
		accessToken = tok
		refreshToken = uuid.New().String()
		userToken := types.UserToken{
			UserID:       user.ID,
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresAt:    time.Now().Add(as.refreshTTL),
		}
		if _, cErr := as.userTokenRepo.Create(ctx, tx, []*types.UserToken{&userToken}); cErr != nil {
			return fmt.Errorf("persist user token: %w", cErr)
		}
		return nil
	}); err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func (as *authService) RefreshUser(ctx context.Context, refreshToken string) (string, string, error) {
	if refreshToken == "" {
		return "", "", apierr.Validation(fmt.Errorf("refresh token is required"))
	}
	stored, err := as.userTokenRepo.GetByRefreshToken(ctx, nil, refreshToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", apierr.Forbidden(fmt.Errorf("unknown refresh token"))
		}
		return "", "", fmt.Errorf("load refresh token: %w", err)
	}
	if stored.ExpiresAt.Before(time.Now()) {
		return "", "", apierr.Forbidden(fmt.Errorf("refresh token expired"))
	}
	user, err := as.userRepo.GetByID(ctx, nil, stored.UserID)
	if err != nil {
		return "", "", fmt.Errorf("load user: %w", err)
	}

	var accessToken, newRefreshToken string
	if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if dErr := as.userTokenRepo.DeleteByIDs(ctx, tx, []uuid.UUID{stored.ID}); dErr != nil {
			return fmt.Errorf("rotate token: %w", dErr)
		}
		tok, genErr := as.generateAccessToken(user)
		if genErr != nil {
			return fmt.Errorf("generate access token: %w", genErr)
		}
		accessToken = tok
		newRefreshToken = uuid.New().String()
		userToken := types.UserToken{
			UserID:       user.ID,
			AccessToken:  accessToken,
			RefreshToken: newRefreshToken,
			ExpiresAt:    time.Now().Add(as.refreshTTL),
		}
		if _, cErr := as.userTokenRepo.Create(ctx, tx, []*types.UserToken{&userToken}); cErr != nil {
			return fmt.Errorf("persist user token: %w", cErr)
		}
		return nil
	}); err != nil {
		return "", "", err
	}
	return accessToken, newRefreshToken, nil
}

func (as *authService) LogoutUser(ctx context.Context) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.TokenString == "" {
		return apierr.Forbidden(fmt.Errorf("not authenticated"))
	}
	stored, err := as.userTokenRepo.GetByAccessToken(ctx, nil, rd.TokenString)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("load token: %w", err)
	}
	return as.userTokenRepo.DeleteByIDs(ctx, nil, []uuid.UUID{stored.ID})
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil || !token.Valid {
		return ctx, fmt.Errorf("invalid token")
	}
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return ctx, fmt.Errorf("invalid token subject")
	}
	role, _ := claims["role"].(string)
	rd := &requestdata.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		Role:        role,
	}
	return requestdata.WithRequestData(ctx, rd), nil
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(as.accessTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

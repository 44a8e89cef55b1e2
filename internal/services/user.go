package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mestermind/backend/internal/apierr"
	"github.com/mestermind/backend/internal/logger"
	"github.com/mestermind/backend/internal/repos"
	"github.com/mestermind/backend/internal/requestdata"
	"github.com/mestermind/backend/internal/types"
)

type UserService interface {
	GetMe(ctx context.Context) (*types.User, error)
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo) UserService {
	serviceLog := log.With("service", "UserService")
	return &userService{db: db, log: serviceLog, userRepo: userRepo}
}

func (us *userService) GetMe(ctx context.Context) (*types.User, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, apierr.Forbidden(fmt.Errorf("not authenticated"))
	}
	user, err := us.userRepo.GetByID(ctx, nil, rd.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound(fmt.Errorf("user not found"))
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

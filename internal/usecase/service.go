package usecase

import (
	"otp-auth/internal/data/repository"
	"otp-auth/pkg/mailer"
	"otp-auth/pkg/token"
	"otp-auth/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Auth    AuthService
	User    UserService
	Cleanup *CleanupService
}

func NewService(
	repo *repository.Repository,
	config *utils.Config,
	tokens *token.Manager,
	mail mailer.Sender,
	log *zap.Logger,
) *Service {
	return &Service{
		Auth:    NewAuthService(repo, config, tokens, mail, log),
		User:    NewUserService(repo.User, log),
		Cleanup: NewCleanupService(repo, log),
	}
}

package usecase

import (
	"context"
	"time"

	"otp-auth/internal/data/repository"

	"go.uber.org/zap"
)

// CleanupService purges expired OTP challenges and refresh sessions. Reads
// already ignore expired rows; this only reclaims space.
type CleanupService struct {
	otpRepo     repository.OTPRepository
	sessionRepo repository.SessionRepository
	log         *zap.Logger
}

func NewCleanupService(repo *repository.Repository, log *zap.Logger) *CleanupService {
	return &CleanupService{
		otpRepo:     repo.OTP,
		sessionRepo: repo.Session,
		log:         log.With(zap.String("service", "cleanup")),
	}
}

// Sweep runs one purge and reports how many rows went.
func (cs *CleanupService) Sweep(ctx context.Context) (otps, sessions int64, err error) {
	otps, err = cs.otpRepo.DeleteExpired(ctx)
	if err != nil {
		return 0, 0, err
	}

	sessions, err = cs.sessionRepo.CleanExpiredSessions(ctx)
	if err != nil {
		return otps, 0, err
	}

	return otps, sessions, nil
}

// Run sweeps every interval until ctx is cancelled. A non-positive interval
// disables the loop.
func (cs *CleanupService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		cs.log.Error("Cleanup disabled: interval must be positive", zap.Duration("interval", interval))
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			otps, sessions, err := cs.Sweep(ctx)
			if err != nil {
				cs.log.Error("Cleanup sweep failed", zap.Error(err))
				continue
			}
			if otps > 0 || sessions > 0 {
				cs.log.Info("Cleanup sweep",
					zap.Int64("otps", otps),
					zap.Int64("sessions", sessions),
				)
			}
		}
	}
}

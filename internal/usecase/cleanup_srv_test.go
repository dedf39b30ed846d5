package usecase

import (
	"context"
	"testing"
	"time"

	"otp-auth/internal/data/entity"
	"otp-auth/internal/data/repository"
	"otp-auth/internal/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCleanupSweep(t *testing.T) {
	ctx := context.Background()
	clock := mocks.NewClock(time.Now())
	otps := mocks.NewOTPRepo(clock)
	sessions := mocks.NewSessionRepo(clock)
	cs := NewCleanupService(&repository.Repository{OTP: otps, Session: sessions}, zap.NewNop())

	now := clock.Now()
	require.NoError(t, otps.Replace(ctx, &entity.OTPChallenge{Email: "old@example.com", ExpiresAt: now.Add(time.Minute)}))
	require.NoError(t, otps.Replace(ctx, &entity.OTPChallenge{Email: "new@example.com", ExpiresAt: now.Add(10 * time.Minute)}))

	userID := uuid.New()
	require.NoError(t, sessions.Create(ctx, &entity.RefreshSession{UserID: userID, Token: "a", ExpiresAt: now.Add(time.Minute)}))
	require.NoError(t, sessions.Create(ctx, &entity.RefreshSession{UserID: userID, Token: "b", ExpiresAt: now.Add(time.Hour)}))

	clock.Advance(2 * time.Minute)

	// expired rows are already invisible before the sweep
	live, err := otps.FindActive(ctx, "old@example.com")
	require.NoError(t, err)
	assert.Nil(t, live)

	otpCount, sessionCount, err := cs.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), otpCount)
	assert.Equal(t, int64(1), sessionCount)

	_, ok := otps.Get("old@example.com")
	assert.False(t, ok)
	_, ok = otps.Get("new@example.com")
	assert.True(t, ok)
	assert.Equal(t, []string{"b"}, sessions.Tokens(userID))
}

func TestCleanupRunStopsOnCancel(t *testing.T) {
	clock := mocks.NewClock(time.Now())
	cs := NewCleanupService(&repository.Repository{
		OTP:     mocks.NewOTPRepo(clock),
		Session: mocks.NewSessionRepo(clock),
	}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		cs.Run(ctx, time.Millisecond)
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup loop did not stop")
	}
}

func TestCleanupRunRejectsNonPositiveInterval(t *testing.T) {
	cs := NewCleanupService(&repository.Repository{}, zap.NewNop())

	for _, interval := range []time.Duration{0, -time.Second} {
		done := make(chan struct{})
		go func() {
			defer close(done)
			assert.NotPanics(t, func() { cs.Run(context.Background(), interval) })
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatalf("Run(%v) did not return", interval)
		}
	}
}

// Package mocks holds in-memory stand-ins for the Postgres repositories and
// the mail transport. They keep real state so service tests can observe
// effects rather than calls.
package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"otp-auth/internal/data/entity"
	"otp-auth/internal/data/repository"

	"github.com/google/uuid"
)

// Clock is shared by the fakes so a test can move time forward.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type UserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]entity.User

	// Err, when set, is returned by every method.
	Err error
}

func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[uuid.UUID]entity.User)}
}

var _ repository.UserRepository = (*UserRepo)(nil)

func (r *UserRepo) Create(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	r.users[user.ID] = *user
	return nil
}

func (r *UserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *UserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	u, err := r.FindByEmail(ctx, email)
	return u != nil, err
}

func (r *UserRepo) Update(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	r.users[user.ID] = *user
	return nil
}

func (r *UserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	u, ok := r.users[id]
	if !ok {
		return nil
	}
	u.LastLogin = &at
	r.users[id] = u
	return nil
}

func (r *UserRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

type SessionRepo struct {
	mu       sync.Mutex
	clock    *Clock
	nextID   int64
	sessions map[int64]entity.RefreshSession
}

func NewSessionRepo(clock *Clock) *SessionRepo {
	return &SessionRepo{clock: clock, sessions: make(map[int64]entity.RefreshSession)}
}

var _ repository.SessionRepository = (*SessionRepo)(nil)

func (r *SessionRepo) live(s entity.RefreshSession) bool {
	return !s.IsExpired(r.clock.Now())
}

func (r *SessionRepo) Create(_ context.Context, session *entity.RefreshSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.Token == session.Token {
			return repository.ErrDuplicate
		}
	}
	r.nextID++
	session.ID = r.nextID
	r.sessions[session.ID] = *session
	return nil
}

func (r *SessionRepo) FindActiveByUser(_ context.Context, userID uuid.UUID) ([]*entity.RefreshSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.RefreshSession
	for _, s := range r.sessions {
		if s.UserID == userID && r.live(s) {
			s := s
			out = append(out, &s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *SessionRepo) FindByToken(_ context.Context, userID uuid.UUID, token string) (*entity.RefreshSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.UserID == userID && s.Token == token && r.live(s) {
			return &s, nil
		}
	}
	return nil, nil
}

func (r *SessionRepo) Rotate(_ context.Context, userID uuid.UUID, oldToken string, next *entity.RefreshSession) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		if s.UserID == userID && s.Token == oldToken && r.live(s) {
			s.Token = next.Token
			s.CreatedAt = next.CreatedAt
			s.ExpiresAt = next.ExpiresAt
			r.sessions[id] = s
			next.ID = id
			next.UserID = userID
			return true, nil
		}
	}
	return false, nil
}

func (r *SessionRepo) Delete(_ context.Context, userID uuid.UUID, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		if s.UserID == userID && s.Token == token {
			delete(r.sessions, id)
			return true, nil
		}
	}
	return false, nil
}

func (r *SessionRepo) DeleteByIDs(_ context.Context, userID uuid.UUID, ids []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		if s, ok := r.sessions[id]; ok && s.UserID == userID {
			delete(r.sessions, id)
		}
	}
	return nil
}

func (r *SessionRepo) CleanExpiredSessions(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, s := range r.sessions {
		if !r.live(s) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}

// Tokens lists every stored token for the user, live or not, oldest first.
func (r *SessionRepo) Tokens(userID uuid.UUID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, 0, len(r.sessions))
	for id, s := range r.sessions {
		if s.UserID == userID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.sessions[id].Token)
	}
	return out
}

type OTPRepo struct {
	mu    sync.Mutex
	clock *Clock
	otps  map[string]entity.OTPChallenge
}

func NewOTPRepo(clock *Clock) *OTPRepo {
	return &OTPRepo{clock: clock, otps: make(map[string]entity.OTPChallenge)}
}

var _ repository.OTPRepository = (*OTPRepo)(nil)

func (r *OTPRepo) Replace(_ context.Context, otp *entity.OTPChallenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.otps[otp.Email] = *otp
	return nil
}

func (r *OTPRepo) FindActive(_ context.Context, email string) (*entity.OTPChallenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.otps[email]
	if !ok || o.IsExpired(r.clock.Now()) {
		return nil, nil
	}
	return &o, nil
}

func (r *OTPRepo) Consume(_ context.Context, email, codeHash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.otps[email]
	if !ok || o.Used || o.IsExpired(r.clock.Now()) || o.CodeHash != codeHash {
		return false, nil
	}
	o.Used = true
	r.otps[email] = o
	return true, nil
}

func (r *OTPRepo) IncrementAttempts(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.otps[email]
	if !ok || o.Used || o.IsExpired(r.clock.Now()) {
		return nil
	}
	o.Attempts++
	r.otps[email] = o
	return nil
}

func (r *OTPRepo) DeleteExpired(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for email, o := range r.otps {
		if o.IsExpired(r.clock.Now()) {
			delete(r.otps, email)
			n++
		}
	}
	return n, nil
}

// Get returns the stored challenge regardless of expiry.
func (r *OTPRepo) Get(email string) (entity.OTPChallenge, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.otps[email]
	return o, ok
}

// SetAttempts overwrites the attempt counter of a stored challenge.
func (r *OTPRepo) SetAttempts(email string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.otps[email]; ok {
		o.Attempts = n
		r.otps[email] = o
	}
}

package usecase

import (
	"context"
	"sync"
	"time"

	"account-security-service/internal/domain"
	"account-security-service/pkg/xerrors"
)

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newFakeUserStore(users ...*domain.User) *fakeUserStore {
	f := &fakeUserStore{users: map[string]*domain.User{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserStore) GetUserByID(_ context.Context, userID string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return nil, xerrors.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserStore) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return xerrors.ErrUserNotFound
	}
	u.PasswordHash = &passwordHash
	return nil
}

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.DeviceSession
	revoked  int64
}

func sessionKey(userID, deviceID string) string { return userID + "/" + deviceID }

func newFakeSessionStore(sessions ...*domain.DeviceSession) *fakeSessionStore {
	f := &fakeSessionStore{sessions: map[string]*domain.DeviceSession{}}
	for _, s := range sessions {
		f.sessions[sessionKey(s.UserID, s.DeviceID)] = s
	}
	return f
}

func (f *fakeSessionStore) GetSession(_ context.Context, userID, deviceID string) (*domain.DeviceSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionKey(userID, deviceID)]
	if !ok {
		return nil, xerrors.ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeSessionStore) TouchLastVerified(_ context.Context, userID, deviceID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionKey(userID, deviceID)]
	if !ok {
		return xerrors.ErrSessionNotFound
	}
	s.LastVerifiedAt = &at
	return nil
}

func (f *fakeSessionStore) RevokeOtherSessions(_ context.Context, userID, keepDeviceID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, s := range f.sessions {
		if s.UserID == userID && s.DeviceID != keepDeviceID && s.IsActive {
			s.IsActive = false
			n++
		}
	}
	f.revoked += n
	return n, nil
}

type fakeFactorStore struct {
	mu      sync.Mutex
	factors []*domain.VerificationFactor
	// factorID -> unused backup codes, plain text for test purposes
	backupCodes map[string][]string
}

func (f *fakeFactorStore) GetFactor(_ context.Context, userID, method string) (*domain.VerificationFactor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fc := range f.factors {
		if fc.UserID == userID && fc.Method == method {
			return fc, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (f *fakeFactorStore) GetEnabledFactors(_ context.Context, userID string) ([]*domain.VerificationFactor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.VerificationFactor
	for _, fc := range f.factors {
		if fc.UserID == userID && fc.IsEnabled {
			out = append(out, fc)
		}
	}
	return out, nil
}

func (f *fakeFactorStore) VerifyAndConsumeBackupCode(_ context.Context, factorID, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	codes := f.backupCodes[factorID]
	for i, c := range codes {
		if c == code {
			f.backupCodes[factorID] = append(codes[:i], codes[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type cacheEntry struct {
	value     string
	expiresAt time.Time
}

type fakeCache struct {
	mu   sync.Mutex
	data map[string]cacheEntry
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string]cacheEntry{}}
}

func (f *fakeCache) Set(_ context.Context, namespace, key string, value interface{}, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	}
	f.data[namespace+":"+key] = cacheEntry{value: s, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (f *fakeCache) Get(_ context.Context, namespace, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.data[namespace+":"+key]
	if !ok || time.Now().After(e.expiresAt) {
		return "", xerrors.ErrNotFound
	}
	return e.value, nil
}

func (f *fakeCache) Delete(_ context.Context, namespace, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, namespace+":"+key)
	return nil
}

func (f *fakeCache) GetTTL(_ context.Context, namespace, key string) (time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.data[namespace+":"+key]
	if !ok {
		return -2 * time.Second, nil
	}
	ttl := time.Until(e.expiresAt)
	if ttl <= 0 {
		return -2 * time.Second, nil
	}
	return ttl, nil
}

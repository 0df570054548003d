package handler

import (
	"context"
	"sync"
	"time"

	"account-security-service/internal/config"
	"account-security-service/internal/domain"
	oauth2svc "account-security-service/internal/service/oauth2"
	"account-security-service/internal/usecase"
	"account-security-service/pkg/utils"
	"account-security-service/pkg/xerrors"
)

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*domain.User
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
}

func (f *fakeSessionStore) key(userID, deviceID string) string { return userID + "/" + deviceID }

func (f *fakeSessionStore) GetSession(_ context.Context, userID, deviceID string) (*domain.DeviceSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[f.key(userID, deviceID)]
	if !ok {
		return nil, xerrors.ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeSessionStore) TouchLastVerified(_ context.Context, userID, deviceID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[f.key(userID, deviceID)]
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
	return n, nil
}

type fakeFactorStore struct {
	mu          sync.Mutex
	factors     []*domain.VerificationFactor
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

type fakeCache struct {
	mu   sync.Mutex
	data map[string]string
	exp  map[string]time.Time
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string]string{}, exp: map[string]time.Time{}}
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
	k := namespace + ":" + key
	f.data[k] = s
	f.exp[k] = time.Now().Add(ttl)
	return nil
}

func (f *fakeCache) Get(_ context.Context, namespace, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := namespace + ":" + key
	v, ok := f.data[k]
	if !ok || time.Now().After(f.exp[k]) {
		return "", xerrors.ErrNotFound
	}
	return v, nil
}

func (f *fakeCache) Delete(_ context.Context, namespace, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := namespace + ":" + key
	delete(f.data, k)
	delete(f.exp, k)
	return nil
}

func (f *fakeCache) GetTTL(_ context.Context, namespace, key string) (time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := namespace + ":" + key
	if _, ok := f.data[k]; !ok {
		return -2 * time.Second, nil
	}
	ttl := time.Until(f.exp[k])
	if ttl <= 0 {
		return -2 * time.Second, nil
	}
	return ttl, nil
}

type fakeLinkStore struct {
	mu    sync.Mutex
	links []*domain.LinkedAccount
}

func (f *fakeLinkStore) CreateLinkedAccount(_ context.Context, acc *domain.LinkedAccount) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.links = append(f.links, acc)
	return nil
}

func (f *fakeLinkStore) FindByProviderUID(_ context.Context, provider, providerUID string) (*domain.LinkedAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.links {
		if l.Provider == provider && l.ProviderUID == providerUID {
			return l, nil
		}
	}
	return nil, nil
}

func (f *fakeLinkStore) GetLinkedAccountsByUserID(_ context.Context, userID string) ([]*domain.LinkedAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.LinkedAccount
	for _, l := range f.links {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeLinkStore) DeleteLinkedAccount(_ context.Context, userID, provider string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, l := range f.links {
		if l.UserID == userID && l.Provider == provider {
			f.links = append(f.links[:i], f.links[i+1:]...)
			return nil
		}
	}
	return xerrors.ErrNotFound
}

type fakeEventStore struct {
	mu     sync.Mutex
	events []*domain.SecurityEvent
}

func (f *fakeEventStore) CreateSecurityEvent(_ context.Context, ev *domain.SecurityEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeEventStore) ListByUser(_ context.Context, userID string, _ int) ([]*domain.SecurityEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.SecurityEvent
	for _, ev := range f.events {
		if ev.UserID == userID {
			out = append(out, ev)
		}
	}
	return out, nil
}

// testEnv bundles the wired handler plus the fakes behind it.
type testEnv struct {
	handler  *AuthHandler
	users    *fakeUserStore
	sessions *fakeSessionStore
	factors  *fakeFactorStore
	cache    *fakeCache
	links    *fakeLinkStore
}

func newTestEnv() *testEnv {
	users := &fakeUserStore{users: map[string]*domain.User{}}
	sessions := &fakeSessionStore{sessions: map[string]*domain.DeviceSession{}}
	factors := &fakeFactorStore{backupCodes: map[string][]string{}}
	cache := newFakeCache()
	links := &fakeLinkStore{}

	cfg := config.AppConfig{
		StepUpGracePeriod: 10 * time.Minute,
		Google:            config.ProviderConfig{ClientID: "google-client", RedirectURI: "https://app.example.com/cb/google"},
		GitHub:            config.ProviderConfig{ClientID: "github-client", RedirectURI: "https://app.example.com/cb/github"},
	}

	userUC := usecase.NewUserUsecase(users, sessions, factors, cache, nil, cfg.StepUpGracePeriod)
	oauthUC := usecase.NewOAuth2Usecase(links, users, cache, oauth2svc.NewProviders(cfg), cfg, nil)
	eventUC := usecase.NewSecurityEventUsecase(&fakeEventStore{}, nil)

	return &testEnv{
		handler:  NewAuthHandler(userUC, oauthUC, eventUC),
		users:    users,
		sessions: sessions,
		factors:  factors,
		cache:    cache,
		links:    links,
	}
}

func (e *testEnv) addUser(id, password string) *domain.User {
	u := &domain.User{ID: id}
	if password != "" {
		hash, _ := utils.HashPassword(password)
		u.PasswordHash = &hash
	}
	e.users.mu.Lock()
	e.users.users[id] = u
	e.users.mu.Unlock()
	return u
}

func (e *testEnv) addSession(userID, deviceID string, lastVerified *time.Time) {
	e.sessions.mu.Lock()
	e.sessions.sessions[userID+"/"+deviceID] = &domain.DeviceSession{
		UserID: userID, DeviceID: deviceID, IsActive: true, LastVerifiedAt: lastVerified,
	}
	e.sessions.mu.Unlock()
}

func (e *testEnv) addTOTPFactor(userID, factorID string) {
	e.factors.mu.Lock()
	e.factors.factors = append(e.factors.factors, &domain.VerificationFactor{
		ID: factorID, UserID: userID, Method: domain.MethodTOTP,
		Secret: "JBSWY3DPEHPK3PXP", IsEnabled: true,
	})
	e.factors.mu.Unlock()
}

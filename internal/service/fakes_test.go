package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"

	"eshop/internal/config"
	"eshop/internal/mail"
	"eshop/internal/models"
	"eshop/internal/repository"
)

type memoryUsers struct {
	mu    sync.Mutex
	byID  map[bson.ObjectID]models.User
	saves int
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byID: map[bson.ObjectID]models.User{}}
}

func (m *memoryUsers) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if user.Addresses == nil {
		user.Addresses = []models.Address{}
	}
	m.byID[user.ID] = cloneUser(*user)
	return nil
}

func (m *memoryUsers) GetByID(_ context.Context, id string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return models.User{}, repository.ErrUserNotFound
	}
	u, ok := m.byID[oid]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (m *memoryUsers) FindByEmail(_ context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (m *memoryUsers) Save(_ context.Context, user models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	for id, u := range m.byID {
		if id != user.ID && u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	m.byID[user.ID] = cloneUser(user)
	m.saves++
	return nil
}

func (m *memoryUsers) PullAddress(_ context.Context, userID string, addressID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	oid, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return repository.ErrUserNotFound
	}
	u, ok := m.byID[oid]
	if !ok {
		return repository.ErrUserNotFound
	}
	kept := []models.Address{}
	for _, a := range u.Addresses {
		if a.ID != addressID {
			kept = append(kept, a)
		}
	}
	u.Addresses = kept
	m.byID[oid] = u
	return nil
}

func (m *memoryUsers) List(_ context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := []models.User{}
	for _, u := range m.byID {
		users = append(users, cloneUser(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users, nil
}

func (m *memoryUsers) ListInactiveBefore(_ context.Context, cutoff time.Time, limit int64) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := []models.User{}
	for _, u := range m.byID {
		if !u.Active && u.CreatedAt.Before(cutoff) {
			users = append(users, cloneUser(u))
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	if int64(len(users)) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (m *memoryUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrUserNotFound
	}
	if _, ok := m.byID[oid]; !ok {
		return repository.ErrUserNotFound
	}
	delete(m.byID, oid)
	return nil
}

func (m *memoryUsers) DeleteInactive(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrUserNotFound
	}
	if u, ok := m.byID[oid]; !ok || u.Active {
		return repository.ErrUserNotFound
	}
	delete(m.byID, oid)
	return nil
}

func (m *memoryUsers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

func cloneUser(u models.User) models.User {
	u.Addresses = append([]models.Address(nil), u.Addresses...)
	return u
}

type fakeAvatars struct {
	uploaded []string
	removed  []string
	err      error
	seq      int
}

func (f *fakeAvatars) Upload(_ context.Context, dataURI string) (models.Avatar, error) {
	if f.err != nil {
		return models.Avatar{}, f.err
	}
	f.seq++
	id := "avatars/" + string(rune('a'+f.seq-1)) + ".png"
	f.uploaded = append(f.uploaded, id)
	return models.Avatar{PublicID: id, URL: "http://cdn/" + id}, nil
}

func (f *fakeAvatars) Remove(_ context.Context, publicID string) error {
	f.removed = append(f.removed, publicID)
	return nil
}

type action struct {
	userID string
	action string
}

type fakeRecorder struct {
	mu      sync.Mutex
	actions []action
}

func (f *fakeRecorder) Record(userID string, a string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action{userID: userID, action: a})
}

func (f *fakeRecorder) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []string{}
	for _, a := range f.actions {
		out = append(out, a.action)
	}
	return out
}

type fakeNotifier struct {
	sent []mail.Message
	err  error
}

func (f *fakeNotifier) Deliver(_ context.Context, msg mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

var errUpstream = errors.New("upstream down")

type fixture struct {
	users    *memoryUsers
	avatars  *fakeAvatars
	recorder *fakeRecorder
	notifier *fakeNotifier
	auth     *AuthService
	svc      *UserService
}

func testSecurityConfig() config.SecurityConfig {
	return config.SecurityConfig{
		SessionSecret:    "session-secret-0123456789",
		ActivationSecret: "activation-secret-0123456789",
		SessionTTL:       time.Hour,
		ActivationTTL:    5 * time.Minute,
		CookieName:       "token",
	}
}

func newFixture() *fixture {
	f := &fixture{
		users:    newMemoryUsers(),
		avatars:  &fakeAvatars{},
		recorder: &fakeRecorder{},
		notifier: &fakeNotifier{},
		auth:     NewAuthService(testSecurityConfig()),
	}
	f.svc = NewUserService(f.users, f.avatars, f.auth, f.recorder, f.notifier,
		config.AppConfig{ActivationURL: "http://localhost:3000/activation"}, zerolog.Nop())
	return f
}

// activeUser signs up and activates an account, returning it.
func (f *fixture) activeUser(email, password string) models.User {
	user, err := f.svc.Signup(context.Background(), SignupInput{Name: "Test", Email: email, Password: password})
	if err != nil {
		panic(err)
	}
	user.Active = true
	if err := f.users.Save(context.Background(), user); err != nil {
		panic(err)
	}
	return user
}

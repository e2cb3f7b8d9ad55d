package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/chanakya/internal/common"
	"github.com/dmitrijs2005/chanakya/internal/server/llm"
	"github.com/dmitrijs2005/chanakya/internal/server/models"
	"github.com/dmitrijs2005/chanakya/internal/server/repositories/itineraries"
	"github.com/dmitrijs2005/chanakya/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/chanakya/internal/server/repositories/users"
)

// fakeUsers mimics the conditional updates of the real stores.
type fakeUsers struct {
	mu    sync.Mutex
	byKey map[string]*models.User

	createErr error
	incErr    error
	recordErr error
}

func newFakeUsers(us ...*models.User) *fakeUsers {
	f := &fakeUsers{byKey: map[string]*models.User{}}
	for _, u := range us {
		f.byKey[u.Email] = u
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.byKey[u.Email]; ok {
		return nil, common.ErrAlreadyExists
	}
	u.ID = fmt.Sprintf("u-%d", len(f.byKey)+1)
	cp := *u
	f.byKey[u.Email] = &cp
	return u, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byKey[email]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) IncrementChatMessages(_ context.Context, email string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.incErr != nil {
		return 0, f.incErr
	}
	u, ok := f.byKey[email]
	if !ok {
		return 0, common.ErrNotFound
	}
	u.ChatMessagesUsed++
	return u.ChatMessagesUsed, nil
}

func (f *fakeUsers) RecordItinerary(_ context.Context, email string, consumeFree bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordErr != nil {
		return f.recordErr
	}
	u, ok := f.byKey[email]
	if !ok {
		return common.ErrNotFound
	}
	if consumeFree {
		if u.FreeItineraryUsed {
			return common.ErrQuotaExhausted
		}
		u.FreeItineraryUsed = true
	}
	u.ItinerariesCreated++
	return nil
}

func (f *fakeUsers) SetSubscription(_ context.Context, email string, premium bool, at time.Time) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byKey[email]
	if !ok {
		return nil, common.ErrNotFound
	}
	u.HasPremiumSubscription = premium
	if premium {
		u.SubscriptionStatus = common.SubscriptionPremium
		u.UpgradedAt = &at
	} else {
		u.SubscriptionStatus = common.SubscriptionFree
		u.DowngradedAt = &at
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) get(email string) models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.byKey[email]
}

type fakeItineraries struct {
	mu   sync.Mutex
	seq  int
	byID map[string]*models.Itinerary

	createErr error
}

func newFakeItineraries() *fakeItineraries {
	return &fakeItineraries{byID: map[string]*models.Itinerary{}}
}

func (f *fakeItineraries) Create(_ context.Context, it *models.Itinerary) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.seq++
	it.ID = fmt.Sprintf("it-%d", f.seq)
	cp := *it
	f.byID[it.ID] = &cp
	return it.ID, nil
}

func (f *fakeItineraries) ListSummaries(_ context.Context, email string) ([]models.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Summary, 0)
	for _, it := range f.byID {
		if it.UserEmail == email {
			out = append(out, it.Summary())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeItineraries) Get(_ context.Context, email, id string) (*models.Itinerary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id == "bad" {
		return nil, common.ErrInvalidID
	}
	it, ok := f.byID[id]
	if !ok || it.UserEmail != email {
		return nil, common.ErrNotFound
	}
	cp := *it
	return &cp, nil
}

func (f *fakeItineraries) Delete(_ context.Context, email, id string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id == "bad" {
		return 0, common.ErrInvalidID
	}
	it, ok := f.byID[id]
	if !ok || it.UserEmail != email {
		return 0, nil
	}
	delete(f.byID, id)
	return 1, nil
}

func (f *fakeItineraries) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

type fakeManager struct {
	users   *fakeUsers
	its     *fakeItineraries
	txs     atomic.Int32
	backend string
}

var _ repomanager.RepositoryManager = (*fakeManager)(nil)

func newFakeManager(us ...*models.User) *fakeManager {
	return &fakeManager{users: newFakeUsers(us...), its: newFakeItineraries(), backend: repomanager.BackendMongo}
}

func (m *fakeManager) Users() users.Repository             { return m.users }
func (m *fakeManager) Itineraries() itineraries.Repository { return m.its }
func (m *fakeManager) RunMigrations(context.Context) error { return nil }
func (m *fakeManager) Ping(context.Context) error          { return nil }
func (m *fakeManager) Close(context.Context) error         { return nil }
func (m *fakeManager) Backend() string                     { return m.backend }

func (m *fakeManager) WithinTx(ctx context.Context, fn repomanager.TxFunc) error {
	m.txs.Add(1)
	return fn(ctx, m.users, m.its)
}

type fakeCompleter struct {
	mu      sync.Mutex
	reply   string
	err     error
	calls   int
	prompts []string
	opts    []llm.Options
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string, opts llm.Options) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	f.opts = append(f.opts, opts)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func freeUser(email string) *models.User {
	u := models.NewUser(email, "Asha", "")
	u.ID = "u-" + email
	return u
}

func premiumUser(email string) *models.User {
	u := freeUser(email)
	u.SubscriptionStatus = common.SubscriptionPremium
	u.HasPremiumSubscription = true
	return u
}

func userTurn(text string) models.Turn   { return models.Turn{Sender: models.SenderUser, Text: text} }
func systemTurn(text string) models.Turn { return models.Turn{Sender: models.SenderSystem, Text: text} }

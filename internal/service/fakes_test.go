package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/online-cinema/internal/model"
	"github.com/iliyamo/online-cinema/internal/queue"
	"github.com/iliyamo/online-cinema/internal/repository"
	"github.com/iliyamo/online-cinema/internal/utils"
)

// In-memory fakes mirroring the repository semantics the services
// rely on: Issue revokes live same-kind predecessors for single-use
// kinds, Lookup re-checks state at point of use with consumed taking
// priority over revoked, Consume is spend-once. The clock is a field
// so tests can move time instead of sleeping.

type fakeAccounts struct {
	mu     sync.Mutex
	nextID uint64
	byID   map[uint64]model.Account
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{nextID: 1, byID: map[uint64]model.Account{}}
}

func (f *fakeAccounts) Create(_ context.Context, email, passwordHash string, role model.Role) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = strings.ToLower(email)
	for _, a := range f.byID {
		if a.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	id := f.nextID
	f.nextID++
	f.byID[id] = model.Account{
		ID: id, Email: email, PasswordHash: passwordHash,
		Role: role, Status: model.StatusPending,
	}
	return id, nil
}

func (f *fakeAccounts) GetByEmail(_ context.Context, email string) (model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = strings.ToLower(email)
	for _, a := range f.byID {
		if a.Email == email {
			return a, nil
		}
	}
	return model.Account{}, repository.ErrNotFound
}

func (f *fakeAccounts) GetByID(_ context.Context, id uint64) (model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return model.Account{}, repository.ErrNotFound
	}
	return a, nil
}

func (f *fakeAccounts) Activate(_ context.Context, id uint64) error {
	return f.setStatus(id, model.StatusActive)
}

func (f *fakeAccounts) UpdatePassword(_ context.Context, id uint64, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.PasswordHash = passwordHash
	f.byID[id] = a
	return nil
}

func (f *fakeAccounts) Disable(_ context.Context, id uint64) error {
	return f.setStatus(id, model.StatusDisabled)
}

func (f *fakeAccounts) ListEmailsByRole(_ context.Context, role model.Role) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, a := range f.byID {
		if a.Role == role && a.Status == model.StatusActive {
			out = append(out, a.Email)
		}
	}
	return out, nil
}

func (f *fakeAccounts) setStatus(id uint64, st model.AccountStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.Status = st
	f.byID[id] = a
	return nil
}

// seed inserts an account directly, bypassing the PENDING default.
func (f *fakeAccounts) seed(a model.Account) model.Account {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a.ID == 0 {
		a.ID = f.nextID
		f.nextID++
	} else if a.ID >= f.nextID {
		f.nextID = a.ID + 1
	}
	a.Email = strings.ToLower(a.Email)
	f.byID[a.ID] = a
	return a
}

type fakeTokens struct {
	mu     sync.Mutex
	now    time.Time
	nextID uint64
	rows   map[uint64]model.Token
	byHash map[string]uint64
}

func newFakeTokens(now time.Time) *fakeTokens {
	return &fakeTokens{now: now, nextID: 1, rows: map[uint64]model.Token{}, byHash: map[string]uint64{}}
}

func (f *fakeTokens) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func (f *fakeTokens) Issue(_ context.Context, userID uint64, kind model.TokenKind, ttl time.Duration) (model.Token, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if kind != model.KindRefresh {
		for id, t := range f.rows {
			if t.UserID == userID && t.Kind == kind && t.RevokedAt == nil && t.ConsumedAt == nil {
				at := f.now
				t.RevokedAt = &at
				f.rows[id] = t
			}
		}
	}
	opaque, err := utils.NewOpaqueToken(ttl)
	if err != nil {
		return model.Token{}, "", err
	}
	t := model.Token{
		ID:        f.nextID,
		UserID:    userID,
		Kind:      kind,
		TokenHash: utils.HashTokenRaw(opaque.Raw),
		IssuedAt:  f.now,
		ExpiresAt: f.now.Add(ttl),
	}
	f.nextID++
	f.rows[t.ID] = t
	f.byHash[t.TokenHash] = t.ID
	return t, opaque.Raw, nil
}

func (f *fakeTokens) Lookup(_ context.Context, raw string) (model.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byHash[utils.HashTokenRaw(raw)]
	if !ok {
		return model.Token{}, repository.ErrTokenNotFound
	}
	t := f.rows[id]
	switch {
	case t.ConsumedAt != nil:
		return t, repository.ErrTokenConsumed
	case t.RevokedAt != nil:
		return t, repository.ErrTokenRevoked
	case t.Expired(f.now):
		return t, repository.ErrTokenExpired
	}
	return t, nil
}

func (f *fakeTokens) Consume(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.rows[id]
	if !ok {
		return repository.ErrTokenNotFound
	}
	if t.ConsumedAt != nil {
		return repository.ErrTokenConsumed
	}
	at := f.now
	t.ConsumedAt = &at
	if t.RevokedAt == nil {
		t.RevokedAt = &at
	}
	f.rows[id] = t
	return nil
}

func (f *fakeTokens) Revoke(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.rows[id]
	if !ok {
		return repository.ErrTokenNotFound
	}
	if t.RevokedAt == nil {
		at := f.now
		t.RevokedAt = &at
		f.rows[id] = t
	}
	return nil
}

func (f *fakeTokens) RevokeAllForUser(_ context.Context, userID uint64, kind model.TokenKind) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, t := range f.rows {
		if t.UserID == userID && t.Kind == kind && t.RevokedAt == nil {
			at := f.now
			t.RevokedAt = &at
			f.rows[id] = t
		}
	}
	return nil
}

func (f *fakeTokens) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, t := range f.rows {
		if t.ExpiresAt.Before(now) {
			delete(f.byHash, t.TokenHash)
			delete(f.rows, id)
			n++
		}
	}
	return n, nil
}

// liveCount reports how many non-revoked, non-consumed rows of a
// kind the user still holds.
func (f *fakeTokens) liveCount(userID uint64, kind model.TokenKind) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.rows {
		if t.UserID == userID && t.Kind == kind && t.Live(f.now) {
			n++
		}
	}
	return n
}

func (f *fakeTokens) rowCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type cartKey struct{ userID, movieID uint64 }

type fakeCarts struct {
	mu    sync.Mutex
	items map[cartKey]struct{}
}

func newFakeCarts() *fakeCarts { return &fakeCarts{items: map[cartKey]struct{}{}} }

func (f *fakeCarts) AddItem(_ context.Context, userID, movieID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := cartKey{userID, movieID}
	if _, ok := f.items[k]; ok {
		return repository.ErrAlreadyInCart
	}
	f.items[k] = struct{}{}
	return nil
}

func (f *fakeCarts) RemoveItem(_ context.Context, userID, movieID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := cartKey{userID, movieID}
	if _, ok := f.items[k]; !ok {
		return repository.ErrNotFound
	}
	delete(f.items, k)
	return nil
}

func (f *fakeCarts) Clear(_ context.Context, userID uint64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k := range f.items {
		if k.userID == userID {
			delete(f.items, k)
			n++
		}
	}
	return n, nil
}

func (f *fakeCarts) ListMovieIDs(_ context.Context, userID uint64) ([]uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []uint64
	for k := range f.items {
		if k.userID == userID {
			out = append(out, k.movieID)
		}
	}
	return out, nil
}

func (f *fakeCarts) AnyCartHolds(_ context.Context, movieID uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k := range f.items {
		if k.movieID == movieID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCarts) holds(userID, movieID uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.items[cartKey{userID, movieID}]
	return ok
}

// fakeLedger couples the purchase set to a cart the way the SQL
// transaction does: Complete either records the purchase and removes
// the cart item, or (when failErr is set) does neither.
type fakeLedger struct {
	mu      sync.Mutex
	carts   *fakeCarts
	rows    map[cartKey]struct{}
	failErr error
}

func newFakeLedger(carts *fakeCarts) *fakeLedger {
	return &fakeLedger{carts: carts, rows: map[cartKey]struct{}{}}
}

func (f *fakeLedger) Exists(_ context.Context, userID, movieID uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rows[cartKey{userID, movieID}]
	return ok, nil
}

func (f *fakeLedger) ExistsAny(_ context.Context, movieID uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k := range f.rows {
		if k.movieID == movieID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLedger) Complete(ctx context.Context, userID, movieID uint64) error {
	f.mu.Lock()
	if f.failErr != nil {
		err := f.failErr
		f.mu.Unlock()
		return err
	}
	k := cartKey{userID, movieID}
	if _, ok := f.rows[k]; ok {
		f.mu.Unlock()
		return repository.ErrAlreadyPurchased
	}
	f.rows[k] = struct{}{}
	f.mu.Unlock()
	_ = f.carts.RemoveItem(ctx, userID, movieID)
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []queue.EmailEvent
}

func (f *fakeNotifier) PublishEmail(_ context.Context, ev queue.EmailEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeNotifier) byKind(kind queue.EmailKind) []queue.EmailEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []queue.EmailEvent
	for _, ev := range f.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func (f *fakeNotifier) last() (queue.EmailEvent, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.events) == 0 {
		return queue.EmailEvent{}, false
	}
	return f.events[len(f.events)-1], true
}

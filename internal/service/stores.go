package service

import (
	"context"
	"time"

	"github.com/iliyamo/online-cinema/internal/model"
	"github.com/iliyamo/online-cinema/internal/queue"
)

// AccountStore is the slice of account persistence the services
// need. *repository.AccountRepo satisfies it.
type AccountStore interface {
	Create(ctx context.Context, email, passwordHash string, role model.Role) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.Account, error)
	GetByID(ctx context.Context, id uint64) (model.Account, error)
	Activate(ctx context.Context, id uint64) error
	UpdatePassword(ctx context.Context, id uint64, passwordHash string) error
	Disable(ctx context.Context, id uint64) error
	ListEmailsByRole(ctx context.Context, role model.Role) ([]string, error)
}

// TokenStore is the durable token mapping described by the token
// repository: issue revokes same-kind predecessors atomically,
// lookup re-checks expiry at point of use. *repository.TokenRepo
// satisfies it.
type TokenStore interface {
	Issue(ctx context.Context, userID uint64, kind model.TokenKind, ttl time.Duration) (model.Token, string, error)
	Lookup(ctx context.Context, raw string) (model.Token, error)
	Consume(ctx context.Context, id uint64) error
	Revoke(ctx context.Context, id uint64) error
	RevokeAllForUser(ctx context.Context, userID uint64, kind model.TokenKind) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// CartStore covers the cart operations the guard and cart flows use.
// *repository.CartRepo satisfies it.
type CartStore interface {
	AddItem(ctx context.Context, userID, movieID uint64) error
	RemoveItem(ctx context.Context, userID, movieID uint64) error
	Clear(ctx context.Context, userID uint64) (int64, error)
	ListMovieIDs(ctx context.Context, userID uint64) ([]uint64, error)
	AnyCartHolds(ctx context.Context, movieID uint64) (bool, error)
}

// PurchaseLedger is the guard's collaborator: the record of
// completed purchases. Complete must atomically remove the matching
// cart item. *repository.PurchaseRepo satisfies it.
type PurchaseLedger interface {
	Exists(ctx context.Context, userID, movieID uint64) (bool, error)
	ExistsAny(ctx context.Context, movieID uint64) (bool, error)
	Complete(ctx context.Context, userID, movieID uint64) error
}

// Notifier hands mail off to the broker. Implementations log their
// own failures; callers fire and forget. *queue.Publisher satisfies
// it.
type Notifier interface {
	PublishEmail(ctx context.Context, event queue.EmailEvent) error
}

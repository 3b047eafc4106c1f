package service

import (
	"context"

	"github.com/iliyamo/online-cinema/internal/model"
	"github.com/iliyamo/online-cinema/internal/queue"
)

// PurchaseGuard enforces the cross-entity invariant tying purchases
// to cart and moderation actions: a movie any account has purchased
// can never be deleted, and the purchasing account can never re-add
// it to a cart. The guard consults the purchase ledger but owns the
// decision logic itself.
type PurchaseGuard struct {
	ledger   PurchaseLedger
	carts    CartStore
	accounts AccountStore
	notifier Notifier
}

func NewPurchaseGuard(ledger PurchaseLedger, carts CartStore, accounts AccountStore, notifier Notifier) *PurchaseGuard {
	return &PurchaseGuard{ledger: ledger, carts: carts, accounts: accounts, notifier: notifier}
}

// CanAddToCart refuses with ErrAlreadyPurchased when a purchase row
// exists for the (account, movie) pair. The refusal is a
// user-visible notification, not a system failure.
func (g *PurchaseGuard) CanAddToCart(ctx context.Context, userID, movieID uint64) error {
	bought, err := g.ledger.Exists(ctx, userID, movieID)
	if err != nil {
		return err
	}
	if bought {
		return ErrAlreadyPurchased
	}
	return nil
}

// CanDeleteMovie refuses with ErrDeleteBlocked when any account has
// purchased the movie. Independently of that outcome, if the movie
// sits in any active cart the guard queues an alert email to every
// moderator — the two checks are separate triggers, neither implies
// the other.
func (g *PurchaseGuard) CanDeleteMovie(ctx context.Context, movieID uint64, movieTitle string) error {
	purchased, err := g.ledger.ExistsAny(ctx, movieID)
	if err != nil {
		return err
	}
	inCart, err := g.carts.AnyCartHolds(ctx, movieID)
	if err != nil {
		return err
	}
	if inCart {
		g.alertModerators(ctx, movieID, movieTitle, purchased)
	}
	if purchased {
		return ErrDeleteBlocked
	}
	return nil
}

// OnPurchaseCompleted records the purchase and removes the cart item
// in one transaction via the ledger: either both effects happen or
// neither, so a purchase row and a cart item for the same pair never
// coexist.
func (g *PurchaseGuard) OnPurchaseCompleted(ctx context.Context, userID, movieID uint64) error {
	return g.ledger.Complete(ctx, userID, movieID)
}

func (g *PurchaseGuard) alertModerators(ctx context.Context, movieID uint64, title string, purchased bool) {
	emails, err := g.accounts.ListEmailsByRole(ctx, model.RoleModerator)
	if err != nil {
		// Alerting is best effort; the guard decision stands either way.
		return
	}
	note := "deletion attempted while movie is in active carts"
	if purchased {
		note = "deletion attempted while movie is purchased and in active carts"
	}
	for _, email := range emails {
		_ = g.notifier.PublishEmail(ctx, queue.EmailEvent{
			Kind:       queue.EmailModerationAlert,
			Email:      email,
			MovieID:    movieID,
			MovieTitle: title,
			Note:       note,
		})
	}
}

package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/online-cinema/internal/model"
	"github.com/iliyamo/online-cinema/internal/queue"
	"github.com/iliyamo/online-cinema/internal/repository"
	"github.com/iliyamo/online-cinema/internal/service"
)

// CartHandler serves the cart endpoints. Every mutation consults the
// purchase guard so the cart/purchase mutual-exclusion invariant is
// enforced at the only place carts change.
type CartHandler struct {
	Carts     *repository.CartRepo
	Movies    *repository.MovieRepo
	Purchases *repository.PurchaseRepo
	Accounts  *repository.AccountRepo
	Guard     *service.PurchaseGuard
	Notifier  service.Notifier
}

func NewCartHandler(carts *repository.CartRepo, movies *repository.MovieRepo, purchases *repository.PurchaseRepo, accounts *repository.AccountRepo, guard *service.PurchaseGuard, notifier service.Notifier) *CartHandler {
	return &CartHandler{Carts: carts, Movies: movies, Purchases: purchases, Accounts: accounts, Guard: guard, Notifier: notifier}
}

type addCartReq struct {
	MovieID uint64 `json:"movie_id"`
}

type purchaseResp struct {
	MovieID     uint64    `json:"movie_id"`
	PurchasedAt time.Time `json:"purchased_at"`
}

func currentUser(c echo.Context) (uint64, bool) {
	uid, ok := c.Get("user_id").(uint64)
	return uid, ok && uid > 0
}

// AddItem: put a movie in the cart unless the account already bought
// it or it is already there.
func (h *CartHandler) AddItem(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req addCartReq
	if err := c.Bind(&req); err != nil || req.MovieID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "movie_id required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	movie, err := h.Movies.GetByID(ctx, req.MovieID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}

	if err := h.Guard.CanAddToCart(ctx, uid, req.MovieID); err != nil {
		if errors.Is(err, service.ErrAlreadyPurchased) {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "you have already bought this movie"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "guard check failed"})
	}
	if err := h.Carts.AddItem(ctx, uid, req.MovieID); err != nil {
		if errors.Is(err, repository.ErrAlreadyInCart) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "movie is already in the cart"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "add to cart failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": movie.Title + " added to cart"})
}

// GetCart: list the account's cart with movie details.
func (h *CartHandler) GetCart(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	lines, err := h.Carts.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list cart failed"})
	}
	if lines == nil {
		lines = []repository.CartLine{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": lines})
}

// RemoveItem: drop one movie from the cart. Moderators get an email
// about the removal so they can spot churn on catalog entries they
// manage.
func (h *CartHandler) RemoveItem(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	movieID, err := strconv.ParseUint(c.Param("movie_id"), 10, 64)
	if err != nil || movieID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	movie, err := h.Movies.GetByID(ctx, movieID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}

	if err := h.Carts.RemoveItem(ctx, uid, movieID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found in cart"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "remove failed"})
	}

	// Best effort: a broker outage must not fail the removal.
	if emails, err := h.Accounts.ListEmailsByRole(ctx, model.RoleModerator); err == nil {
		for _, email := range emails {
			_ = h.Notifier.PublishEmail(ctx, queue.EmailEvent{
				Kind:       queue.EmailModerationAlert,
				Email:      email,
				MovieID:    movie.ID,
				MovieTitle: movie.Title,
				Note:       "removed from a customer cart",
			})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"message": movie.Title + " removed from cart"})
}

// ClearCart: empty the account's cart.
func (h *CartHandler) ClearCart(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	n, err := h.Carts.Clear(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "clear failed"})
	}
	if n == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cart is already empty"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "cart cleared"})
}

// Checkout: complete the purchase of everything in the cart. Each
// item is completed in its own cart-delete + purchase-insert
// transaction, so a failure partway leaves earlier items fully
// purchased and later ones fully in the cart — never a half state.
func (h *CartHandler) Checkout(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	ids, err := h.Carts.ListMovieIDs(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list cart failed"})
	}
	if len(ids) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cart is empty"})
	}

	purchased := make([]uint64, 0, len(ids))
	for _, movieID := range ids {
		if err := h.Guard.OnPurchaseCompleted(ctx, uid, movieID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error":     "checkout failed",
				"purchased": purchased,
			})
		}
		purchased = append(purchased, movieID)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "purchase completed", "purchased": purchased})
}

// ListPurchases: the account's completed purchases.
func (h *CartHandler) ListPurchases(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	purchases, err := h.Purchases.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list purchases failed"})
	}
	out := make([]purchaseResp, 0, len(purchases))
	for _, p := range purchases {
		out = append(out, purchaseResp{MovieID: p.MovieID, PurchasedAt: p.PurchasedAt})
	}
	return c.JSON(http.StatusOK, echo.Map{"purchases": out})
}

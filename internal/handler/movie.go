package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/online-cinema/internal/model"
	"github.com/iliyamo/online-cinema/internal/repository"
	"github.com/iliyamo/online-cinema/internal/service"
)

// MovieHandler serves the catalog endpoints. Reads are public;
// writes require at least the moderator role and deletes go through
// the purchase guard.
type MovieHandler struct {
	Movies *repository.MovieRepo
	Guard  *service.PurchaseGuard
}

func NewMovieHandler(movies *repository.MovieRepo, guard *service.PurchaseGuard) *MovieHandler {
	return &MovieHandler{Movies: movies, Guard: guard}
}

type createMovieReq struct {
	Title      string `json:"title"`
	Year       uint16 `json:"year"`
	PriceCents uint32 `json:"price_cents"`
}

// movieResp carries the JSON shape; the model stays tag-free.
type movieResp struct {
	ID         uint64    `json:"id"`
	Title      string    `json:"title"`
	Year       uint16    `json:"year"`
	PriceCents uint32    `json:"price_cents"`
	CreatedAt  time.Time `json:"created_at"`
}

func toMovieResp(m model.Movie) movieResp {
	return movieResp{ID: m.ID, Title: m.Title, Year: m.Year, PriceCents: m.PriceCents, CreatedAt: m.CreatedAt}
}

// List: the full catalog, newest first.
func (h *MovieHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	movies, err := h.Movies.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list movies failed"})
	}
	out := make([]movieResp, 0, len(movies))
	for _, m := range movies {
		out = append(out, toMovieResp(m))
	}
	return c.JSON(http.StatusOK, echo.Map{"movies": out})
}

// GetByID: one catalog entry.
func (h *MovieHandler) GetByID(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	movie, err := h.Movies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}
	return c.JSON(http.StatusOK, toMovieResp(movie))
}

// Create: add a catalog entry. Moderator and above.
func (h *MovieHandler) Create(c echo.Context) error {
	var req createMovieReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	id, err := h.Movies.Create(ctx, req.Title, req.Year, req.PriceCents)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create movie failed"})
	}
	movie, err := h.Movies.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusCreated, echo.Map{"id": id})
	}
	return c.JSON(http.StatusCreated, toMovieResp(movie))
}

// Delete: remove a catalog entry unless someone already bought it.
// A copy sitting in carts does not block the delete but does alert
// the moderators.
func (h *MovieHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	movie, err := h.Movies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}

	if err := h.Guard.CanDeleteMovie(ctx, movie.ID, movie.Title); err != nil {
		if errors.Is(err, service.ErrDeleteBlocked) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "movie has been purchased and cannot be deleted"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "guard check failed"})
	}

	if err := h.Movies.Delete(ctx, movie.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": movie.Title + " deleted"})
}

package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/concert-ticketing/internal/model"
	"github.com/iliyamo/concert-ticketing/internal/repository"
)

// CatalogEvents is notified after catalog writes commit.
type CatalogEvents interface {
	ConcertCreated(ctx context.Context, c model.Concert) error
	PerformerCreated(ctx context.Context, p model.Performer) error
}

// ConcertHandler serves the concert catalog.
type ConcertHandler struct {
	Concerts *repository.ConcertRepo
	Events   CatalogEvents
	Log      *zap.Logger
}

func NewConcertHandler(concerts *repository.ConcertRepo, events CatalogEvents, log *zap.Logger) *ConcertHandler {
	return &ConcertHandler{Concerts: concerts, Events: events, Log: log}
}

type createConcertReq struct {
	Title        string            `json:"title" validate:"required,max=200"`
	Dates        []time.Time       `json:"dates" validate:"required,min=1"`
	Tariff       map[string]uint32 `json:"tariff" validate:"required,min=1"`
	PerformerIDs []uint64          `json:"performer_ids" validate:"dive,gt=0"`
}

// toConcert validates the request. Dates are stored at second precision in
// UTC, which is also how reservations name them.
func (r createConcertReq) toConcert() (model.Concert, string) {
	c := model.Concert{Title: strings.TrimSpace(r.Title), Tariff: map[model.PriceBand]uint32{}, PerformerIDs: r.PerformerIDs}
	if c.Title == "" {
		return c, "title is required"
	}
	if len(r.Dates) == 0 {
		return c, "at least one date is required"
	}
	for _, d := range r.Dates {
		c.Dates = append(c.Dates, d.UTC().Truncate(time.Second))
	}
	if len(r.Tariff) == 0 {
		return c, "tariff is required"
	}
	for name, cents := range r.Tariff {
		band, ok := model.ParsePriceBand(name)
		if !ok {
			return c, "unknown price band " + name
		}
		if cents == 0 {
			return c, "price for " + name + " must be positive"
		}
		c.Tariff[band] = cents
	}
	return c, ""
}

// Create handles POST /v1/concerts (ADMIN).
func (h *ConcertHandler) Create(c echo.Context) error {
	var req createConcertReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, validationMessage(err))
	}
	concert, problem := req.toConcert()
	if problem != "" {
		return badRequest(c, problem)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	if err := h.Concerts.Create(ctx, &concert); err != nil {
		if errors.Is(err, repository.ErrUnknownPerformer) {
			return badRequest(c, err.Error())
		}
		return internal(c, err)
	}
	// re-read so dates come back deduplicated and sorted
	if stored, found, err := h.Concerts.Get(ctx, concert.ID); err == nil && found {
		concert = stored
	}

	if h.Events != nil {
		if err := h.Events.ConcertCreated(ctx, concert); err != nil {
			h.Log.Warn("publish concert event", zap.Uint64("concert_id", concert.ID), zap.Error(err))
		}
	}
	return c.JSON(http.StatusCreated, concert)
}

// List handles GET /v1/concerts.
func (h *ConcertHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	list, err := h.Concerts.List(ctx)
	if err != nil {
		return internal(c, err)
	}
	if list == nil {
		list = []model.Concert{}
	}
	return c.JSON(http.StatusOK, list)
}

// Get handles GET /v1/concerts/:id.
func (h *ConcertHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid concert id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	concert, found, err := h.Concerts.Get(ctx, id)
	if err != nil {
		return internal(c, err)
	}
	if !found {
		return notFound(c, "concert not found")
	}
	return c.JSON(http.StatusOK, concert)
}

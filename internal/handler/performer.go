package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/concert-ticketing/internal/model"
	"github.com/iliyamo/concert-ticketing/internal/repository"
)

type PerformerHandler struct {
	Performers *repository.PerformerRepo
	Events     CatalogEvents
	Log        *zap.Logger
}

func NewPerformerHandler(performers *repository.PerformerRepo, events CatalogEvents, log *zap.Logger) *PerformerHandler {
	return &PerformerHandler{Performers: performers, Events: events, Log: log}
}

type createPerformerReq struct {
	Name      string `json:"name" validate:"required,max=150"`
	ImageName string `json:"image_name" validate:"max=255"`
	Genre     string `json:"genre" validate:"required"`
}

// Create handles POST /v1/performers (ADMIN).
func (h *PerformerHandler) Create(c echo.Context) error {
	var req createPerformerReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, validationMessage(err))
	}
	p := model.Performer{
		Name:      strings.TrimSpace(req.Name),
		ImageName: strings.TrimSpace(req.ImageName),
		Genre:     model.Genre(req.Genre),
	}
	if p.Name == "" {
		return badRequest(c, "name is required")
	}
	if !model.ValidGenre(p.Genre) {
		return badRequest(c, "unknown genre "+req.Genre)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	if err := h.Performers.Create(ctx, &p); err != nil {
		return internal(c, err)
	}
	if h.Events != nil {
		if err := h.Events.PerformerCreated(ctx, p); err != nil {
			h.Log.Warn("publish performer event", zap.Uint64("performer_id", p.ID), zap.Error(err))
		}
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *PerformerHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	list, err := h.Performers.List(ctx)
	if err != nil {
		return internal(c, err)
	}
	if list == nil {
		list = []model.Performer{}
	}
	return c.JSON(http.StatusOK, list)
}

func (h *PerformerHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid performer id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	p, found, err := h.Performers.Get(ctx, id)
	if err != nil {
		return internal(c, err)
	}
	if !found {
		return notFound(c, "performer not found")
	}
	return c.JSON(http.StatusOK, p)
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
)

// UserHandler serves profiles and subscriptions.
type UserHandler struct {
	users     service.IUserService
	relations service.IRelationService
	presenter *Presenter
	log       *logger.Logger
}

func NewUserHandler(users service.IUserService, relations service.IRelationService, presenter *Presenter, baseLog *logger.Logger) *UserHandler {
	return &UserHandler{
		users:     users,
		relations: relations,
		presenter: presenter,
		log:       baseLog.With("handler", "UserHandler"),
	}
}

func (h *UserHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	actor := middleware.ActorFrom(c)
	params := parsePage(c)

	users, total, err := h.users.List(ctx, params.window())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	results, err := h.presenter.Users(ctx, actor, users)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, buildPage(c, params, total, results))
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	user, err := h.users.Get(ctx, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	body, err := h.presenter.User(ctx, middleware.ActorFrom(c), user)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, body)
}

func (h *UserHandler) Me(c *gin.Context) {
	ctx := c.Request.Context()
	actor := middleware.ActorFrom(c)

	user, err := h.users.Me(ctx, actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, userPublic(user, false))
}

func (h *UserHandler) Subscriptions(c *gin.Context) {
	ctx := c.Request.Context()
	actor := middleware.ActorFrom(c)
	params := parsePage(c)

	authors, total, err := h.relations.Subscriptions(ctx, actor, params.window(), recipesLimit(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	results, err := h.presenter.Authors(ctx, actor, ShapeSummary, authors)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, buildPage(c, params, total, results))
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	actor := middleware.ActorFrom(c)

	author, err := h.relations.Subscribe(ctx, actor, id, recipesLimit(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	body, err := h.presenter.Authors(ctx, actor, ShapeSummary, []*service.SubscribedAuthor{author})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, body[0])
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.relations.Unsubscribe(c.Request.Context(), middleware.ActorFrom(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}


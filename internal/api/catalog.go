package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// CatalogHandler serves tags and ingredients. Lists are not paginated.
type CatalogHandler struct {
	catalog service.ICatalogService
	log     *logger.Logger
}

func NewCatalogHandler(catalog service.ICatalogService, baseLog *logger.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, log: baseLog.With("handler", "CatalogHandler")}
}

func (h *CatalogHandler) ListTags(c *gin.Context) {
	tags, err := h.catalog.ListTags(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	out := make([]types.TagResponse, len(tags))
	for i, tag := range tags {
		out[i] = tagResponse(tag)
	}
	c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) GetTag(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tag, err := h.catalog.GetTag(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, tagResponse(tag))
}

func (h *CatalogHandler) CreateTag(c *gin.Context) {
	var req types.CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	tag, err := h.catalog.CreateTag(c.Request.Context(), middleware.ActorFrom(c), req.Name, req.Color, req.Slug)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, tagResponse(tag))
}

// ListIngredients supports ?name= as a case-insensitive prefix filter.
func (h *CatalogHandler) ListIngredients(c *gin.Context) {
	ingredients, err := h.catalog.SearchIngredients(c.Request.Context(), c.Query("name"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	out := make([]types.IngredientResponse, len(ingredients))
	for i, ing := range ingredients {
		out[i] = ingredientResponse(ing)
	}
	c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) GetIngredient(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ingredient, err := h.catalog.GetIngredient(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, ingredientResponse(ingredient))
}

func (h *CatalogHandler) CreateIngredient(c *gin.Context) {
	var req types.CreateIngredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	ingredient, err := h.catalog.CreateIngredient(c.Request.Context(), middleware.ActorFrom(c), req.Name, req.MeasurementUnit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, ingredientResponse(ingredient))
}

package api

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

const shoppingListFilename = "shopping_list.txt"

type RecipeHandler struct {
	recipes   service.IRecipeService
	relations service.IRelationService
	shopping  service.IShoppingListService
	presenter *Presenter
	log       *logger.Logger
}

func NewRecipeHandler(
	recipes service.IRecipeService,
	relations service.IRelationService,
	shopping service.IShoppingListService,
	presenter *Presenter,
	baseLog *logger.Logger,
) *RecipeHandler {
	return &RecipeHandler{
		recipes:   recipes,
		relations: relations,
		shopping:  shopping,
		presenter: presenter,
		log:       baseLog.With("handler", "RecipeHandler"),
	}
}

// ListRecipes supports ?author=, repeated ?tags=<slug>, ?is_favorited= and
// ?is_in_shopping_cart=, newest first.
func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	ctx := c.Request.Context()
	actor := middleware.ActorFrom(c)
	params := parsePage(c)

	query := service.RecipeQuery{
		TagSlugs:         c.QueryArray("tags"),
		IsFavorited:      queryFlag(c, "is_favorited"),
		IsInShoppingCart: queryFlag(c, "is_in_shopping_cart"),
		Page:             params.window(),
	}
	if raw := c.Query("author"); raw != "" {
		authorID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusOK, buildPage(c, params, 0, []types.RecipeFull{}))
			return
		}
		query.AuthorID = &authorID
	}

	recipes, total, err := h.recipes.List(ctx, actor, query)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	results, err := h.presenter.Recipes(ctx, actor, ShapeFull, recipes)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, buildPage(c, params, total, results.([]types.RecipeFull)))
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	recipe, err := h.recipes.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.respondRecipe(c, http.StatusOK, ShapeFull, recipe)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req types.CreateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	recipe, err := h.recipes.Create(c.Request.Context(), middleware.ActorFrom(c), service.RecipeDraft{
		Name:  req.Name,
		Text:  req.Text,
		Image: req.Image,
		Composition: service.CompositionInput{
			Tags:        req.Tags,
			Ingredients: ingredientInputs(req.Ingredients),
			CookingTime: &req.CookingTime,
		},
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.respondRecipe(c, http.StatusCreated, ShapeFull, recipe)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req types.UpdateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	recipe, err := h.recipes.Update(c.Request.Context(), middleware.ActorFrom(c), id, service.RecipePatch{
		Name:  req.Name,
		Text:  req.Text,
		Image: req.Image,
		Composition: service.CompositionInput{
			Tags:        req.Tags,
			Ingredients: ingredientInputs(req.Ingredients),
			CookingTime: req.CookingTime,
		},
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.respondRecipe(c, http.StatusOK, ShapeFull, recipe)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.recipes.Delete(c.Request.Context(), middleware.ActorFrom(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddToSet returns a handler that puts the recipe into set.
func (h *RecipeHandler) AddToSet(set service.RecipeSet) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		recipe, err := h.relations.AddRecipe(c.Request.Context(), middleware.ActorFrom(c), set, id)
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		h.respondRecipe(c, http.StatusCreated, ShapeShort, recipe)
	}
}

// RemoveFromSet returns a handler that takes the recipe out of set.
func (h *RecipeHandler) RemoveFromSet(set service.RecipeSet) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		if err := h.relations.RemoveRecipe(c.Request.Context(), middleware.ActorFrom(c), set, id); err != nil {
			respondError(c, h.log, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// DownloadShoppingCart sends the merged shopping list as a text attachment.
func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.shopping.Export(c.Request.Context(), middleware.ActorFrom(c), &buf); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+shoppingListFilename+`"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
}

func (h *RecipeHandler) respondRecipe(c *gin.Context, status int, shape ReadShape, recipe *models.Recipe) {
	body, err := h.presenter.Recipe(c.Request.Context(), middleware.ActorFrom(c), shape, recipe)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(status, body)
}

func ingredientInputs(items []types.IngredientAmount) []service.IngredientInput {
	if items == nil {
		return nil
	}
	out := make([]service.IngredientInput, len(items))
	for i, item := range items {
		out[i] = service.IngredientInput{ID: item.ID, Amount: item.Amount}
	}
	return out
}

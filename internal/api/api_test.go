package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/mocks"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/validation"
)

// handlerSet wires every handler to fresh mocks.
type handlerSet struct {
	auth      *mocks.MockAuthService
	users     *mocks.MockUserService
	catalog   *mocks.MockCatalogService
	recipes   *mocks.MockRecipeService
	relations *mocks.MockRelationService
	shopping  *mocks.MockShoppingListService

	authHandler    *AuthHandler
	userHandler    *UserHandler
	catalogHandler *CatalogHandler
	recipeHandler  *RecipeHandler
}

func newHandlerSet() *handlerSet {
	h := &handlerSet{
		auth:      new(mocks.MockAuthService),
		users:     new(mocks.MockUserService),
		catalog:   new(mocks.MockCatalogService),
		recipes:   new(mocks.MockRecipeService),
		relations: new(mocks.MockRelationService),
		shopping:  new(mocks.MockShoppingListService),
	}
	log := logger.Nop()
	presenter := NewPresenter(h.relations)
	h.authHandler = NewAuthHandler(h.auth, log)
	h.userHandler = NewUserHandler(h.users, h.relations, presenter, log)
	h.catalogHandler = NewCatalogHandler(h.catalog, log)
	h.recipeHandler = NewRecipeHandler(h.recipes, h.relations, h.shopping, presenter, log)
	return h
}

// noFlags makes the presenter's caller-relative lookups return nothing.
func (h *handlerSet) noFlags() {
	h.relations.On("Flags", mock.Anything, mock.Anything, mock.Anything).
		Return(service.ViewerFlags{Favorited: map[uuid.UUID]bool{}, InCart: map[uuid.UUID]bool{}}, nil).Maybe()
	h.relations.On("SubscribedTo", mock.Anything, mock.Anything, mock.Anything).
		Return(map[uuid.UUID]bool{}, nil).Maybe()
}

func (h *handlerSet) assertExpectations(t *testing.T) {
	h.auth.AssertExpectations(t)
	h.users.AssertExpectations(t)
	h.catalog.AssertExpectations(t)
	h.recipes.AssertExpectations(t)
	h.relations.AssertExpectations(t)
	h.shopping.AssertExpectations(t)
}

// newEngine returns a test engine whose requests run as actor.
func newEngine(actor service.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	validation.RegisterGin()
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if !actor.Anonymous() {
			middleware.SetActor(c, actor)
		}
		c.Next()
	})
	return r
}

func perform(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}

func errorsOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body middleware.ErrorResponse
	decode(t, w, &body)
	return body.Errors
}

func sampleUser(username string) *models.User {
	return &models.User{
		ID:        uuid.New(),
		Email:     username + "@example.com",
		Username:  username,
		FirstName: "Test",
		LastName:  "User",
	}
}

func sampleRecipe(author *models.User) *models.Recipe {
	flour := &models.Ingredient{ID: uuid.New(), Name: "flour", MeasurementUnit: "g"}
	authorID := author.ID
	return &models.Recipe{
		ID:          uuid.New(),
		AuthorID:    &authorID,
		Author:      author,
		Name:        "Pancakes",
		Text:        "Mix and fry.",
		Image:       "/media/recipes/images/1.png",
		CookingTime: 15,
		Tags:        []models.Tag{{ID: uuid.New(), Name: "Breakfast", Color: "#E26C2D", Slug: "breakfast"}},
		Ingredients: []models.IngredientLine{{IngredientID: flour.ID, Ingredient: flour, Amount: 200}},
	}
}

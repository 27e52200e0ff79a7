package service_test

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/repository"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"gorm.io/gorm"
)

// pngDataURI is a syntactically valid data URI; the store never inspects the bytes.
var pngDataURI = "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("\x89PNG fake image"))

type testEnv struct {
	db        *gorm.DB
	log       *logger.Logger
	images    *memoryImageStore
	recipes   repository.RecipeRepo
	validator *service.CompositionValidator
	recipeSvc *service.RecipeService
	relations *service.RelationService
	shopping  *service.ShoppingListService
	catalog   *service.CatalogService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testhelpers.SetupSQLiteDatabase(t)
	return newTestEnvWithDB(t, db)
}

func newTestEnvWithDB(t *testing.T, db *gorm.DB) *testEnv {
	t.Helper()
	log := logger.Nop()
	users := repository.NewUserRepo(db, log)
	tags := repository.NewTagRepo(db, log)
	ingredients := repository.NewIngredientRepo(db, log)
	recipes := repository.NewRecipeRepo(db, log)
	images := newMemoryImageStore()
	validator := service.NewCompositionValidator(tags, ingredients, log)

	return &testEnv{
		db:        db,
		log:       log,
		images:    images,
		recipes:   recipes,
		validator: validator,
		recipeSvc: service.NewRecipeService(db, recipes, validator, images, service.NewTextSanitizer(), metrics.Nop{}, log),
		relations: service.NewRelationService(
			users, recipes,
			repository.NewFavoriteRepo(db, log),
			repository.NewCartRepo(db, log),
			repository.NewSubscriptionRepo(db, log),
			metrics.Nop{}, log,
		),
		shopping: service.NewShoppingListService(repository.NewShoppingRepo(db, log), metrics.Nop{}, log),
		catalog:  service.NewCatalogService(tags, ingredients, log),
	}
}

// recipeService builds a RecipeService over a different repository, sharing everything else.
func (e *testEnv) recipeService(recipes repository.RecipeRepo) *service.RecipeService {
	return service.NewRecipeService(e.db, recipes, e.validator, e.images, service.NewTextSanitizer(), metrics.Nop{}, e.log)
}

func actorOf(user *models.User) service.Actor {
	return service.Actor{UserID: user.ID, IsStaff: user.IsStaff}
}

type memoryImageStore struct {
	stored  map[string][]byte
	counter int
}

func newMemoryImageStore() *memoryImageStore {
	return &memoryImageStore{stored: map[string][]byte{}}
}

func (m *memoryImageStore) Save(_ context.Context, data []byte, _ string) (string, error) {
	m.counter++
	ref := fmt.Sprintf("/media/recipes/images/%d.png", m.counter)
	m.stored[ref] = data
	return ref, nil
}

func (m *memoryImageStore) Delete(_ context.Context, ref string) error {
	delete(m.stored, ref)
	return nil
}

// failingLinesRepo fails the last write of a recipe transaction.
type failingLinesRepo struct {
	repository.RecipeRepo
}

var errInjected = errors.New("injected failure")

func (f failingLinesRepo) ReplaceLines(context.Context, *gorm.DB, uuid.UUID, []models.IngredientLine) error {
	return errInjected
}

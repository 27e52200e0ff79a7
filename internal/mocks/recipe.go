package mocks

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/repository"
	"github.com/pageza/foodgram/backend/internal/service"
)

// MockRecipeService is a mock implementation of service.IRecipeService
type MockRecipeService struct {
	mock.Mock
}

// Create mocks the Create method
func (m *MockRecipeService) Create(ctx context.Context, actor service.Actor, draft service.RecipeDraft) (*models.Recipe, error) {
	args := m.Called(ctx, actor, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recipe), args.Error(1)
}

// Update mocks the Update method
func (m *MockRecipeService) Update(ctx context.Context, actor service.Actor, id uuid.UUID, patch service.RecipePatch) (*models.Recipe, error) {
	args := m.Called(ctx, actor, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recipe), args.Error(1)
}

// Delete mocks the Delete method
func (m *MockRecipeService) Delete(ctx context.Context, actor service.Actor, id uuid.UUID) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

// Get mocks the Get method
func (m *MockRecipeService) Get(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recipe), args.Error(1)
}

// GetShort mocks the GetShort method
func (m *MockRecipeService) GetShort(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recipe), args.Error(1)
}

// List mocks the List method
func (m *MockRecipeService) List(ctx context.Context, actor service.Actor, q service.RecipeQuery) ([]*models.Recipe, int64, error) {
	args := m.Called(ctx, actor, q)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.Recipe), args.Get(1).(int64), args.Error(2)
}

// MockRelationService is a mock implementation of service.IRelationService
type MockRelationService struct {
	mock.Mock
}

func (m *MockRelationService) AddRecipe(ctx context.Context, actor service.Actor, set service.RecipeSet, recipeID uuid.UUID) (*models.Recipe, error) {
	args := m.Called(ctx, actor, set, recipeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recipe), args.Error(1)
}

func (m *MockRelationService) RemoveRecipe(ctx context.Context, actor service.Actor, set service.RecipeSet, recipeID uuid.UUID) error {
	args := m.Called(ctx, actor, set, recipeID)
	return args.Error(0)
}

func (m *MockRelationService) Subscribe(ctx context.Context, actor service.Actor, authorID uuid.UUID, recipesLimit int) (*service.SubscribedAuthor, error) {
	args := m.Called(ctx, actor, authorID, recipesLimit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SubscribedAuthor), args.Error(1)
}

func (m *MockRelationService) Unsubscribe(ctx context.Context, actor service.Actor, authorID uuid.UUID) error {
	args := m.Called(ctx, actor, authorID)
	return args.Error(0)
}

func (m *MockRelationService) Subscriptions(ctx context.Context, actor service.Actor, page repository.Page, recipesLimit int) ([]*service.SubscribedAuthor, int64, error) {
	args := m.Called(ctx, actor, page, recipesLimit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*service.SubscribedAuthor), args.Get(1).(int64), args.Error(2)
}

func (m *MockRelationService) Flags(ctx context.Context, actor service.Actor, recipeIDs []uuid.UUID) (service.ViewerFlags, error) {
	args := m.Called(ctx, actor, recipeIDs)
	return args.Get(0).(service.ViewerFlags), args.Error(1)
}

func (m *MockRelationService) SubscribedTo(ctx context.Context, actor service.Actor, authorIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	args := m.Called(ctx, actor, authorIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]bool), args.Error(1)
}

// MockShoppingListService is a mock implementation of service.IShoppingListService
type MockShoppingListService struct {
	mock.Mock
}

func (m *MockShoppingListService) Build(ctx context.Context, actor service.Actor) ([]service.ShoppingItem, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.ShoppingItem), args.Error(1)
}

// Export writes the configured body to w when the mock returns no error.
func (m *MockShoppingListService) Export(ctx context.Context, actor service.Actor, w io.Writer) error {
	args := m.Called(ctx, actor, w)
	if err := args.Error(0); err != nil {
		return err
	}
	if body, ok := args.Get(1).(string); ok {
		_, err := io.WriteString(w, body)
		return err
	}
	return nil
}

var (
	_ service.IAuthService         = (*MockAuthService)(nil)
	_ service.IUserService         = (*MockUserService)(nil)
	_ service.ICatalogService      = (*MockCatalogService)(nil)
	_ service.IRecipeService       = (*MockRecipeService)(nil)
	_ service.IRelationService     = (*MockRelationService)(nil)
	_ service.IShoppingListService = (*MockShoppingListService)(nil)
)

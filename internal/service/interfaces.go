package service

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/repository"
	"github.com/pageza/foodgram/backend/internal/types"
)

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Register(ctx context.Context, reg Registration) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	ValidateToken(ctx context.Context, token string) (*types.TokenClaims, error)
	Logout(ctx context.Context, claims *types.TokenClaims) error
	SetPassword(ctx context.Context, claims *types.TokenClaims, currentPassword, newPassword string) error
}

// IUserService defines the interface for user profile reads
type IUserService interface {
	List(ctx context.Context, page repository.Page) ([]*models.User, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	Me(ctx context.Context, actor Actor) (*models.User, error)
}

// ICatalogService defines the interface for tag and ingredient operations
type ICatalogService interface {
	ListTags(ctx context.Context) ([]*models.Tag, error)
	GetTag(ctx context.Context, id uuid.UUID) (*models.Tag, error)
	CreateTag(ctx context.Context, actor Actor, name, color, slug string) (*models.Tag, error)
	SearchIngredients(ctx context.Context, prefix string) ([]*models.Ingredient, error)
	GetIngredient(ctx context.Context, id uuid.UUID) (*models.Ingredient, error)
	CreateIngredient(ctx context.Context, actor Actor, name, unit string) (*models.Ingredient, error)
	ImportIngredients(ctx context.Context, rows []models.Ingredient) (int64, error)
}

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	Create(ctx context.Context, actor Actor, draft RecipeDraft) (*models.Recipe, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, patch RecipePatch) (*models.Recipe, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.Recipe, error)
	GetShort(ctx context.Context, id uuid.UUID) (*models.Recipe, error)
	List(ctx context.Context, actor Actor, q RecipeQuery) ([]*models.Recipe, int64, error)
}

// IRelationService defines the interface for favorites, cart and subscriptions
type IRelationService interface {
	AddRecipe(ctx context.Context, actor Actor, set RecipeSet, recipeID uuid.UUID) (*models.Recipe, error)
	RemoveRecipe(ctx context.Context, actor Actor, set RecipeSet, recipeID uuid.UUID) error
	Subscribe(ctx context.Context, actor Actor, authorID uuid.UUID, recipesLimit int) (*SubscribedAuthor, error)
	Unsubscribe(ctx context.Context, actor Actor, authorID uuid.UUID) error
	Subscriptions(ctx context.Context, actor Actor, page repository.Page, recipesLimit int) ([]*SubscribedAuthor, int64, error)
	Flags(ctx context.Context, actor Actor, recipeIDs []uuid.UUID) (ViewerFlags, error)
	SubscribedTo(ctx context.Context, actor Actor, authorIDs []uuid.UUID) (map[uuid.UUID]bool, error)
}

// IShoppingListService defines the interface for the shopping list
type IShoppingListService interface {
	Build(ctx context.Context, actor Actor) ([]ShoppingItem, error)
	Export(ctx context.Context, actor Actor, w io.Writer) error
}

var (
	_ IAuthService         = (*AuthService)(nil)
	_ IUserService         = (*UserService)(nil)
	_ ICatalogService      = (*CatalogService)(nil)
	_ IRecipeService       = (*RecipeService)(nil)
	_ IRelationService     = (*RelationService)(nil)
	_ IShoppingListService = (*ShoppingListService)(nil)
)

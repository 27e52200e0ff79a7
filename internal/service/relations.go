package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/repository"
)

// RecipeSet names a (user, recipe) membership relation.
type RecipeSet string

const (
	Favorites    RecipeSet = "favorite"
	ShoppingCart RecipeSet = "shopping_cart"
)

// SubscribedAuthor is a followed author with a preview of their recipes.
type SubscribedAuthor struct {
	Author       *models.User
	Recipes      []*models.Recipe
	RecipesCount int64
}

// ViewerFlags holds the caller-relative booleans of a batch of recipes.
type ViewerFlags struct {
	Favorited map[uuid.UUID]bool
	InCart    map[uuid.UUID]bool
}

// RelationService toggles favorites, cart entries and subscriptions.
// Each add checks for an existing pair first for a clean error, and the unique
// index on the pair catches whatever slips past the check under concurrency.
type RelationService struct {
	users         repository.UserRepo
	recipes       repository.RecipeRepo
	sets          map[RecipeSet]repository.RecipeSetRepo
	subscriptions repository.SubscriptionRepo
	metrics       metrics.MetricsCollector
	log           *logger.Logger
}

func NewRelationService(
	users repository.UserRepo,
	recipes repository.RecipeRepo,
	favorites repository.RecipeSetRepo,
	cart repository.RecipeSetRepo,
	subscriptions repository.SubscriptionRepo,
	collector metrics.MetricsCollector,
	baseLog *logger.Logger,
) *RelationService {
	return &RelationService{
		users:   users,
		recipes: recipes,
		sets: map[RecipeSet]repository.RecipeSetRepo{
			Favorites:    favorites,
			ShoppingCart: cart,
		},
		subscriptions: subscriptions,
		metrics:       collector,
		log:           baseLog.With("service", "RelationService"),
	}
}

// AddRecipe puts the recipe into the actor's set and returns it.
func (s *RelationService) AddRecipe(ctx context.Context, actor Actor, set RecipeSet, recipeID uuid.UUID) (*models.Recipe, error) {
	if actor.Anonymous() {
		return nil, ErrUnauthenticated
	}
	repo, err := s.setRepo(set)
	if err != nil {
		return nil, err
	}

	recipe, err := s.recipes.GetHeader(ctx, nil, recipeID)
	if err != nil {
		return nil, translateStorageError(err, ErrIntegrity)
	}

	exists, err := repo.Exists(ctx, nil, actor.UserID, recipeID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, Detail(ErrAlreadyExists, "Рецепт уже добавлен!")
	}

	if err := repo.Add(ctx, nil, actor.UserID, recipeID); err != nil {
		err = translateStorageError(err, ErrAlreadyExists)
		if errors.Is(err, ErrAlreadyExists) {
			s.log.Info("Concurrent duplicate add rejected by storage", "set", set, "recipe_id", recipeID)
			return nil, Detail(ErrAlreadyExists, "Рецепт уже добавлен!")
		}
		return nil, err
	}

	s.metrics.RecordRelationChange(string(set), "add")
	return recipe, nil
}

func (s *RelationService) RemoveRecipe(ctx context.Context, actor Actor, set RecipeSet, recipeID uuid.UUID) error {
	if actor.Anonymous() {
		return ErrUnauthenticated
	}
	repo, err := s.setRepo(set)
	if err != nil {
		return err
	}
	if _, err := s.recipes.GetHeader(ctx, nil, recipeID); err != nil {
		return translateStorageError(err, ErrIntegrity)
	}

	removed, err := repo.Remove(ctx, nil, actor.UserID, recipeID)
	if err != nil {
		return err
	}
	if !removed {
		return Detail(ErrNotFound, "Рецепта нет в списке")
	}

	s.metrics.RecordRelationChange(string(set), "remove")
	return nil
}

func (s *RelationService) setRepo(set RecipeSet) (repository.RecipeSetRepo, error) {
	repo, ok := s.sets[set]
	if !ok {
		return nil, Detail(ErrNotFound, "Неизвестный список %q", set)
	}
	return repo, nil
}

// Subscribe makes the actor follow authorID. Following yourself is always rejected.
func (s *RelationService) Subscribe(ctx context.Context, actor Actor, authorID uuid.UUID, recipesLimit int) (*SubscribedAuthor, error) {
	if actor.Anonymous() {
		return nil, ErrUnauthenticated
	}

	author, err := s.users.GetByID(ctx, nil, authorID)
	if err != nil {
		return nil, translateStorageError(err, ErrIntegrity)
	}
	if author.ID == actor.UserID {
		return nil, Detail(ErrSelfSubscription, "Нельзя подписаться на самого себя!")
	}

	exists, err := s.subscriptions.Exists(ctx, nil, actor.UserID, authorID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, Detail(ErrAlreadyExists, "На этого пользователя Вы уже подписаны!")
	}

	if err := s.subscriptions.Add(ctx, nil, actor.UserID, authorID); err != nil {
		err = translateStorageError(err, ErrAlreadyExists)
		if errors.Is(err, ErrAlreadyExists) {
			return nil, Detail(ErrAlreadyExists, "На этого пользователя Вы уже подписаны!")
		}
		return nil, err
	}

	s.metrics.RecordRelationChange("subscription", "add")
	digests, err := s.digest(ctx, []*models.User{author}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return digests[0], nil
}

func (s *RelationService) Unsubscribe(ctx context.Context, actor Actor, authorID uuid.UUID) error {
	if actor.Anonymous() {
		return ErrUnauthenticated
	}
	if _, err := s.users.GetByID(ctx, nil, authorID); err != nil {
		return translateStorageError(err, ErrIntegrity)
	}

	removed, err := s.subscriptions.Remove(ctx, nil, actor.UserID, authorID)
	if err != nil {
		return err
	}
	if !removed {
		return Detail(ErrNotFound, "Вы не подписаны на этого пользователя")
	}

	s.metrics.RecordRelationChange("subscription", "remove")
	return nil
}

// Subscriptions pages through the authors the actor follows.
func (s *RelationService) Subscriptions(ctx context.Context, actor Actor, page repository.Page, recipesLimit int) ([]*SubscribedAuthor, int64, error) {
	if actor.Anonymous() {
		return nil, 0, ErrUnauthenticated
	}
	authors, total, err := s.subscriptions.ListAuthors(ctx, nil, actor.UserID, page)
	if err != nil {
		return nil, 0, err
	}
	digests, err := s.digest(ctx, authors, recipesLimit)
	if err != nil {
		return nil, 0, err
	}
	return digests, total, nil
}

func (s *RelationService) digest(ctx context.Context, authors []*models.User, recipesLimit int) ([]*SubscribedAuthor, error) {
	ids := make([]uuid.UUID, len(authors))
	for i, a := range authors {
		ids[i] = a.ID
	}
	counts, err := s.recipes.CountByAuthors(ctx, nil, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*SubscribedAuthor, len(authors))
	for i, a := range authors {
		recipes, err := s.recipes.ListByAuthor(ctx, nil, a.ID, recipesLimit)
		if err != nil {
			return nil, err
		}
		out[i] = &SubscribedAuthor{Author: a, Recipes: recipes, RecipesCount: counts[a.ID]}
	}
	return out, nil
}

// Flags computes is_favorited and is_in_shopping_cart for a batch of recipes.
// Anonymous callers get empty maps.
func (s *RelationService) Flags(ctx context.Context, actor Actor, recipeIDs []uuid.UUID) (ViewerFlags, error) {
	flags := ViewerFlags{Favorited: map[uuid.UUID]bool{}, InCart: map[uuid.UUID]bool{}}
	if actor.Anonymous() || len(recipeIDs) == 0 {
		return flags, nil
	}
	var err error
	if flags.Favorited, err = s.sets[Favorites].Among(ctx, nil, actor.UserID, recipeIDs); err != nil {
		return flags, err
	}
	if flags.InCart, err = s.sets[ShoppingCart].Among(ctx, nil, actor.UserID, recipeIDs); err != nil {
		return flags, err
	}
	return flags, nil
}

// SubscribedTo reports which of authorIDs the actor follows.
func (s *RelationService) SubscribedTo(ctx context.Context, actor Actor, authorIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	if actor.Anonymous() || len(authorIDs) == 0 {
		return map[uuid.UUID]bool{}, nil
	}
	return s.subscriptions.Among(ctx, nil, actor.UserID, authorIDs)
}

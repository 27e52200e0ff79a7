package api

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// ReadShape selects how an entity is rendered.
type ReadShape int

const (
	// ShapeFull is the complete recipe with composition and caller flags.
	ShapeFull ReadShape = iota
	// ShapeShort is id, name, image and cooking time.
	ShapeShort
	// ShapeSummary is an author profile with a preview of their recipes.
	ShapeSummary
)

func (s ReadShape) String() string {
	switch s {
	case ShapeFull:
		return "full"
	case ShapeShort:
		return "short"
	case ShapeSummary:
		return "summary"
	}
	return fmt.Sprintf("ReadShape(%d)", int(s))
}

// Presenter builds response bodies. Caller-relative booleans are looked up in
// one batch per response.
type Presenter struct {
	relations service.IRelationService
}

func NewPresenter(relations service.IRelationService) *Presenter {
	return &Presenter{relations: relations}
}

// Recipes renders a list of recipes in the requested shape.
func (p *Presenter) Recipes(ctx context.Context, actor service.Actor, shape ReadShape, recipes []*models.Recipe) (interface{}, error) {
	switch shape {
	case ShapeFull:
		return p.fullRecipes(ctx, actor, recipes)
	case ShapeShort:
		return shortRecipes(recipes), nil
	}
	return nil, fmt.Errorf("recipes cannot be rendered as %s", shape)
}

// Recipe renders a single recipe in the requested shape.
func (p *Presenter) Recipe(ctx context.Context, actor service.Actor, shape ReadShape, recipe *models.Recipe) (interface{}, error) {
	switch shape {
	case ShapeFull:
		full, err := p.fullRecipes(ctx, actor, []*models.Recipe{recipe})
		if err != nil {
			return nil, err
		}
		return full[0], nil
	case ShapeShort:
		return shortRecipe(recipe), nil
	}
	return nil, fmt.Errorf("a recipe cannot be rendered as %s", shape)
}

// Authors renders followed authors; only ShapeSummary applies.
func (p *Presenter) Authors(ctx context.Context, actor service.Actor, shape ReadShape, authors []*service.SubscribedAuthor) ([]types.AuthorSummary, error) {
	if shape != ShapeSummary {
		return nil, fmt.Errorf("authors cannot be rendered as %s", shape)
	}
	ids := make([]uuid.UUID, len(authors))
	for i, a := range authors {
		ids[i] = a.Author.ID
	}
	subscribed, err := p.relations.SubscribedTo(ctx, actor, ids)
	if err != nil {
		return nil, err
	}

	out := make([]types.AuthorSummary, len(authors))
	for i, a := range authors {
		out[i] = types.AuthorSummary{
			UserPublic:   userPublic(a.Author, subscribed[a.Author.ID] && a.Author.ID != actor.UserID),
			Recipes:      shortRecipes(a.Recipes),
			RecipesCount: a.RecipesCount,
		}
	}
	return out, nil
}

// Users renders public profiles with is_subscribed computed for the caller.
func (p *Presenter) Users(ctx context.Context, actor service.Actor, users []*models.User) ([]types.UserPublic, error) {
	ids := make([]uuid.UUID, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	subscribed, err := p.relations.SubscribedTo(ctx, actor, ids)
	if err != nil {
		return nil, err
	}
	out := make([]types.UserPublic, len(users))
	for i, u := range users {
		out[i] = userPublic(u, subscribed[u.ID] && u.ID != actor.UserID)
	}
	return out, nil
}

func (p *Presenter) User(ctx context.Context, actor service.Actor, user *models.User) (types.UserPublic, error) {
	users, err := p.Users(ctx, actor, []*models.User{user})
	if err != nil {
		return types.UserPublic{}, err
	}
	return users[0], nil
}

func (p *Presenter) fullRecipes(ctx context.Context, actor service.Actor, recipes []*models.Recipe) ([]types.RecipeFull, error) {
	recipeIDs := make([]uuid.UUID, len(recipes))
	var authorIDs []uuid.UUID
	for i, r := range recipes {
		recipeIDs[i] = r.ID
		if r.Author != nil {
			authorIDs = append(authorIDs, r.Author.ID)
		}
	}
	flags, err := p.relations.Flags(ctx, actor, recipeIDs)
	if err != nil {
		return nil, err
	}
	subscribed, err := p.relations.SubscribedTo(ctx, actor, authorIDs)
	if err != nil {
		return nil, err
	}

	out := make([]types.RecipeFull, len(recipes))
	for i, r := range recipes {
		full := types.RecipeFull{
			ID:               r.ID,
			Tags:             tagResponses(r.Tags),
			Ingredients:      make([]types.RecipeIngredientResponse, 0, len(r.Ingredients)),
			IsFavorited:      flags.Favorited[r.ID],
			IsInShoppingCart: flags.InCart[r.ID],
			Name:             r.Name,
			Image:            r.Image,
			Text:             r.Text,
			CookingTime:      r.CookingTime,
		}
		if r.Author != nil {
			author := userPublic(r.Author, subscribed[r.Author.ID] && r.Author.ID != actor.UserID)
			full.Author = &author
		}
		for _, line := range r.Ingredients {
			if line.Ingredient == nil {
				continue
			}
			full.Ingredients = append(full.Ingredients, types.RecipeIngredientResponse{
				ID:              line.Ingredient.ID,
				Name:            line.Ingredient.Name,
				MeasurementUnit: line.Ingredient.MeasurementUnit,
				Amount:          line.Amount,
			})
		}
		out[i] = full
	}
	return out, nil
}

func shortRecipe(r *models.Recipe) types.RecipeShort {
	return types.RecipeShort{ID: r.ID, Name: r.Name, Image: r.Image, CookingTime: r.CookingTime}
}

func shortRecipes(recipes []*models.Recipe) []types.RecipeShort {
	out := make([]types.RecipeShort, len(recipes))
	for i, r := range recipes {
		out[i] = shortRecipe(r)
	}
	return out
}

func userPublic(u *models.User, subscribed bool) types.UserPublic {
	return types.UserPublic{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}

func tagResponse(t *models.Tag) types.TagResponse {
	return types.TagResponse{ID: t.ID, Name: t.Name, Color: t.Color, Slug: t.Slug}
}

func tagResponses(tags []models.Tag) []types.TagResponse {
	out := make([]types.TagResponse, len(tags))
	for i := range tags {
		out[i] = tagResponse(&tags[i])
	}
	return out
}

func ingredientResponse(i *models.Ingredient) types.IngredientResponse {
	return types.IngredientResponse{ID: i.ID, Name: i.Name, MeasurementUnit: i.MeasurementUnit}
}

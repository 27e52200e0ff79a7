package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/repository"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func boolPtr(v bool) *bool { return &v }

func newDraft(cat catalogFixture) service.RecipeDraft {
	return service.RecipeDraft{
		Name:  "Блины",
		Text:  "Смешать и жарить",
		Image: pngDataURI,
		Composition: service.CompositionInput{
			Tags: []uuid.UUID{cat.breakfast.ID},
			Ingredients: []service.IngredientInput{
				{ID: cat.flour.ID, Amount: 200},
				{ID: cat.eggs.ID, Amount: 2},
			},
			CookingTime: intPtr(30),
		},
	}
}

func countRows(t *testing.T, env *testEnv, model interface{}, recipeID uuid.UUID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, env.db.Model(model).Where("recipe_id = ?", recipeID).Count(&n).Error)
	return n
}

func TestCreateRecipeRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalog(t, env)
	author := testhelpers.CreateUser(t, env.db, "author")

	created, err := env.recipeSvc.Create(context.Background(), actorOf(author), newDraft(cat))
	require.NoError(t, err)

	got, err := env.recipeSvc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Блины", got.Name)
	assert.Equal(t, 30, got.CookingTime)
	require.NotNil(t, got.AuthorID)
	assert.Equal(t, author.ID, *got.AuthorID)
	require.NotNil(t, got.Author)
	assert.Equal(t, author.Username, got.Author.Username)

	require.Len(t, got.Tags, 1)
	assert.Equal(t, "breakfast", got.Tags[0].Slug)

	require.Len(t, got.Ingredients, 2)
	assert.Equal(t, "flour", got.Ingredients[0].Ingredient.Name)
	assert.Equal(t, 200, got.Ingredients[0].Amount)
	assert.Equal(t, "eggs", got.Ingredients[1].Ingredient.Name)
	assert.Equal(t, 2, got.Ingredients[1].Amount)

	assert.Contains(t, env.images.stored, got.Image)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestCreateRecipeStripsMarkup(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalog(t, env)
	author := testhelpers.CreateUser(t, env.db, "author")

	draft := newDraft(cat)
	draft.Name = "<b>Блины</b> &amp; чай"
	draft.Text = "<script>alert(1)</script>Жарить"

	created, err := env.recipeSvc.Create(context.Background(), actorOf(author), draft)
	require.NoError(t, err)
	assert.Equal(t, "Блины & чай", created.Name)
	assert.Equal(t, "Жарить", created.Text)
}

func TestCreateRecipeRequiresAuthentication(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalog(t, env)

	_, err := env.recipeSvc.Create(context.Background(), service.Actor{}, newDraft(cat))
	assert.ErrorIs(t, err, service.ErrUnauthenticated)
	assert.Empty(t, env.images.stored)
}

func TestCreateRecipeInvalidCompositionWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalog(t, env)
	author := testhelpers.CreateUser(t, env.db, "author")

	draft := newDraft(cat)
	draft.Composition.Ingredients = append(draft.Composition.Ingredients, service.IngredientInput{ID: uuid.New(), Amount: 1})

	_, err := env.recipeSvc.Create(context.Background(), actorOf(author), draft)
	assert.ErrorIs(t, err, service.ErrUnknownIngredient)

	var recipes int64
	require.NoError(t, env.db.Model(&models.Recipe{}).Count(&recipes).Error)
	assert.Zero(t, recipes)
	assert.Empty(t, env.images.stored)
}

func TestCreateRecipeRejectsBadImage(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalog(t, env)
	author := testhelpers.CreateUser(t, env.db, "author")

	for _, image := range []string{"", "not a data uri", "data:text/plain;base64,aGVsbG8=", "data:image/png;base64,%%%"} {
		draft := newDraft(cat)
		draft.Image = image
		_, err := env.recipeSvc.Create(context.Background(), actorOf(author), draft)
		assert.ErrorIs(t, err, service.ErrInvalidImage, "image %q", image)
	}
}

func TestCreateRecipeTransactionRollsBack(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalog(t, env)
	author := testhelpers.CreateUser(t, env.db, "author")
	svc := env.recipeService(failingLinesRepo{RecipeRepo: env.recipes})

	_, err := svc.Create(context.Background(), actorOf(author), newDraft(cat))
	require.ErrorIs(t, err, errInjected)

	var recipes, links int64
	require.NoError(t, env.db.Model(&models.Recipe{}).Count(&recipes).Error)
	require.NoError(t, env.db.Model(&models.RecipeTag{}).Count(&links).Error)
	assert.Zero(t, recipes, "recipe row must not survive a failed transaction")
	assert.Zero(t, links, "tag links must not survive a failed transaction")
	assert.Empty(t, env.images.stored, "uploaded image is discarded")
}

func TestUpdateRecipeReplacesComposition(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalog(t, env)
	author := testhelpers.CreateUser(t, env.db, "author")
	ctx := context.Background()

	created, err := env.recipeSvc.Create(ctx, actorOf(author), newDraft(cat))
	require.NoError(t, err)

	updated, err := env.recipeSvc.Update(ctx, actorOf(author), created.ID, service.RecipePatch{
		Composition: service.CompositionInput{
			Tags:        []uuid.UUID{cat.dinner.ID},
			Ingredients: []service.IngredientInput{{ID: cat.sugar.ID, Amount: 15}},
			CookingTime: intPtr(5),
		},
	})
	require.NoError(t, err)

	require.Len(t, updated.Tags, 1)
	assert.Equal(t, "dinner", updated.Tags[0].Slug)
	require.Len(t, updated.Ingredients, 1)
	assert.Equal(t, "sugar", updated.Ingredients[0].Ingredient.Name)
	assert.Equal(t, 15, updated.Ingredients[0].Amount)
	assert.Equal(t, 5, updated.CookingTime)
	assert.Equal(t, "Блины", updated.Name)

	assert.Equal(t, int64(1), countRows(t, env, &models.IngredientLine{}, created.ID), "no residue of the old lines")
	assert.Equal(t, int64(1), countRows(t, env, &models.RecipeTag{}, created.ID), "no residue of the old tags")
	assert.Equal(t, created.CreatedAt.Unix(), updated.CreatedAt.Unix(), "created_at is immutable")
}

func TestUpdateRecipePartialKeepsComposition(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalog(t, env)
	author := testhelpers.CreateUser(t, env.db, "author")
	ctx := context.Background()

	created, err := env.recipeSvc.Create(ctx, actorOf(author), newDraft(cat))
	require.NoError(t, err)

	updated, err := env.recipeSvc.Update(ctx, actorOf(author), created.ID, service.RecipePatch{Name: strPtr("Оладьи")})
	require.NoError(t, err)

	assert.Equal(t, "Оладьи", updated.Name)
	assert.Equal(t, created.Text, updated.Text)
	assert.Equal(t, created.Image, updated.Image)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, cat.breakfast.ID, updated.Tags[0].ID)
	require.Len(t, updated.Ingredients, 2)
	assert.Equal(t, cat.flour.ID, updated.Ingredients[0].IngredientID)
}

func TestUpdateRecipeReplacesImage(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalog(t, env)
	author := testhelpers.CreateUser(t, env.db, "author")
	ctx := context.Background()

	created, err := env.recipeSvc.Create(ctx, actorOf(author), newDraft(cat))
	require.NoError(t, err)
	oldImage := created.Image

	unchanged, err := env.recipeSvc.Update(ctx, actorOf(author), created.ID, service.RecipePatch{Image: strPtr(oldImage)})
	require.NoError(t, err)
	assert.Equal(t, oldImage, unchanged.Image, "resending the stored reference keeps the image")

	updated, err := env.recipeSvc.Update(ctx, actorOf(author), created.ID, service.RecipePatch{Image: strPtr(pngDataURI)})
	require.NoError(t, err)
	assert.NotEqual(t, oldImage, updated.Image)
	assert.Contains(t, env.images.stored, updated.Image)
	assert.NotContains(t, env.images.stored, oldImage, "replaced image is discarded")
}

func TestUpdateRecipeAuthorization(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalog(t, env)
	author := testhelpers.CreateUser(t, env.db, "author")
	stranger := testhelpers.CreateUser(t, env.db, "stranger")
	ctx := context.Background()

	created, err := env.recipeSvc.Create(ctx, actorOf(author), newDraft(cat))
	require.NoError(t, err)

	_, err = env.recipeSvc.Update(ctx, actorOf(stranger), created.ID, service.RecipePatch{
		Name:        strPtr("Захвачено"),
		Composition: service.CompositionInput{Tags: []uuid.UUID{cat.dinner.ID}},
	})
	assert.ErrorIs(t, err, service.ErrForbidden)

	_, err = env.recipeSvc.Update(ctx, service.Actor{}, created.ID, service.RecipePatch{Name: strPtr("Аноним")})
	assert.ErrorIs(t, err, service.ErrUnauthenticated)

	got, err := env.recipeSvc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Блины", got.Name, "rejected update has no side effects")
	assert.Equal(t, cat.breakfast.ID, got.Tags[0].ID)

	staff := service.Actor{UserID: stranger.ID, IsStaff: true}
	updated, err := env.recipeSvc.Update(ctx, staff, created.ID, service.RecipePatch{Name: strPtr("Модерация")})
	require.NoError(t, err)
	assert.Equal(t, "Модерация", updated.Name)
}

func TestUpdateRecipeTransactionRollsBack(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalog(t, env)
	author := testhelpers.CreateUser(t, env.db, "author")
	ctx := context.Background()

	created, err := env.recipeSvc.Create(ctx, actorOf(author), newDraft(cat))
	require.NoError(t, err)

	svc := env.recipeService(failingLinesRepo{RecipeRepo: env.recipes})
	_, err = svc.Update(ctx, actorOf(author), created.ID, service.RecipePatch{
		Name: strPtr("Неудача"),
		Composition: service.CompositionInput{
			Tags:        []uuid.UUID{cat.dinner.ID},
			Ingredients: []service.IngredientInput{{ID: cat.sugar.ID, Amount: 1}},
		},
	})
	require.ErrorIs(t, err, errInjected)

	got, err := env.recipeSvc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Блины", got.Name)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, cat.breakfast.ID, got.Tags[0].ID, "tag replacement rolled back")
	assert.Len(t, got.Ingredients, 2)
}

func TestUpdateMissingRecipe(t *testing.T) {
	env := newTestEnv(t)
	author := testhelpers.CreateUser(t, env.db, "author")

	_, err := env.recipeSvc.Update(context.Background(), actorOf(author), uuid.New(), service.RecipePatch{Name: strPtr("x")})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDeleteRecipeCascades(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalog(t, env)
	author := testhelpers.CreateUser(t, env.db, "author")
	reader := testhelpers.CreateUser(t, env.db, "reader")
	ctx := context.Background()

	created, err := env.recipeSvc.Create(ctx, actorOf(author), newDraft(cat))
	require.NoError(t, err)
	_, err = env.relations.AddRecipe(ctx, actorOf(reader), service.Favorites, created.ID)
	require.NoError(t, err)
	_, err = env.relations.AddRecipe(ctx, actorOf(reader), service.ShoppingCart, created.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, env.recipeSvc.Delete(ctx, actorOf(reader), created.ID), service.ErrForbidden)
	require.NoError(t, env.recipeSvc.Delete(ctx, actorOf(author), created.ID))

	_, err = env.recipeSvc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
	for _, model := range []interface{}{&models.IngredientLine{}, &models.RecipeTag{}, &models.Favorite{}, &models.CartEntry{}} {
		assert.Zero(t, countRows(t, env, model, created.ID))
	}
	assert.Empty(t, env.images.stored)
}

func TestListRecipesFilters(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalog(t, env)
	alice := testhelpers.CreateUser(t, env.db, "alice")
	bob := testhelpers.CreateUser(t, env.db, "bob")
	ctx := context.Background()

	pancakes := testhelpers.CreateRecipe(t, env.db, alice, "pancakes", []*models.Tag{cat.breakfast}, []testhelpers.LineSpec{{Ingredient: cat.flour, Amount: 100}})
	testhelpers.CreateRecipe(t, env.db, bob, "stew", []*models.Tag{cat.dinner}, []testhelpers.LineSpec{{Ingredient: cat.eggs, Amount: 1}})
	_, err := env.relations.AddRecipe(ctx, actorOf(bob), service.Favorites, pancakes.ID)
	require.NoError(t, err)

	all, total, err := env.recipeSvc.List(ctx, service.Actor{}, service.RecipeQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)

	byTag, _, err := env.recipeSvc.List(ctx, service.Actor{}, service.RecipeQuery{TagSlugs: []string{"breakfast"}})
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, pancakes.ID, byTag[0].ID)

	byAuthor, _, err := env.recipeSvc.List(ctx, service.Actor{}, service.RecipeQuery{AuthorID: &bob.ID})
	require.NoError(t, err)
	require.Len(t, byAuthor, 1)
	assert.Equal(t, "stew", byAuthor[0].Name)

	favorites, total, err := env.recipeSvc.List(ctx, actorOf(bob), service.RecipeQuery{IsFavorited: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, pancakes.ID, favorites[0].ID)

	notFavorites, total, err := env.recipeSvc.List(ctx, actorOf(bob), service.RecipeQuery{IsFavorited: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, notFavorites, 1)
	assert.Equal(t, "stew", notFavorites[0].Name)

	_, total, err = env.recipeSvc.List(ctx, service.Actor{}, service.RecipeQuery{IsFavorited: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total, "favorites filter is ignored for anonymous callers")

	_, total, err = env.recipeSvc.List(ctx, service.Actor{}, service.RecipeQuery{IsFavorited: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	paged, total, err := env.recipeSvc.List(ctx, service.Actor{}, service.RecipeQuery{Page: repository.Page{Offset: 1, Limit: 1}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, paged, 1)
}

func TestListRecipesCartFilter(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalog(t, env)
	alice := testhelpers.CreateUser(t, env.db, "alice")
	ctx := context.Background()

	pancakes := testhelpers.CreateRecipe(t, env.db, alice, "pancakes", []*models.Tag{cat.breakfast}, []testhelpers.LineSpec{{Ingredient: cat.flour, Amount: 100}})
	omelette := testhelpers.CreateRecipe(t, env.db, alice, "omelette", []*models.Tag{cat.breakfast}, []testhelpers.LineSpec{{Ingredient: cat.eggs, Amount: 3}})
	_, err := env.relations.AddRecipe(ctx, actorOf(alice), service.ShoppingCart, omelette.ID)
	require.NoError(t, err)

	inCart, total, err := env.recipeSvc.List(ctx, actorOf(alice), service.RecipeQuery{IsInShoppingCart: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, omelette.ID, inCart[0].ID)

	notInCart, total, err := env.recipeSvc.List(ctx, actorOf(alice), service.RecipeQuery{IsInShoppingCart: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, pancakes.ID, notInCart[0].ID)

	both, total, err := env.recipeSvc.List(ctx, actorOf(alice), service.RecipeQuery{
		IsFavorited:      boolPtr(false),
		IsInShoppingCart: boolPtr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, pancakes.ID, both[0].ID)
}

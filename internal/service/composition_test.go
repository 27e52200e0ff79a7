package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

type catalogFixture struct {
	breakfast *models.Tag
	dinner    *models.Tag
	flour     *models.Ingredient
	sugar     *models.Ingredient
	eggs      *models.Ingredient
}

func seedCatalog(t *testing.T, env *testEnv) catalogFixture {
	t.Helper()
	return catalogFixture{
		breakfast: testhelpers.CreateTag(t, env.db, "Завтрак", "#E26C2D", "breakfast"),
		dinner:    testhelpers.CreateTag(t, env.db, "Ужин", "#8775D2", "dinner"),
		flour:     testhelpers.CreateIngredient(t, env.db, "flour", "g"),
		sugar:     testhelpers.CreateIngredient(t, env.db, "sugar", "g"),
		eggs:      testhelpers.CreateIngredient(t, env.db, "eggs", "pcs"),
	}
}

func TestCompositionValidatorAcceptsValidInput(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalog(t, env)

	comp, err := env.validator.Validate(context.Background(), service.CompositionInput{
		Tags: []uuid.UUID{cat.dinner.ID, cat.breakfast.ID, cat.dinner.ID},
		Ingredients: []service.IngredientInput{
			{ID: cat.sugar.ID, Amount: 50},
			{ID: cat.flour.ID, Amount: 200},
		},
		CookingTime: intPtr(45),
	})
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{cat.dinner.ID, cat.breakfast.ID}, comp.TagIDs(), "duplicate tags collapse, order kept")
	require.Len(t, comp.Lines, 2)
	assert.Equal(t, "sugar", comp.Lines[0].Ingredient.Name)
	assert.Equal(t, 200, comp.Lines[1].Amount)
	assert.Equal(t, 45, *comp.CookingTime)

	rows := comp.LineRows()
	assert.Equal(t, 0, rows[0].Position)
	assert.Equal(t, cat.flour.ID, rows[1].IngredientID)
}

func TestCompositionValidatorRejections(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalog(t, env)
	unknown := uuid.New()

	valid := func() service.CompositionInput {
		return service.CompositionInput{
			Tags:        []uuid.UUID{cat.breakfast.ID},
			Ingredients: []service.IngredientInput{{ID: cat.flour.ID, Amount: 100}},
			CookingTime: intPtr(10),
		}
	}

	tests := []struct {
		name   string
		mutate func(in *service.CompositionInput)
		want   error
	}{
		{"missing tags", func(in *service.CompositionInput) { in.Tags = nil }, service.ErrEmptyTagSet},
		{"empty tags", func(in *service.CompositionInput) { in.Tags = []uuid.UUID{} }, service.ErrEmptyTagSet},
		{"empty tags reported before empty ingredients", func(in *service.CompositionInput) {
			in.Tags = []uuid.UUID{}
			in.Ingredients = []service.IngredientInput{}
		}, service.ErrEmptyTagSet},
		{"empty ingredients", func(in *service.CompositionInput) { in.Ingredients = []service.IngredientInput{} }, service.ErrEmptyIngredientSet},
		{"duplicate ingredient", func(in *service.CompositionInput) {
			in.Ingredients = append(in.Ingredients, service.IngredientInput{ID: cat.flour.ID, Amount: 5})
		}, service.ErrDuplicateIngredient},
		{"duplicate reported before non-positive amount", func(in *service.CompositionInput) {
			in.Ingredients = []service.IngredientInput{
				{ID: cat.sugar.ID, Amount: 0},
				{ID: cat.flour.ID, Amount: 1},
				{ID: cat.flour.ID, Amount: 2},
			}
		}, service.ErrDuplicateIngredient},
		{"zero amount", func(in *service.CompositionInput) { in.Ingredients[0].Amount = 0 }, service.ErrNonPositiveAmount},
		{"negative amount", func(in *service.CompositionInput) { in.Ingredients[0].Amount = -3 }, service.ErrNonPositiveAmount},
		{"missing cooking time", func(in *service.CompositionInput) { in.CookingTime = nil }, service.ErrCookingTimeOutOfRange},
		{"cooking time below range", func(in *service.CompositionInput) { in.CookingTime = intPtr(0) }, service.ErrCookingTimeOutOfRange},
		{"cooking time above range", func(in *service.CompositionInput) { in.CookingTime = intPtr(301) }, service.ErrCookingTimeOutOfRange},
		{"structural checks before catalog lookups", func(in *service.CompositionInput) {
			in.Tags = []uuid.UUID{unknown}
			in.CookingTime = intPtr(0)
		}, service.ErrCookingTimeOutOfRange},
		{"unknown tag", func(in *service.CompositionInput) { in.Tags = append(in.Tags, unknown) }, service.ErrUnknownTag},
		{"unknown tag reported before unknown ingredient", func(in *service.CompositionInput) {
			in.Tags = []uuid.UUID{unknown}
			in.Ingredients = []service.IngredientInput{{ID: uuid.New(), Amount: 1}}
		}, service.ErrUnknownTag},
		{"unknown ingredient", func(in *service.CompositionInput) {
			in.Ingredients = append(in.Ingredients, service.IngredientInput{ID: unknown, Amount: 1})
		}, service.ErrUnknownIngredient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)
			comp, err := env.validator.Validate(context.Background(), in)
			assert.Nil(t, comp)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, service.KindValidation, service.KindOf(err))
		})
	}
}

func TestCompositionValidatorCookingTimeBounds(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalog(t, env)

	for _, minutes := range []int{models.MinCookingTime, models.MaxCookingTime} {
		_, err := env.validator.Validate(context.Background(), service.CompositionInput{
			Tags:        []uuid.UUID{cat.breakfast.ID},
			Ingredients: []service.IngredientInput{{ID: cat.eggs.ID, Amount: 2}},
			CookingTime: intPtr(minutes),
		})
		assert.NoError(t, err, "cooking time %d", minutes)
	}
}

func TestCompositionValidatorPatch(t *testing.T) {
	env := newTestEnv(t)
	cat := seedCatalog(t, env)
	ctx := context.Background()

	t.Run("absent parts are untouched", func(t *testing.T) {
		comp, err := env.validator.ValidatePatch(ctx, service.CompositionInput{})
		require.NoError(t, err)
		assert.Nil(t, comp.Tags)
		assert.Nil(t, comp.Lines)
		assert.Nil(t, comp.CookingTime)
	})

	t.Run("present but empty tags are rejected", func(t *testing.T) {
		_, err := env.validator.ValidatePatch(ctx, service.CompositionInput{Tags: []uuid.UUID{}})
		assert.ErrorIs(t, err, service.ErrEmptyTagSet)
	})

	t.Run("present but empty ingredients are rejected", func(t *testing.T) {
		_, err := env.validator.ValidatePatch(ctx, service.CompositionInput{Ingredients: []service.IngredientInput{}})
		assert.ErrorIs(t, err, service.ErrEmptyIngredientSet)
	})

	t.Run("only ingredients", func(t *testing.T) {
		comp, err := env.validator.ValidatePatch(ctx, service.CompositionInput{
			Ingredients: []service.IngredientInput{{ID: cat.sugar.ID, Amount: 3}},
		})
		require.NoError(t, err)
		assert.Nil(t, comp.Tags)
		require.Len(t, comp.Lines, 1)
		assert.Equal(t, cat.sugar.ID, comp.Lines[0].Ingredient.ID)
	})
}

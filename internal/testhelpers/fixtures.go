package testhelpers

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/models"
	"gorm.io/gorm"
)

// CreateUser inserts a user with a unique email and username derived from name.
func CreateUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	suffix := uuid.NewString()[:8]
	user := &models.User{
		Email:        fmt.Sprintf("%s-%s@example.com", name, suffix),
		Username:     fmt.Sprintf("%s_%s", name, suffix),
		FirstName:    name,
		LastName:     "Tester",
		PasswordHash: "hashed",
		IsActive:     true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func CreateTag(t *testing.T, db *gorm.DB, name, color, slug string) *models.Tag {
	t.Helper()
	tag := &models.Tag{Name: name, Color: color, Slug: slug}
	if err := db.Create(tag).Error; err != nil {
		t.Fatalf("failed to create tag: %v", err)
	}
	return tag
}

func CreateIngredient(t *testing.T, db *gorm.DB, name, unit string) *models.Ingredient {
	t.Helper()
	ing := &models.Ingredient{Name: name, MeasurementUnit: unit}
	if err := db.Create(ing).Error; err != nil {
		t.Fatalf("failed to create ingredient: %v", err)
	}
	return ing
}

// LineSpec describes one ingredient line for CreateRecipe.
type LineSpec struct {
	Ingredient *models.Ingredient
	Amount     int
}

// CreateRecipe writes a recipe with its tags and lines directly, bypassing services.
func CreateRecipe(t *testing.T, db *gorm.DB, author *models.User, name string, tags []*models.Tag, lines []LineSpec) *models.Recipe {
	t.Helper()
	recipe := &models.Recipe{
		AuthorID:    &author.ID,
		Name:        name,
		Text:        name + " text",
		CookingTime: 10,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags", "Ingredients", "Author").Create(recipe).Error; err != nil {
			return err
		}
		for _, tag := range tags {
			if err := tx.Create(&models.RecipeTag{RecipeID: recipe.ID, TagID: tag.ID}).Error; err != nil {
				return err
			}
		}
		for i, l := range lines {
			line := &models.IngredientLine{RecipeID: recipe.ID, IngredientID: l.Ingredient.ID, Amount: l.Amount, Position: i}
			if err := tx.Create(line).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("failed to create recipe: %v", err)
	}
	return recipe
}

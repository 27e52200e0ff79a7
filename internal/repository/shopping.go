package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/logger"
	"gorm.io/gorm"
)

// CartLine is one ingredient line of one recipe in a user's cart, joined with its catalog entry.
type CartLine struct {
	Name            string
	MeasurementUnit string
	Amount          int
}

type ShoppingRepo interface {
	CartLines(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]CartLine, error)
}

type shoppingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewShoppingRepo(db *gorm.DB, baseLog *logger.Logger) ShoppingRepo {
	return &shoppingRepo{db: db, log: baseLog.With("repo", "ShoppingRepo")}
}

func (sr *shoppingRepo) CartLines(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]CartLine, error) {
	var lines []CartLine
	if err := use(sr.db, tx).WithContext(ctx).
		Table("cart_entries").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, ingredient_lines.amount AS amount").
		Joins("JOIN ingredient_lines ON ingredient_lines.recipe_id = cart_entries.recipe_id").
		Joins("JOIN ingredients ON ingredients.id = ingredient_lines.ingredient_id").
		Where("cart_entries.user_id = ?", userID).
		Scan(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MinCookingTime = 1
	MaxCookingTime = 300
)

// Recipe survives the deletion of its author; AuthorID then becomes NULL.
type Recipe struct {
	ID          uuid.UUID        `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt   time.Time        `gorm:"<-:create;index" json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	AuthorID    *uuid.UUID       `gorm:"type:varchar(36);index" json:"author_id"`
	Author      *User            `gorm:"foreignKey:AuthorID;constraint:OnDelete:SET NULL" json:"author,omitempty"`
	Name        string           `gorm:"size:200;not null" json:"name"`
	Text        string           `gorm:"type:text;not null" json:"text"`
	Image       string           `gorm:"size:255" json:"image"`
	CookingTime int              `gorm:"not null;check:chk_recipes_cooking_time,cooking_time >= 1 AND cooking_time <= 300" json:"cooking_time"`
	Tags        []Tag            `gorm:"many2many:recipe_tags" json:"tags"`
	Ingredients []IngredientLine `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"ingredients"`
}

func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// RecipeTag is the explicit join row behind Recipe.Tags.
type RecipeTag struct {
	RecipeID uuid.UUID `gorm:"type:varchar(36);primaryKey"`
	TagID    uuid.UUID `gorm:"type:varchar(36);primaryKey;index"`
}

func (RecipeTag) TableName() string {
	return "recipe_tags"
}

// IngredientLine is a (recipe, ingredient, amount) row owned by its recipe.
type IngredientLine struct {
	ID           uuid.UUID   `gorm:"type:varchar(36);primarykey" json:"id"`
	RecipeID     uuid.UUID   `gorm:"type:varchar(36);not null;uniqueIndex:idx_line_recipe_ingredient" json:"recipe_id"`
	IngredientID uuid.UUID   `gorm:"type:varchar(36);not null;uniqueIndex:idx_line_recipe_ingredient;index" json:"ingredient_id"`
	Ingredient   *Ingredient `gorm:"foreignKey:IngredientID;constraint:OnDelete:CASCADE" json:"ingredient,omitempty"`
	Amount       int         `gorm:"not null;check:chk_ingredient_lines_amount,amount > 0" json:"amount"`
	Position     int         `gorm:"not null;default:0" json:"-"`
}

func (l *IngredientLine) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

package types

import (
	"github.com/google/uuid"
)

// IngredientAmount is one {id, amount} entry of a recipe-write payload
type IngredientAmount struct {
	ID     uuid.UUID `json:"id"`
	Amount int       `json:"amount"`
}

// CreateRecipeRequest represents the request body for creating a recipe.
// Tags, ingredients and cooking_time are checked by the composition validator.
type CreateRecipeRequest struct {
	Tags        []uuid.UUID        `json:"tags"`
	Ingredients []IngredientAmount `json:"ingredients"`
	CookingTime int                `json:"cooking_time"`
	Name        string             `json:"name" binding:"required,max=200"`
	Text        string             `json:"text" binding:"required"`
	Image       string             `json:"image" binding:"required"`
}

// UpdateRecipeRequest is a partial update. A nil field is left untouched;
// an empty but present tags or ingredients list is rejected.
type UpdateRecipeRequest struct {
	Tags        []uuid.UUID        `json:"tags"`
	Ingredients []IngredientAmount `json:"ingredients"`
	CookingTime *int               `json:"cooking_time"`
	Name        *string            `json:"name" binding:"omitempty,max=200"`
	Text        *string            `json:"text"`
	Image       *string            `json:"image"`
}

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email,max=254"`
	Username  string `json:"username" binding:"required,max=150,username"`
	FirstName string `json:"first_name" binding:"required,max=150"`
	LastName  string `json:"last_name" binding:"required,max=150"`
	Password  string `json:"password" binding:"required,min=8,max=150"`
}

type SetPasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=150"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type CreateTagRequest struct {
	Name  string `json:"name" binding:"required,max=200"`
	Color string `json:"color" binding:"required,tagcolor"`
	Slug  string `json:"slug" binding:"required,max=200"`
}

type CreateIngredientRequest struct {
	Name            string `json:"name" binding:"required,max=200"`
	MeasurementUnit string `json:"measurement_unit" binding:"required,max=200"`
}

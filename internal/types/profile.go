package types

import (
	"github.com/google/uuid"
)

// UserPublic is the public profile of a user
type UserPublic struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	IsSubscribed bool      `json:"is_subscribed"`
}

// AuthorSummary is a followed author with a preview of their recipes
type AuthorSummary struct {
	UserPublic
	Recipes      []RecipeShort `json:"recipes"`
	RecipesCount int64         `json:"recipes_count"`
}

type TokenResponse struct {
	AuthToken string `json:"auth_token"`
}

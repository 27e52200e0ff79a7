package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
	"gorm.io/gorm"
)

// RecipeSetRepo stores one (user, recipe) membership relation: favorites or the cart.
type RecipeSetRepo interface {
	Exists(ctx context.Context, tx *gorm.DB, userID, recipeID uuid.UUID) (bool, error)
	Add(ctx context.Context, tx *gorm.DB, userID, recipeID uuid.UUID) error
	// Remove reports whether a row was deleted.
	Remove(ctx context.Context, tx *gorm.DB, userID, recipeID uuid.UUID) (bool, error)
	// Among returns which of recipeIDs are in the user's set.
	Among(ctx context.Context, tx *gorm.DB, userID uuid.UUID, recipeIDs []uuid.UUID) (map[uuid.UUID]bool, error)
}

type recipeSetRepo[T any] struct {
	db     *gorm.DB
	log    *logger.Logger
	newRow func(userID, recipeID uuid.UUID) *T
}

func NewFavoriteRepo(db *gorm.DB, baseLog *logger.Logger) RecipeSetRepo {
	return &recipeSetRepo[models.Favorite]{
		db:  db,
		log: baseLog.With("repo", "FavoriteRepo"),
		newRow: func(userID, recipeID uuid.UUID) *models.Favorite {
			return &models.Favorite{UserID: userID, RecipeID: recipeID}
		},
	}
}

func NewCartRepo(db *gorm.DB, baseLog *logger.Logger) RecipeSetRepo {
	return &recipeSetRepo[models.CartEntry]{
		db:  db,
		log: baseLog.With("repo", "CartRepo"),
		newRow: func(userID, recipeID uuid.UUID) *models.CartEntry {
			return &models.CartEntry{UserID: userID, RecipeID: recipeID}
		},
	}
}

func (r *recipeSetRepo[T]) Exists(ctx context.Context, tx *gorm.DB, userID, recipeID uuid.UUID) (bool, error) {
	var count int64
	if err := use(r.db, tx).WithContext(ctx).
		Model(new(T)).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *recipeSetRepo[T]) Add(ctx context.Context, tx *gorm.DB, userID, recipeID uuid.UUID) error {
	return use(r.db, tx).WithContext(ctx).Create(r.newRow(userID, recipeID)).Error
}

func (r *recipeSetRepo[T]) Remove(ctx context.Context, tx *gorm.DB, userID, recipeID uuid.UUID) (bool, error) {
	res := use(r.db, tx).WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(new(T))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *recipeSetRepo[T]) Among(ctx context.Context, tx *gorm.DB, userID uuid.UUID, recipeIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	present := make(map[uuid.UUID]bool, len(recipeIDs))
	if len(recipeIDs) == 0 {
		return present, nil
	}
	var ids []uuid.UUID
	if err := use(r.db, tx).WithContext(ctx).
		Model(new(T)).
		Where("user_id = ? AND recipe_id IN ?", userID, recipeIDs).
		Pluck("recipe_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		present[id] = true
	}
	return present, nil
}

type SubscriptionRepo interface {
	Exists(ctx context.Context, tx *gorm.DB, userID, authorID uuid.UUID) (bool, error)
	Add(ctx context.Context, tx *gorm.DB, userID, authorID uuid.UUID) error
	Remove(ctx context.Context, tx *gorm.DB, userID, authorID uuid.UUID) (bool, error)
	Among(ctx context.Context, tx *gorm.DB, userID uuid.UUID, authorIDs []uuid.UUID) (map[uuid.UUID]bool, error)
	ListAuthors(ctx context.Context, tx *gorm.DB, userID uuid.UUID, page Page) ([]*models.User, int64, error)
}

type subscriptionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubscriptionRepo(db *gorm.DB, baseLog *logger.Logger) SubscriptionRepo {
	return &subscriptionRepo{db: db, log: baseLog.With("repo", "SubscriptionRepo")}
}

func (sr *subscriptionRepo) Exists(ctx context.Context, tx *gorm.DB, userID, authorID uuid.UUID) (bool, error) {
	var count int64
	if err := use(sr.db, tx).WithContext(ctx).
		Model(&models.Subscription{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (sr *subscriptionRepo) Add(ctx context.Context, tx *gorm.DB, userID, authorID uuid.UUID) error {
	return use(sr.db, tx).WithContext(ctx).
		Omit("User", "Author").
		Create(&models.Subscription{UserID: userID, AuthorID: authorID}).Error
}

func (sr *subscriptionRepo) Remove(ctx context.Context, tx *gorm.DB, userID, authorID uuid.UUID) (bool, error) {
	res := use(sr.db, tx).WithContext(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&models.Subscription{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (sr *subscriptionRepo) Among(ctx context.Context, tx *gorm.DB, userID uuid.UUID, authorIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	present := make(map[uuid.UUID]bool, len(authorIDs))
	if len(authorIDs) == 0 {
		return present, nil
	}
	var ids []uuid.UUID
	if err := use(sr.db, tx).WithContext(ctx).
		Model(&models.Subscription{}).
		Where("user_id = ? AND author_id IN ?", userID, authorIDs).
		Pluck("author_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		present[id] = true
	}
	return present, nil
}

// ListAuthors pages through the users that userID follows, most recent subscription first.
func (sr *subscriptionRepo) ListAuthors(ctx context.Context, tx *gorm.DB, userID uuid.UUID, page Page) ([]*models.User, int64, error) {
	q := use(sr.db, tx).WithContext(ctx).
		Model(&models.User{}).
		Joins("JOIN subscriptions ON subscriptions.author_id = users.id").
		Where("subscriptions.user_id = ?", userID).
		Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var authors []*models.User
	if err := page.apply(q.Select("users.*").Order("subscriptions.created_at DESC, users.id")).Find(&authors).Error; err != nil {
		return nil, 0, err
	}
	return authors, total, nil
}

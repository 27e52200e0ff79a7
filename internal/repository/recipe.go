package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecipeFilter narrows a recipe listing. Nil pointers and empty slices mean "any".
type RecipeFilter struct {
	AuthorID  *uuid.UUID
	TagSlugs  []string
	Favorited *SetMembership
	InCart    *SetMembership
	Page      Page
}

// SetMembership keeps recipes that are (Member) or are not (!Member) in the
// user's set.
type SetMembership struct {
	UserID uuid.UUID
	Member bool
}

func (m SetMembership) where() string {
	if m.Member {
		return "recipes.id IN (?)"
	}
	return "recipes.id NOT IN (?)"
}

type RecipeRepo interface {
	Create(ctx context.Context, tx *gorm.DB, recipe *models.Recipe) error
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
	ReplaceTags(ctx context.Context, tx *gorm.DB, recipeID uuid.UUID, tagIDs []uuid.UUID) error
	ReplaceLines(ctx context.Context, tx *gorm.DB, recipeID uuid.UUID, lines []models.IngredientLine) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Recipe, error)
	GetHeader(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Recipe, error)
	List(ctx context.Context, tx *gorm.DB, filter RecipeFilter) ([]*models.Recipe, int64, error)
	ListByAuthor(ctx context.Context, tx *gorm.DB, authorID uuid.UUID, limit int) ([]*models.Recipe, error)
	CountByAuthors(ctx context.Context, tx *gorm.DB, authorIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type recipeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecipeRepo(db *gorm.DB, baseLog *logger.Logger) RecipeRepo {
	return &recipeRepo{db: db, log: baseLog.With("repo", "RecipeRepo")}
}

// withComposition preloads everything the full read shape needs.
func withComposition(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name, tags.slug") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("ingredient_lines.position") }).
		Preload("Ingredients.Ingredient")
}

// Create writes only the recipe row; tags and lines go through ReplaceTags and ReplaceLines.
func (rr *recipeRepo) Create(ctx context.Context, tx *gorm.DB, recipe *models.Recipe) error {
	return use(rr.db, tx).WithContext(ctx).Omit(clause.Associations).Create(recipe).Error
}

func (rr *recipeRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	updates := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates["updated_at"] = time.Now().UTC()

	res := use(rr.db, tx).WithContext(ctx).Model(&models.Recipe{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ReplaceTags clears the recipe's tag links and writes the given set.
func (rr *recipeRepo) ReplaceTags(ctx context.Context, tx *gorm.DB, recipeID uuid.UUID, tagIDs []uuid.UUID) error {
	db := use(rr.db, tx).WithContext(ctx)
	if err := db.Where("recipe_id = ?", recipeID).Delete(&models.RecipeTag{}).Error; err != nil {
		return err
	}
	if len(tagIDs) == 0 {
		return nil
	}
	links := make([]models.RecipeTag, len(tagIDs))
	for i, id := range tagIDs {
		links[i] = models.RecipeTag{RecipeID: recipeID, TagID: id}
	}
	return db.Create(&links).Error
}

// ReplaceLines deletes every existing line of the recipe, then bulk-inserts lines in order.
func (rr *recipeRepo) ReplaceLines(ctx context.Context, tx *gorm.DB, recipeID uuid.UUID, lines []models.IngredientLine) error {
	db := use(rr.db, tx).WithContext(ctx)
	if err := db.Where("recipe_id = ?", recipeID).Delete(&models.IngredientLine{}).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	rows := make([]models.IngredientLine, len(lines))
	for i, line := range lines {
		rows[i] = models.IngredientLine{
			RecipeID:     recipeID,
			IngredientID: line.IngredientID,
			Amount:       line.Amount,
			Position:     i,
		}
	}
	return db.Omit(clause.Associations).Create(&rows).Error
}

// snapshot runs fn in a read-only transaction so a recipe and its preloaded
// composition come from one committed state. Inside a caller's tx it reuses it.
func (rr *recipeRepo) snapshot(ctx context.Context, tx *gorm.DB, fn func(db *gorm.DB) error) error {
	if tx != nil {
		return fn(tx.WithContext(ctx))
	}
	opts := &sql.TxOptions{ReadOnly: true}
	if rr.db.Dialector.Name() == "postgres" {
		opts.Isolation = sql.LevelRepeatableRead
	}
	return rr.db.WithContext(ctx).Transaction(fn, opts)
}

func (rr *recipeRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	err := rr.snapshot(ctx, tx, func(db *gorm.DB) error {
		return withComposition(db).First(&recipe, "recipes.id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

// GetHeader loads the recipe row alone, without its composition.
func (rr *recipeRepo) GetHeader(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := use(rr.db, tx).WithContext(ctx).First(&recipe, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (rr *recipeRepo) List(ctx context.Context, tx *gorm.DB, filter RecipeFilter) ([]*models.Recipe, int64, error) {
	var (
		recipes []*models.Recipe
		total   int64
	)
	err := rr.snapshot(ctx, tx, func(base *gorm.DB) error {
		sub := func() *gorm.DB { return base.Session(&gorm.Session{NewDB: true}) }

		q := base.Model(&models.Recipe{})
		if filter.AuthorID != nil {
			q = q.Where("recipes.author_id = ?", *filter.AuthorID)
		}
		if len(filter.TagSlugs) > 0 {
			q = q.Where("recipes.id IN (?)", sub().
				Table("recipe_tags").
				Select("recipe_tags.recipe_id").
				Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
				Where("tags.slug IN ?", filter.TagSlugs))
		}
		if m := filter.Favorited; m != nil {
			q = q.Where(m.where(), sub().
				Model(&models.Favorite{}).
				Select("recipe_id").
				Where("user_id = ?", m.UserID))
		}
		if m := filter.InCart; m != nil {
			q = q.Where(m.where(), sub().
				Model(&models.CartEntry{}).
				Select("recipe_id").
				Where("user_id = ?", m.UserID))
		}
		q = q.Session(&gorm.Session{})

		if err := q.Count(&total).Error; err != nil {
			return err
		}
		return filter.Page.apply(withComposition(q).Order("recipes.created_at DESC, recipes.id")).Find(&recipes).Error
	})
	if err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

func (rr *recipeRepo) ListByAuthor(ctx context.Context, tx *gorm.DB, authorID uuid.UUID, limit int) ([]*models.Recipe, error) {
	q := use(rr.db, tx).WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at DESC, id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var recipes []*models.Recipe
	if err := q.Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

func (rr *recipeRepo) CountByAuthors(ctx context.Context, tx *gorm.DB, authorIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(authorIDs))
	if len(authorIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		AuthorID uuid.UUID
		Total    int64
	}
	if err := use(rr.db, tx).WithContext(ctx).
		Model(&models.Recipe{}).
		Select("author_id, COUNT(*) AS total").
		Where("author_id IN ?", authorIDs).
		Group("author_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.AuthorID] = row.Total
	}
	return counts, nil
}

// Delete removes the recipe together with its lines, tag links, favorites and cart entries.
func (rr *recipeRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	db := use(rr.db, tx).WithContext(ctx)
	for _, model := range []interface{}{
		&models.IngredientLine{},
		&models.RecipeTag{},
		&models.Favorite{},
		&models.CartEntry{},
	} {
		if err := db.Where("recipe_id = ?", id).Delete(model).Error; err != nil {
			return err
		}
	}
	res := db.Where("id = ?", id).Delete(&models.Recipe{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

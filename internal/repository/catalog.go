package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TagRepo interface {
	Create(ctx context.Context, tx *gorm.DB, tag *models.Tag) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Tag, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*models.Tag, error)
	List(ctx context.Context, tx *gorm.DB) ([]*models.Tag, error)
}

type tagRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTagRepo(db *gorm.DB, baseLog *logger.Logger) TagRepo {
	return &tagRepo{db: db, log: baseLog.With("repo", "TagRepo")}
}

func (tr *tagRepo) Create(ctx context.Context, tx *gorm.DB, tag *models.Tag) error {
	return use(tr.db, tx).WithContext(ctx).Create(tag).Error
}

func (tr *tagRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Tag, error) {
	var tag models.Tag
	if err := use(tr.db, tx).WithContext(ctx).First(&tag, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

func (tr *tagRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*models.Tag, error) {
	var tags []*models.Tag
	if len(ids) == 0 {
		return tags, nil
	}
	if err := use(tr.db, tx).WithContext(ctx).Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (tr *tagRepo) List(ctx context.Context, tx *gorm.DB) ([]*models.Tag, error) {
	var tags []*models.Tag
	if err := use(tr.db, tx).WithContext(ctx).Order("name, slug").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

type IngredientRepo interface {
	Create(ctx context.Context, tx *gorm.DB, ingredient *models.Ingredient) error
	// CreateMissing inserts the rows whose (name, unit) pair is not stored yet and reports how many were new.
	CreateMissing(ctx context.Context, tx *gorm.DB, ingredients []*models.Ingredient) (int64, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Ingredient, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*models.Ingredient, error)
	SearchByPrefix(ctx context.Context, tx *gorm.DB, prefix string) ([]*models.Ingredient, error)
}

type ingredientRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewIngredientRepo(db *gorm.DB, baseLog *logger.Logger) IngredientRepo {
	return &ingredientRepo{db: db, log: baseLog.With("repo", "IngredientRepo")}
}

func (ir *ingredientRepo) Create(ctx context.Context, tx *gorm.DB, ingredient *models.Ingredient) error {
	return use(ir.db, tx).WithContext(ctx).Create(ingredient).Error
}

func (ir *ingredientRepo) CreateMissing(ctx context.Context, tx *gorm.DB, ingredients []*models.Ingredient) (int64, error) {
	if len(ingredients) == 0 {
		return 0, nil
	}
	res := use(ir.db, tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}, {Name: "measurement_unit"}},
			DoNothing: true,
		}).
		CreateInBatches(ingredients, 500)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (ir *ingredientRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := use(ir.db, tx).WithContext(ctx).First(&ingredient, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ingredient, nil
}

func (ir *ingredientRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*models.Ingredient, error) {
	var ingredients []*models.Ingredient
	if len(ids) == 0 {
		return ingredients, nil
	}
	if err := use(ir.db, tx).WithContext(ctx).Where("id IN ?", ids).Find(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}

func (ir *ingredientRepo) SearchByPrefix(ctx context.Context, tx *gorm.DB, prefix string) ([]*models.Ingredient, error) {
	q := use(ir.db, tx).WithContext(ctx)
	if prefix != "" {
		q = q.Where("LOWER(name) LIKE ? ESCAPE '\\'", escapeLike(prefix)+"%")
	}
	var ingredients []*models.Ingredient
	if err := q.Order("name, measurement_unit").Find(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}

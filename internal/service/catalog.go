package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/repository"
	"github.com/pageza/foodgram/backend/internal/validation"
)

// CatalogService serves the tag and ingredient reference data.
// Reads are public; writes are staff only.
type CatalogService struct {
	tags        repository.TagRepo
	ingredients repository.IngredientRepo
	log         *logger.Logger
}

func NewCatalogService(tags repository.TagRepo, ingredients repository.IngredientRepo, baseLog *logger.Logger) *CatalogService {
	return &CatalogService{
		tags:        tags,
		ingredients: ingredients,
		log:         baseLog.With("service", "CatalogService"),
	}
}

func (s *CatalogService) ListTags(ctx context.Context) ([]*models.Tag, error) {
	return s.tags.List(ctx, nil)
}

func (s *CatalogService) GetTag(ctx context.Context, id uuid.UUID) (*models.Tag, error) {
	tag, err := s.tags.GetByID(ctx, nil, id)
	if err != nil {
		return nil, translateStorageError(err, ErrIntegrity)
	}
	return tag, nil
}

func (s *CatalogService) CreateTag(ctx context.Context, actor Actor, name, color, slug string) (*models.Tag, error) {
	if actor.Anonymous() {
		return nil, ErrUnauthenticated
	}
	if !actor.IsStaff {
		return nil, ErrForbidden
	}
	color = strings.TrimSpace(color)
	if !validation.IsTagColor(color) {
		return nil, ErrInvalidColor
	}
	name, slug = strings.TrimSpace(name), strings.TrimSpace(slug)
	if name == "" || slug == "" {
		return nil, Detail(ErrInvalidInput, "Название и слаг тега обязательны")
	}

	tag := &models.Tag{Name: name, Color: color, Slug: slug}
	if err := s.tags.Create(ctx, nil, tag); err != nil {
		return nil, translateStorageError(err, Detail(ErrAlreadyExists, "Тег с таким цветом или слагом уже существует"))
	}
	s.log.Info("Tag created", "tag_id", tag.ID, "slug", tag.Slug)
	return tag, nil
}

// SearchIngredients lists ingredients whose name starts with prefix, case-insensitively.
func (s *CatalogService) SearchIngredients(ctx context.Context, prefix string) ([]*models.Ingredient, error) {
	return s.ingredients.SearchByPrefix(ctx, nil, strings.TrimSpace(prefix))
}

func (s *CatalogService) GetIngredient(ctx context.Context, id uuid.UUID) (*models.Ingredient, error) {
	ingredient, err := s.ingredients.GetByID(ctx, nil, id)
	if err != nil {
		return nil, translateStorageError(err, ErrIntegrity)
	}
	return ingredient, nil
}

func (s *CatalogService) CreateIngredient(ctx context.Context, actor Actor, name, unit string) (*models.Ingredient, error) {
	if actor.Anonymous() {
		return nil, ErrUnauthenticated
	}
	if !actor.IsStaff {
		return nil, ErrForbidden
	}
	name, unit = strings.TrimSpace(name), strings.TrimSpace(unit)
	if name == "" || unit == "" {
		return nil, Detail(ErrInvalidInput, "Название и единица измерения обязательны")
	}

	ingredient := &models.Ingredient{Name: name, MeasurementUnit: unit}
	if err := s.ingredients.Create(ctx, nil, ingredient); err != nil {
		return nil, translateStorageError(err, Detail(ErrAlreadyExists, "Такой ингредиент уже существует"))
	}
	return ingredient, nil
}

// ImportIngredients bulk-loads catalog rows, skipping blank rows and pairs
// that are already stored. It returns how many rows were inserted.
func (s *CatalogService) ImportIngredients(ctx context.Context, rows []models.Ingredient) (int64, error) {
	seen := make(map[[2]string]bool, len(rows))
	batch := make([]*models.Ingredient, 0, len(rows))
	for _, row := range rows {
		name, unit := strings.TrimSpace(row.Name), strings.TrimSpace(row.MeasurementUnit)
		key := [2]string{name, unit}
		if name == "" || unit == "" || seen[key] {
			continue
		}
		seen[key] = true
		batch = append(batch, &models.Ingredient{Name: name, MeasurementUnit: unit})
	}

	inserted, err := s.ingredients.CreateMissing(ctx, nil, batch)
	if err != nil {
		s.log.Error("Ingredient import failed", "rows", len(batch), "error", err)
		return 0, err
	}
	s.log.Info("Ingredients imported", "rows", len(batch), "inserted", inserted)
	return inserted, nil
}

// ReadIngredientsCSV parses name,measurement_unit rows. A header row naming
// those columns is skipped.
func ReadIngredientsCSV(r io.Reader) ([]models.Ingredient, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows []models.Ingredient
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(record) < 2 {
			return nil, fmt.Errorf("line %d: expected name and measurement unit, got %d field(s)", line, len(record))
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "name") {
			continue
		}
		rows = append(rows, models.Ingredient{Name: record[0], MeasurementUnit: record[1]})
	}
}

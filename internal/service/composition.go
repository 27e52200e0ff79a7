package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/repository"
)

type IngredientInput struct {
	ID     uuid.UUID
	Amount int
}

// CompositionInput is a proposed tag set, ingredient list and cooking time.
// In a patch a nil slice or nil cooking time means "not being changed".
type CompositionInput struct {
	Tags        []uuid.UUID
	Ingredients []IngredientInput
	CookingTime *int
}

type ResolvedLine struct {
	Ingredient *models.Ingredient
	Amount     int
}

// Composition is a validated composition with catalog references resolved.
// Tags and Lines are nil when the input left them untouched.
type Composition struct {
	Tags        []*models.Tag
	Lines       []ResolvedLine
	CookingTime *int
}

func (c *Composition) TagIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(c.Tags))
	for i, tag := range c.Tags {
		ids[i] = tag.ID
	}
	return ids
}

// LineRows returns the lines as unsaved rows, in input order.
func (c *Composition) LineRows() []models.IngredientLine {
	rows := make([]models.IngredientLine, len(c.Lines))
	for i, line := range c.Lines {
		rows[i] = models.IngredientLine{IngredientID: line.Ingredient.ID, Amount: line.Amount, Position: i}
	}
	return rows
}

// CompositionValidator checks a recipe composition before anything is written.
// Structural checks run first so a malformed request never costs a catalog query;
// tags are always checked before ingredients.
type CompositionValidator struct {
	tags        repository.TagRepo
	ingredients repository.IngredientRepo
	log         *logger.Logger
}

func NewCompositionValidator(tags repository.TagRepo, ingredients repository.IngredientRepo, baseLog *logger.Logger) *CompositionValidator {
	return &CompositionValidator{
		tags:        tags,
		ingredients: ingredients,
		log:         baseLog.With("service", "CompositionValidator"),
	}
}

// Validate checks a complete composition. Missing tags or ingredients count as empty
// and a missing cooking time is out of range.
func (v *CompositionValidator) Validate(ctx context.Context, in CompositionInput) (*Composition, error) {
	if in.Tags == nil {
		in.Tags = []uuid.UUID{}
	}
	if in.Ingredients == nil {
		in.Ingredients = []IngredientInput{}
	}
	if in.CookingTime == nil {
		zero := 0
		in.CookingTime = &zero
	}
	return v.validate(ctx, in)
}

// ValidatePatch checks only the parts of a composition that are present.
func (v *CompositionValidator) ValidatePatch(ctx context.Context, in CompositionInput) (*Composition, error) {
	return v.validate(ctx, in)
}

func (v *CompositionValidator) validate(ctx context.Context, in CompositionInput) (*Composition, error) {
	var tagIDs []uuid.UUID
	if in.Tags != nil {
		if len(in.Tags) == 0 {
			return nil, ErrEmptyTagSet
		}
		tagIDs = dedupe(in.Tags)
	}

	if in.Ingredients != nil {
		if err := checkIngredientShape(in.Ingredients); err != nil {
			return nil, err
		}
	}

	if in.CookingTime != nil {
		if t := *in.CookingTime; t < models.MinCookingTime || t > models.MaxCookingTime {
			return nil, ErrCookingTimeOutOfRange
		}
	}

	out := &Composition{CookingTime: in.CookingTime}

	if tagIDs != nil {
		tags, err := v.resolveTags(ctx, tagIDs)
		if err != nil {
			return nil, err
		}
		out.Tags = tags
	}

	if in.Ingredients != nil {
		lines, err := v.resolveLines(ctx, in.Ingredients)
		if err != nil {
			return nil, err
		}
		out.Lines = lines
	}

	return out, nil
}

func checkIngredientShape(items []IngredientInput) error {
	if len(items) == 0 {
		return ErrEmptyIngredientSet
	}
	seen := make(map[uuid.UUID]struct{}, len(items))
	for _, item := range items {
		if _, dup := seen[item.ID]; dup {
			return ErrDuplicateIngredient
		}
		seen[item.ID] = struct{}{}
	}
	for _, item := range items {
		if item.Amount <= 0 {
			return ErrNonPositiveAmount
		}
	}
	return nil
}

// resolveTags returns the tags in request order.
func (v *CompositionValidator) resolveTags(ctx context.Context, ids []uuid.UUID) ([]*models.Tag, error) {
	found, err := v.tags.GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*models.Tag, len(found))
	for _, tag := range found {
		byID[tag.ID] = tag
	}
	tags := make([]*models.Tag, len(ids))
	for i, id := range ids {
		tag, ok := byID[id]
		if !ok {
			v.log.Debug("Unknown tag in composition", "tag_id", id)
			return nil, Detail(ErrUnknownTag, "Тег %s не найден", id)
		}
		tags[i] = tag
	}
	return tags, nil
}

// resolveLines returns one line per input item, in request order.
func (v *CompositionValidator) resolveLines(ctx context.Context, items []IngredientInput) ([]ResolvedLine, error) {
	ids := make([]uuid.UUID, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	found, err := v.ingredients.GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*models.Ingredient, len(found))
	for _, ing := range found {
		byID[ing.ID] = ing
	}
	lines := make([]ResolvedLine, len(items))
	for i, item := range items {
		ing, ok := byID[item.ID]
		if !ok {
			v.log.Debug("Unknown ingredient in composition", "ingredient_id", item.ID)
			return nil, Detail(ErrUnknownIngredient, "Ингредиент %s не найден", item.ID)
		}
		lines[i] = ResolvedLine{Ingredient: ing, Amount: item.Amount}
	}
	return lines, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

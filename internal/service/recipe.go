package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/repository"
	"gorm.io/gorm"
)

// RecipeDraft is a complete recipe-write payload.
type RecipeDraft struct {
	Name        string
	Text        string
	Image       string
	Composition CompositionInput
}

// RecipePatch is a partial update; nil fields are left as they are.
type RecipePatch struct {
	Name        *string
	Text        *string
	Image       *string
	Composition CompositionInput
}

// RecipeQuery filters and pages a recipe listing. IsFavorited and
// IsInShoppingCart are tri-state: nil skips the filter, false excludes the
// caller's favorites or cart.
type RecipeQuery struct {
	AuthorID         *uuid.UUID
	TagSlugs         []string
	IsFavorited      *bool
	IsInShoppingCart *bool
	Page             repository.Page
}

type RecipeService struct {
	db        *gorm.DB
	recipes   repository.RecipeRepo
	validator *CompositionValidator
	images    ImageStore
	sanitizer TextSanitizer
	metrics   metrics.MetricsCollector
	log       *logger.Logger
}

func NewRecipeService(
	db *gorm.DB,
	recipes repository.RecipeRepo,
	validator *CompositionValidator,
	images ImageStore,
	sanitizer TextSanitizer,
	collector metrics.MetricsCollector,
	baseLog *logger.Logger,
) *RecipeService {
	return &RecipeService{
		db:        db,
		recipes:   recipes,
		validator: validator,
		images:    images,
		sanitizer: sanitizer,
		metrics:   collector,
		log:       baseLog.With("service", "RecipeService"),
	}
}

// Create validates the draft, stores the image, then writes the recipe row,
// its tag links and its ingredient lines in one transaction.
func (s *RecipeService) Create(ctx context.Context, actor Actor, draft RecipeDraft) (*models.Recipe, error) {
	if actor.Anonymous() {
		return nil, ErrUnauthenticated
	}

	comp, err := s.validator.Validate(ctx, draft.Composition)
	if err != nil {
		return nil, err
	}
	name, text, err := s.cleanText(draft.Name, draft.Text)
	if err != nil {
		return nil, err
	}

	imageRef, err := s.storeImage(ctx, draft.Image)
	if err != nil {
		return nil, err
	}

	authorID := actor.UserID
	recipe := &models.Recipe{
		AuthorID:    &authorID,
		Name:        name,
		Text:        text,
		Image:       imageRef,
		CookingTime: *comp.CookingTime,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.recipes.Create(ctx, tx, recipe); err != nil {
			return err
		}
		if err := s.recipes.ReplaceTags(ctx, tx, recipe.ID, comp.TagIDs()); err != nil {
			return err
		}
		return s.recipes.ReplaceLines(ctx, tx, recipe.ID, comp.LineRows())
	})
	if err != nil {
		s.discardImage(ctx, imageRef)
		s.log.Error("Recipe create transaction failed", "author_id", actor.UserID, "error", err)
		return nil, translateStorageError(err, ErrDuplicateIngredient)
	}

	s.metrics.RecordRecipeWrite("create")
	s.log.Info("Recipe created", "recipe_id", recipe.ID, "author_id", actor.UserID)
	return s.recipes.GetByID(ctx, nil, recipe.ID)
}

// Update applies a partial update. Authorization is checked before anything is
// validated or written; tags and lines are only replaced when present in the patch.
func (s *RecipeService) Update(ctx context.Context, actor Actor, id uuid.UUID, patch RecipePatch) (*models.Recipe, error) {
	if actor.Anonymous() {
		return nil, ErrUnauthenticated
	}

	current, err := s.recipes.GetHeader(ctx, nil, id)
	if err != nil {
		return nil, translateStorageError(err, ErrIntegrity)
	}
	if !actor.CanModify(current.AuthorID) {
		return nil, ErrForbidden
	}

	comp, err := s.validator.ValidatePatch(ctx, patch.Composition)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if patch.Name != nil || patch.Text != nil {
		name, text := current.Name, current.Text
		if patch.Name != nil {
			name = *patch.Name
		}
		if patch.Text != nil {
			text = *patch.Text
		}
		if name, text, err = s.cleanText(name, text); err != nil {
			return nil, err
		}
		fields["name"] = name
		fields["text"] = text
	}
	if comp.CookingTime != nil {
		fields["cooking_time"] = *comp.CookingTime
	}

	var newImage string
	if patch.Image != nil && *patch.Image != current.Image {
		if newImage, err = s.storeImage(ctx, *patch.Image); err != nil {
			return nil, err
		}
		fields["image"] = newImage
	}

	// UpdateFields runs first: it locks the recipe row, so concurrent updates of
	// one recipe replace its composition one after the other.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.recipes.UpdateFields(ctx, tx, id, fields); err != nil {
			return err
		}
		if comp.Tags != nil {
			if err := s.recipes.ReplaceTags(ctx, tx, id, comp.TagIDs()); err != nil {
				return err
			}
		}
		if comp.Lines != nil {
			if err := s.recipes.ReplaceLines(ctx, tx, id, comp.LineRows()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.discardImage(ctx, newImage)
		s.log.Error("Recipe update transaction failed", "recipe_id", id, "error", err)
		return nil, translateStorageError(err, ErrDuplicateIngredient)
	}
	if newImage != "" {
		s.discardImage(ctx, current.Image)
	}

	s.metrics.RecordRecipeWrite("update")
	s.log.Info("Recipe updated", "recipe_id", id, "actor_id", actor.UserID)
	return s.recipes.GetByID(ctx, nil, id)
}

// Delete removes the recipe and everything that references it.
func (s *RecipeService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if actor.Anonymous() {
		return ErrUnauthenticated
	}

	current, err := s.recipes.GetHeader(ctx, nil, id)
	if err != nil {
		return translateStorageError(err, ErrIntegrity)
	}
	if !actor.CanModify(current.AuthorID) {
		return ErrForbidden
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.recipes.Delete(ctx, tx, id)
	})
	if err != nil {
		return translateStorageError(err, ErrIntegrity)
	}
	s.discardImage(ctx, current.Image)

	s.metrics.RecordRecipeWrite("delete")
	s.log.Info("Recipe deleted", "recipe_id", id, "actor_id", actor.UserID)
	return nil
}

func (s *RecipeService) Get(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	recipe, err := s.recipes.GetByID(ctx, nil, id)
	if err != nil {
		return nil, translateStorageError(err, ErrIntegrity)
	}
	return recipe, nil
}

// GetShort loads the recipe row without its composition.
func (s *RecipeService) GetShort(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	recipe, err := s.recipes.GetHeader(ctx, nil, id)
	if err != nil {
		return nil, translateStorageError(err, ErrIntegrity)
	}
	return recipe, nil
}

// List applies the favorites and cart filters only for authenticated callers.
func (s *RecipeService) List(ctx context.Context, actor Actor, q RecipeQuery) ([]*models.Recipe, int64, error) {
	filter := repository.RecipeFilter{
		AuthorID: q.AuthorID,
		TagSlugs: q.TagSlugs,
		Page:     q.Page,
	}
	if !actor.Anonymous() {
		if q.IsFavorited != nil {
			filter.Favorited = &repository.SetMembership{UserID: actor.UserID, Member: *q.IsFavorited}
		}
		if q.IsInShoppingCart != nil {
			filter.InCart = &repository.SetMembership{UserID: actor.UserID, Member: *q.IsInShoppingCart}
		}
	}
	return s.recipes.List(ctx, nil, filter)
}

func (s *RecipeService) cleanText(name, text string) (string, string, error) {
	name = s.sanitizer.Sanitize(name)
	text = s.sanitizer.Sanitize(text)
	if name == "" {
		return "", "", Detail(ErrInvalidInput, "Название рецепта не может быть пустым")
	}
	if len([]rune(name)) > 200 {
		return "", "", Detail(ErrInvalidInput, "Название рецепта не может быть длиннее 200 символов")
	}
	if text == "" {
		return "", "", Detail(ErrInvalidInput, "Описание рецепта не может быть пустым")
	}
	return name, text, nil
}

func (s *RecipeService) storeImage(ctx context.Context, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", Detail(ErrInvalidImage, "Нужно добавить изображение")
	}
	data, contentType, err := DecodeDataURI(raw)
	if err != nil {
		return "", err
	}
	ref, err := s.images.Save(ctx, data, contentType)
	if err != nil {
		s.log.Error("Image upload failed", "error", err)
		return "", err
	}
	return ref, nil
}

// discardImage removes an image that no committed recipe references.
func (s *RecipeService) discardImage(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := s.images.Delete(ctx, ref); err != nil {
		s.log.Warn("Failed to delete image", "ref", ref, "error", err)
	}
}

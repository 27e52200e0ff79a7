package service

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/repository"
)

// ShoppingItem is one merged line of a shopping list.
type ShoppingItem struct {
	Name        string
	Unit        string
	TotalAmount int
}

const ShoppingListHeader = "Список покупок "

type ShoppingListService struct {
	shopping repository.ShoppingRepo
	metrics  metrics.MetricsCollector
	log      *logger.Logger
}

func NewShoppingListService(shopping repository.ShoppingRepo, collector metrics.MetricsCollector, baseLog *logger.Logger) *ShoppingListService {
	return &ShoppingListService{
		shopping: shopping,
		metrics:  collector,
		log:      baseLog.With("service", "ShoppingListService"),
	}
}

// Build merges every ingredient line of every recipe in the actor's cart.
// An empty cart yields an empty list.
func (s *ShoppingListService) Build(ctx context.Context, actor Actor) ([]ShoppingItem, error) {
	if actor.Anonymous() {
		return nil, ErrUnauthenticated
	}
	lines, err := s.shopping.CartLines(ctx, nil, actor.UserID)
	if err != nil {
		return nil, err
	}
	return Aggregate(lines), nil
}

// Export builds the actor's list and renders it to w.
func (s *ShoppingListService) Export(ctx context.Context, actor Actor, w io.Writer) error {
	items, err := s.Build(ctx, actor)
	if err != nil {
		return err
	}
	if err := RenderShoppingList(w, items); err != nil {
		return err
	}
	s.metrics.RecordShoppingListExport(len(items))
	s.log.Debug("Shopping list exported", "user_id", actor.UserID, "items", len(items))
	return nil
}

type shoppingKey struct {
	name string
	unit string
}

// Aggregate groups lines by (name, unit), sums amounts and orders the result
// by name then unit so equal carts always produce equal lists.
func Aggregate(lines []repository.CartLine) []ShoppingItem {
	totals := make(map[shoppingKey]int, len(lines))
	for _, line := range lines {
		totals[shoppingKey{name: line.Name, unit: line.MeasurementUnit}] += line.Amount
	}

	items := make([]ShoppingItem, 0, len(totals))
	for key, total := range totals {
		items = append(items, ShoppingItem{Name: key.name, Unit: key.unit, TotalAmount: total})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].Unit < items[j].Unit
	})
	return items
}

// RenderShoppingList writes a header line and then one numbered line per item.
func RenderShoppingList(w io.Writer, items []ShoppingItem) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, ShoppingListHeader); err != nil {
		return err
	}
	for i, item := range items {
		if _, err := fmt.Fprintf(bw, "Ингредиент №%d: %s  %d%s.\n", i+1, item.Name, item.TotalAmount, item.Unit); err != nil {
			return err
		}
	}
	return bw.Flush()
}

package shopping

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"foodgram/internal/document"
)

const (
	Heading   = "Shopping list:"
	EmptyText = "Shopping list is empty!"

	documentTitle = "Shopping list"
)

// LineSource supplies every ingredient line of every recipe in a user's cart.
type LineSource interface {
	FetchCartIngredientLines(ctx context.Context, userID int64) ([]Line, error)
}

// Service builds shopping lists out of cart contents.
type Service struct {
	source   LineSource
	renderer *document.Renderer
	filename string
	logger   *zap.Logger
}

// NewService creates a new shopping list service.
func NewService(source LineSource, renderer *document.Renderer, filename string, logger *zap.Logger) *Service {
	return &Service{
		source:   source,
		renderer: renderer,
		filename: filename,
		logger:   logger,
	}
}

// Aggregate returns the summed ingredients of the user's cart. An empty cart
// yields an empty list.
func (s *Service) Aggregate(ctx context.Context, userID int64) ([]Item, error) {
	lines, err := s.source.FetchCartIngredientLines(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cart ingredients: %w", err)
	}
	return Aggregate(lines), nil
}

// Render produces the PDF for items, or the empty-list page when there are none.
func (s *Service) Render(items []Item) (*Document, error) {
	pages := s.pages(items)

	content, err := s.renderer.Render(documentTitle, pages)
	if err != nil {
		return nil, fmt.Errorf("failed to render shopping list: %w", err)
	}

	return &Document{
		Filename: s.filename,
		Content:  content,
		Pages:    len(pages),
		Items:    len(items),
	}, nil
}

// Download aggregates the user's cart and renders it.
func (s *Service) Download(ctx context.Context, userID int64) (*Document, error) {
	items, err := s.Aggregate(ctx, userID)
	if err != nil {
		return nil, err
	}

	doc, err := s.Render(items)
	if err != nil {
		return nil, err
	}

	s.logger.Info("shopping list rendered",
		zap.Int64("user_id", userID),
		zap.Int("items", doc.Items),
		zap.Int("pages", doc.Pages),
	)
	return doc, nil
}

func (s *Service) pages(items []Item) []document.Page {
	metrics := s.renderer.Metrics()
	if len(items) == 0 {
		return metrics.Placeholder(EmptyText)
	}
	return metrics.Paginate(Heading, FormatList(items))
}

// FormatItem renders a single numbered list entry.
func FormatItem(index int, item Item) string {
	return fmt.Sprintf("%d. %s - %d %s.", index, item.Name, item.Amount, item.Unit)
}

// FormatList numbers items starting at 1.
func FormatList(items []Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = FormatItem(i+1, item)
	}
	return out
}

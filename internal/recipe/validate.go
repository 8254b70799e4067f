package recipe

import (
	"fmt"
	"strings"
)

// Validate checks a draft before it is written.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidRecipe)
	}
	if strings.TrimSpace(d.Text) == "" {
		return fmt.Errorf("%w: text must not be empty", ErrInvalidRecipe)
	}
	if d.CookingTime < 1 {
		return fmt.Errorf("%w: cooking_time must be at least 1", ErrInvalidRecipe)
	}

	if len(d.Ingredients) == 0 {
		return fmt.Errorf("%w: at least one ingredient is required", ErrInvalidRecipe)
	}
	seen := make(map[int64]struct{}, len(d.Ingredients))
	for _, ing := range d.Ingredients {
		if ing.Amount < 1 {
			return fmt.Errorf("%w: amount of ingredient %d must be at least 1", ErrInvalidRecipe, ing.ID)
		}
		if _, dup := seen[ing.ID]; dup {
			return fmt.Errorf("%w: ingredient %d is listed twice", ErrInvalidRecipe, ing.ID)
		}
		seen[ing.ID] = struct{}{}
	}

	if len(d.Tags) == 0 {
		return fmt.Errorf("%w: at least one tag is required", ErrInvalidRecipe)
	}
	tags := make(map[int64]struct{}, len(d.Tags))
	for _, id := range d.Tags {
		if _, dup := tags[id]; dup {
			return fmt.Errorf("%w: tag %d is listed twice", ErrInvalidRecipe, id)
		}
		tags[id] = struct{}{}
	}
	return nil
}

func (d Draft) ingredientIDs() []int64 {
	ids := make([]int64, len(d.Ingredients))
	for i, ing := range d.Ingredients {
		ids[i] = ing.ID
	}
	return ids
}

package recipe

import (
	"errors"
	"time"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidRecipe    = errors.New("invalid recipe")
	ErrForbidden        = errors.New("only the author may change a recipe")
	ErrAlreadyFavorited = errors.New("recipe is already in favorites")
	ErrNotFavorited     = errors.New("recipe is not in favorites")
	ErrTagExists        = errors.New("tag with this name or slug already exists")
)

// Tag labels recipes, e.g. breakfast or dinner.
type Tag struct {
	ID    int64  `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Color string `db:"color" json:"color"`
	Slug  string `db:"slug" json:"slug"`
}

// Ingredient is a catalogue entry. The same name may exist once per unit.
type Ingredient struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Unit string `db:"measurement_unit" json:"measurement_unit"`
}

// IngredientAmount is an ingredient as used by one recipe.
type IngredientAmount struct {
	ID     int64  `db:"id" json:"id"`
	Name   string `db:"name" json:"name"`
	Unit   string `db:"measurement_unit" json:"measurement_unit"`
	Amount int64  `db:"amount" json:"amount"`
}

// Author is the public view of a recipe's author.
type Author struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

// Recipe is a recipe as seen by a particular viewer.
type Recipe struct {
	ID               int64              `json:"id"`
	Author           Author             `json:"author"`
	Name             string             `json:"name"`
	Text             string             `json:"text"`
	CookingTime      int                `json:"cooking_time"`
	Tags             []Tag              `json:"tags"`
	Ingredients      []IngredientAmount `json:"ingredients"`
	IsFavorited      bool               `json:"is_favorited"`
	IsInShoppingCart bool               `json:"is_in_shopping_cart"`
	CreatedAt        time.Time          `json:"created_at"`
}

// DraftIngredient references a catalogue ingredient with the amount needed.
type DraftIngredient struct {
	ID     int64 `json:"id"`
	Amount int64 `json:"amount"`
}

// Draft carries the user supplied fields of a recipe being created or updated.
type Draft struct {
	Name        string            `json:"name"`
	Text        string            `json:"text"`
	CookingTime int               `json:"cooking_time"`
	Ingredients []DraftIngredient `json:"ingredients"`
	Tags        []int64           `json:"tags"`
}

// Filter narrows a recipe listing. Zero values disable a criterion.
type Filter struct {
	ViewerID      int64
	AuthorID      int64
	TagSlugs      []string
	FavoritedOnly bool
	InCartOnly    bool
	Limit         int
	Offset        int
}

// Page is one slice of a recipe listing together with the total match count.
type Page struct {
	Count   int      `json:"count"`
	Results []Recipe `json:"results"`
}

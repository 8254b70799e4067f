package shopping

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestAggregate(t *testing.T) {
	t.Run("SameNameAndUnitMerge", func(t *testing.T) {
		got := Aggregate([]Line{
			{Name: "Salt", Unit: "g", Amount: 10},
			{Name: "Salt", Unit: "g", Amount: 5},
		})
		assert.Equal(t, []Item{{Name: "Salt", Unit: "g", Amount: 15}}, got)
	})

	t.Run("DifferentUnitsStayApart", func(t *testing.T) {
		got := Aggregate([]Line{
			{Name: "Milk", Unit: "ml", Amount: 200},
			{Name: "Milk", Unit: "L", Amount: 1},
		})
		want := []Item{
			{Name: "Milk", Unit: "L", Amount: 1},
			{Name: "Milk", Unit: "ml", Amount: 200},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Aggregate() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		assert.Empty(t, Aggregate(nil))
		assert.Empty(t, Aggregate([]Line{}))
	})

	t.Run("OrderedByNameThenUnit", func(t *testing.T) {
		got := Aggregate([]Line{
			{Name: "Sugar", Unit: "g", Amount: 100},
			{Name: "Eggs", Unit: "pcs", Amount: 2},
			{Name: "Butter", Unit: "tbsp", Amount: 1},
			{Name: "Butter", Unit: "g", Amount: 50},
			{Name: "Eggs", Unit: "pcs", Amount: 3},
		})
		want := []Item{
			{Name: "Butter", Unit: "g", Amount: 50},
			{Name: "Butter", Unit: "tbsp", Amount: 1},
			{Name: "Eggs", Unit: "pcs", Amount: 5},
			{Name: "Sugar", Unit: "g", Amount: 100},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Aggregate() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		lines := []Line{
			{Name: "Flour", Unit: "g", Amount: 500},
			{Name: "Salt", Unit: "g", Amount: 5},
			{Name: "Water", Unit: "ml", Amount: 300},
			{Name: "Yeast", Unit: "g", Amount: 7},
			{Name: "Salt", Unit: "g", Amount: 2},
			{Name: "Olive oil", Unit: "tbsp", Amount: 2},
		}
		want := Aggregate(lines)

		rng := rand.New(rand.NewSource(1))
		for i := 0; i < 20; i++ {
			shuffled := append([]Line(nil), lines...)
			rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

			if diff := cmp.Diff(want, Aggregate(shuffled)); diff != "" {
				t.Fatalf("Aggregate() depends on input order (-want +got):\n%s", diff)
			}
		}
	})
}

func TestFormatItem(t *testing.T) {
	assert.Equal(t, "1. Salt - 15 g.", FormatItem(1, Item{Name: "Salt", Unit: "g", Amount: 15}))
	assert.Equal(t, "12. Milk - 1 L.", FormatItem(12, Item{Name: "Milk", Unit: "L", Amount: 1}))
}

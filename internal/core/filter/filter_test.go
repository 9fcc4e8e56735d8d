package filter

import (
	"testing"

	"meal-planner/internal/core/diet"
	"meal-planner/internal/core/recipe"
	"meal-planner/internal/core/similarity"
	"meal-planner/internal/pkg/common"

	"github.com/stretchr/testify/assert"
)

func pool(recipes ...recipe.Recipe) []similarity.Match {
	out := make([]similarity.Match, len(recipes))
	for i := range recipes {
		out[i] = similarity.Match{Recipe: &recipes[i], Row: i, Score: 1 - float64(i)/10}
	}
	return out
}

func names(p []similarity.Match) []string {
	out := make([]string, len(p))
	for i, m := range p {
		out[i] = m.Recipe.Name
	}
	return out
}

func TestStrictSubset(t *testing.T) {
	p := pool(
		recipe.Recipe{Name: "exact", IngredientParts: "Egg, Milk"},
		recipe.Recipe{Name: "three extra", IngredientParts: "egg, milk, flour, sugar, salt"},
		recipe.Recipe{Name: "four extra", IngredientParts: "egg, milk, flour, sugar, salt, butter"},
		recipe.Recipe{Name: "missing milk", IngredientParts: "egg, flour"},
		recipe.Recipe{Name: "no parts"},
	)

	got := StrictSubset([]string{" egg", "MILK "}, 3)(p)
	assert.Equal(t, []string{"exact", "three extra"}, names(got))

	for _, m := range got {
		set := m.Recipe.IngredientSet()
		assert.Contains(t, set, "egg")
		assert.Contains(t, set, "milk")
	}
}

func TestStrictSubset_EmptyPantry(t *testing.T) {
	p := pool(
		recipe.Recipe{Name: "small", IngredientParts: "a, b"},
		recipe.Recipe{Name: "large", IngredientParts: "a, b, c, d"},
	)
	assert.Equal(t, []string{"small"}, names(StrictSubset(nil, 3)(p)))
}

func TestExclude(t *testing.T) {
	p := pool(
		recipe.Recipe{Name: "Pancakes"},
		recipe.Recipe{Name: "Waffles"},
		recipe.Recipe{Name: "Toast"},
	)

	got := Exclude([]string{"pancakes", " TOAST "})(p)
	assert.Equal(t, []string{"Waffles"}, names(got))

	assert.Len(t, Exclude(nil)(p), 3)
}

func TestAllergy(t *testing.T) {
	p := pool(
		recipe.Recipe{Name: "nutty", IngredientParts: "Peanuts, sugar"},
		recipe.Recipe{Name: "plain", IngredientParts: "rice, water"},
		recipe.Recipe{Name: "shellfish", IngredientParts: "shrimp, garlic"},
	)

	tests := []struct {
		name   string
		tokens []string
		want   []string
	}{
		{"substring match", []string{"peanut"}, []string{"plain", "shellfish"}},
		{"multiple tokens", []string{"peanut", " Shrimp"}, []string{"plain"}},
		{"empty tokens ignored", []string{"", " ", "peanut"}, []string{"plain", "shellfish"}},
		{"no tokens", nil, []string{"nutty", "plain", "shellfish"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(Allergy(tt.tokens)(p)))
		})
	}
}

func TestDietary(t *testing.T) {
	rules := diet.Default()
	p := pool(
		recipe.Recipe{Name: "omelette", IngredientParts: "egg, cheese"},
		recipe.Recipe{Name: "moussaka", IngredientParts: "eggplant, tomato"},
		recipe.Recipe{Name: "burger", IngredientParts: "hamburger buns, lettuce"},
		recipe.Recipe{Name: "ham sandwich", IngredientParts: "ham, bread"},
	)

	assert.Equal(t, []string{"moussaka", "burger"}, names(Dietary(rules, "vegan")(p)))
	assert.Equal(t, []string{"omelette", "moussaka", "burger"}, names(Dietary(rules, "Halal")(p)))
	assert.Len(t, Dietary(rules, "none")(p), 4)
	assert.Len(t, Dietary(rules, "carnivore")(p), 4)
	assert.Len(t, Dietary(nil, "vegan")(p), 4)
}

func TestDietary_SyntheticRules(t *testing.T) {
	rules := diet.NewRules(map[string][]string{"no-plant": {"eggplant"}})
	p := pool(
		recipe.Recipe{Name: "omelette", IngredientParts: "egg"},
		recipe.Recipe{Name: "moussaka", IngredientParts: "eggplant"},
	)
	assert.Equal(t, []string{"omelette"}, names(Dietary(rules, "no-plant")(p)))
}

func TestServingSize(t *testing.T) {
	p := pool(
		recipe.Recipe{Name: "two", Servings: common.NewFlexFloat(2)},
		recipe.Recipe{Name: "eight", Servings: common.NewFlexFloat(8)},
		recipe.Recipe{Name: "nine", Servings: common.NewFlexFloat(9)},
		recipe.Recipe{Name: "unknown"},
	)

	assert.Equal(t, []string{"two", "eight"}, names(ServingSize(4, 4)(p)))
}

func TestMealTypeAndCalories(t *testing.T) {
	p := pool(
		recipe.Recipe{Name: "snack", Calories: common.NewFlexFloat(150)},
		recipe.Recipe{Name: "dinner", Calories: common.NewFlexFloat(900)},
		recipe.Recipe{Name: "zero", Calories: common.NewFlexFloat(0)},
		recipe.Recipe{Name: "missing"},
	)

	assert.Equal(t, []string{"dinner"}, names(MealType(recipe.Dinner)(p)))
	assert.Equal(t, []string{"snack", "dinner"}, names(PositiveCalories(p)))
}

func TestChain_DoesNotMutateInput(t *testing.T) {
	p := pool(
		recipe.Recipe{Name: "a", IngredientParts: "egg"},
		recipe.Recipe{Name: "b", IngredientParts: "rice"},
	)
	got := Chain(p, Allergy([]string{"egg"}), Exclude([]string{"c"}))

	assert.Equal(t, []string{"b"}, names(got))
	assert.Equal(t, []string{"a", "b"}, names(p))
}

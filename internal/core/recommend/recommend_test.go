package recommend

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"meal-planner/internal/core/diet"
	"meal-planner/internal/core/recipe"
	"meal-planner/internal/core/similarity"
	"meal-planner/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cal(v float64) common.FlexFloat { return common.NewFlexFloat(v) }

func newRecommender(t *testing.T, recipes []recipe.Recipe) *Recommender {
	t.Helper()
	idx, err := similarity.NewIndex(similarity.Fit(recipes), "food.com")
	require.NoError(t, err)
	return NewRecommender(NewBuilder(idx, diet.Default(), DefaultOptions()), 50)
}

func breakfastCorpus() []recipe.Recipe {
	return []recipe.Recipe{
		{Name: "Scrambled Eggs", IngredientParts: "egg, milk, butter", Calories: cal(250), Servings: cal(2)},
		{Name: "French Toast", IngredientParts: "egg, milk, bread, cinnamon", Calories: cal(380), Servings: cal(4)},
		{Name: "Pancakes", IngredientParts: "egg, milk, flour, sugar", Calories: cal(450), Servings: cal(6)},
		{Name: "Custard", IngredientParts: "egg, milk, sugar, vanilla", Calories: cal(300), Servings: cal(8)},
		{Name: "Quiche", IngredientParts: "egg, milk, cheese, flour, spinach", Calories: cal(650), Servings: cal(6)},
		{Name: "Rice Bowl", IngredientParts: "rice, soy sauce, scallion", Calories: cal(500), Servings: cal(1)},
		{Name: "Eggplant Stew", IngredientParts: "eggplant, tomato, onion", Calories: cal(320), Servings: cal(4)},
		{Name: "Lentil Soup", IngredientParts: "lentil, carrot, onion", Calories: cal(280), Servings: cal(4)},
	}
}

func TestRecommend_NeverExceedsTopK(t *testing.T) {
	r := newRecommender(t, breakfastCorpus())

	pantries := [][]string{nil, {"egg"}, {"egg", "milk"}, {"onion"}, {"unobtainium"}}
	for _, pantry := range pantries {
		for _, k := range []int{1, 3, 10} {
			items, err := r.Recommend(context.Background(), Request{Pantry: pantry, TopK: k})
			require.NoError(t, err)
			assert.LessOrEqual(t, len(items), k, "pantry %v k %d", pantry, k)
		}
	}
}

func TestRecommend_StrictSubset(t *testing.T) {
	r := newRecommender(t, breakfastCorpus())

	items, err := r.Recommend(context.Background(), Request{Pantry: []string{"Egg", "milk"}, TopK: 3})
	require.NoError(t, err)
	require.Len(t, items, 3)

	for _, it := range items {
		set := common.NameSet(it.Ingredients)
		assert.Contains(t, set, "egg", it.Name)
		assert.Contains(t, set, "milk", it.Name)
		assert.LessOrEqual(t, len(set)-2, 3)
	}
}

func TestRecommend_Exclusion(t *testing.T) {
	r := newRecommender(t, breakfastCorpus())
	exclude := []string{"scrambled eggs", "FRENCH TOAST", "rice bowl"}

	for _, pantry := range [][]string{{"egg", "milk"}, {"rice"}, nil} {
		items, err := r.Recommend(context.Background(), Request{Pantry: pantry, Exclude: exclude, TopK: 10})
		require.NoError(t, err)
		banned := common.NameSet(exclude)
		for _, it := range items {
			assert.NotContains(t, banned, strings.ToLower(it.Name))
		}
	}
}

func TestRecommend_VeganNeverReturnsEgg(t *testing.T) {
	r := newRecommender(t, breakfastCorpus())
	egg := regexp.MustCompile(`\begg\b`)

	items, err := r.Recommend(context.Background(), Request{
		Pantry:  []string{"egg", "milk"},
		TopK:    10,
		Profile: &Profile{DietaryPref: "vegan"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, items)

	names := make([]string, 0, len(items))
	for _, it := range items {
		assert.False(t, egg.MatchString(strings.ToLower(strings.Join(it.Ingredients, ", "))), it.Name)
		names = append(names, it.Name)
	}
	assert.Contains(t, names, "Eggplant Stew")
}

func TestRecommend_Idempotent(t *testing.T) {
	r := newRecommender(t, breakfastCorpus())
	req := Request{Pantry: []string{"egg", "milk"}, Exclude: []string{"custard"}, ServingSize: 4, TopK: 5}

	first, err := r.Recommend(context.Background(), req)
	require.NoError(t, err)
	second, err := r.Recommend(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRecommend_ClampsToAvailable(t *testing.T) {
	r := newRecommender(t, []recipe.Recipe{
		{Name: "A", IngredientParts: "kale, garlic", Calories: cal(150)},
		{Name: "B", IngredientParts: "tofu, ginger", Calories: cal(350)},
		{Name: "C", IngredientParts: "beef, potato", Calories: cal(650)},
		{Name: "D", IngredientParts: "salmon, lemon", Calories: cal(800)},
	})

	items, err := r.Recommend(context.Background(), Request{Pantry: []string{"garlic", "chicken"}, TopK: 10})
	require.NoError(t, err)
	assert.Len(t, items, 4)
	assert.Equal(t, "A", items[0].Name)
}

func TestRecommend_MealTypeFilter(t *testing.T) {
	r := newRecommender(t, breakfastCorpus())

	items, err := r.Recommend(context.Background(), Request{Pantry: []string{"egg", "milk"}, TopK: 10, MealType: "breakfast"})
	require.NoError(t, err)
	require.NotEmpty(t, items)
	for _, it := range items {
		assert.Equal(t, recipe.Breakfast, it.MealType)
	}

	items, err = r.Recommend(context.Background(), Request{Pantry: []string{"egg", "milk"}, TopK: 10, MealType: "snack"})
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)

	_, err = r.Recommend(context.Background(), Request{Pantry: []string{"egg"}, TopK: 10, MealType: "brunch"})
	assert.True(t, common.IsValidationError(err))
}

func TestRecommend_ServingWindow(t *testing.T) {
	r := newRecommender(t, breakfastCorpus())

	items, err := r.Recommend(context.Background(), Request{Pantry: []string{"egg", "milk"}, TopK: 10, ServingSize: 1})
	require.NoError(t, err)
	for _, it := range items {
		assert.LessOrEqual(t, it.Servings.Value, 5.0, it.Name)
	}
}

func TestRecommend_GoalOrdersTies(t *testing.T) {
	var corpus []recipe.Recipe
	for i, c := range []float64{500, 200, 800} {
		corpus = append(corpus, recipe.Recipe{
			Name:            fmt.Sprintf("Oats %d", i),
			IngredientParts: "oats, milk",
			Calories:        cal(c),
		})
	}
	corpus = append(corpus, recipe.Recipe{Name: "Oats unknown", IngredientParts: "oats, milk"})
	r := newRecommender(t, corpus)

	calories := func(goal string) []float64 {
		items, err := r.Recommend(context.Background(), Request{Pantry: []string{"oats", "milk"}, TopK: 4, Profile: &Profile{Goal: goal}})
		require.NoError(t, err)
		out := make([]float64, 0, len(items))
		for _, it := range items {
			out = append(out, it.Calories.Value)
		}
		return out
	}

	assert.Equal(t, []float64{200, 500, 800, 0}, calories("Weight Loss"))
	assert.Equal(t, []float64{800, 500, 200, 0}, calories("weight-gain"))
	assert.Equal(t, []float64{500, 200, 800, 0}, calories("maintain"))
}

func TestRecommend_IndexUnavailable(t *testing.T) {
	loaded := similarity.Failed(errors.New("missing artifact"))
	r := NewRecommender(NewBuilder(loaded, nil, DefaultOptions()), 50)

	_, err := r.Recommend(context.Background(), Request{Pantry: []string{"egg"}, TopK: 5})
	assert.ErrorIs(t, err, common.ErrIndexUnavailable)
}

type recordingSearcher struct {
	sizes []int
}

func (s *recordingSearcher) Query(pantry []string, topK int) ([]similarity.Match, error) {
	s.sizes = append(s.sizes, topK)
	return []similarity.Match{}, nil
}

func TestRecommend_QuerySizes(t *testing.T) {
	s := &recordingSearcher{}
	r := NewRecommender(NewBuilder(s, nil, DefaultOptions()), 50)

	_, err := r.Recommend(context.Background(), Request{Pantry: []string{"egg"}, TopK: 20})
	require.NoError(t, err)
	assert.Equal(t, []int{100, 20}, s.sizes)

	s.sizes = nil
	_, err = r.Recommend(context.Background(), Request{Pantry: []string{"egg"}, TopK: 4})
	require.NoError(t, err)
	assert.Equal(t, []int{50, 4}, s.sizes)
}

func TestParseGoal(t *testing.T) {
	tests := map[string]Goal{
		"weight loss":   GoalWeightLoss,
		"Weight-Loss":   GoalWeightLoss,
		" weight_loss ": GoalWeightLoss,
		"weight gain":   GoalWeightGain,
		"WEIGHT_GAIN":   GoalWeightGain,
		"maintain":      GoalMaintain,
		"":              GoalMaintain,
		"bulk":          GoalMaintain,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseGoal(in), in)
	}
	var p *Profile
	assert.Equal(t, GoalMaintain, p.ParsedGoal())
}

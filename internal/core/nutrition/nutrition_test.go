package nutrition

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"meal-planner/internal/core/cache"
	"meal-planner/internal/core/recipe"
	"meal-planner/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConverter_ToGrams(t *testing.T) {
	c := NewConverter(nil)
	tests := []struct {
		qty        float64
		unit       string
		ingredient string
		want       float64
	}{
		{250, "g", "flour", 250},
		{2, "Kg", "flour", 2000},
		{100, "ml", "Milk", 103},
		{1, "L", "honey", 1420},
		{1, "litre", "olive oil", 920},
		{500, "ml", "vinegar", 500},
		{3, "cup", "rice", 3},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, c.ToGrams(tt.qty, tt.unit, tt.ingredient), 1e-9, "%v %s %s", tt.qty, tt.unit, tt.ingredient)
	}
}

func TestConverter_InjectedTable(t *testing.T) {
	c := NewConverter(map[string]float64{"Syrup": 1.3, "air": 0})
	assert.Equal(t, 1.3, c.Density("syrup"))
	assert.Equal(t, 1.0, c.Density("milk"))
	assert.Equal(t, 1.0, c.Density("air"))
}

const searchBody = `{"foods":[{"description":"Milk","foodNutrients":[
	{"nutrientName":"Protein","unitName":"G","value":3.3},
	{"nutrientName":"Total lipid (fat)","unitName":"G","value":"1.5"},
	{"nutrientName":"Calcium, Ca","unitName":"MG","value":125},
	{"nutrientName":"Broken","unitName":"G","value":"n/a"},
	{"nutrientName":"","unitName":"G","value":1}
]}]}`

func newUSDAServer(t *testing.T, calls *int32, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, "/foods/search", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("pageSize"))
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func usdaConfig(url string) config.USDAConfig {
	return config.USDAConfig{APIKey: "test-key", BaseURL: url, Timeout: time.Second, PageSize: 1}
}

func TestUSDAClient_LookupScales(t *testing.T) {
	var calls int32
	srv := newUSDAServer(t, &calls, http.StatusOK, searchBody)
	client := NewUSDAClient(usdaConfig(srv.URL), nil)

	got, err := client.Lookup(context.Background(), "Milk", 250)
	require.NoError(t, err)

	assert.Equal(t, Nutrients{
		"Protein":           {Value: 8.25, Unit: "G"},
		"Total lipid (fat)": {Value: 3.75, Unit: "G"},
		"Calcium, Ca":       {Value: 312.5, Unit: "MG"},
	}, got)
}

func TestUSDAClient_UsesCache(t *testing.T) {
	var calls int32
	srv := newUSDAServer(t, &calls, http.StatusOK, searchBody)
	store := cache.NewManager(config.CacheConfig{Enabled: true, MaxSize: 10, TTL: time.Hour})
	defer store.Close()
	client := NewUSDAClient(usdaConfig(srv.URL), store)

	first, err := client.Lookup(context.Background(), "milk", 100)
	require.NoError(t, err)
	second, err := client.Lookup(context.Background(), " MILK ", 100)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestUSDAClient_Errors(t *testing.T) {
	var calls int32
	srv := newUSDAServer(t, &calls, http.StatusForbidden, `{"error":"bad key"}`)
	client := NewUSDAClient(usdaConfig(srv.URL), nil)

	_, err := client.Lookup(context.Background(), "milk", 100)
	assert.Error(t, err)

	empty := newUSDAServer(t, &calls, http.StatusOK, `{"foods":[]}`)
	got, err := NewUSDAClient(usdaConfig(empty.URL), nil).Lookup(context.Background(), "unobtainium", 100)
	require.NoError(t, err)
	assert.Empty(t, got)
}

type fakeLookup struct {
	per100 map[string]Nutrients
	calls  int32
}

func (f *fakeLookup) Lookup(ctx context.Context, ingredient string, grams float64) (Nutrients, error) {
	atomic.AddInt32(&f.calls, 1)
	n, ok := f.per100[ingredient]
	if !ok {
		return nil, errors.New("not found")
	}
	return Scale(n, grams), nil
}

func TestAnnotator_Recipe(t *testing.T) {
	lookup := &fakeLookup{per100: map[string]Nutrients{
		"oats": {"Protein": {13, "G"}, "Carbohydrate, by difference": {68, "G"}},
		"milk": {"Protein": {3.3, "G"}, "Calcium, Ca": {125, "MG"}},
	}}
	a := NewAnnotator(lookup, 2)

	r := &recipe.Recipe{
		IngredientParts:      "oats, milk, mystery",
		IngredientQuantities: "50, 200, 10",
	}
	ann, err := a.Recipe(context.Background(), r)
	require.NoError(t, err)

	assert.Equal(t, []string{"oats-50", "milk-200", "mystery-10"}, ann.Ingredients)
	assert.InDelta(t, 6.5+6.6, ann.Totals["Protein"].Value, 1e-9)
	assert.Equal(t, "G", ann.Totals["Protein"].Unit)
	assert.Equal(t, "13.1 G", ann.Formatted["Protein"])
	assert.InDelta(t, 34, ann.Main.Carbohydrates, 1e-9)
	assert.InDelta(t, 250, ann.Main.Minerals.Calcium, 1e-9)
	assert.Zero(t, ann.Main.Vitamins.C)
	assert.Equal(t, []string{"mystery"}, ann.Failed)
}

func TestAnnotator_MismatchedQuantities(t *testing.T) {
	lookup := &fakeLookup{per100: map[string]Nutrients{"oats": {"Protein": {13, "G"}}}}
	a := NewAnnotator(lookup, 0)

	ann, err := a.Recipe(context.Background(), &recipe.Recipe{
		IngredientParts:      "oats, milk",
		IngredientQuantities: "50",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"oats-0", "milk-0"}, ann.Ingredients)
	assert.Empty(t, ann.Totals)
	assert.Zero(t, atomic.LoadInt32(&lookup.calls))
}

func TestAnnotator_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := NewAnnotator(ctxLookup{}, 1)
	_, err := a.Pairs(ctx, []recipe.IngredientPair{{Name: "oats", Quantity: "1", Amount: 1}})
	assert.ErrorIs(t, err, context.Canceled)
}

type ctxLookup struct{}

func (ctxLookup) Lookup(ctx context.Context, ingredient string, grams float64) (Nutrients, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestExtractMain_Missing(t *testing.T) {
	assert.Equal(t, MainNutrients{}, ExtractMain(nil))
}

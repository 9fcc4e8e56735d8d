package nutrition

import (
	"context"
	"fmt"

	"meal-planner/internal/core/recipe"
	"meal-planner/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Vitamins 主要維生素
type Vitamins struct {
	C  float64 `json:"vitamin_c"`
	B6 float64 `json:"vitamin_b6"`
	A  float64 `json:"vitamin_a"`
	K  float64 `json:"vitamin_k"`
}

// Minerals 主要礦物質
type Minerals struct {
	Calcium   float64 `json:"calcium"`
	Iron      float64 `json:"iron"`
	Potassium float64 `json:"potassium"`
	Magnesium float64 `json:"magnesium"`
	Sodium    float64 `json:"sodium"`
}

// MainNutrients 營養摘要，缺少的項目為 0
type MainNutrients struct {
	Carbohydrates float64  `json:"carbohydrates"`
	Protein       float64  `json:"protein"`
	Fat           float64  `json:"fat"`
	Water         float64  `json:"water"`
	Vitamins      Vitamins `json:"vitamins"`
	Minerals      Minerals `json:"minerals"`
}

// ExtractMain 從 USDA 營養素名稱擷取摘要
func ExtractMain(n Nutrients) MainNutrients {
	v := func(name string) float64 { return n[name].Value }
	return MainNutrients{
		Carbohydrates: v("Carbohydrate, by difference"),
		Protein:       v("Protein"),
		Fat:           v("Total lipid (fat)"),
		Water:         v("Water"),
		Vitamins: Vitamins{
			C:  v("Vitamin C, total ascorbic acid"),
			B6: v("Vitamin B-6"),
			A:  v("Vitamin A, IU"),
			K:  v("Vitamin K (phylloquinone)"),
		},
		Minerals: Minerals{
			Calcium:   v("Calcium, Ca"),
			Iron:      v("Iron, Fe"),
			Potassium: v("Potassium, K"),
			Magnesium: v("Magnesium, Mg"),
			Sodium:    v("Sodium, Na"),
		},
	}
}

// Annotation 食譜營養彙總
type Annotation struct {
	Ingredients []string          `json:"ingredients_with_quantity"`
	Totals      Nutrients         `json:"totals"`
	Formatted   map[string]string `json:"formatted"`
	Main        MainNutrients     `json:"main_nutrients"`
	Failed      []string          `json:"failed,omitempty"`
}

// Annotator 並行查詢每項食材並加總
type Annotator struct {
	lookup  Lookup
	workers int
}

// NewAnnotator 創建營養彙總器，workers <= 0 表示不限併發
func NewAnnotator(lookup Lookup, workers int) *Annotator {
	return &Annotator{lookup: lookup, workers: workers}
}

// Recipe 依食材與數量（視為公克）彙總食譜營養
func (a *Annotator) Recipe(ctx context.Context, r *recipe.Recipe) (*Annotation, error) {
	return a.Pairs(ctx, r.Pairs())
}

// Pairs 彙總食材配對；數量為 0 的項目不查詢，單項查詢失敗記錄後略過
func (a *Annotator) Pairs(ctx context.Context, pairs []recipe.IngredientPair) (*Annotation, error) {
	results := make([]Nutrients, len(pairs))
	failed := make([]bool, len(pairs))

	g, gctx := errgroup.WithContext(ctx)
	if a.workers > 0 {
		g.SetLimit(a.workers)
	}
	for i, p := range pairs {
		if p.Amount <= 0 {
			continue
		}
		i, p := i, p
		g.Go(func() error {
			n, err := a.lookup.Lookup(gctx, p.Name, p.Amount)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				common.LogWarn("食材營養查詢失敗", zap.String("ingredient", p.Name), zap.Error(err))
				failed[i] = true
				return nil
			}
			results[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("annotate nutrition: %w", err)
	}

	ann := &Annotation{
		Ingredients: make([]string, len(pairs)),
		Totals:      Nutrients{},
		Formatted:   map[string]string{},
	}
	for i, p := range pairs {
		ann.Ingredients[i] = p.String()
		if failed[i] {
			ann.Failed = append(ann.Failed, p.Name)
		}
		for name, n := range results[i] {
			total, ok := ann.Totals[name]
			if !ok {
				total.Unit = n.Unit
			}
			total.Value += n.Value
			ann.Totals[name] = total
		}
	}

	for name, n := range ann.Totals {
		n.Value = round2(n.Value)
		ann.Totals[name] = n
		ann.Formatted[name] = fmt.Sprintf("%v %s", n.Value, n.Unit)
	}
	ann.Main = ExtractMain(ann.Totals)
	return ann, nil
}

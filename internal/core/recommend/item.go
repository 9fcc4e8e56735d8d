package recommend

import (
	"meal-planner/internal/core/recipe"
	"meal-planner/internal/core/similarity"
	"meal-planner/internal/pkg/common"
)

// Item 輸出給呼叫端的食譜紀錄
type Item struct {
	Name                    string           `json:"name"`
	Description             string           `json:"description,omitempty"`
	Calories                common.FlexFloat `json:"calories"`
	Servings                common.FlexFloat `json:"servings"`
	MealType                recipe.MealType  `json:"meal_type"`
	Ingredients             []string         `json:"ingredients"`
	IngredientsWithQuantity []string         `json:"ingredients_with_quantity"`
	Instructions            string           `json:"instructions"`
	Images                  []string         `json:"images,omitempty"`
	Score                   float64          `json:"match_score"`
}

// NewItem 由查詢結果建立輸出紀錄，餐別依熱量重新計算
func NewItem(m similarity.Match) Item {
	r := m.Recipe
	return Item{
		Name:                    r.Name,
		Description:             r.Description,
		Calories:                r.Calories,
		Servings:                r.Servings,
		MealType:                r.MealType(),
		Ingredients:             common.SplitList(r.IngredientParts),
		IngredientsWithQuantity: r.IngredientsWithQuantity(),
		Instructions:            r.Instructions,
		Images:                  r.Images,
		Score:                   m.Score,
	}
}

// NewItems 批次轉換
func NewItems(pool []similarity.Match) []Item {
	items := make([]Item, len(pool))
	for i := range pool {
		items[i] = NewItem(pool[i])
	}
	return items
}

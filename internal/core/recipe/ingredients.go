package recipe

import (
	"fmt"

	"meal-planner/internal/pkg/common"
)

// IngredientPair 食材與對應數量
type IngredientPair struct {
	Name     string  `json:"name"`
	Quantity string  `json:"quantity"`
	Amount   float64 `json:"amount"`
}

// String 顯示格式 "name-qty"
func (p IngredientPair) String() string {
	return fmt.Sprintf("%s-%s", p.Name, p.Quantity)
}

// Pairs 依位置配對食材與數量
//
// 兩份清單長度不一致時全部視為數量 0；無法解析的數量同樣為 0。
func (r *Recipe) Pairs() []IngredientPair {
	parts := common.SplitList(r.IngredientParts)
	qtys := common.SplitList(r.IngredientQuantities)
	aligned := len(parts) == len(qtys)

	pairs := make([]IngredientPair, len(parts))
	for i, name := range parts {
		pairs[i] = IngredientPair{Name: name, Quantity: "0"}
		if !aligned {
			continue
		}
		pairs[i].Quantity = qtys[i]
		if v, ok := common.ParseFloat(qtys[i]); ok && v > 0 {
			pairs[i].Amount = v
		}
	}
	return pairs
}

// IngredientsWithQuantity 輸出 "name-qty" 清單
func (r *Recipe) IngredientsWithQuantity() []string {
	pairs := r.Pairs()
	out := make([]string, len(pairs))
	for i, p := range pairs {
		out[i] = p.String()
	}
	return out
}

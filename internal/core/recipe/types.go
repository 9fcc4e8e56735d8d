package recipe

import (
	"strings"

	"meal-planner/internal/pkg/common"
)

// MealType 餐別標籤
type MealType string

const (
	Snack     MealType = "Snack"
	Breakfast MealType = "Breakfast"
	Lunch     MealType = "Lunch"
	Dinner    MealType = "Dinner"
	Unknown   MealType = "Unknown"
)

// 熱量分界（kcal）
const (
	snackCeiling     = 200
	breakfastCeiling = 400
	lunchCeiling     = 700
)

// Classify 依熱量判定餐別
func Classify(calories common.FlexFloat) MealType {
	if !calories.Valid {
		return Unknown
	}
	switch cal := calories.Value; {
	case cal < snackCeiling:
		return Snack
	case cal < breakfastCeiling:
		return Breakfast
	case cal < lunchCeiling:
		return Lunch
	default:
		return Dinner
	}
}

// ParseMealType 解析使用者輸入的餐別，大小寫不敏感
func ParseMealType(s string) (MealType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "snack":
		return Snack, true
	case "breakfast":
		return Breakfast, true
	case "lunch":
		return Lunch, true
	case "dinner":
		return Dinner, true
	}
	return "", false
}

// Recipe 語料中的食譜，載入後不可變
type Recipe struct {
	Name                 string           `json:"name"`
	Description          string           `json:"description,omitempty"`
	IngredientParts      string           `json:"ingredient_parts"`
	IngredientQuantities string           `json:"ingredient_quantities"`
	Calories             common.FlexFloat `json:"calories"`
	Servings             common.FlexFloat `json:"servings"`
	Instructions         string           `json:"instructions"`
	Images               []string         `json:"images,omitempty"`
}

// MealType 由熱量即時推導，確保與熱量一致
func (r *Recipe) MealType() MealType {
	return Classify(r.Calories)
}

// HasPositiveCalories 是否可納入餐點計畫
func (r *Recipe) HasPositiveCalories() bool {
	return r.Calories.Valid && r.Calories.Value > 0
}

// IngredientSet 解析食材集合（小寫、去空白）
func (r *Recipe) IngredientSet() map[string]struct{} {
	return common.NameSet(common.SplitList(r.IngredientParts))
}

// LowerParts 食材原文小寫，供子字串與整字比對
func (r *Recipe) LowerParts() string {
	return strings.ToLower(r.IngredientParts)
}

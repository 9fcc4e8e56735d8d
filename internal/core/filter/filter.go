// Package filter 候選池過濾器：每個過濾器接收候選池並回傳新的候選池，不修改輸入
package filter

import (
	"strings"

	"meal-planner/internal/core/diet"
	"meal-planner/internal/core/recipe"
	"meal-planner/internal/core/similarity"
	"meal-planner/internal/pkg/common"
)

// Func 單一過濾步驟
type Func func([]similarity.Match) []similarity.Match

// Chain 依序套用過濾器
func Chain(pool []similarity.Match, steps ...Func) []similarity.Match {
	for _, step := range steps {
		pool = step(pool)
	}
	return pool
}

func keep(pool []similarity.Match, pred func(*similarity.Match) bool) []similarity.Match {
	out := make([]similarity.Match, 0, len(pool))
	for i := range pool {
		if pred(&pool[i]) {
			out = append(out, pool[i])
		}
	}
	return out
}

// StrictSubset 保留包含全部庫存食材、且額外食材不超過 maxExtra 的食譜
func StrictSubset(pantry []string, maxExtra int) Func {
	want := common.NameSet(pantry)
	return func(pool []similarity.Match) []similarity.Match {
		return keep(pool, func(m *similarity.Match) bool {
			have := m.Recipe.IngredientSet()
			for token := range want {
				if _, ok := have[token]; !ok {
					return false
				}
			}
			extra := 0
			for token := range have {
				if _, ok := want[token]; !ok {
					extra++
				}
			}
			return extra <= maxExtra
		})
	}
}

// Exclude 移除名稱（不分大小寫）在排除清單中的食譜
func Exclude(names []string) Func {
	excluded := common.NameSet(names)
	return func(pool []similarity.Match) []similarity.Match {
		if len(excluded) == 0 {
			return pool
		}
		return keep(pool, func(m *similarity.Match) bool {
			_, hit := excluded[common.NormalizeName(m.Recipe.Name)]
			return !hit
		})
	}
}

// Allergy 移除食材文字含任一過敏原子字串的食譜；空白項目忽略
func Allergy(tokens []string) Func {
	allergens := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t = common.NormalizeName(t); t != "" {
			allergens = append(allergens, t)
		}
	}
	return func(pool []similarity.Match) []similarity.Match {
		if len(allergens) == 0 {
			return pool
		}
		return keep(pool, func(m *similarity.Match) bool {
			text := m.Recipe.LowerParts()
			for _, a := range allergens {
				if strings.Contains(text, a) {
					return false
				}
			}
			return true
		})
	}
}

// Dietary 依飲食偏好以整字比對排除食譜；未知偏好或 none 不過濾
func Dietary(rules *diet.Rules, pref string) Func {
	return func(pool []similarity.Match) []similarity.Match {
		if rules == nil || !rules.Active(pref) {
			return pool
		}
		return keep(pool, func(m *similarity.Match) bool {
			return !rules.Excludes(pref, m.Recipe.IngredientParts)
		})
	}
}

// ServingSize 保留份量落在 [target-tolerance, target+tolerance] 的食譜，份量無法解析者移除
func ServingSize(target, tolerance float64) Func {
	lower, upper := target-tolerance, target+tolerance
	return func(pool []similarity.Match) []similarity.Match {
		return keep(pool, func(m *similarity.Match) bool {
			s := m.Recipe.Servings
			return s.Valid && s.Value >= lower && s.Value <= upper
		})
	}
}

// MealType 僅保留指定餐別
func MealType(t recipe.MealType) Func {
	return func(pool []similarity.Match) []similarity.Match {
		return keep(pool, func(m *similarity.Match) bool {
			return m.Recipe.MealType() == t
		})
	}
}

// PositiveCalories 移除熱量缺失或非正值的食譜
func PositiveCalories(pool []similarity.Match) []similarity.Match {
	return keep(pool, func(m *similarity.Match) bool {
		return m.Recipe.HasPositiveCalories()
	})
}

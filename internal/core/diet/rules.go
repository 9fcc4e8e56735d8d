// Package diet 飲食偏好排除規則表
package diet

import (
	"regexp"
	"sort"
	"strings"
)

// None 表示沒有飲食限制
const None = "none"

// Rules 飲食偏好 → 排除食材片段；建立後不可變
type Rules struct {
	avoid    map[string][]string
	matchers map[string]*regexp.Regexp
}

// NewRules 由對照表建立規則，鍵與片段皆轉為小寫
func NewRules(table map[string][]string) *Rules {
	r := &Rules{
		avoid:    make(map[string][]string, len(table)),
		matchers: make(map[string]*regexp.Regexp, len(table)),
	}
	for key, fragments := range table {
		k := normalizeKey(key)
		if k == "" || k == None {
			continue
		}
		list := make([]string, 0, len(fragments))
		quoted := make([]string, 0, len(fragments))
		for _, f := range fragments {
			f = strings.ToLower(strings.TrimSpace(f))
			if f == "" {
				continue
			}
			list = append(list, f)
			quoted = append(quoted, regexp.QuoteMeta(f))
		}
		r.avoid[k] = list
		if len(quoted) > 0 {
			r.matchers[k] = regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
		}
	}
	return r
}

// Avoid 回傳偏好對應的排除片段
func (r *Rules) Avoid(pref string) []string {
	out := r.avoid[normalizeKey(pref)]
	return append([]string(nil), out...)
}

// Keys 已知的偏好鍵，依字母排序
func (r *Rules) Keys() []string {
	keys := make([]string, 0, len(r.avoid))
	for k := range r.avoid {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Excludes 判斷食材文字是否含有偏好排除的整字片段
//
// 未知偏好或 none 一律不排除。
func (r *Rules) Excludes(pref, ingredientText string) bool {
	m, ok := r.matchers[normalizeKey(pref)]
	if !ok {
		return false
	}
	return m.MatchString(strings.ToLower(ingredientText))
}

// Active 偏好是否有對應規則
func (r *Rules) Active(pref string) bool {
	_, ok := r.matchers[normalizeKey(pref)]
	return ok
}

func normalizeKey(pref string) string {
	return strings.ToLower(strings.TrimSpace(pref))
}

// DefaultTable 預設的飲食限制表
func DefaultTable() map[string][]string {
	return map[string][]string{
		"vegan": {
			"meat", "bacon", "chicken", "fish", "seafood", "egg", "milk", "cheese", "butter", "beef", "ham",
			"yogurt", "cream", "honey", "gelatin", "lard", "casein", "whey", "bone", "boneless", "shrimp", "pork", "duck",
		},
		"vegetarian": {
			"meat", "bacon", "chicken", "fish", "seafood", "gelatin", "lard", "beef", "ham", "bone", "boneless", "shrimp", "pork", "duck",
		},
		"lacto_vegetarian": {
			"meat", "chicken", "bacon", "fish", "seafood", "egg", "gelatin", "beef", "ham", "bone", "boneless", "shrimp", "duck",
		},
		"ovo_vegetarian": {
			"meat", "chicken", "bacon", "fish", "seafood", "milk", "cheese", "butter", "cream", "beef", "ham", "bone", "boneless", "shrimp", "duck",
		},
		"pescatarian": {
			"meat", "bacon", "chicken", "pork", "beef", "lamb", "duck", "ham", "bone", "boneless",
		},
		"gluten-free": {
			"wheat", "barley", "rye", "malt", "triticale", "semolina", "spelt", "farro", "couscous", "breadcrumbs", "soy_sauce", "beer", "durum",
		},
		"keto": {
			"sugar", "honey", "rice", "pasta", "oats", "wheat", "corn", "potato", "beans", "lentil", "banana", "mango", "bread", "high_carb_fruits",
		},
		"paleo": {
			"grains", "beans", "lentil", "soy", "peanut", "dairy", "sugar", "vegetable oil", "processed_food", "wheat", "rice", "corn", "cheese", "milk",
		},
		"low-carb": {
			"sugar", "bread", "pasta", "rice", "potato", "sweet", "honey", "syrup", "corn",
		},
		"low-fat": {
			"butter", "oil", "cream", "fatty", "fried", "mayonnaise", "fatty_meat",
		},
		"low-sodium": {
			"salt", "bacon", "soy sauce", "processed", "cured", "pickle", "bouillon", "ham", "salted_butter", "chips",
		},
		"dairy-free": {
			"milk", "cheese", "butter", "yogurt", "cream", "ghee", "whey", "casein",
		},
		"nut-free": {
			"almond", "walnut", "cashew", "hazelnut", "pistachio", "peanut", "pecan",
		},
		"soy-free": {
			"soy", "tofu", "tempeh", "soy sauce", "edamame", "miso",
		},
		"egg-free": {
			"egg", "mayonnaise", "meringue",
		},
		"shellfish-free": {
			"shrimp", "crab", "lobster", "clam", "oyster", "scallop", "mussel",
		},
		"fish-free": {
			"fish", "salmon", "tuna", "cod", "anchovy", "sardine", "shrimp",
		},
		"halal": {
			"pork", "bacon", "ham", "alcohol", "beer", "wine", "non-halal", "gelatin", "lard",
		},
		"kosher": {
			"pork", "bacon", "shellfish", "non-kosher", "meat and dairy", "shrimp", "lobster", "cheese_with_rennet",
		},
	}
}

// Default 以預設表建立規則
func Default() *Rules {
	return NewRules(DefaultTable())
}

package recommend

import (
	"strings"

	"meal-planner/internal/pkg/common"
)

// Goal 營養目標
type Goal string

const (
	GoalMaintain   Goal = "maintain"
	GoalWeightLoss Goal = "weight_loss"
	GoalWeightGain Goal = "weight_gain"
)

// ParseGoal 接受 "weight loss"、"weight-loss"、"weight_loss"（增重同理），其餘視為維持
func ParseGoal(s string) Goal {
	key := strings.NewReplacer("-", " ", "_", " ").Replace(strings.ToLower(strings.TrimSpace(s)))
	switch strings.Join(strings.Fields(key), " ") {
	case "weight loss":
		return GoalWeightLoss
	case "weight gain":
		return GoalWeightGain
	default:
		return GoalMaintain
	}
}

// Profile 使用者個人化資料
// --------------------------------------------------
type Profile struct {
	Goal        string           `json:"goal"`
	DietaryPref string           `json:"dietary_pref"`
	Allergies   []string         `json:"allergies"`
	WeightKg    common.FlexFloat `json:"weight_kg"`
	HeightCm    common.FlexFloat `json:"height_cm"`
	Age         common.FlexFloat `json:"age"`
}

// ParsedGoal 取得正規化後的目標
func (p *Profile) ParsedGoal() Goal {
	if p == nil {
		return GoalMaintain
	}
	return ParseGoal(p.Goal)
}

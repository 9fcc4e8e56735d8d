package planner

import (
	"meal-planner/internal/core/recommend"
	"meal-planner/internal/pkg/common"
)

const (
	// DefaultTarget 個人資料缺失或格式錯誤時的每日熱量
	DefaultTarget = 2000.0

	defaultWeightKg = 70.0
	defaultHeightCm = 170.0
	defaultAge      = 25.0

	goalAdjustment = 400.0
)

// TargetCalories 以 BMR = 10w + 6.25h - 5a + 5 計算每日目標熱量，減重 -400、增重 +400
//
// 欄位缺失或非正值時採用預設值；欄位存在但無法解析則整體回退為 2000。
func TargetCalories(p *recommend.Profile) float64 {
	if p == nil {
		return DefaultTarget
	}

	weight, ok := field(p.WeightKg, defaultWeightKg)
	if !ok {
		return DefaultTarget
	}
	height, ok := field(p.HeightCm, defaultHeightCm)
	if !ok {
		return DefaultTarget
	}
	age, ok := field(p.Age, defaultAge)
	if !ok {
		return DefaultTarget
	}

	bmr := 10*weight + 6.25*height - 5*age + 5
	switch p.ParsedGoal() {
	case recommend.GoalWeightLoss:
		return bmr - goalAdjustment
	case recommend.GoalWeightGain:
		return bmr + goalAdjustment
	default:
		return bmr
	}
}

func field(f common.FlexFloat, fallback float64) (float64, bool) {
	switch {
	case f.Valid && f.Value > 0:
		return f.Value, true
	case f.Present && !f.Valid:
		return 0, false
	default:
		return fallback, true
	}
}

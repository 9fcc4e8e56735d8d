package handlers

import (
	"meal-planner/internal/core/nutrition"
	"meal-planner/internal/core/planner"
	"meal-planner/internal/core/recommend"
)

// Services 處理器依賴的核心服務
type Services struct {
	Recommender *recommend.Recommender
	Planner     *planner.Service
	Nutrition   nutrition.Lookup
	Converter   *nutrition.Converter
	Annotator   *nutrition.Annotator
}

// Handler 餐點 API 處理程序
// --------------------------------------------------
type Handler struct {
	recommender *recommend.Recommender
	planner     *planner.Service
	nutrition   nutrition.Lookup
	converter   *nutrition.Converter
	annotator   *nutrition.Annotator
	defaultTopK int
	debug       bool
}

// NewHandler 創建處理程序；defaultTopK 用於未指定 top_k 的推薦請求
func NewHandler(s Services, defaultTopK int, debug bool) *Handler {
	if defaultTopK <= 0 {
		defaultTopK = 10
	}
	converter := s.Converter
	if converter == nil {
		converter = nutrition.NewConverter(nil)
	}
	return &Handler{
		recommender: s.Recommender,
		planner:     s.Planner,
		nutrition:   s.Nutrition,
		converter:   converter,
		annotator:   s.Annotator,
		defaultTopK: defaultTopK,
		debug:       debug,
	}
}

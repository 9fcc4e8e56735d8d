package handlers

import (
	"net/http"

	"meal-planner/internal/core/recommend"
	"meal-planner/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecommendRequest 依現有食材推薦單餐食譜
type RecommendRequest struct {
	Pantry      []string           `json:"pantry"`                                  // 現有食材
	Exclude     []string           `json:"exclude,omitempty"`                       // 排除的食譜名稱
	ServingSize float64            `json:"serving_size,omitempty" binding:"gte=0"`  // 份量，0 表示不限
	MealType    string             `json:"meal_type,omitempty"`                     // snack / breakfast / lunch / dinner
	TopK        int                `json:"top_k,omitempty" binding:"gte=0,lte=100"` // 回傳數量
	Profile     *recommend.Profile `json:"profile,omitempty"`
}

// RecommendResponse 推薦結果
type RecommendResponse struct {
	RequestID string           `json:"request_id"`
	Count     int              `json:"count"`
	Recipes   []recommend.Item `json:"recipes"`
}

// HandleRecommend 單餐推薦
func (h *Handler) HandleRecommend(c *gin.Context) {
	requestID := getRequestID(c)

	var req RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, requestID, badRequest(err), h.debug)
		return
	}
	if req.TopK == 0 {
		req.TopK = h.defaultTopK
	}

	common.LogInfo("開始處理食譜推薦請求",
		zap.String("request_id", requestID),
		zap.Int("pantry_size", len(req.Pantry)),
		zap.String("meal_type", req.MealType),
		zap.Int("top_k", req.TopK),
	)

	items, err := h.recommender.Recommend(c.Request.Context(), recommend.Request{
		Pantry:      req.Pantry,
		Exclude:     req.Exclude,
		ServingSize: req.ServingSize,
		MealType:    req.MealType,
		TopK:        req.TopK,
		Profile:     req.Profile,
	})
	if err != nil {
		respondError(c, requestID, err, h.debug)
		return
	}
	if len(items) == 0 {
		respondError(c, requestID, common.ErrNoRecipes, h.debug)
		return
	}

	c.JSON(http.StatusOK, RecommendResponse{
		RequestID: requestID,
		Count:     len(items),
		Recipes:   items,
	})
}

package handlers

import (
	"net/http"

	"meal-planner/internal/core/planner"
	"meal-planner/internal/core/recommend"
	"meal-planner/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PlanRequest 產生多日餐點計畫
type PlanRequest struct {
	Pantry      []string           `json:"pantry"`
	Exclude     []string           `json:"exclude,omitempty"`
	ServingSize float64            `json:"serving_size,omitempty" binding:"gte=0"`
	Days        int                `json:"days,omitempty" binding:"gte=0,lte=14"`
	MealsPerDay int                `json:"meals_per_day,omitempty" binding:"gte=0,lte=8"`
	Profile     *recommend.Profile `json:"profile,omitempty"`
}

// RegeneratePlanRequest 替換既有計畫中的一道餐點
type RegeneratePlanRequest struct {
	Pantry      []string           `json:"pantry"`
	Exclude     []string           `json:"exclude,omitempty"`
	ServingSize float64            `json:"serving_size,omitempty" binding:"gte=0"`
	Days        int                `json:"days,omitempty" binding:"gte=0,lte=14"`
	Profile     *recommend.Profile `json:"profile,omitempty"`
	Current     []recommend.Item   `json:"current" binding:"required,min=1"` // 目前的計畫
	MealType    string             `json:"meal_type" binding:"required"`     // 要替換的餐別
	Replace     string             `json:"replace,omitempty"`                // 指定替換的食譜名稱
}

// PlanResponse 餐點計畫
type PlanResponse struct {
	RequestID string `json:"request_id"`
	*planner.Plan
}

// HandleGeneratePlan 產生餐點計畫
func (h *Handler) HandleGeneratePlan(c *gin.Context) {
	requestID := getRequestID(c)

	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, requestID, badRequest(err), h.debug)
		return
	}

	common.LogInfo("開始處理餐點計畫請求",
		zap.String("request_id", requestID),
		zap.Int("pantry_size", len(req.Pantry)),
		zap.Int("days", req.Days),
		zap.Int("meals_per_day", req.MealsPerDay),
	)

	plan, err := h.planner.Generate(c.Request.Context(), planner.GenerateRequest{
		Pantry:      req.Pantry,
		Exclude:     req.Exclude,
		ServingSize: req.ServingSize,
		Days:        req.Days,
		MealsPerDay: req.MealsPerDay,
		Profile:     req.Profile,
	})
	if err != nil {
		respondError(c, requestID, err, h.debug)
		return
	}

	c.JSON(http.StatusOK, PlanResponse{RequestID: requestID, Plan: plan})
}

// HandleRegeneratePlan 替換計畫中的一道餐點
func (h *Handler) HandleRegeneratePlan(c *gin.Context) {
	requestID := getRequestID(c)

	var req RegeneratePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, requestID, badRequest(err), h.debug)
		return
	}

	common.LogInfo("開始處理餐點替換請求",
		zap.String("request_id", requestID),
		zap.String("meal_type", req.MealType),
		zap.String("replace", req.Replace),
		zap.Int("current_meals", len(req.Current)),
	)

	plan, err := h.planner.Regenerate(c.Request.Context(), planner.RegenerateRequest{
		Pantry:      req.Pantry,
		Exclude:     req.Exclude,
		ServingSize: req.ServingSize,
		Days:        req.Days,
		Profile:     req.Profile,
		Current:     req.Current,
		MealType:    req.MealType,
		Replace:     req.Replace,
	})
	if err != nil {
		respondError(c, requestID, err, h.debug)
		return
	}

	c.JSON(http.StatusOK, PlanResponse{RequestID: requestID, Plan: plan})
}

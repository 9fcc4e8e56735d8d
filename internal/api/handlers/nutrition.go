package handlers

import (
	"context"
	"errors"
	"net/http"

	"meal-planner/internal/core/nutrition"
	"meal-planner/internal/core/recipe"
	"meal-planner/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IngredientNutritionRequest 單一食材營養查詢
type IngredientNutritionRequest struct {
	Ingredient string  `json:"ingredient" binding:"required"`
	Quantity   float64 `json:"quantity" binding:"gt=0"`
	Unit       string  `json:"unit,omitempty"` // g / kg / ml / l，其餘視為公克
}

// IngredientNutritionResponse 單一食材營養
type IngredientNutritionResponse struct {
	RequestID     string                  `json:"request_id"`
	Ingredient    string                  `json:"ingredient"`
	Grams         float64                 `json:"grams"`
	Nutrients     nutrition.Nutrients     `json:"nutrients"`
	MainNutrients nutrition.MainNutrients `json:"main_nutrients"`
}

// RecipeNutritionRequest 整份食譜營養彙總
type RecipeNutritionRequest struct {
	IngredientParts      string `json:"ingredient_parts" binding:"required"`
	IngredientQuantities string `json:"ingredient_quantities"`
}

// RecipeNutritionResponse 整份食譜營養
type RecipeNutritionResponse struct {
	RequestID string `json:"request_id"`
	*nutrition.Annotation
}

// HandleIngredientNutrition 查詢單一食材營養
func (h *Handler) HandleIngredientNutrition(c *gin.Context) {
	requestID := getRequestID(c)

	var req IngredientNutritionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, requestID, badRequest(err), h.debug)
		return
	}
	if h.nutrition == nil {
		respondError(c, requestID, common.ErrServiceUnavailable, h.debug)
		return
	}

	grams := h.converter.ToGrams(req.Quantity, req.Unit, req.Ingredient)
	common.LogInfo("開始處理食材營養查詢",
		zap.String("request_id", requestID),
		zap.String("ingredient", req.Ingredient),
		zap.Float64("grams", grams),
	)

	nutrients, err := h.nutrition.Lookup(c.Request.Context(), req.Ingredient, grams)
	if err != nil {
		if !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			err = wrapError(common.ErrNutritionLookup, err)
		}
		respondError(c, requestID, err, h.debug)
		return
	}

	c.JSON(http.StatusOK, IngredientNutritionResponse{
		RequestID:     requestID,
		Ingredient:    req.Ingredient,
		Grams:         grams,
		Nutrients:     nutrients,
		MainNutrients: nutrition.ExtractMain(nutrients),
	})
}

// HandleRecipeNutrition 彙總整份食譜的營養
func (h *Handler) HandleRecipeNutrition(c *gin.Context) {
	requestID := getRequestID(c)

	var req RecipeNutritionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, requestID, badRequest(err), h.debug)
		return
	}
	if h.annotator == nil {
		respondError(c, requestID, common.ErrServiceUnavailable, h.debug)
		return
	}

	r := &recipe.Recipe{
		IngredientParts:      req.IngredientParts,
		IngredientQuantities: req.IngredientQuantities,
	}
	annotation, err := h.annotator.Recipe(c.Request.Context(), r)
	if err != nil {
		respondError(c, requestID, err, h.debug)
		return
	}

	common.LogInfo("食譜營養彙總完成",
		zap.String("request_id", requestID),
		zap.Int("ingredients", len(annotation.Ingredients)),
		zap.Int("failed", len(annotation.Failed)),
	)
	c.JSON(http.StatusOK, RecipeNutritionResponse{RequestID: requestID, Annotation: annotation})
}

// Package nutrition 食材營養查詢（USDA FoodData Central）與食譜營養彙總
package nutrition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"meal-planner/internal/core/cache"
	"meal-planner/internal/infrastructure/config"
	"meal-planner/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Nutrient 營養素數值與單位
type Nutrient struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// Nutrients 營養素名稱 → 數值
type Nutrients map[string]Nutrient

// Lookup 依食材名稱與公克數查詢營養素
type Lookup interface {
	Lookup(ctx context.Context, ingredient string, grams float64) (Nutrients, error)
}

// USDAClient FoodData Central 查詢客戶端
// --------------------------------------------------
type USDAClient struct {
	client   *resty.Client
	apiKey   string
	pageSize int
	cache    cache.Store
}

// NewUSDAClient 創建 USDA 客戶端；store 為 nil 時不緩存
func NewUSDAClient(cfg config.USDAConfig, store cache.Store) *USDAClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Accept", "application/json")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 1
	}
	return &USDAClient{
		client:   client,
		apiKey:   cfg.APIKey,
		pageSize: pageSize,
		cache:    store,
	}
}

type searchResponse struct {
	Foods []struct {
		Description   string `json:"description"`
		FoodNutrients []struct {
			NutrientName string           `json:"nutrientName"`
			UnitName     string           `json:"unitName"`
			Value        common.FlexFloat `json:"value"`
		} `json:"foodNutrients"`
	} `json:"foods"`
}

// Per100g 查詢每 100 公克的營養素，結果依食材名稱緩存
func (c *USDAClient) Per100g(ctx context.Context, ingredient string) (Nutrients, error) {
	name := common.NormalizeName(ingredient)
	if name == "" {
		return Nutrients{}, nil
	}

	key := cache.Key("nutrition", name)
	if c.cache != nil {
		if data, err := c.cache.Get(ctx, key); err == nil {
			var cached Nutrients
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		} else if !errors.Is(err, common.ErrCacheMiss) {
			common.LogWarn("營養緩存讀取失敗", zap.String("ingredient", name), zap.Error(err))
		}
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"query":    name,
			"pageSize": strconv.Itoa(c.pageSize),
			"api_key":  c.apiKey,
		}).
		Get("/foods/search")
	if err != nil {
		return nil, fmt.Errorf("failed to send request to USDA: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("USDA API returned status %d", resp.StatusCode())
	}

	var result searchResponse
	if err := common.ParseJSONBytes(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to parse USDA response: %w", err)
	}

	nutrients := Nutrients{}
	if len(result.Foods) > 0 {
		for _, n := range result.Foods[0].FoodNutrients {
			if n.NutrientName == "" || !n.Value.Valid {
				continue
			}
			nutrients[n.NutrientName] = Nutrient{Value: n.Value.Value, Unit: n.UnitName}
		}
	}

	if c.cache != nil {
		if data, err := json.Marshal(nutrients); err == nil {
			if err := c.cache.Set(ctx, key, data); err != nil {
				common.LogWarn("營養緩存寫入失敗", zap.String("ingredient", name), zap.Error(err))
			}
		}
	}
	return nutrients, nil
}

// Lookup 實現 Lookup，依公克數線性縮放並四捨五入至小數兩位
func (c *USDAClient) Lookup(ctx context.Context, ingredient string, grams float64) (Nutrients, error) {
	base, err := c.Per100g(ctx, ingredient)
	if err != nil {
		return nil, err
	}
	return Scale(base, grams), nil
}

// Scale 將每 100 公克的數值縮放為指定公克數
func Scale(per100g Nutrients, grams float64) Nutrients {
	out := make(Nutrients, len(per100g))
	for name, n := range per100g {
		out[name] = Nutrient{Value: round2(n.Value * grams / 100), Unit: n.Unit}
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

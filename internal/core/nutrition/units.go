package nutrition

import "strings"

// DefaultDensities 常見液體密度 (g/ml)
func DefaultDensities() map[string]float64 {
	return map[string]float64{
		"milk":      1.03,
		"water":     1.0,
		"olive oil": 0.92,
		"honey":     1.42,
		"yogurt":    1.03,
	}
}

// Converter 單位換算為公克；密度表建立後不可變
type Converter struct {
	densities map[string]float64
}

// NewConverter 以密度表建立換算器，nil 時使用預設表
func NewConverter(densities map[string]float64) *Converter {
	if densities == nil {
		densities = DefaultDensities()
	}
	c := &Converter{densities: make(map[string]float64, len(densities))}
	for name, d := range densities {
		if d > 0 {
			c.densities[strings.ToLower(strings.TrimSpace(name))] = d
		}
	}
	return c
}

// Density 取得密度，未知食材為 1
func (c *Converter) Density(ingredient string) float64 {
	if d, ok := c.densities[strings.ToLower(strings.TrimSpace(ingredient))]; ok {
		return d
	}
	return 1
}

// ToGrams 將數量換算為公克；未知單位視為公克
func (c *Converter) ToGrams(quantity float64, unit, ingredient string) float64 {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "kg", "kilogram", "kilograms":
		return quantity * 1000
	case "ml", "milliliter", "milliliters", "millilitre", "millilitres":
		return quantity * c.Density(ingredient)
	case "l", "liter", "liters", "litre", "litres":
		return quantity * 1000 * c.Density(ingredient)
	default:
		return quantity
	}
}

package common

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// FlexFloat 寬鬆數值欄位：接受數字、數字字串或 null
//
// Present 表示欄位有值（即使無法解析），Valid 表示 Value 可用。
type FlexFloat struct {
	Value   float64
	Valid   bool
	Present bool
}

// NewFlexFloat 建立有效數值
func NewFlexFloat(v float64) FlexFloat {
	return FlexFloat{Value: v, Valid: true, Present: true}
}

// UnmarshalJSON 實現 json.Unmarshaler，無法解析時不回傳錯誤
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	*f = FlexFloat{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	f.Present = true

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		if strings.TrimSpace(s) == "" {
			f.Present = false
			return nil
		}
		f.Value, f.Valid = ParseFloat(s)
		return nil
	}

	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	f.Value, f.Valid = v, true
	return nil
}

// MarshalJSON 無效值輸出 null
func (f FlexFloat) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// ParseFloat 解析數值字串，支援分數（"1/4"）與帶分數（"1 1/2"）
func ParseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	}

	fields := strings.Fields(s)
	if len(fields) == 2 {
		whole, ok := ParseFloat(fields[0])
		if !ok || strings.Contains(fields[0], "/") {
			return 0, false
		}
		frac, ok := parseFraction(fields[1])
		if !ok {
			return 0, false
		}
		return whole + frac, true
	}
	return parseFraction(s)
}

func parseFraction(s string) (float64, bool) {
	num, den, found := strings.Cut(s, "/")
	if !found {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil {
		return 0, false
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(den), 64)
	if err != nil || d == 0 {
		return 0, false
	}
	return n / d, true
}

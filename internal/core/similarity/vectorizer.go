package similarity

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// 詞元：連續的字母、數字或底線，長度至少 2
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Tokenize 將文字切成小寫詞元
func Tokenize(doc string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(doc), -1)
	tokens := raw[:0]
	for _, t := range raw {
		if utf8.RuneCountInString(t) >= 2 {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// SparseVector 稀疏向量，Indices 遞增
type SparseVector struct {
	Indices []int
	Values  []float64
}

// Vectorizer 已擬合的 TF-IDF 轉換器
type Vectorizer struct {
	Vocabulary map[string]int `json:"vocabulary"`
	IDF        []float64      `json:"idf"`
}

// Transform 文件 → L2 正規化的 TF-IDF 向量；未知詞忽略
func (v *Vectorizer) Transform(doc string) SparseVector {
	counts := make(map[int]float64)
	for _, tok := range Tokenize(doc) {
		if idx, ok := v.Vocabulary[tok]; ok {
			counts[idx]++
		}
	}
	return weigh(counts, v.IDF)
}

func weigh(counts map[int]float64, idf []float64) SparseVector {
	vec := SparseVector{
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for idx := range counts {
		vec.Indices = append(vec.Indices, idx)
	}
	sort.Ints(vec.Indices)

	var norm float64
	for _, idx := range vec.Indices {
		w := counts[idx] * idf[idx]
		vec.Values = append(vec.Values, w)
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec.Values {
			vec.Values[i] /= norm
		}
	}
	return vec
}

// Package similarity 食譜語料的 TF-IDF 相似度索引
package similarity

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"meal-planner/internal/core/recipe"
	"meal-planner/internal/pkg/common"

	"go.uber.org/zap"
)

// Match 查詢結果：食譜與餘弦相似度
type Match struct {
	Recipe *recipe.Recipe
	Row    int
	Score  float64
}

// Searcher 以食材清單查詢相似食譜
type Searcher interface {
	Query(pantry []string, topK int) ([]Match, error)
}

// Index 唯讀索引，可被多個請求同時讀取
type Index struct {
	vectorizer Vectorizer
	matrix     *CSR
	recipes    []recipe.Recipe
}

// NewIndex 由語料包建立索引，並移除說明為佔位文字的食譜
func NewIndex(a *Artifact, placeholderMarker string) (*Index, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	marker := strings.ToLower(strings.TrimSpace(placeholderMarker))
	keep := make([]int, 0, len(a.Recipes))
	for i := range a.Recipes {
		if marker != "" && strings.Contains(strings.ToLower(a.Recipes[i].Instructions), marker) {
			continue
		}
		keep = append(keep, i)
	}

	recipes := make([]recipe.Recipe, len(keep))
	for i, row := range keep {
		recipes[i] = a.Recipes[row]
	}

	if removed := len(a.Recipes) - len(keep); removed > 0 {
		common.LogInfo("已移除佔位說明的食譜",
			zap.Int("removed", removed),
			zap.Int("remaining", len(keep)),
		)
	}

	return &Index{
		vectorizer: a.Vectorizer,
		matrix:     a.Matrix.Select(keep),
		recipes:    recipes,
	}, nil
}

// Len 索引中的食譜數
func (idx *Index) Len() int {
	return len(idx.recipes)
}

// Recipe 取得第 row 筆食譜
func (idx *Index) Recipe(row int) *recipe.Recipe {
	return &idx.recipes[row]
}

// Query 將食材以空白串接成單一文件後查詢，依相似度遞減排序，同分保持語料順序
func (idx *Index) Query(pantry []string, topK int) ([]Match, error) {
	if topK <= 0 {
		return []Match{}, nil
	}

	q := idx.vectorizer.Transform(strings.ToLower(strings.Join(pantry, " ")))
	weights := make(map[int]float64, len(q.Indices))
	for i, col := range q.Indices {
		weights[col] = q.Values[i]
	}

	matches := make([]Match, len(idx.recipes))
	for row := range idx.recipes {
		score := 0.0
		if len(weights) > 0 {
			score = idx.matrix.Dot(row, weights)
		}
		matches[row] = Match{Recipe: &idx.recipes[row], Row: row, Score: score}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if topK < len(matches) {
		matches = matches[:topK]
	}
	return matches, nil
}

// Loaded 索引載入結果：成功時持有索引，失敗時保留原因
type Loaded struct {
	index *Index
	err   error
}

// Ready 包裝已建立的索引
func Ready(idx *Index) *Loaded {
	return &Loaded{index: idx}
}

// Failed 記錄載入失敗
func Failed(err error) *Loaded {
	return &Loaded{err: err}
}

// Open 讀取語料包檔案；失敗不 panic，之後所有查詢回傳 ErrIndexUnavailable
func Open(path, placeholderMarker string) *Loaded {
	start := time.Now()

	a, err := ReadArtifactFile(path)
	if err != nil {
		common.LogError("語料索引載入失敗", zap.String("path", path), zap.Error(err))
		return Failed(err)
	}
	idx, err := NewIndex(a, placeholderMarker)
	if err != nil {
		common.LogError("語料索引載入失敗", zap.String("path", path), zap.Error(err))
		return Failed(err)
	}

	common.LogInfo("語料索引已載入",
		zap.String("path", path),
		zap.Int("recipes", idx.Len()),
		zap.Int("terms", len(a.Vectorizer.IDF)),
		zap.Duration("耗時", time.Since(start)),
	)
	return Ready(idx)
}

// Index 取得索引
func (l *Loaded) Index() (*Index, error) {
	if l == nil || l.index == nil {
		cause := "not loaded"
		if l != nil && l.err != nil {
			cause = l.err.Error()
		}
		return nil, fmt.Errorf("%w: %s", common.ErrIndexUnavailable, cause)
	}
	return l.index, nil
}

// IsReady 索引是否可用
func (l *Loaded) IsReady() bool {
	return l != nil && l.index != nil
}

// Query 實現 Searcher
func (l *Loaded) Query(pantry []string, topK int) ([]Match, error) {
	idx, err := l.Index()
	if err != nil {
		return nil, err
	}
	return idx.Query(pantry, topK)
}

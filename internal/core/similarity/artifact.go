package similarity

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"meal-planner/internal/core/recipe"
	"meal-planner/internal/pkg/common"
)

// ArtifactVersion 目前支援的語料包版本
const ArtifactVersion = 1

// Artifact 預先計算的語料包：轉換器、詞項矩陣、食譜表
type Artifact struct {
	Version    int             `json:"version"`
	Vectorizer Vectorizer      `json:"vectorizer"`
	Matrix     CSR             `json:"matrix"`
	Recipes    []recipe.Recipe `json:"recipes"`
}

// ReadArtifact 讀取並驗證語料包
func ReadArtifact(r io.Reader) (*Artifact, error) {
	var a Artifact
	if err := common.DecodeJSON(r, &a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// ReadArtifactFile 從檔案讀取語料包
func ReadArtifactFile(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()
	return ReadArtifact(f)
}

// Write 以 JSON 寫出語料包
func (a *Artifact) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	if err := enc.Encode(a); err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	return nil
}

// Validate 檢查版本與各部分形狀是否一致
func (a *Artifact) Validate() error {
	if a.Version != ArtifactVersion {
		return fmt.Errorf("unsupported artifact version %d", a.Version)
	}
	if err := a.Matrix.validate(); err != nil {
		return fmt.Errorf("invalid matrix: %w", err)
	}
	if a.Matrix.Rows != len(a.Recipes) {
		return fmt.Errorf("matrix has %d rows but %d recipes", a.Matrix.Rows, len(a.Recipes))
	}
	if len(a.Vectorizer.IDF) != a.Matrix.Cols {
		return fmt.Errorf("idf length %d, matrix has %d columns", len(a.Vectorizer.IDF), a.Matrix.Cols)
	}
	for term, idx := range a.Vectorizer.Vocabulary {
		if idx < 0 || idx >= a.Matrix.Cols {
			return fmt.Errorf("vocabulary term %q maps to column %d out of range", term, idx)
		}
	}
	return nil
}

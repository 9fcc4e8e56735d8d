package similarity

import (
	"math"
	"sort"

	"meal-planner/internal/core/recipe"
)

// Fit 以食譜的食材文字擬合 TF-IDF，產生語料包
//
// idf 採平滑公式 ln((1+n)/(1+df))+1，列向量 L2 正規化。
func Fit(recipes []recipe.Recipe) *Artifact {
	docs := make([][]string, len(recipes))
	df := make(map[string]int)
	for i := range recipes {
		docs[i] = Tokenize(recipes[i].IngredientParts)
		seen := make(map[string]bool, len(docs[i]))
		for _, tok := range docs[i] {
			if !seen[tok] {
				seen[tok] = true
				df[tok]++
			}
		}
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	n := float64(len(recipes))
	vocab := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	for i, term := range terms {
		vocab[term] = i
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	matrix := CSR{
		Rows:   len(recipes),
		Cols:   len(terms),
		Indptr: make([]int, 1, len(recipes)+1),
	}
	for _, doc := range docs {
		counts := make(map[int]float64, len(doc))
		for _, tok := range doc {
			counts[vocab[tok]]++
		}
		vec := weigh(counts, idf)
		matrix.Indices = append(matrix.Indices, vec.Indices...)
		matrix.Data = append(matrix.Data, vec.Values...)
		matrix.Indptr = append(matrix.Indptr, len(matrix.Indices))
	}

	rows := make([]recipe.Recipe, len(recipes))
	copy(rows, recipes)

	return &Artifact{
		Version:    ArtifactVersion,
		Vectorizer: Vectorizer{Vocabulary: vocab, IDF: idf},
		Matrix:     matrix,
		Recipes:    rows,
	}
}

package similarity

import "fmt"

// CSR 壓縮稀疏列矩陣，每列為一份食譜向量
type CSR struct {
	Rows    int       `json:"rows"`
	Cols    int       `json:"cols"`
	Indptr  []int     `json:"indptr"`
	Indices []int     `json:"indices"`
	Data    []float64 `json:"data"`
}

// Row 取得第 i 列的非零項
func (m *CSR) Row(i int) ([]int, []float64) {
	start, end := m.Indptr[i], m.Indptr[i+1]
	return m.Indices[start:end], m.Data[start:end]
}

// Dot 第 i 列與查詢向量的內積
func (m *CSR) Dot(i int, q map[int]float64) float64 {
	indices, data := m.Row(i)
	var sum float64
	for k, col := range indices {
		if w, ok := q[col]; ok {
			sum += w * data[k]
		}
	}
	return sum
}

// Select 依序保留指定列
func (m *CSR) Select(rows []int) *CSR {
	out := &CSR{
		Rows:   len(rows),
		Cols:   m.Cols,
		Indptr: make([]int, 1, len(rows)+1),
	}
	for _, r := range rows {
		indices, data := m.Row(r)
		out.Indices = append(out.Indices, indices...)
		out.Data = append(out.Data, data...)
		out.Indptr = append(out.Indptr, len(out.Indices))
	}
	return out
}

func (m *CSR) validate() error {
	if m.Rows < 0 || m.Cols < 0 {
		return fmt.Errorf("negative matrix shape %dx%d", m.Rows, m.Cols)
	}
	if len(m.Indptr) != m.Rows+1 {
		return fmt.Errorf("indptr length %d, want %d", len(m.Indptr), m.Rows+1)
	}
	if len(m.Indices) != len(m.Data) {
		return fmt.Errorf("indices/data length mismatch: %d vs %d", len(m.Indices), len(m.Data))
	}
	if m.Indptr[0] != 0 || m.Indptr[m.Rows] != len(m.Indices) {
		return fmt.Errorf("indptr bounds do not cover data")
	}
	for i := 0; i < m.Rows; i++ {
		if m.Indptr[i] > m.Indptr[i+1] {
			return fmt.Errorf("indptr not monotonic at row %d", i)
		}
	}
	for k, col := range m.Indices {
		if col < 0 || col >= m.Cols {
			return fmt.Errorf("column %d out of range at entry %d", col, k)
		}
		if m.Data[k] < 0 {
			return fmt.Errorf("negative weight at entry %d", k)
		}
	}
	return nil
}

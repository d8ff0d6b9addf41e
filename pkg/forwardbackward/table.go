package forwardbackward

// Table is a dense row-major matrix of float64 values. Rows index time steps
// and columns index states.
//
// Table performs no bounds checking beyond what Go slices do; out-of-range
// indices panic.
type Table struct {
	Rows, Cols int
	Data       []float64
}

// NewTable allocates a zeroed rows×cols table.
func NewTable(rows, cols int) *Table {
	if rows < 0 || cols < 0 {
		panic("forwardbackward: negative table dimension")
	}
	return &Table{
		Rows: rows,
		Cols: cols,
		Data: make([]float64, rows*cols),
	}
}

// NewTableFromRows copies a rectangular [][]float64 into a Table.
// It panics when the rows are ragged.
func NewTableFromRows(rows [][]float64) *Table {
	if len(rows) == 0 {
		return NewTable(0, 0)
	}
	m := NewTable(len(rows), len(rows[0]))
	for i, r := range rows {
		if len(r) != m.Cols {
			panic("forwardbackward: ragged rows")
		}
		copy(m.Row(i), r)
	}
	return m
}

func (m *Table) At(i, j int) float64 { return m.Data[i*m.Cols+j] }

func (m *Table) Set(i, j int, v float64) { m.Data[i*m.Cols+j] = v }

// Row returns a view of row i. Writes through the view modify the table.
func (m *Table) Row(i int) []float64 {
	start := i * m.Cols
	return m.Data[start : start+m.Cols : start+m.Cols]
}

// Clone returns a deep copy.
func (m *Table) Clone() *Table {
	return &Table{
		Rows: m.Rows,
		Cols: m.Cols,
		Data: append([]float64(nil), m.Data...),
	}
}

// ToRows copies the table into a freshly allocated [][]float64.
func (m *Table) ToRows() [][]float64 {
	out := make([][]float64, m.Rows)
	for i := range out {
		out[i] = append([]float64(nil), m.Row(i)...)
	}
	return out
}

func (m *Table) sameShape(o *Table) bool {
	return m != nil && o != nil && m.Rows == o.Rows && m.Cols == o.Cols
}

package forwardbackward_test

import (
	"testing"

	"github.com/samcharles93/lattice/pkg/forwardbackward"
	"github.com/stretchr/testify/assert"
)

func TestTableRowsRoundTrip(t *testing.T) {
	rows := [][]float64{{1, 2}, {3, 4}, {5, 6}}
	m := forwardbackward.NewTableFromRows(rows)
	assert.Equal(t, 3, m.Rows)
	assert.Equal(t, 2, m.Cols)
	assert.Equal(t, 4.0, m.At(1, 1))
	assert.Equal(t, rows, m.ToRows())

	c := m.Clone()
	c.Set(0, 0, 9)
	assert.Equal(t, 1.0, m.At(0, 0))
	m.Row(2)[0] = 7
	assert.Equal(t, 7.0, m.At(2, 0))
}

func TestTableRaggedPanics(t *testing.T) {
	assert.Panics(t, func() {
		forwardbackward.NewTableFromRows([][]float64{{1, 2}, {3}})
	})
}

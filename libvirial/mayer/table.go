package mayer

import (
	"github.com/fine-structures/virial/virial"
)

// Table caches the f-bond of every pair for one Box state.
//
// The table is rebuilt only when it is asked to Update for a Box ID other than the one it was built at,
// so several clusters evaluated on the same Box can share it.
type Table struct {
	n     int
	fn    Function
	beta  float64
	id    uint64
	gen   uint64
	valid bool
	f     []float64
	evals int64
}

// NewTable returns a table of fn for n points at temperature T.
func NewTable(n int, fn Function, T float64) *Table {
	return &Table{
		n:    n,
		fn:   fn,
		beta: 1 / T,
		f:    make([]float64, n*n),
	}
}

func (tbl *Table) NumPoints() int {
	return tbl.n
}

func (tbl *Table) Beta() float64 {
	return tbl.beta
}

// SetTemperature sets β = 1/T, invalidates the table and starts a new generation.
func (tbl *Table) SetTemperature(T float64) {
	tbl.beta = 1 / T
	tbl.valid = false
	tbl.gen++
}

// Generation counts temperature changes.  Values cached from this table are stale once it moves on.
func (tbl *Table) Generation() uint64 {
	return tbl.gen
}

// Update rebuilds the table if box has changed since the last rebuild.
// It returns true if the table was rebuilt.
func (tbl *Table) Update(box virial.Box) bool {
	id := box.ID()
	if tbl.valid && tbl.id == id {
		return false
	}
	n := tbl.n
	for j := 1; j < n; j++ {
		for i := 0; i < j; i++ {
			f := tbl.fn.F(box, i, j, tbl.beta)
			tbl.f[i*n+j] = f
			tbl.f[j*n+i] = f
		}
	}
	tbl.evals += int64(n * (n - 1) / 2)
	tbl.id = id
	tbl.valid = true
	return true
}

// F returns the cached f-bond of i and j.
func (tbl *Table) F(i, j int) float64 {
	return tbl.f[i*tbl.n+j]
}

// E returns the cached e-bond, 1 + f, of i and j.
func (tbl *Table) E(i, j int) float64 {
	return 1 + tbl.f[i*tbl.n+j]
}

// Evaluations returns how many pair evaluations this table has made.
func (tbl *Table) Evaluations() int64 {
	return tbl.evals
}

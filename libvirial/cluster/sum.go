package cluster

import (
	"github.com/fine-structures/virial/libvirial/diagram"
	"github.com/fine-structures/virial/libvirial/mayer"
	"github.com/fine-structures/virial/virial"
	"github.com/pkg/errors"
)

// Sum is the weighted sum of Mayer-bond products over a diagram set.
type Sum struct {
	n     int
	bonds []*diagram.ClusterBonds
	table *mayer.Table
	cache ring
	gen   uint64
	evals int64
}

// NewSum returns a cluster sum with its own Mayer table of fn at temperature T.
func NewSum(bonds []*diagram.ClusterBonds, fn mayer.Function, T float64) (*Sum, error) {
	if len(bonds) == 0 {
		return nil, errors.Wrap(virial.ErrBadOptions, "no diagrams to sum")
	}
	return NewSumWithTable(bonds, mayer.NewTable(bonds[0].N, fn, T))
}

// NewSumWithTable returns a cluster sum that reads bonds from a (possibly shared) table.
func NewSumWithTable(bonds []*diagram.ClusterBonds, table *mayer.Table) (*Sum, error) {
	n := table.NumPoints()
	for _, cb := range bonds {
		if cb.N != n {
			return nil, errors.Wrapf(virial.ErrMismatchedOrder, "diagram order %d, table order %d", cb.N, n)
		}
	}
	return &Sum{
		n:     n,
		bonds: bonds,
		table: table,
		gen:   table.Generation(),
	}, nil
}

func (s *Sum) NumPoints() int {
	return s.n
}

// Value returns Σ w·Π f·Π e for the current state of box.
func (s *Sum) Value(box virial.Box) float64 {
	if gen := s.table.Generation(); gen != s.gen {
		s.cache.invalidate()
		s.gen = gen
	}
	id := box.ID()
	if val, hit := s.cache.lookup(id); hit {
		return val
	}

	s.table.Update(box)
	val := 0.0
	for _, cb := range s.bonds {
		val += cb.Value(s.table)
	}
	s.evals++
	s.cache.store(id, val)
	return val
}

func (s *Sum) SetTemperature(T float64) {
	s.table.SetTemperature(T)
	s.cache.invalidate()
}

// Generation returns the generation of the table this sum reads from.
func (s *Sum) Generation() uint64 {
	return s.table.Generation()
}

// Table returns the Mayer table this sum reads from.
func (s *Sum) Table() *mayer.Table {
	return s.table
}

// Evaluations returns how many times the diagram sum has been evaluated (cache misses).
func (s *Sum) Evaluations() int64 {
	return s.evals
}

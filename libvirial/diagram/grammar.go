package diagram

import (
	"math/big"

	"github.com/alecthomas/participle/v2"
	"github.com/fine-structures/virial/virial"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/combin"
)

// BondExpr is a comma separated list of bond runs, e.g. "1-2-3-1, 3~4".
// '-' is an f-bond, '~' an e-bond, and points are numbered from 1.
type BondExpr struct {
	Runs []*BondRun `parser:"(@@ (\",\" @@)*)?"`
}

type BondRun struct {
	Start int         `parser:"@Int"`
	Links []*BondLink `parser:"@@*"`
}

type BondLink struct {
	Kind string `parser:"@( \"-\" | \"~\" )"`
	End  int    `parser:"@Int"`
}

var parseBondExpr = participle.MustBuild[BondExpr]()

// ParseBonds parses a bond expression into its point count and f-bond and e-bond codes.
func ParseBonds(expr string) (n int, f, e Code, err error) {
	parsed, err := parseBondExpr.ParseString("", expr)
	if err != nil {
		return 0, 0, 0, errors.Wrapf(virial.ErrBadExpr, "%q: %v", expr, err)
	}

	type link struct {
		a, b int
		e    bool
	}
	var links []link

	for _, run := range parsed.Runs {
		if err = checkPoint(run.Start); err != nil {
			return 0, 0, 0, err
		}
		if n < run.Start {
			n = run.Start
		}
		prev := run.Start
		for _, l := range run.Links {
			if err = checkPoint(l.End); err != nil {
				return 0, 0, 0, err
			}
			if l.End == prev {
				return 0, 0, 0, errors.Wrapf(virial.ErrBadExpr, "point %d bonded to itself", prev)
			}
			if n < l.End {
				n = l.End
			}
			links = append(links, link{prev - 1, l.End - 1, l.Kind == "~"})
			prev = l.End
		}
	}

	if n < 2 {
		return 0, 0, 0, errors.Wrapf(virial.ErrBadPointCount, "%q", expr)
	}

	for _, l := range links {
		i, j := l.a, l.b
		if i > j {
			i, j = j, i
		}
		bit := pairBit(n, i, j)
		if (f|e)&bit != 0 {
			return 0, 0, 0, errors.Wrapf(virial.ErrBadExpr, "pair %d,%d bonded twice", i+1, j+1)
		}
		if l.e {
			e |= bit
		} else {
			f |= bit
		}
	}
	return n, f, e, nil
}

func checkPoint(id int) error {
	if id < 1 || id > virial.MaxPoints {
		return errors.Wrapf(virial.ErrBadExpr, "point %d out of range", id)
	}
	return nil
}

// ParseDiagram returns the labelled diagram of a bond expression.
//
// If any e-bonds are given, they must be exactly the pairs without an f-bond.
func ParseDiagram(expr string) (*Diagram, error) {
	n, f, e, err := ParseBonds(expr)
	if err != nil {
		return nil, err
	}
	withEBonds := e != 0
	if withEBonds && e != f.Complement(n) {
		return nil, errors.Wrapf(virial.ErrBadExpr, "%q: e-bonds must complete the f-bonds", expr)
	}

	d := newDiagram(n, f, withEBonds)
	d.Automorphisms = CountAutomorphisms(n, f)
	nFact := int64(combin.NumPermutations(n, n))
	d.PermCount = nFact / d.Automorphisms
	d.Weight = big.NewRat(int64(1-n)*d.PermCount, nFact)
	return d, nil
}

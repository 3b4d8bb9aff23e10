package diagram_test

import (
	"math/big"
	"strings"
	"testing"

	"github.com/fine-structures/virial/libvirial/diagram"
	"github.com/fine-structures/virial/virial"
	"github.com/pkg/errors"
)

func TestParseDiagram(t *testing.T) {
	d, err := diagram.ParseDiagram("1-2-3-4-1")
	if err != nil {
		t.Fatal(err)
	}
	if d.N != 4 || len(d.FBonds) != 4 || d.Automorphisms != 8 || d.PermCount != 3 {
		t.Fatalf("C4 parsed as %v (aut %d, perms %d)", d, d.Automorphisms, d.PermCount)
	}
	if d.Weight.Cmp(big.NewRat(-3, 8)) != 0 {
		t.Fatalf("C4 weight %v", d.Weight)
	}
	if d.String() != "1-2,2-3,1-4,3-4" {
		t.Fatalf("C4 printed as %q", d.String())
	}

	again, err := diagram.ParseDiagram(d.String())
	if err != nil || again.Code != d.Code {
		t.Fatal("bond expression did not round trip")
	}

	rh, err := diagram.ParseDiagram("1-2-3-4-1, 1~3, 2~4")
	if err != nil {
		t.Fatal(err)
	}
	if rh.Code != d.Code || len(rh.EBonds) != 2 || rh.String() != "1-2,2-3,1-4,3-4,1~3,2~4" {
		t.Fatalf("Ree-Hoover C4 parsed as %v", rh)
	}
}

func TestParseErrors(t *testing.T) {
	cases := map[string]error{
		"1-1":       virial.ErrBadExpr,
		"1-2,2-1":   virial.ErrBadExpr,
		"1-2,1~2":   virial.ErrBadExpr,
		"1-2,1~3":   virial.ErrBadExpr,
		"1-2-":      virial.ErrBadExpr,
		"0-1":       virial.ErrBadExpr,
		"1-11":      virial.ErrBadExpr,
		"1":         virial.ErrBadPointCount,
		"1-2 ; 3-4": virial.ErrBadExpr,
	}
	for expr, want := range cases {
		if _, err := diagram.ParseDiagram(expr); errors.Cause(err) != want {
			t.Fatalf("%q: got %v, want %v", expr, err, want)
		}
	}
}

func TestStream(t *testing.T) {
	out := &strings.Builder{}
	count := diagram.Enumerate(biconnected(5)).
		Select(func(d *diagram.Diagram) bool {
			return len(d.FBonds) == 5
		}).
		Print(out, virial.DefaultPrintOpts).
		PullAll()

	// C5 is the only 2-connected graph on 5 points with 5 bonds
	if count != 1 {
		t.Fatalf("selected %d diagrams, want 1", count)
	}
	if !strings.Contains(out.String(), "w=-2/5") {
		t.Fatalf("unexpected print output %q", out.String())
	}

	ds, err := diagram.Enumerate(diagram.GenerateOpts{N: 1}).Collect()
	if len(ds) != 0 || errors.Cause(err) != virial.ErrBadPointCount {
		t.Fatalf("got %v", err)
	}
}

func TestWriteAsString(t *testing.T) {
	d, _ := diagram.ParseDiagram("1-2-3-1")
	var buf strings.Builder
	d.WriteAsString(&buf, virial.PrintOpts{Label: "B3", Weight: true, Matrix: true})
	line := buf.String()
	if !strings.HasPrefix(line, "B3 w=-1/3") || !strings.HasSuffix(line, "|011 |101 |110|") {
		t.Fatalf("unexpected line %q", line)
	}
}

package diagram

import (
	"fmt"
	"strings"

	"github.com/fine-structures/virial/virial"
)

// String returns the bond expression of this diagram, the inverse of ParseDiagram.
func (d *Diagram) String() string {
	var buf strings.Builder
	d.writeBonds(&buf)
	return buf.String()
}

func (d *Diagram) writeBonds(buf *strings.Builder) {
	for i, b := range d.FBonds {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(buf, "%d-%d", b.A+1, b.B+1)
	}
	for i, b := range d.EBonds {
		if i > 0 || len(d.FBonds) > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(buf, "%d~%d", b.A+1, b.B+1)
	}
}

// WriteAsString appends a single line description of this diagram.
func (d *Diagram) WriteAsString(buf *strings.Builder, opts virial.PrintOpts) {
	if len(opts.Label) > 0 {
		buf.WriteString(opts.Label)
		buf.WriteByte(' ')
	}
	if opts.Weight {
		fmt.Fprintf(buf, "w=%-10s ", d.Weight.RatString())
	}
	if opts.Symmetry {
		fmt.Fprintf(buf, "aut=%-5d perms=%-7d ", d.Automorphisms, d.PermCount)
		if len(d.EBonds) > 0 {
			fmt.Fprintf(buf, "rh=%-3d ", d.ReeHoover)
		}
	}
	if opts.Bonds {
		d.writeBonds(buf)
	}
	if opts.Matrix {
		for i := 0; i < d.N; i++ {
			buf.WriteString(" |")
			for j := 0; j < d.N; j++ {
				if d.Adj[i]>>uint(j)&1 != 0 {
					buf.WriteByte('1')
				} else {
					buf.WriteByte('0')
				}
			}
		}
		buf.WriteByte('|')
	}
}

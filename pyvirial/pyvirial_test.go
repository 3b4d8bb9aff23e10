package pyvirial_test

import (
	"math"
	"testing"

	_ "github.com/fine-structures/virial/pyvirial"
	"github.com/go-python/gpython/py"
	_ "github.com/go-python/gpython/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execScript runs src as a __main__ module and returns its globals.
func execScript(src string) (py.StringDict, error) {
	ctx := py.NewContext(py.DefaultContextOpts())
	defer func() {
		ctx.Close()
		<-ctx.Done()
	}()
	code, err := py.Compile(src, "<test>", py.ExecMode, 0, true)
	if err != nil {
		return nil, err
	}
	globals := py.StringDict{"__name__": py.String("__main__")}
	_, err = ctx.RunCode(code, globals, globals, nil)
	return globals, err
}

func runScript(t *testing.T, src string, keys ...string) py.StringDict {
	g, err := execScript(src)
	if err != nil {
		py.TracebackDump(err)
	}
	require.NoError(t, err)
	for _, key := range keys {
		require.Contains(t, g, key)
	}
	return g
}

func TestDiagrams(t *testing.T) {
	g := runScript(t, `
import virial
n3 = virial.diagram_count(3)
n4 = virial.diagram_count(4)
n5 = virial.diagram_count(5)
rh4 = virial.diagram_count(4, ree_hoover=True)
tri5 = virial.diagram_count(5, triconnected=True)
streamed = virial.diagrams(5).Go()
few = virial.diagrams(5).Select(max_bonds=5).Go()
rooted4 = virial.diagram_count(4, biconnected=False, labelled=True, no_nodal=True)
`, "n3", "n4", "n5", "rh4", "tri5", "streamed", "few", "rooted4")
	assert.Equal(t, py.Int(1), g["n3"])
	assert.Equal(t, py.Int(3), g["n4"])
	assert.Equal(t, py.Int(10), g["n5"])
	assert.Equal(t, py.Int(2), g["rh4"])
	assert.Equal(t, py.Int(3), g["tri5"])
	assert.Equal(t, py.Int(10), g["streamed"])
	assert.Equal(t, py.Int(1), g["few"])
	assert.Equal(t, py.Int(26), g["rooted4"])
}

func TestHardSphere(t *testing.T) {
	g := runScript(t, `
import virial
b2 = virial.hs_coefficient(2)
b3 = virial.hs_coefficient(3, 2.0)
`, "b2", "b3")
	require.IsType(t, py.Float(0), g["b2"])
	require.IsType(t, py.Float(0), g["b3"])
	assert.InDelta(t, 2*math.Pi/3, float64(g["b2"].(py.Float)), 1e-12)
	assert.InDelta(t, 5.0/8*math.Pow(16*math.Pi/3, 2), float64(g["b3"].(py.Float)), 1e-9)

	_, err := execScript("import virial\nvirial.hs_coefficient(12)\n")
	assert.Error(t, err)
}

func TestWorkspaceCatalog(t *testing.T) {
	g := runScript(t, `
import virial
ws = virial.GetWorkspace()
cat = ws.OpenCatalog("", 0)
first = cat.Diagrams(5).Go()
second = cat.Diagrams(5).Go()
sets = cat.NumSets()
cat.Close()
`, "first", "second", "sets")
	assert.Equal(t, py.Int(10), g["first"])
	assert.Equal(t, py.Int(10), g["second"])
	assert.Equal(t, py.Int(1), g["sets"])
}

func TestOverlap(t *testing.T) {
	g := runScript(t, `
import virial
res = virial.overlap(points=3, production_steps=5000, seed=3)
ratio = res["ratio"]
coeff = res["coefficient"]
ref = virial.hs_coefficient(3)
`, "ratio", "coeff", "ref")
	assert.Equal(t, py.Float(1), g["ratio"])
	assert.Equal(t, g["ref"], g["coeff"])
}

func TestOverlapPolarizable(t *testing.T) {
	g := runScript(t, `
import virial
res = virial.overlap(points=3, production_steps=5000, seed=3, polarizability=0.01, charge=1.0)
ratio = res["ratio"]
blocks = res["blocks"]
`, "ratio", "blocks")
	require.IsType(t, py.Float(0), g["ratio"])
	ratio := float64(g["ratio"].(py.Float))
	assert.False(t, math.IsNaN(ratio))
	assert.NotEqual(t, 1.0, ratio)
	assert.Equal(t, py.Int(5), g["blocks"])

	_, err := execScript("import virial\nvirial.overlap(points=3, polarizability=0.1, polarization_order=2)\n")
	assert.Error(t, err)
}

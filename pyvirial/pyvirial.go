package pyvirial

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/fine-structures/virial/libvirial/diagram"
	"github.com/fine-structures/virial/libvirial/overlap"
	"github.com/fine-structures/virial/virial"
	"github.com/go-python/gpython/py"
)

var (
	LIB_VERSION = "v1.2024.1"
)

var (
	pyDiagramStreamType = py.NewType("DiagramStream", "a stream of generated cluster diagrams")
	pyCatalogType       = py.NewType("Catalog", "diagram.Catalog")
	pyWorkspaceType     = py.NewType("Workspace", "collects active session resources and catalogs")
)

const (
	READ_ONLY = 0x01

	kWorkspaceAttr = "_Workspace"
)

// hs_coefficient(n, sigma=1.0)
func py_HardSphereCoefficient(module py.Object, args py.Tuple) (py.Object, error) {
	if len(args) < 1 {
		return nil, py.ExceptionNewf(py.TypeError, "hs_coefficient() needs the cluster order")
	}
	var n int32
	if err := py.LoadTuple(args[:1], []interface{}{&n}); err != nil {
		return nil, err
	}
	sigma := 1.0
	if len(args) > 1 {
		var err error
		if sigma, err = py.FloatAsFloat64(args[1]); err != nil {
			return nil, err
		}
	}
	B, err := virial.HardSphereB(int(n), sigma)
	if err != nil {
		return nil, py.ExceptionNewf(py.ValueError, "%v", err)
	}
	return py.Float(B), nil
}

// generateOpts reads diagram generation options from positional n and keyword flags.
func generateOpts(args py.Tuple, kwargs py.StringDict) (opts diagram.GenerateOpts, err error) {
	var n int32
	if err = py.LoadTuple(args, []interface{}{&n}); err != nil {
		return
	}
	opts.N = int(n)
	if opts.ExcludeArticulationPoints, err = boolArg(kwargs, "biconnected", true); err != nil {
		return
	}
	if opts.ExcludeArticulationPairs, err = boolArg(kwargs, "triconnected", false); err != nil {
		return
	}
	if opts.ReeHoover, err = boolArg(kwargs, "ree_hoover", false); err != nil {
		return
	}
	if opts.AllPermutations, err = boolArg(kwargs, "labelled", false); err != nil {
		return
	}
	opts.ExcludeNodalPoints, err = boolArg(kwargs, "no_nodal", false)
	return
}

func boolArg(kwargs py.StringDict, key string, defaultVal bool) (bool, error) {
	obj, ok := kwargs[key]
	if !ok {
		return defaultVal, nil
	}
	return py.ObjectIsTrue(obj)
}

// diagram_count(n, biconnected=True, triconnected=False, ree_hoover=False, labelled=False, no_nodal=False)
func py_DiagramCount(module py.Object, args py.Tuple, kwargs py.StringDict) (py.Object, error) {
	opts, err := generateOpts(args, kwargs)
	if err != nil {
		return nil, err
	}
	diagrams, err := diagram.Generate(opts)
	if err != nil {
		return nil, py.ExceptionNewf(py.ValueError, "%v", err)
	}
	return py.Int(len(diagrams)), nil
}

// diagrams(n, ...) streams the diagrams diagram_count() counts.
func py_Diagrams(module py.Object, args py.Tuple, kwargs py.StringDict) (py.Object, error) {
	opts, err := generateOpts(args, kwargs)
	if err != nil {
		return nil, err
	}
	if opts.N < 2 || opts.N > virial.MaxPoints {
		return nil, py.ExceptionNewf(py.ValueError, "%v", virial.ErrBadPointCount)
	}
	return wrapDiagramStream(diagram.Enumerate(opts)), nil
}

// overlap(config_file=None, points=..., temperature=..., potential=..., production_steps=..., seed=...)
//
// charge, polarizability and polarization_order make the target polarizable.
func py_Overlap(module py.Object, args py.Tuple, kwargs py.StringDict) (py.Object, error) {
	cfg := virial.DefaultConfig()
	if len(args) > 0 {
		var pathname string
		if err := py.LoadTuple(args, []interface{}{&pathname}); err != nil {
			return nil, err
		}
		var err error
		if cfg, err = virial.LoadConfig(pathname); err != nil {
			return nil, py.ExceptionNewf(py.ValueError, "%v", err)
		}
	}

	polarization := func() *virial.PolarizationConfig {
		if cfg.System.Polarization == nil {
			cfg.System.Polarization = &virial.PolarizationConfig{Charge: 1}
		}
		return cfg.System.Polarization
	}

	for key, obj := range kwargs {
		var err error
		switch key {
		case "charge":
			polarization().Charge, err = py.FloatAsFloat64(obj)
		case "polarizability":
			polarization().Alpha, err = py.FloatAsFloat64(obj)
		case "polarization_order":
			var order py.Int
			order, err = py.GetInt(obj)
			polarization().MaxOrder = int(order)
		case "points":
			var n py.Int
			n, err = py.GetInt(obj)
			cfg.System.Points = int(n)
		case "temperature":
			cfg.System.Temperature, err = py.FloatAsFloat64(obj)
		case "sigma":
			cfg.System.Sigma, err = py.FloatAsFloat64(obj)
		case "potential":
			pot, isStr := obj.(py.String)
			if !isStr {
				return nil, py.ExceptionNewf(py.TypeError, "potential must be a string")
			}
			cfg.System.Potential = string(pot)
		case "ree_hoover":
			cfg.System.ReeHoover, err = py.ObjectIsTrue(obj)
		case "production_steps":
			var steps py.Int
			steps, err = py.GetInt(obj)
			cfg.Sampling.ProductionSteps = int64(steps)
		case "seed":
			var seed py.Int
			seed, err = py.GetInt(obj)
			cfg.Sampling.Seed = int64(seed)
		default:
			return nil, py.ExceptionNewf(py.TypeError, "overlap() got an unexpected keyword argument '%s'", key)
		}
		if err != nil {
			return nil, err
		}
	}

	res, err := overlap.Run(context.Background(), &cfg, nil)
	if err != nil {
		return nil, py.ExceptionNewf(py.RuntimeError, "%v", err)
	}
	return py.StringDict{
		"alpha":       py.Float(res.Alpha),
		"blocks":      py.Int(res.Blocks),
		"ratio":       py.Float(res.RatioAverage),
		"ratio_error": py.Float(res.RatioError),
		"coefficient": py.Float(res.Coefficient),
		"error":       py.Float(res.CoefficientError),
		"reference":   py.Float(res.ReferenceCoefficient),
	}, nil
}

type Workspace struct {
	CatalogCtx virial.CatalogContext
}

func (ws *Workspace) Close() {
	ws.CatalogCtx.Close()
	<-ws.CatalogCtx.Done()
}

func (ws *Workspace) Type() *py.Type {
	return pyWorkspaceType
}

func py_GetWorkspace(module py.Object, args py.Tuple) (py.Object, error) {
	wsObj, _ := py.GetAttrString(module, kWorkspaceAttr)
	if wsObj == nil {
		wsObj = &Workspace{
			CatalogCtx: virial.NewCatalogContext(),
		}
		py.SetAttrString(module, kWorkspaceAttr, wsObj)
	}
	return wsObj, nil
}

// OpenCatalog(pathname, flags=0); an empty pathname opens an in-memory catalog.
func py_Workspace_OpenCatalog(self py.Object, args py.Tuple) (py.Object, error) {
	ws := self.(*Workspace)

	var pathname string
	var flags int32
	if err := py.LoadTuple(args, []interface{}{&pathname, &flags}); err != nil {
		return nil, err
	}

	cat, err := diagram.OpenCatalog(ws.CatalogCtx, diagram.CatalogOpts{
		DbPathName: pathname,
		ReadOnly:   (flags & READ_ONLY) != 0,
	})
	if err != nil {
		return nil, py.ExceptionNewf(py.RuntimeError, "%v", err)
	}
	return py.Object(pyCatalog{cat}), nil
}

type pyCatalog struct {
	*diagram.Catalog
}

func (cat pyCatalog) Type() *py.Type {
	return pyCatalogType
}

func py_Catalog_Close(self py.Object, args py.Tuple) (py.Object, error) {
	cat := self.(pyCatalog)
	if cat.Catalog != nil {
		cat.Close()
	}
	return py.None, nil
}

func py_Catalog_NumSets(self py.Object, args py.Tuple) (py.Object, error) {
	cat := self.(pyCatalog)
	return py.Int(cat.NumSets()), nil
}

// Diagrams(n, ...) streams diagrams from the catalog, generating and storing them on first use.
func py_Catalog_Diagrams(self py.Object, args py.Tuple, kwargs py.StringDict) (py.Object, error) {
	cat := self.(pyCatalog)
	opts, err := generateOpts(args, kwargs)
	if err != nil {
		return nil, err
	}
	diagrams, err := diagram.GenerateCached(cat.Catalog, opts)
	if err != nil {
		return nil, py.ExceptionNewf(py.RuntimeError, "%v", err)
	}
	return wrapDiagramStream(diagram.StreamDiagrams(diagrams)), nil
}

type diagramStream struct {
	*diagram.Stream
}

func (stream diagramStream) Type() *py.Type {
	return pyDiagramStreamType
}

func wrapDiagramStream(stream *diagram.Stream) py.Object {
	return py.Object(diagramStream{stream})
}

func py_DiagramStream_Go(self py.Object, args py.Tuple) (py.Object, error) {
	stream := self.(diagramStream)
	count := stream.PullAll()
	if err := stream.Err(); err != nil {
		return nil, py.ExceptionNewf(py.RuntimeError, "%v", err)
	}
	return py.Int(count), nil
}

type echoToWriter struct {
	stdout *os.File
	to     io.WriteCloser
}

func (echo *echoToWriter) Write(buf []byte) (int, error) {
	if echo.to == nil {
		return echo.stdout.Write(buf)
	}
	return echo.to.Write(buf)
}

var gOutCount = int32(0)

// Print(label="", file="", matrix=False, weight=True, symmetry=True)
func py_DiagramStream_Print(self py.Object, args py.Tuple, kwargs py.StringDict) (py.Object, error) {
	stream := self.(diagramStream)
	opts := virial.DefaultPrintOpts

	if len(args) > 0 {
		if err := py.LoadTuple(args, []interface{}{&opts.Label}); err != nil {
			return nil, err
		}
	} else if label, isStr := kwargs["label"].(py.String); isStr {
		opts.Label = string(label)
	}
	outCount := atomic.AddInt32(&gOutCount, 1)
	if opts.Label == "" {
		opts.Label = fmt.Sprintf("out[%d]", outCount)
	}

	var err error
	if opts.Matrix, err = boolArg(kwargs, "matrix", opts.Matrix); err != nil {
		return nil, err
	}
	if opts.Weight, err = boolArg(kwargs, "weight", opts.Weight); err != nil {
		return nil, err
	}
	if opts.Symmetry, err = boolArg(kwargs, "symmetry", opts.Symmetry); err != nil {
		return nil, err
	}

	writer := &echoToWriter{
		stdout: os.Stdout,
	}
	if pathname, isStr := kwargs["file"].(py.String); isStr && len(pathname) > 0 {
		os.MkdirAll(filepath.Dir(string(pathname)), 0700)
		file, err := os.OpenFile(string(pathname), os.O_TRUNC|os.O_WRONLY|os.O_CREATE, 0600)
		if err != nil {
			return nil, py.ExceptionNewf(py.FileNotFoundError, "%v", err)
		}
		writer.to = file
		defer file.Close()
		next := stream.Print(writer, opts)
		count := next.PullAll()
		return py.Int(count), nil
	}

	return wrapDiagramStream(stream.Print(writer, opts)), nil
}

// Select(min_bonds=0, max_bonds=MAX_POINTS*(MAX_POINTS-1)/2)
func py_DiagramStream_Select(self py.Object, args py.Tuple, kwargs py.StringDict) (py.Object, error) {
	stream := self.(diagramStream)
	minBonds, err := intArg(kwargs, "min_bonds", 0)
	if err != nil {
		return nil, err
	}
	maxBonds, err := intArg(kwargs, "max_bonds", virial.MaxPoints*(virial.MaxPoints-1)/2)
	if err != nil {
		return nil, err
	}
	next := stream.Select(func(d *diagram.Diagram) bool {
		nb := len(d.FBonds)
		return nb >= minBonds && nb <= maxBonds
	})
	return wrapDiagramStream(next), nil
}

func intArg(kwargs py.StringDict, key string, defaultVal int) (int, error) {
	obj, ok := kwargs[key]
	if !ok {
		return defaultVal, nil
	}
	val, err := py.GetInt(obj)
	return int(val), err
}

func init() {

	/////////////////////////////////
	// Catalog
	{
		pyCatalogType.Dict["Diagrams"] = py.MustNewMethod("Diagrams", py_Catalog_Diagrams, 0, "streams diagrams, generating and storing them on first use")
		pyCatalogType.Dict["NumSets"] = py.MustNewMethod("NumSets", py_Catalog_NumSets, 0, "")
		pyCatalogType.Dict["Close"] = py.MustNewMethod("Close", py_Catalog_Close, 0, "")
	}

	/////////////////////////////////
	// Workspace
	{
		pyWorkspaceType.Dict["OpenCatalog"] = py.MustNewMethod("OpenCatalog", py_Workspace_OpenCatalog, 0, "")
	}

	/////////////////////////////////
	// DiagramStream
	{
		pyDiagramStreamType.Dict["Go"] = py.MustNewMethod("Go", py_DiagramStream_Go, 0, "counts the number of diagrams output from the stream")
		pyDiagramStreamType.Dict["Print"] = py.MustNewMethod("Print", py_DiagramStream_Print, 0, "prints each diagram from the stream")
		pyDiagramStreamType.Dict["Select"] = py.MustNewMethod("Select", py_DiagramStream_Select, 0, "passes diagrams within a bond count range")
	}

	{
		methods := []*py.Method{
			py.MustNewMethod("hs_coefficient", py_HardSphereCoefficient, 0, "hard-sphere virial coefficient B_n(sigma)"),
			py.MustNewMethod("diagram_count", py_DiagramCount, 0, "number of cluster diagrams of order n"),
			py.MustNewMethod("diagrams", py_Diagrams, 0, "streams cluster diagrams of order n"),
			py.MustNewMethod("overlap", py_Overlap, 0, "runs overlap sampling and returns a result dict"),
			py.MustNewMethod("GetWorkspace", py_GetWorkspace, 0, ""),
		}

		globals := py.StringDict{
			"LIB_VERSION":           py.String(LIB_VERSION),
			"MAX_POINTS":            py.Int(virial.MaxPoints),
			"MAX_REE_HOOVER_POINTS": py.Int(virial.MaxReeHooverPoints),
			"READ_ONLY":             py.Int(READ_ONLY),
		}

		py.RegisterModule(&py.ModuleImpl{
			Info: py.ModuleInfo{
				Name: "virial",
				Doc:  "virial cluster integral gpython module",
			},
			Methods: methods,
			Globals: globals,
			OnContextClosed: func(m *py.Module) {
				wsObj, _ := py.GetAttrString(m, kWorkspaceAttr)
				if wsObj != nil {
					wsObj.(*Workspace).Close()
				}
			},
		})
	}
}

package diagram

import (
	"math/big"
	"runtime"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/fine-structures/virial/virial"
	"github.com/gogo/protobuf/proto"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
)

/***

Catalog database format:

	gCatalogStateKey                  => CatalogState
	'D', N, optsFlags                 => DiagramSetDef

A set is written once, the first time a (N, rule set) combination is generated, and never rewritten.

***/

var (
	gCatalogStateKey = []byte{0x00, 0x00, 0x01}
)

const (
	catalogMajorVers = 2024
	catalogMinorVers = 1
)

// CatalogOpts specifies how a Catalog is opened.
type CatalogOpts struct {
	DbPathName string // If empty, the catalog lives in memory
	ReadOnly   bool
}

// Catalog persists generated diagram sets so each (N, rule set) is generated once.
type Catalog struct {
	mu         sync.Mutex
	ctx        virial.CatalogContext
	readOnly   bool
	stateDirty bool
	state      CatalogState
	db         *badger.DB
}

func OpenCatalog(ctx virial.CatalogContext, opts CatalogOpts) (*Catalog, error) {
	cat := &Catalog{
		ctx:      ctx,
		readOnly: opts.ReadOnly,
	}

	dbOpts := badger.DefaultOptions(opts.DbPathName)
	dbOpts.ReadOnly = opts.ReadOnly
	dbOpts.DetectConflicts = false
	dbOpts.Logger = nil
	dbOpts.MetricsEnabled = false

	// Badger for windows currently does not support read-only mode
	if runtime.GOOS == "windows" {
		dbOpts.ReadOnly = false
	}

	if len(opts.DbPathName) == 0 {
		if opts.ReadOnly {
			return nil, errors.Wrap(virial.ErrBadCatalogParam, "DbPathName must be specified for read-only catalog")
		}
		dbOpts.InMemory = true
	}

	var err error
	cat.db, err = badger.Open(dbOpts)
	if err != nil {
		return nil, errors.Wrapf(err, "opening catalog %q", opts.DbPathName)
	}

	// ctx.Done now waits on this catalog
	if err = ctx.AttachCatalog(cat); err != nil {
		cat.db.Close()
		return nil, err
	}

	err = cat.loadState()
	if err == badger.ErrKeyNotFound {
		err = nil
		cat.stateDirty = true
		cat.state.MajorVers = catalogMajorVers
		cat.state.MinorVers = catalogMinorVers
	}
	if err == nil && (cat.state.MajorVers != catalogMajorVers || cat.state.MinorVers != catalogMinorVers) {
		err = errors.Wrapf(virial.ErrBadCatalogParam, "catalog version %d.%d is incompatible", cat.state.MajorVers, cat.state.MinorVers)
	}
	if err != nil {
		cat.Close()
		return nil, err
	}

	return cat, nil
}

func (cat *Catalog) loadState() error {
	return cat.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(gCatalogStateKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return proto.Unmarshal(val, &cat.state)
		})
	})
}

func (cat *Catalog) flushState() error {
	if !cat.stateDirty || cat.readOnly {
		return nil
	}
	err := cat.db.Update(func(txn *badger.Txn) error {
		stateBuf, err := proto.Marshal(&cat.state)
		if err != nil {
			return err
		}
		return txn.Set(gCatalogStateKey, stateBuf)
	})
	if err == nil {
		cat.stateDirty = false
	}
	return err
}

func (cat *Catalog) Close() error {
	cat.mu.Lock()
	defer cat.mu.Unlock()

	if cat.db == nil {
		return nil
	}
	err := cat.flushState()
	if closeErr := cat.db.Close(); err == nil {
		err = closeErr
	}
	cat.db = nil
	cat.ctx.DetachCatalog(cat)
	cat.ctx = nil
	return err
}

// NumSets returns how many diagram sets this catalog holds.
func (cat *Catalog) NumSets() int64 {
	cat.mu.Lock()
	defer cat.mu.Unlock()
	return int64(cat.state.NumSets)
}

func (opts *GenerateOpts) flags() uint32 {
	var flags uint32
	if opts.ExcludeArticulationPoints {
		flags |= 0x01
	}
	if opts.ExcludeArticulationPairs {
		flags |= 0x02
	}
	if opts.ReeHoover {
		flags |= 0x04
	}
	if opts.AllPermutations {
		flags |= 0x08
	}
	if opts.ExcludeNodalPoints {
		flags |= 0x10
	}
	return flags
}

func setKey(opts *GenerateOpts) []byte {
	return []byte{'D', byte(opts.N), byte(opts.flags())}
}

// Load returns the stored diagram set for opts, or nil if none has been stored.
func (cat *Catalog) Load(opts GenerateOpts) ([]*Diagram, error) {
	cat.mu.Lock()
	defer cat.mu.Unlock()

	if cat.db == nil {
		return nil, virial.ErrCatalogClosed
	}

	var set DiagramSetDef
	err := cat.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(setKey(&opts))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return proto.Unmarshal(val, &set)
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(virial.ErrUnmarshal, err.Error())
	}

	diagrams := make([]*Diagram, len(set.Diagrams))
	for i, def := range set.Diagrams {
		if diagrams[i], err = def.diagram(); err != nil {
			return nil, err
		}
	}
	return diagrams, nil
}

// Store writes the diagram set generated for opts.
func (cat *Catalog) Store(opts GenerateOpts, diagrams []*Diagram) error {
	cat.mu.Lock()
	defer cat.mu.Unlock()

	if cat.db == nil {
		return virial.ErrCatalogClosed
	}
	if cat.readOnly {
		return errors.Wrap(virial.ErrBadCatalogParam, "catalog is read-only")
	}

	set := DiagramSetDef{
		Opts:     opts.flags(),
		Diagrams: make([]*DiagramDef, len(diagrams)),
	}
	for i, d := range diagrams {
		set.Diagrams[i] = d.def()
	}
	buf, err := proto.Marshal(&set)
	if err != nil {
		return err
	}

	err = cat.db.Update(func(txn *badger.Txn) error {
		return txn.Set(setKey(&opts), buf)
	})
	if err != nil {
		return err
	}
	cat.state.NumSets++
	cat.stateDirty = true
	return nil
}

func (d *Diagram) def() *DiagramDef {
	return &DiagramDef{
		N:             int32(d.N),
		Code:          uint64(d.Code),
		EBonds:        len(d.EBonds) > 0,
		Automorphisms: d.Automorphisms,
		PermCount:     d.PermCount,
		ReeHoover:     d.ReeHoover,
		Weight:        d.Weight.RatString(),
	}
}

func (def *DiagramDef) diagram() (*Diagram, error) {
	n := int(def.N)
	if n < 2 || n > virial.MaxPoints {
		return nil, errors.Wrapf(virial.ErrUnmarshal, "bad point count %d", n)
	}
	weight, ok := new(big.Rat).SetString(def.Weight)
	if !ok {
		return nil, errors.Wrapf(virial.ErrUnmarshal, "bad weight %q", def.Weight)
	}
	d := newDiagram(n, Code(def.Code), def.EBonds)
	d.Automorphisms = def.Automorphisms
	d.PermCount = def.PermCount
	d.ReeHoover = def.ReeHoover
	d.Weight = weight
	return d, nil
}

// GenerateCached returns the diagrams for opts from cat, generating and storing them on first use.
// A nil cat is the same as calling Generate.
func GenerateCached(cat *Catalog, opts GenerateOpts) ([]*Diagram, error) {
	if cat == nil {
		return Generate(opts)
	}

	diagrams, err := cat.Load(opts)
	if err != nil || diagrams != nil {
		return diagrams, err
	}

	diagrams, err = Generate(opts)
	if err != nil {
		return nil, err
	}
	klog.V(1).Infof("generated %d diagrams for N=%d (flags %#x)", len(diagrams), opts.N, opts.flags())

	if !cat.readOnly {
		if err = cat.Store(opts, diagrams); err != nil {
			return nil, err
		}
	}
	return diagrams, nil
}

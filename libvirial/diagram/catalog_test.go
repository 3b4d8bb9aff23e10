package diagram_test

import (
	"path"
	"testing"

	"github.com/fine-structures/virial/libvirial/diagram"
	"github.com/fine-structures/virial/virial"
	"github.com/pkg/errors"
)

func TestCatalog(t *testing.T) {
	ctx := virial.NewCatalogContext()
	defer func() {
		ctx.Close()
		<-ctx.Done()
	}()

	dbPath := path.Join(t.TempDir(), "TestCatalog")
	cat, err := diagram.OpenCatalog(ctx, diagram.CatalogOpts{DbPathName: dbPath})
	if err != nil {
		t.Fatal(err)
	}

	opts := biconnected(5)
	opts.ReeHoover = true

	if ds, err := cat.Load(opts); err != nil || ds != nil {
		t.Fatal("empty catalog should not hold any diagrams")
	}

	generated, err := diagram.GenerateCached(cat, opts)
	if err != nil {
		t.Fatal(err)
	}
	if cat.NumSets() != 1 {
		t.Fatalf("catalog holds %d sets, want 1", cat.NumSets())
	}
	if err = cat.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err = cat.Load(opts); err != virial.ErrCatalogClosed {
		t.Fatalf("got %v", err)
	}

	cat, err = diagram.OpenCatalog(ctx, diagram.CatalogOpts{DbPathName: dbPath, ReadOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	defer cat.Close()

	if cat.NumSets() != 1 {
		t.Fatalf("reopened catalog holds %d sets, want 1", cat.NumSets())
	}
	loaded, err := diagram.GenerateCached(cat, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != len(generated) {
		t.Fatalf("loaded %d diagrams, want %d", len(loaded), len(generated))
	}
	for i, d := range loaded {
		g := generated[i]
		if d.Code != g.Code || d.Weight.Cmp(g.Weight) != 0 || d.ReeHoover != g.ReeHoover ||
			d.Automorphisms != g.Automorphisms || len(d.EBonds) != len(g.EBonds) || d.String() != g.String() {
			t.Fatalf("diagram %d: loaded %v, generated %v", i, d, g)
		}
	}

	if err = cat.Store(opts, loaded); errors.Cause(err) != virial.ErrBadCatalogParam {
		t.Fatalf("store into read-only catalog: got %v", err)
	}
}

func TestCatalogInMemory(t *testing.T) {
	ctx := virial.NewCatalogContext()
	cat, err := diagram.OpenCatalog(ctx, diagram.CatalogOpts{})
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		ds, err := diagram.GenerateCached(cat, biconnected(4))
		if err != nil || len(ds) != 3 {
			t.Fatalf("pass %d: got %d diagrams (%v)", i, len(ds), err)
		}
	}
	if cat.NumSets() != 1 {
		t.Fatalf("catalog holds %d sets, want 1", cat.NumSets())
	}

	// Closing the context closes the catalog
	ctx.Close()
	<-ctx.Done()
	if _, err = cat.Load(biconnected(4)); err != virial.ErrCatalogClosed {
		t.Fatalf("got %v", err)
	}

	// a closed context refuses new catalogs
	if _, err = diagram.OpenCatalog(ctx, diagram.CatalogOpts{}); errors.Cause(err) != virial.ErrCatalogClosed {
		t.Fatalf("open after close: got %v", err)
	}

	_, err = diagram.OpenCatalog(virial.NewCatalogContext(), diagram.CatalogOpts{ReadOnly: true})
	if errors.Cause(err) != virial.ErrBadCatalogParam {
		t.Fatalf("got %v", err)
	}
}

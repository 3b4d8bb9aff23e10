package virial

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
	"golang.org/x/sync/errgroup"
)

// NewCatalogContext returns a CatalogContext that closes whatever catalogs are still attached when it closes.
func NewCatalogContext() CatalogContext {
	return &catalogSet{
		attached: make(map[Closer]struct{}),
		done:     make(chan struct{}),
	}
}

type catalogSet struct {
	mu       sync.Mutex
	attached map[Closer]struct{}
	shutdown bool
	done     chan struct{}
}

func (cs *catalogSet) AttachCatalog(cat Closer) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.shutdown {
		return errors.Wrap(ErrCatalogClosed, "catalog context is shutting down")
	}
	cs.attached[cat] = struct{}{}
	return nil
}

func (cs *catalogSet) DetachCatalog(cat Closer) {
	cs.mu.Lock()
	delete(cs.attached, cat)
	cs.mu.Unlock()
}

func (cs *catalogSet) Done() <-chan struct{} {
	return cs.done
}

// Close closes the attached catalogs concurrently; Done fires once every one of them has returned.
func (cs *catalogSet) Close() {
	cs.mu.Lock()
	if cs.shutdown {
		cs.mu.Unlock()
		return
	}
	cs.shutdown = true
	cats := make([]Closer, 0, len(cs.attached))
	for cat := range cs.attached {
		cats = append(cats, cat)
	}
	cs.mu.Unlock()

	go func() {
		var group errgroup.Group
		for _, cat := range cats {
			group.Go(cat.Close)
		}
		if err := group.Wait(); err != nil {
			klog.Warningf("virial: closing catalogs: %v", err)
		}
		close(cs.done)
	}()
}

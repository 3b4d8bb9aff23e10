package diagram

import (
	"fmt"
	"io"
	"strings"

	"github.com/fine-structures/virial/virial"
)

// Stream is a channel pipeline of diagrams.
//
// Each stage owns the Outlet it closes.  Err is only valid once Outlet has been drained.
type Stream struct {
	Outlet chan *Diagram
	err    error
}

func NewStream() *Stream {
	return &Stream{
		Outlet: make(chan *Diagram, 1),
	}
}

// Enumerate streams the diagrams that Generate(opts) returns.
func Enumerate(opts GenerateOpts) *Stream {
	next := NewStream()
	go func() {
		diagrams, err := Generate(opts)
		next.err = err
		for _, d := range diagrams {
			next.Outlet <- d
		}
		next.Close()
	}()
	return next
}

// StreamDiagrams streams the given diagrams.
func StreamDiagrams(diagrams []*Diagram) *Stream {
	next := NewStream()
	go func() {
		for _, d := range diagrams {
			next.Outlet <- d
		}
		next.Close()
	}()
	return next
}

func (stream *Stream) Close() {
	if stream.Outlet != nil {
		close(stream.Outlet)
	}
}

func (stream *Stream) Err() error {
	return stream.err
}

// PullAll drains the stream and returns how many diagrams were received.
func (stream *Stream) PullAll() int {
	count := 0
	for range stream.Outlet {
		count++
	}
	return count
}

// Collect drains the stream into a slice.
func (stream *Stream) Collect() ([]*Diagram, error) {
	var diagrams []*Diagram
	for d := range stream.Outlet {
		diagrams = append(diagrams, d)
	}
	return diagrams, stream.err
}

// Print writes one numbered line per diagram to out and passes each diagram on.
func (stream *Stream) Print(out io.Writer, opts virial.PrintOpts) *Stream {
	next := NewStream()

	go func() {
		buf := strings.Builder{}
		buf.Grow(256)

		count := 0
		for d := range stream.Outlet {
			count++
			fmt.Fprintf(&buf, "%04d  ", count)
			d.WriteAsString(&buf, opts)
			buf.WriteByte('\n')
			out.Write([]byte(buf.String()))
			buf.Reset()
			next.Outlet <- d
		}
		next.err = stream.err
		next.Close()
	}()

	return next
}

// Select passes on only the diagrams for which accept returns true.
func (stream *Stream) Select(accept func(d *Diagram) bool) *Stream {
	next := NewStream()

	go func() {
		for d := range stream.Outlet {
			if accept(d) {
				next.Outlet <- d
			}
		}
		next.err = stream.err
		next.Close()
	}()

	return next
}

// Package emit writes derived variants to their destination.
//
// A [Sink] receives each variant exactly once. The pipeline only calls
// Emit after every variant of a source image has been derived, so a sink
// never sees a partial set.
package emit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/matzehuels/densify/pkg/errors"
)

// Sink receives emitted variants.
type Sink interface {
	Emit(ctx context.Context, name string, data []byte) error
}

// Store is a Sink whose emitted variants can be read back, used to serve
// variants over HTTP.
type Store interface {
	Sink
	Get(name string) ([]byte, bool)
}

// DirSink writes variants as files into a directory.
type DirSink struct {
	dir string
}

// NewDirSink creates a sink writing into dir, creating it if needed.
func NewDirSink(dir string) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &DirSink{dir: dir}, nil
}

// Dir returns the output directory.
func (s *DirSink) Dir() string { return s.dir }

// Emit writes data to dir/name. The file is written under a temporary name
// and renamed, so readers never observe a partially written variant.
func (s *DirSink) Emit(ctx context.Context, name string, data []byte) error {
	if err := errors.ValidateEmitName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".emit-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(s.dir, name))
}

// Get reads a previously emitted variant. Names that could escape the
// directory are never found.
func (s *DirSink) Get(name string) ([]byte, bool) {
	if errors.ValidateEmitName(name) != nil {
		return nil, false
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return nil, false
	}
	return data, true
}

// MemorySink keeps emitted variants in memory. Safe for concurrent use.
type MemorySink struct {
	mu    sync.Mutex
	files map[string][]byte
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{files: make(map[string][]byte)}
}

// Emit stores a copy of data under name.
func (s *MemorySink) Emit(ctx context.Context, name string, data []byte) error {
	if err := errors.ValidateEmitName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = append([]byte(nil), data...)
	return nil
}

// Get returns the data stored under name.
func (s *MemorySink) Get(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[name]
	return data, ok
}

// Names returns the emitted names in sorted order.
func (s *MemorySink) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.files))
	for name := range s.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of emitted files.
func (s *MemorySink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

// DiscardSink accepts and drops every variant. Used for dry runs.
type DiscardSink struct{}

// Emit validates the name and drops the data.
func (DiscardSink) Emit(ctx context.Context, name string, data []byte) error {
	return errors.ValidateEmitName(name)
}

// FuncSink adapts a function to the Sink interface.
type FuncSink func(ctx context.Context, name string, data []byte) error

// Emit calls f.
func (f FuncSink) Emit(ctx context.Context, name string, data []byte) error {
	if f == nil {
		return fmt.Errorf("emit %s: nil sink func", name)
	}
	return f(ctx, name, data)
}

// Ensure sinks implement Sink.
var (
	_ Sink = (*DirSink)(nil)
	_ Sink = (*MemorySink)(nil)
	_ Sink = DiscardSink{}
	_ Sink = FuncSink(nil)

	_ Store = (*DirSink)(nil)
	_ Store = (*MemorySink)(nil)
)

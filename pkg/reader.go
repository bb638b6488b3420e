package converter

import (
	"errors"
	"fmt"
	"os"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rtree"
)

// EventSource gives random access to aligned input events.
type EventSource interface {
	NumEvents() int
	// Event fills ev with event i. ev is reset first.
	Event(i int, ev *InputEvent) error
}

// Input tree names, one per source of the simulation output.
const (
	EventTreeName = "EventData"
	RPDTreeName   = "RPD1tree"
)

func ZDCTreeName(m Module) string {
	return fmt.Sprintf("ZDC%dtree", int(m)+1)
}

// MemorySource serves events held in memory.
type MemorySource []InputEvent

func (s MemorySource) NumEvents() int { return len(s) }

func (s MemorySource) Event(i int, ev *InputEvent) error {
	if i < 0 || i >= len(s) {
		return fmt.Errorf("event %d out of range [0, %d)", i, len(s))
	}
	ev.Reset()
	src := &s[i]
	ev.Index = i
	ev.LastStepZ = append(ev.LastStepZ, src.LastStepZ...)
	ev.Energy = src.Energy
	ev.RPDCherenkovs = append(ev.RPDCherenkovs, src.RPDCherenkovs...)
	for _, m := range Modules {
		ev.Rods[m] = append(ev.Rods[m], src.Rods[m]...)
		ev.Cherenkovs[m] = append(ev.Cherenkovs[m], src.Cherenkovs[m]...)
	}
	return nil
}

// InputReader loads the simulation trees of a list of shards. Each tree is
// chained across shards and read column by column into memory, so events can
// be served by index to several workers at once.
type InputReader struct {
	Files   []string
	entries int64

	lastStepZ  [][]float64
	energy     []float64
	rpd        [][]int32
	rods       [NumModules][][]int32
	cherenkovs [NumModules][][]int32
}

// OpenInput chains the input trees of files and checks that they are aligned
// before reading any entry.
func OpenInput(files []string) (*InputReader, error) {
	if len(files) == 0 {
		return nil, errors.New("no input files")
	}
	for _, fname := range files {
		if _, err := os.Stat(fname); err != nil {
			return nil, &ErrOpenFile{Filename: fname, Err: err}
		}
	}

	r := &InputReader{Files: files}

	names := []string{EventTreeName, RPDTreeName}
	for _, m := range Modules {
		names = append(names, ZDCTreeName(m))
	}
	// Chained totals can agree while shards are shifted against each other.
	for _, fname := range files {
		if err := checkShard(fname, names); err != nil {
			return nil, err
		}
	}

	trees := make(map[string]rtree.Tree, len(names))
	var closers []func() error
	defer func() {
		for _, c := range closers {
			c()
		}
	}()
	for _, name := range names {
		t, closer, err := rtree.ChainOf(name, files...)
		if err != nil {
			return nil, fmt.Errorf("could not chain tree %q: %w", name, err)
		}
		closers = append(closers, closer)
		trees[name] = t
	}

	r.entries = trees[ZDCTreeName(EM)].Entries()
	logger.Info(fmt.Sprintf("Chained %d files, %d events", len(files), r.entries), "reader")

	if err := r.readEventData(trees[EventTreeName]); err != nil {
		return nil, err
	}
	rpd, err := readInt32Column(trees[RPDTreeName], "nCherenkovs")
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", RPDTreeName, err)
	}
	r.rpd = rpd
	for _, m := range Modules {
		name := ZDCTreeName(m)
		r.rods[m], err = readInt32Column(trees[name], "rodNo")
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", name, err)
		}
		r.cherenkovs[m], err = readInt32Column(trees[name], "nCherenkovs")
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", name, err)
		}
	}
	return r, nil
}

// checkShard verifies that every tree in names holds as many entries as
// ZDC1tree within the single file fname.
func checkShard(fname string, names []string) error {
	f, err := groot.Open(fname)
	if err != nil {
		return &ErrOpenFile{Filename: fname, Err: err}
	}
	defer f.Close()

	entries := make([]int64, len(names))
	var expected int64
	for i, name := range names {
		obj, err := f.Get(name)
		if err != nil {
			return fmt.Errorf("could not find tree %q in %s: %w", name, fname, err)
		}
		t, ok := obj.(rtree.Tree)
		if !ok {
			return fmt.Errorf("object %q in %s is a %T, not a tree", name, fname, obj)
		}
		entries[i] = t.Entries()
		if name == ZDCTreeName(EM) {
			expected = entries[i]
		}
	}
	for i, name := range names {
		if entries[i] != expected {
			return &ErrMisaligned{File: fname, Tree: name, Entries: entries[i], Expected: expected}
		}
	}
	return nil
}

func (r *InputReader) readEventData(t rtree.Tree) error {
	var (
		lastStepZ []float64
		energy    float64
	)
	rvars := []rtree.ReadVar{{Name: "lastStepZ", Value: &lastStepZ}}
	// Older simulation outputs have no primary energy branch.
	hasEnergy := t.Branch("energy") != nil
	if hasEnergy {
		rvars = append(rvars, rtree.ReadVar{Name: "energy", Value: &energy})
	}

	reader, err := rtree.NewReader(t, rvars)
	if err != nil {
		return fmt.Errorf("error reading %s: %w", EventTreeName, err)
	}
	defer reader.Close()

	r.lastStepZ = make([][]float64, 0, r.entries)
	r.energy = make([]float64, 0, r.entries)
	err = reader.Read(func(ctx rtree.RCtx) error {
		r.lastStepZ = append(r.lastStepZ, append([]float64(nil), lastStepZ...))
		r.energy = append(r.energy, energy)
		return nil
	})
	if err != nil {
		return fmt.Errorf("error reading %s: %w", EventTreeName, err)
	}
	return nil
}

func readInt32Column(t rtree.Tree, branch string) ([][]int32, error) {
	var values []int32
	reader, err := rtree.NewReader(t, []rtree.ReadVar{{Name: branch, Value: &values}})
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	column := make([][]int32, 0, t.Entries())
	err = reader.Read(func(ctx rtree.RCtx) error {
		column = append(column, append([]int32(nil), values...))
		return nil
	})
	return column, err
}

func (r *InputReader) NumEvents() int {
	return int(r.entries)
}

func (r *InputReader) Event(i int, ev *InputEvent) error {
	if i < 0 || i >= int(r.entries) {
		return fmt.Errorf("event %d out of range [0, %d)", i, r.entries)
	}
	ev.Reset()
	ev.Index = i
	ev.LastStepZ = append(ev.LastStepZ, r.lastStepZ[i]...)
	ev.Energy = r.energy[i]
	ev.RPDCherenkovs = append(ev.RPDCherenkovs, r.rpd[i]...)
	for _, m := range Modules {
		ev.Rods[m] = append(ev.Rods[m], r.rods[m][i]...)
		ev.Cherenkovs[m] = append(ev.Cherenkovs[m], r.cherenkovs[m][i]...)
	}
	return nil
}

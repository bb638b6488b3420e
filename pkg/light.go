package converter

import (
	"fmt"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rtree"
	"go-hep.org/x/hep/hbook"
	"gonum.org/v1/gonum/floats"
)

// LightFractions holds the per-segment light sharing of a set of events.
// EM[i] and HAD[i] are filled with the segment light over the total light of
// the event (RPD + EM + HAD); EMTotal and HADTotal with the module light over
// the calorimeter light (EM + HAD).
type LightFractions struct {
	EM       [NumEMSegments]*hbook.H1D
	HAD      [NumHADSegments]*hbook.H1D
	EMTotal  *hbook.H1D
	HADTotal *hbook.H1D
	Skipped  int
}

func NewLightFractions(specs HistSpecs) *LightFractions {
	em, had := specs[HistEMLight], specs[HistHADLight]
	lf := &LightFractions{}
	for i := range lf.EM {
		lf.EM[i] = lightHist(em, fmt.Sprintf("EM_seg_%d", i+1), fmt.Sprintf("%s %d", em.Title, i+1))
	}
	for i := range lf.HAD {
		lf.HAD[i] = lightHist(had, fmt.Sprintf("HAD_seg_%d", i+1), fmt.Sprintf("%s %d", had.Title, i+1))
	}
	lf.EMTotal = lightHist(specs[HistEMTotal], "EM_total", specs[HistEMTotal].Title)
	lf.HADTotal = lightHist(specs[HistHADTotal], "HAD_total", specs[HistHADTotal].Title)
	return lf
}

func lightHist(spec HistSpec, name, title string) *hbook.H1D {
	h := spec.NewH1D(name)
	h.Annotation()["title"] = title
	return h
}

// Fill adds one event. Events without any calorimeter light are counted in
// Skipped since their fractions are undefined.
func (lf *LightFractions) Fill(emSeg []float64, hadSeg []float64, rpd []int32) {
	totalRPD := 0.0
	for _, n := range rpd {
		totalRPD += float64(n)
	}
	totalEM := floats.Sum(emSeg)
	totalHAD := floats.Sum(hadSeg)

	if totalEM+totalHAD == 0 {
		lf.Skipped++
		return
	}
	total := totalRPD + totalEM + totalHAD
	for i, v := range emSeg {
		lf.EM[i].Fill(v/total, 1)
	}
	for i, v := range hadSeg {
		lf.HAD[i].Fill(v/total, 1)
	}
	lf.EMTotal.Fill(totalEM/(totalEM+totalHAD), 1)
	lf.HADTotal.Fill(totalHAD/(totalEM+totalHAD), 1)
}

// ReadLightFractions fills lf from a tree written with SchemaSegments.
func ReadLightFractions(filename string, lf *LightFractions) (int, error) {
	f, err := groot.Open(filename)
	if err != nil {
		return 0, &ErrOpenFile{Filename: filename, Err: err}
	}
	defer f.Close()

	obj, err := f.Get(TreeName(SchemaSegments))
	if err != nil {
		return 0, fmt.Errorf("could not find tree in %s: %w", filename, err)
	}
	tree, ok := obj.(rtree.Tree)
	if !ok {
		return 0, fmt.Errorf("object %q in %s is not a tree", TreeName(SchemaSegments), filename)
	}

	var (
		emSeg  [NumEMSegments]float64
		hadSeg [NumHADSegments]float64
		rpd    []int32
	)
	rvars := []rtree.ReadVar{
		{Name: "EM_seg", Value: &emSeg},
		{Name: "HAD_seg", Value: &hadSeg},
		{Name: "rpdNcherenkov", Value: &rpd},
	}
	r, err := rtree.NewReader(tree, rvars)
	if err != nil {
		return 0, fmt.Errorf("could not create tree reader: %w", err)
	}
	defer r.Close()

	n := 0
	err = r.Read(func(ctx rtree.RCtx) error {
		lf.Fill(emSeg[:], hadSeg[:], rpd)
		n++
		return nil
	})
	return n, err
}

// ReadBranchHistogram fills h with every value of an int32 slice branch of
// the named tree, like TTree::Draw on a vector branch.
func ReadBranchHistogram(filename, treeName, branch string, h *hbook.H1D) error {
	f, err := groot.Open(filename)
	if err != nil {
		return &ErrOpenFile{Filename: filename, Err: err}
	}
	defer f.Close()

	obj, err := f.Get(treeName)
	if err != nil {
		return fmt.Errorf("could not find tree in %s: %w", filename, err)
	}
	tree, ok := obj.(rtree.Tree)
	if !ok {
		return fmt.Errorf("object %q in %s is not a tree", treeName, filename)
	}

	var values []int32
	r, err := rtree.NewReader(tree, []rtree.ReadVar{{Name: branch, Value: &values}})
	if err != nil {
		return fmt.Errorf("could not read branch %q: %w", branch, err)
	}
	defer r.Close()

	return r.Read(func(ctx rtree.RCtx) error {
		fillAll(h, values)
		return nil
	})
}

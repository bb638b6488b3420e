package main

import (
	"errors"
	"fmt"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hbook/rootcnv"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	converter "github.com/zdc-run4/converter_go/pkg"
)

func save(p *hplot.Plot, filename string) error {
	if err := p.Save(vg.Length(*width)*vg.Inch, vg.Length(*height)*vg.Inch, filename); err != nil {
		return fmt.Errorf("error saving %s: %w", filename, err)
	}
	if *verbosity > 0 {
		logger.Info(fmt.Sprintf("Saved %s", filename), "plotter")
	}
	return nil
}

func newPlot(title, xTitle, yTitle string) *hplot.Plot {
	p := hplot.New()
	p.Title.Text = title
	p.X.Label.Text = xTitle
	p.Y.Label.Text = yTitle
	return p
}

// loadRowColumn returns the run-level histogram stored in file for role, or
// fills one from the branch of the run4 tree when the file has none.
func loadRowColumn(file string, role converter.HistRole, spec converter.HistSpec) (*hbook.H1D, error) {
	f, err := groot.Open(file)
	if err != nil {
		return nil, &converter.ErrOpenFile{Filename: file, Err: err}
	}
	obj, err := f.Get(role.String())
	if err == nil {
		if h1, ok := obj.(rhist.H1); ok {
			h := rootcnv.H1D(h1)
			f.Close()
			return h, nil
		}
	}
	f.Close()

	h := spec.NewH1D(role.String())
	treeName := converter.TreeName(converter.SchemaRun4)
	if err := converter.ReadBranchHistogram(file, treeName, role.String(), h); err != nil {
		return nil, err
	}
	return h, nil
}

// exportBranches draws every row and column distribution of a converted file,
// plus the cone maps when the file holds run-level histograms.
func exportBranches(file string, specs converter.HistSpecs) error {
	for _, role := range converter.RowColumnRoles {
		spec := specs[role]
		h, err := loadRowColumn(file, role, spec)
		if err != nil {
			return err
		}

		p := newPlot(spec.Title, spec.XTitle, spec.YTitle)
		p.X.Tick.Marker = converter.ChannelTicks{}
		p.Add(hplot.NewH1D(h))
		if err := save(p, converter.ExportFilename(file, role.String(), *ext)); err != nil {
			return err
		}
	}
	return exportCones(file, specs)
}

func exportCones(file string, specs converter.HistSpecs) error {
	f, err := groot.Open(file)
	if err != nil {
		return &converter.ErrOpenFile{Filename: file, Err: err}
	}
	defer f.Close()

	for _, role := range []converter.HistRole{converter.HistEMCone, converter.HistHADCone} {
		obj, err := f.Get(role.String())
		if err != nil {
			// Only files written with the histograms schema have cones.
			continue
		}
		h2, ok := obj.(rhist.H2)
		if !ok {
			return fmt.Errorf("object %q in %s is not a 2D histogram", role, file)
		}
		h := rootcnv.H2D(h2)

		spec := specs[role]
		p := newPlot(spec.Title, spec.XTitle, spec.YTitle)
		p.X.Tick.Marker = converter.ChannelTicks{}
		p.Y.Tick.Marker = converter.ChannelTicks{}
		p.Add(hplot.NewH2D(h, palette.Heat(16, 1)))
		if err := save(p, converter.ExportFilename(file, role.String(), *ext)); err != nil {
			return err
		}
	}
	return nil
}

func overlay(title string, spec converter.HistSpec, logY bool, hists ...*hbook.H1D) *hplot.Plot {
	p := newPlot(title, spec.XTitle, spec.YTitle)
	p.X.Tick.Marker = converter.FractionTicks{}
	if logY {
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	}
	p.Legend.Top = true
	for i, h := range hists {
		hh := hplot.NewH1D(h, hplot.WithLogY(logY))
		hh.LineStyle.Color = plotutil.Color(i)
		p.Add(hh)
		p.Legend.Add(h.Name(), hh)
	}
	return p
}

// lightFractions fills the segment light fractions of all files, draws them
// and stores the histograms in the -o ROOT file.
func lightFractions(files []string, specs converter.HistSpecs) error {
	lf := converter.NewLightFractions(specs)
	for _, file := range files {
		n, err := converter.ReadLightFractions(file, lf)
		if err != nil {
			return err
		}
		if *verbosity > 0 {
			logger.Info(fmt.Sprintf("Read %d events from %s", n, file), "plotter")
		}
	}
	if lf.Skipped > 0 {
		logger.Info(fmt.Sprintf("Skipped %d events without light", lf.Skipped), "plotter")
	}

	stem := *prefix
	if stem == "" {
		stem = converter.OutputFilename(files[0], "")
	}

	em, had := specs[converter.HistEMLight], specs[converter.HistHADLight]
	plots := map[string]*hplot.Plot{
		"EM_light":    overlay(em.Title, em, true, lf.EM[:]...),
		"HAD_light":   overlay(had.Title, had, true, lf.HAD[:]...),
		"Total_light": overlay("EM and HAD light", specs[converter.HistEMTotal], false, lf.EMTotal, lf.HADTotal),
	}
	for name, p := range plots {
		if err := save(p, fmt.Sprintf("%s_%s.%s", stem, name, *ext)); err != nil {
			return err
		}
	}

	if *output == "" {
		return nil
	}
	return writeLightFractions(*output, lf)
}

func writeLightFractions(filename string, lf *converter.LightFractions) error {
	f, err := groot.Create(filename)
	if err != nil {
		return &converter.ErrOpenFile{Filename: filename, Err: err}
	}

	var errs []error
	hists := append(append([]*hbook.H1D{}, lf.EM[:]...), lf.HAD[:]...)
	hists = append(hists, lf.EMTotal, lf.HADTotal)
	for _, h := range hists {
		if err := f.Put(h.Name(), rhist.NewH1DFrom(h)); err != nil {
			errs = append(errs, fmt.Errorf("error writing histogram %s: %w", h.Name(), err))
		}
	}
	if err := f.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing file: %w", err))
	}
	return errors.Join(errs...)
}

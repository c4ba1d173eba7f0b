// Package report builds the per-city statistics table.
package report

import (
	"context"
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/citystats/internal/model"
)

// Importer loads a city's map extract into its spatial database.
type Importer interface {
	Import(ctx context.Context, src model.OSMSource) (bool, error)
}

// Counter is an open spatial store scoped to one city.
type Counter interface {
	// Counts returns the amenity then public transport counts in column order.
	Counts(ctx context.Context) ([]int64, error)
	Close(ctx context.Context) error
}

// OpenFunc opens the spatial store for database db.
type OpenFunc func(ctx context.Context, db string) (Counter, error)

// Startups is the startup directory.
type Startups interface {
	StartupCount(ctx context.Context, tagID int) (int, error)
	InvestorCount(ctx context.Context, tagID int) (int, error)
	DumpAllStartups(ctx context.Context, tagID int) (int, error)
}

// Places is the places category service.
type Places interface {
	BankCount(ctx context.Context, query map[string]any) (int, error)
	CollegeCount(ctx context.Context, query map[string]any) (int, error)
	IndustryCount(ctx context.Context, query map[string]any) (int, error)
}

// Options configures a Builder.
type Options struct {
	// DumpData additionally dumps every startup page of each city.
	DumpData bool
	// Progress receives the "<city> finished." and "Done." markers.
	Progress io.Writer
}

// Builder drives the pipeline city by city.
type Builder struct {
	importer Importer
	open     OpenFunc
	startups Startups
	places   Places
	opts     Options
}

// NewBuilder creates a Builder.
func NewBuilder(importer Importer, open OpenFunc, startups Startups, places Places, opts Options) *Builder {
	if opts.Progress == nil {
		opts.Progress = io.Discard
	}
	return &Builder{
		importer: importer,
		open:     open,
		startups: startups,
		places:   places,
		opts:     opts,
	}
}

// Run imports every city, then writes the header and one row per city to w.
// The first failure aborts the run; rows already written stay written.
func (b *Builder) Run(ctx context.Context, cities []model.City, w io.Writer) error {
	log := zap.L().With(zap.String("component", "report"))

	for _, c := range cities {
		imported, err := b.importer.Import(ctx, c.OSM)
		if err != nil {
			return eris.Wrapf(err, "report: import %s", c.Name)
		}
		log.Debug("osm import checked", zap.String("city", c.Name), zap.Bool("imported", imported))
	}

	if _, err := fmt.Fprintln(w, Header()); err != nil {
		return eris.Wrap(err, "report: write header")
	}

	for _, c := range cities {
		row, err := b.BuildRow(ctx, c)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, row.String()); err != nil {
			return eris.Wrapf(err, "report: write row for %s", c.Name)
		}
		log.Info("city finished", zap.String("city", c.Name))
		fmt.Fprintf(b.opts.Progress, "%s finished.\n", c.Name)
	}

	fmt.Fprintln(b.opts.Progress, "Done.")
	return nil
}

// BuildRow collects every value for one city. The city's spatial store is
// open for the whole call and closed before it returns.
func (b *Builder) BuildRow(ctx context.Context, c model.City) (row Row, err error) {
	store, err := b.open(ctx, c.OSM.DB)
	if err != nil {
		return Row{}, eris.Wrapf(err, "report: open store for %s", c.Name)
	}
	defer func() {
		if cerr := store.Close(ctx); cerr != nil && err == nil {
			err = eris.Wrapf(cerr, "report: close store for %s", c.Name)
		}
	}()

	row.City = c.Name
	if row.OSM, err = store.Counts(ctx); err != nil {
		return Row{}, eris.Wrapf(err, "report: osm counts for %s", c.Name)
	}
	if want := len(osmColumns()); len(row.OSM) != want {
		return Row{}, eris.Errorf("report: got %d osm counts for %s, want %d", len(row.OSM), c.Name, want)
	}

	tag := c.AngelCo.TagID
	if row.Startups, err = b.startups.StartupCount(ctx, tag); err != nil {
		return Row{}, eris.Wrapf(err, "report: startup count for %s", c.Name)
	}
	if row.Investors, err = b.startups.InvestorCount(ctx, tag); err != nil {
		return Row{}, eris.Wrapf(err, "report: investor count for %s", c.Name)
	}
	if b.opts.DumpData {
		if _, err = b.startups.DumpAllStartups(ctx, tag); err != nil {
			return Row{}, eris.Wrapf(err, "report: dump startups for %s", c.Name)
		}
	}

	if c.HasPlacesQuery() {
		bank, err := b.places.BankCount(ctx, c.Factual)
		if err != nil {
			return Row{}, eris.Wrapf(err, "report: bank count for %s", c.Name)
		}
		college, err := b.places.CollegeCount(ctx, c.Factual)
		if err != nil {
			return Row{}, eris.Wrapf(err, "report: college count for %s", c.Name)
		}
		industry, err := b.places.IndustryCount(ctx, c.Factual)
		if err != nil {
			return Row{}, eris.Wrapf(err, "report: industry count for %s", c.Name)
		}
		row.Places = []int{bank, college, industry}
	}

	return row, nil
}

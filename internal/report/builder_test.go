package report

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/citystats/internal/model"
	"github.com/sells-group/citystats/internal/osm"
)

// calls records the order of collaborator calls across all fakes.
type calls []string

func (c *calls) add(s string) { *c = append(*c, s) }

type fakeImporter struct {
	log *calls
	err error
}

func (f *fakeImporter) Import(_ context.Context, src model.OSMSource) (bool, error) {
	f.log.add("import " + src.DB)
	return true, f.err
}

type fakeCounter struct {
	log    *calls
	db     string
	counts []int64
	err    error
}

func (f *fakeCounter) Counts(context.Context) ([]int64, error) {
	f.log.add("counts " + f.db)
	return f.counts, f.err
}

func (f *fakeCounter) Close(context.Context) error {
	f.log.add("close " + f.db)
	return nil
}

type fakeStartups struct {
	log       *calls
	startups  int
	investors int
	err       error
}

func (f *fakeStartups) StartupCount(context.Context, int) (int, error) {
	f.log.add("startups")
	return f.startups, f.err
}

func (f *fakeStartups) InvestorCount(context.Context, int) (int, error) {
	f.log.add("investors")
	return f.investors, nil
}

func (f *fakeStartups) DumpAllStartups(context.Context, int) (int, error) {
	f.log.add("dump")
	return f.startups, nil
}

type fakePlaces struct {
	log *calls
}

func (f *fakePlaces) BankCount(context.Context, map[string]any) (int, error) {
	f.log.add("bank")
	return 3, nil
}

func (f *fakePlaces) CollegeCount(context.Context, map[string]any) (int, error) {
	f.log.add("college")
	return 29, nil
}

func (f *fakePlaces) IndustryCount(context.Context, map[string]any) (int, error) {
	f.log.add("industry")
	return 14, nil
}

type harness struct {
	log      calls
	importer *fakeImporter
	startups *fakeStartups
	places   *fakePlaces
	counts   []int64
	openErr  error
}

func newHarness() *harness {
	h := &harness{counts: make([]int64, 11)}
	h.importer = &fakeImporter{log: &h.log}
	h.startups = &fakeStartups{log: &h.log, startups: 5, investors: 2}
	h.places = &fakePlaces{log: &h.log}
	return h
}

func (h *harness) open(_ context.Context, db string) (Counter, error) {
	h.log.add("open " + db)
	if h.openErr != nil {
		return nil, h.openErr
	}
	return &fakeCounter{log: &h.log, db: db, counts: h.counts}, nil
}

func (h *harness) builder(opts Options) *Builder {
	return NewBuilder(h.importer, h.open, h.startups, h.places, opts)
}

var testville = model.City{
	Name:    "Testville",
	OSM:     model.OSMSource{DB: "testville", Link: "https://example.com/testville.osm.pbf"},
	AngelCo: model.AngelCoSource{TagID: 7},
}

func TestHeader(t *testing.T) {
	assert.Equal(t,
		"cities, osm_atm, osm_bank, osm_library, osm_college, osm_university, osm_pub, osm_bar, osm_restaurant, osm_cafe, osm_station, osm_platform, angelco_startups, angelco_investors, factual_finance, factual_university, factual_industry",
		Header())
	assert.Len(t, Columns(), 17)
}

func TestColumns_FollowStoreCountOrder(t *testing.T) {
	cols := Columns()
	var want []string
	for _, v := range osm.Amenities {
		want = append(want, "osm_"+v)
	}
	for _, v := range osm.PublicTransport {
		want = append(want, "osm_"+v)
	}
	assert.Equal(t, want, cols[1:1+len(want)])
}

func TestRun_Testville(t *testing.T) {
	h := newHarness()
	var out, progress bytes.Buffer

	err := h.builder(Options{Progress: &progress}).Run(context.Background(), []model.City{testville}, &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, Header(), lines[0])
	assert.Equal(t, "Testville, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 5, 2, NA, NA, NA", lines[1])
	assert.Equal(t, "Testville finished.\nDone.\n", progress.String())
}

func TestRun_PlacesQueryColumns(t *testing.T) {
	h := newHarness()
	city := testville
	city.Factual = map[string]any{"locality": "testville"}
	var out bytes.Buffer

	require.NoError(t, h.builder(Options{}).Run(context.Background(), []model.City{city}, &out))

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[1], ", 5, 2, 3, 29, 14"), lines[1])
}

func TestRun_RowArityMatchesHeader(t *testing.T) {
	h := newHarness()
	with := testville
	with.Name = "WithPlaces"
	with.Factual = map[string]any{"locality": "x"}
	var out bytes.Buffer

	require.NoError(t, h.builder(Options{}).Run(context.Background(), []model.City{testville, with}, &out))

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	for _, l := range lines {
		assert.Len(t, strings.Split(l, Separator), len(Columns()), l)
	}
}

func TestRun_CallOrder(t *testing.T) {
	h := newHarness()
	second := testville
	second.Name = "Second"
	second.OSM.DB = "second"
	second.Factual = map[string]any{"locality": "second"}

	err := h.builder(Options{DumpData: true}).Run(context.Background(), []model.City{testville, second}, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, calls{
		"import testville", "import second",
		"open testville", "counts testville", "startups", "investors", "dump", "close testville",
		"open second", "counts second", "startups", "investors", "dump", "bank", "college", "industry", "close second",
	}, h.log)
}

func TestRun_NoDumpWithoutFlag(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.builder(Options{}).Run(context.Background(), []model.City{testville}, &bytes.Buffer{}))
	assert.NotContains(t, h.log, "dump")
}

func TestRun_ImportFailureWritesNothing(t *testing.T) {
	h := newHarness()
	h.importer.err = errors.New("osm2pgsql: exit status 1")
	var out bytes.Buffer

	err := h.builder(Options{}).Run(context.Background(), []model.City{testville}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "import Testville")
	assert.Empty(t, out.String())
}

func TestRun_CountFailureClosesStore(t *testing.T) {
	h := newHarness()
	h.startups.err = errors.New(`missing "total"`)
	var out bytes.Buffer

	err := h.builder(Options{}).Run(context.Background(), []model.City{testville}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "startup count for Testville")
	assert.Equal(t, "close testville", h.log[len(h.log)-1])
	assert.Equal(t, Header()+"\n", out.String())
}

func TestBuildRow_OpenFailure(t *testing.T) {
	h := newHarness()
	h.openErr = errors.New("database \"testville\" does not exist")

	_, err := h.builder(Options{}).BuildRow(context.Background(), testville)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open store for Testville")
}

func TestBuildRow_WrongCountArity(t *testing.T) {
	h := newHarness()
	h.counts = []int64{1, 2}

	_, err := h.builder(Options{}).BuildRow(context.Background(), testville)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got 2 osm counts")
}

func TestRowString(t *testing.T) {
	r := Row{
		City:      "Berlin",
		OSM:       []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
		Startups:  100,
		Investors: 20,
		Places:    []int{7, 8, 9},
	}
	assert.Equal(t, "Berlin, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 100, 20, 7, 8, 9", r.String())
}

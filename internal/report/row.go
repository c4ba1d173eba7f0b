package report

import (
	"strconv"
	"strings"

	"github.com/sells-group/citystats/internal/osm"
)

// Separator joins report columns. Values are never quoted.
const Separator = ", "

// NA stands in for a places column when a city has no places query.
const NA = "NA"

var (
	angelcoColumns = []string{"startups", "investors"}
	factualColumns = []string{"finance", "university", "industry"}
)

// Columns returns the header columns in output order. The osm_ columns follow
// osm.Amenities then osm.PublicTransport, the order of osm.Store.Counts.
func Columns() []string {
	cols := []string{"cities"}
	for _, c := range osmColumns() {
		cols = append(cols, "osm_"+c)
	}
	for _, c := range angelcoColumns {
		cols = append(cols, "angelco_"+c)
	}
	for _, c := range factualColumns {
		cols = append(cols, "factual_"+c)
	}
	return cols
}

func osmColumns() []string {
	return append(append([]string{}, osm.Amenities...), osm.PublicTransport...)
}

// Header returns the header line without a trailing newline.
func Header() string {
	return strings.Join(Columns(), Separator)
}

// Row holds one city's values.
type Row struct {
	City      string
	OSM       []int64 // amenity then public transport counts
	Startups  int
	Investors int
	// Places holds finance, university and industry counts; nil when the
	// city has no places query.
	Places []int
}

// Fields formats the row in header order.
func (r Row) Fields() []string {
	out := make([]string, 0, len(Columns()))
	out = append(out, r.City)
	for _, n := range r.OSM {
		out = append(out, strconv.FormatInt(n, 10))
	}
	out = append(out, strconv.Itoa(r.Startups), strconv.Itoa(r.Investors))
	if r.Places == nil {
		for range factualColumns {
			out = append(out, NA)
		}
	} else {
		for _, n := range r.Places {
			out = append(out, strconv.Itoa(n))
		}
	}
	return out
}

// String returns the row line without a trailing newline.
func (r Row) String() string {
	return strings.Join(r.Fields(), Separator)
}

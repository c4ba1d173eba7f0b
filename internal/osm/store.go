package osm

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// Key is an attribute column of planet_osm_point that identifies a point of interest.
type Key string

// Supported keys. See http://wiki.openstreetmap.org/wiki/Key:amenity and
// http://wiki.openstreetmap.org/wiki/Key:public_transport.
const (
	KeyAmenity         Key = "amenity"
	KeyPublicTransport Key = "public_transport"
)

// Amenities and PublicTransport are the values counted for every city, in
// report column order.
var (
	Amenities       = []string{"atm", "bank", "library", "college", "university", "pub", "bar", "restaurant", "cafe"}
	PublicTransport = []string{"station", "platform"}
)

// Conn is the subset of *pgx.Conn used by Store.
type Conn interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close(ctx context.Context) error
}

// ConnConfig locates the PostGIS server holding the per-city databases.
type ConnConfig struct {
	User string
	Host string
	Port int
}

// DSN returns a keyword/value connection string for database db.
func (c ConnConfig) DSN(db string) string {
	parts := []string{"dbname=" + quoteDSN(db)}
	if c.User != "" {
		parts = append(parts, "user="+quoteDSN(c.User))
	}
	if c.Host != "" {
		parts = append(parts, "host="+quoteDSN(c.Host))
	}
	if c.Port != 0 {
		parts = append(parts, "port="+strconv.Itoa(c.Port))
	}
	return strings.Join(parts, " ")
}

func quoteDSN(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

// Store counts point features in one city's imported database. It owns a
// single connection which the caller must Close.
type Store struct {
	conn Conn
}

// NewStore wraps an open connection.
func NewStore(conn Conn) *Store {
	return &Store{conn: conn}
}

// Connect opens a dedicated connection to database db.
func Connect(ctx context.Context, cfg ConnConfig, db string) (*Store, error) {
	conn, err := pgx.Connect(ctx, cfg.DSN(db))
	if err != nil {
		return nil, eris.Wrapf(err, "osm: connect to %s", db)
	}
	return NewStore(conn), nil
}

// Close releases the connection.
func (s *Store) Close(ctx context.Context) error {
	return eris.Wrap(s.conn.Close(ctx), "osm: close connection")
}

// Count returns the number of points whose key attribute equals value.
func (s *Store) Count(ctx context.Context, key Key, value string) (int64, error) {
	switch key {
	case KeyAmenity, KeyPublicTransport:
	default:
		return 0, eris.Errorf("osm: unsupported key %q", key)
	}

	sql := fmt.Sprintf(`SELECT COUNT(*) FROM planet_osm_point WHERE %s = $1`, pgx.Identifier{string(key)}.Sanitize())
	var n int64
	if err := s.conn.QueryRow(ctx, sql, value).Scan(&n); err != nil {
		return 0, eris.Wrapf(err, "osm: count %s=%s", key, value)
	}
	return n, nil
}

// AmenityCount counts points tagged amenity=value.
func (s *Store) AmenityCount(ctx context.Context, value string) (int64, error) {
	return s.Count(ctx, KeyAmenity, value)
}

// PublicTransportCount counts points tagged public_transport=value.
func (s *Store) PublicTransportCount(ctx context.Context, value string) (int64, error) {
	return s.Count(ctx, KeyPublicTransport, value)
}

// ATMCount counts amenity=atm points.
func (s *Store) ATMCount(ctx context.Context) (int64, error) { return s.AmenityCount(ctx, "atm") }

// BankCount counts amenity=bank points.
func (s *Store) BankCount(ctx context.Context) (int64, error) { return s.AmenityCount(ctx, "bank") }

// LibraryCount counts amenity=library points.
func (s *Store) LibraryCount(ctx context.Context) (int64, error) {
	return s.AmenityCount(ctx, "library")
}

// CollegeCount counts amenity=college points.
func (s *Store) CollegeCount(ctx context.Context) (int64, error) {
	return s.AmenityCount(ctx, "college")
}

// UniversityCount counts amenity=university points.
func (s *Store) UniversityCount(ctx context.Context) (int64, error) {
	return s.AmenityCount(ctx, "university")
}

// PubCount counts amenity=pub points.
func (s *Store) PubCount(ctx context.Context) (int64, error) { return s.AmenityCount(ctx, "pub") }

// BarCount counts amenity=bar points.
func (s *Store) BarCount(ctx context.Context) (int64, error) { return s.AmenityCount(ctx, "bar") }

// RestaurantCount counts amenity=restaurant points.
func (s *Store) RestaurantCount(ctx context.Context) (int64, error) {
	return s.AmenityCount(ctx, "restaurant")
}

// CafeCount counts amenity=cafe points.
func (s *Store) CafeCount(ctx context.Context) (int64, error) { return s.AmenityCount(ctx, "cafe") }

// StationCount counts public_transport=station points.
func (s *Store) StationCount(ctx context.Context) (int64, error) {
	return s.PublicTransportCount(ctx, "station")
}

// Counts returns the amenity counts followed by the public transport counts,
// in the order of Amenities and PublicTransport.
func (s *Store) Counts(ctx context.Context) ([]int64, error) {
	out := make([]int64, 0, len(Amenities)+len(PublicTransport))
	for _, a := range Amenities {
		n, err := s.AmenityCount(ctx, a)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	for _, p := range PublicTransport {
		n, err := s.PublicTransportCount(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

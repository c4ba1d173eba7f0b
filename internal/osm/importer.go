// Package osm loads OpenStreetMap extracts into per-city PostGIS databases and
// counts point features in them.
package osm

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/citystats/internal/model"
)

// Downloader fetches a remote file to a local path.
type Downloader interface {
	DownloadToFile(ctx context.Context, url, path string) (int64, error)
}

// ImportOptions configures the external tools used by the Importer.
type ImportOptions struct {
	DataDir       string
	Owner         string // database owner, normally the invoking OS user
	SudoUser      string // run createdb/psql as this user; empty runs them directly
	Host          string
	Port          int
	CreateDBPath  string
	PsqlPath      string
	Osm2pgsqlPath string
}

// Importer makes sure a city's extract is downloaded and loaded exactly once.
// A present extract file means the city was imported; nothing else is checked.
type Importer struct {
	opts     ImportOptions
	runner   CommandRunner
	download Downloader
	exists   func(path string) bool
}

// NewImporter creates an Importer.
func NewImporter(opts ImportOptions, runner CommandRunner, download Downloader) *Importer {
	if opts.CreateDBPath == "" {
		opts.CreateDBPath = "createdb"
	}
	if opts.PsqlPath == "" {
		opts.PsqlPath = "psql"
	}
	if opts.Osm2pgsqlPath == "" {
		opts.Osm2pgsqlPath = "osm2pgsql"
	}
	return &Importer{
		opts:     opts,
		runner:   runner,
		download: download,
		exists:   fileExists,
	}
}

// ExtractPath returns where the extract for src lives in the data directory.
func (im *Importer) ExtractPath(src model.OSMSource) string {
	return filepath.Join(im.opts.DataDir, src.ExtractFilename())
}

// Import downloads the extract, creates the database, enables the postgis and
// hstore extensions and loads the extract with osm2pgsql. It is a no-op when
// the extract file already exists. Reports whether an import ran.
func (im *Importer) Import(ctx context.Context, src model.OSMSource) (bool, error) {
	path := im.ExtractPath(src)
	log := zap.L().With(
		zap.String("component", "osm.import"),
		zap.String("db", src.DB),
		zap.String("path", path),
	)

	if im.exists(path) {
		log.Debug("extract already present, skipping import")
		return false, nil
	}

	log.Info("downloading extract", zap.String("url", src.Link))
	if _, err := im.download.DownloadToFile(ctx, src.Link, path); err != nil {
		return false, eris.Wrapf(err, "osm: download %s", src.Link)
	}

	log.Info("creating database")
	if err := im.asAdmin(ctx, im.opts.CreateDBPath, im.createDBArgs(src.DB)...); err != nil {
		return false, eris.Wrapf(err, "osm: create database %s", src.DB)
	}

	if err := im.asAdmin(ctx, im.opts.PsqlPath, im.extensionArgs(src.DB)...); err != nil {
		return false, eris.Wrapf(err, "osm: enable extensions on %s", src.DB)
	}

	log.Info("loading extract")
	if err := im.runner.Run(ctx, im.opts.DataDir, im.opts.Osm2pgsqlPath, im.osm2pgsqlArgs(src.DB, path)...); err != nil {
		return false, eris.Wrapf(err, "osm: load %s", path)
	}

	return true, nil
}

// ImportAll imports every city in order, stopping at the first failure.
func (im *Importer) ImportAll(ctx context.Context, cities []model.City) error {
	for _, c := range cities {
		if _, err := im.Import(ctx, c.OSM); err != nil {
			return eris.Wrapf(err, "osm: import %s", c.Name)
		}
	}
	return nil
}

func (im *Importer) asAdmin(ctx context.Context, name string, args ...string) error {
	if im.opts.SudoUser == "" {
		return im.runner.Run(ctx, "", name, args...)
	}
	return im.runner.Run(ctx, "", "sudo", append([]string{"-u", im.opts.SudoUser, name}, args...)...)
}

func (im *Importer) connArgs() []string {
	var args []string
	if im.opts.Host != "" {
		args = append(args, "-h", im.opts.Host)
	}
	if im.opts.Port != 0 {
		args = append(args, "-p", strconv.Itoa(im.opts.Port))
	}
	return args
}

func (im *Importer) createDBArgs(db string) []string {
	args := im.connArgs()
	if im.opts.Owner != "" {
		args = append(args, "-O", im.opts.Owner)
	}
	return append(args, "-E", "UTF-8", db)
}

func (im *Importer) extensionArgs(db string) []string {
	args := im.connArgs()
	return append(args, "-d", db, "-c", "CREATE EXTENSION postgis; CREATE EXTENSION hstore;")
}

func (im *Importer) osm2pgsqlArgs(db, path string) []string {
	args := []string{"--create", "--slim", "--database", db}
	if im.opts.Host != "" {
		args = append(args, "--host", im.opts.Host)
	}
	if im.opts.Port != 0 {
		args = append(args, "--port", strconv.Itoa(im.opts.Port))
	}
	if im.opts.Owner != "" {
		args = append(args, "--username", im.opts.Owner)
	}
	return append(args, path)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

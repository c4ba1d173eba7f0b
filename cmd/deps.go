package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/citystats/internal/config"
	"github.com/sells-group/citystats/internal/fetcher"
	"github.com/sells-group/citystats/internal/model"
	"github.com/sells-group/citystats/internal/osm"
	"github.com/sells-group/citystats/internal/report"
	"github.com/sells-group/citystats/pkg/angelco"
	"github.com/sells-group/citystats/pkg/factual"
)

func newImporter(c *config.Config) *osm.Importer {
	runner := osm.ExecRunner{}

	var dl osm.Downloader
	switch c.OSM.Downloader {
	case "http":
		dl = fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			RateLimiters: fetcher.DefaultRateLimiters(),
		})
	default:
		dl = osm.NewWgetDownloader(runner, c.OSM.WgetPath)
	}

	return osm.NewImporter(osm.ImportOptions{
		DataDir:       c.OSM.DataDir,
		Owner:         c.OSM.User,
		SudoUser:      c.OSM.SudoUser,
		Host:          c.OSM.Host,
		Port:          c.OSM.Port,
		CreateDBPath:  c.OSM.CreateDBPath,
		PsqlPath:      c.OSM.PsqlPath,
		Osm2pgsqlPath: c.OSM.Osm2pgsqlPath,
	}, runner, dl)
}

func connConfig(c *config.Config) osm.ConnConfig {
	return osm.ConnConfig{User: c.OSM.User, Host: c.OSM.Host, Port: c.OSM.Port}
}

func storeOpener(c *config.Config) report.OpenFunc {
	cc := connConfig(c)
	return func(ctx context.Context, db string) (report.Counter, error) {
		s, err := osm.Connect(ctx, cc, db)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

func newAngelCo(c *config.Config) angelco.Client {
	return angelco.NewClient(c.AngelCo.AccessToken, c.AngelCo.DataDir,
		angelco.WithBaseURL(c.AngelCo.BaseURL),
		angelco.WithRateLimit(c.AngelCo.RequestsPerSecond),
	)
}

func newFactual(c *config.Config) factual.Client {
	return factual.NewClient(c.Factual.Key, c.Factual.Secret,
		factual.WithBaseURL(c.Factual.BaseURL),
		factual.WithRateLimit(c.Factual.RequestsPerSecond),
	)
}

// selectCities loads the city list and narrows it to name when set.
func selectCities(path, name string) ([]model.City, error) {
	cities, err := model.LoadCities(path)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return cities, nil
	}
	c, ok := model.FindCity(cities, name)
	if !ok {
		return nil, eris.Errorf("city %q not found in %s", name, path)
	}
	return []model.City{c}, nil
}

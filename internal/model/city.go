package model

import (
	"encoding/json"
	"net/url"
	"os"
	"path"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
)

// CityList is the input document: a JSON object with a top-level "cities" key.
type CityList struct {
	Cities []City `json:"cities" validate:"dive"`
}

// City describes one city and how to look it up in each data source.
type City struct {
	Name    string         `json:"name" validate:"required"`
	OSM     OSMSource      `json:"osm"`
	AngelCo AngelCoSource  `json:"angelco"`
	Factual map[string]any `json:"factual,omitempty"` // Places query; nil or empty means none
}

// OSMSource names the PostGIS database for a city and the extract to load into it.
type OSMSource struct {
	DB   string `json:"db" validate:"required"`
	Link string `json:"link" validate:"required,url"`
}

// AngelCoSource holds the angel.co tag that scopes a city.
type AngelCoSource struct {
	TagID int `json:"tag_id" validate:"required,gt=0"`
}

// HasPlacesQuery reports whether the city carries a places-query object.
func (c City) HasPlacesQuery() bool {
	return len(c.Factual) > 0
}

// ExtractFilename returns the last path segment of the extract URL, which is
// the name the download lands under in the data directory.
func (s OSMSource) ExtractFilename() string {
	u, err := url.Parse(s.Link)
	if err != nil || u.Path == "" {
		return path.Base(s.Link)
	}
	return path.Base(u.Path)
}

// LoadCities reads and validates the city list at path.
func LoadCities(path string) ([]City, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "model: read cities %s", path)
	}
	return ParseCities(data)
}

// ParseCities decodes and validates a city list document.
func ParseCities(data []byte) ([]City, error) {
	var doc CityList
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "model: decode cities")
	}
	if err := validator.New().Struct(doc); err != nil {
		return nil, eris.Wrap(err, "model: validate cities")
	}
	return doc.Cities, nil
}

// FindCity returns the city with the given name.
func FindCity(cities []City, name string) (City, bool) {
	for _, c := range cities {
		if c.Name == name {
			return c, true
		}
	}
	return City{}, false
}

package config

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrInvalidDataDir is returned when a configured data directory path exists
// but is not a directory.
var ErrInvalidDataDir = eris.New("invalid data directory")

// Config holds the full application configuration.
type Config struct {
	Main    MainConfig    `yaml:"main" mapstructure:"main"`
	OSM     OSMConfig     `yaml:"osm" mapstructure:"osm"`
	AngelCo AngelCoConfig `yaml:"angelco" mapstructure:"angelco"`
	Factual FactualConfig `yaml:"factual" mapstructure:"factual"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// MainConfig names the input city list and the report output file.
type MainConfig struct {
	Input  string `yaml:"input" mapstructure:"input" validate:"required"`
	Output string `yaml:"output" mapstructure:"output" validate:"required"`
}

// OSMConfig configures the OpenStreetMap import and the PostGIS connection.
type OSMConfig struct {
	DataDir       string `yaml:"data_dir" mapstructure:"data_dir" validate:"required"`
	User          string `yaml:"user" mapstructure:"user"`
	Host          string `yaml:"host" mapstructure:"host"`
	Port          int    `yaml:"port" mapstructure:"port" validate:"gte=0,lte=65535"`
	Downloader    string `yaml:"downloader" mapstructure:"downloader" validate:"oneof=wget http"`
	WgetPath      string `yaml:"wget_path" mapstructure:"wget_path"`
	CreateDBPath  string `yaml:"createdb_path" mapstructure:"createdb_path"`
	PsqlPath      string `yaml:"psql_path" mapstructure:"psql_path"`
	Osm2pgsqlPath string `yaml:"osm2pgsql_path" mapstructure:"osm2pgsql_path"`
	SudoUser      string `yaml:"sudo_user" mapstructure:"sudo_user"`
}

// AngelCoConfig holds angel.co API settings.
type AngelCoConfig struct {
	AccessToken       string  `yaml:"access_token" mapstructure:"access_token"`
	DataDir           string  `yaml:"data_dir" mapstructure:"data_dir" validate:"required"`
	DumpData          bool    `yaml:"dump_data" mapstructure:"dump_data"`
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second" validate:"gt=0"`
}

// FactualConfig holds Factual places API settings.
type FactualConfig struct {
	Key               string  `yaml:"key" mapstructure:"key"`
	Secret            string  `yaml:"secret" mapstructure:"secret"`
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second" validate:"gt=0"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment. An empty path searches
// for config.yaml in the working directory; a missing default file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("CITYSTATS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("main.input", "cities.json")
	v.SetDefault("main.output", "output.csv")
	v.SetDefault("osm.data_dir", filepath.Join("data", "osm"))
	v.SetDefault("osm.downloader", "wget")
	v.SetDefault("osm.wget_path", "wget")
	v.SetDefault("osm.createdb_path", "createdb")
	v.SetDefault("osm.psql_path", "psql")
	v.SetDefault("osm.osm2pgsql_path", "osm2pgsql")
	v.SetDefault("osm.sudo_user", "postgres")
	v.SetDefault("osm.host", "")
	v.SetDefault("osm.port", 0)
	v.SetDefault("angelco.access_token", "")
	v.SetDefault("factual.key", "")
	v.SetDefault("factual.secret", "")
	v.SetDefault("angelco.data_dir", filepath.Join("data", "angelco"))
	v.SetDefault("angelco.dump_data", false)
	v.SetDefault("angelco.base_url", "https://api.angel.co/1/")
	v.SetDefault("angelco.requests_per_second", 0.5)
	v.SetDefault("factual.base_url", "https://api.v3.factual.com")
	v.SetDefault("factual.requests_per_second", 1.0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	if u, err := user.Current(); err == nil {
		v.SetDefault("osm.user", u.Username)
	}

	// Read config file (optional unless named explicitly)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks value ranges for every command and the credentials the
// given mode needs. Modes: report, import, dump, count.
func (c *Config) Validate(mode string) error {
	if err := validator.New().Struct(c); err != nil {
		return eris.Wrap(err, "config: validate")
	}

	var missing []string
	switch mode {
	case "report", "dump":
		if c.AngelCo.AccessToken == "" {
			missing = append(missing, "angelco.access_token is required")
		}
	case "import", "count":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}
	if c.OSM.User == "" && mode != "dump" {
		missing = append(missing, "osm.user is required")
	}

	if len(missing) > 0 {
		return eris.Errorf("config: %s", strings.Join(missing, "; "))
	}
	return nil
}

// DataDirs returns every directory the pipeline writes into.
func (c *Config) DataDirs() []string {
	return []string{
		c.OSM.DataDir,
		c.AngelCo.DataDir,
		filepath.Join(c.AngelCo.DataDir, "cities"),
		filepath.Join(c.AngelCo.DataDir, "startups"),
	}
}

// EnsureDirs creates each missing directory. A path that exists but is not a
// directory yields ErrInvalidDataDir.
func EnsureDirs(dirs ...string) error {
	for _, d := range dirs {
		info, err := os.Stat(d)
		switch {
		case err == nil && info.IsDir():
			continue
		case err == nil:
			return eris.Wrapf(ErrInvalidDataDir, "config: %q", d)
		case os.IsNotExist(err):
			if err := os.MkdirAll(d, 0o755); err != nil {
				return eris.Wrapf(err, "config: create data dir %s", d)
			}
		default:
			return eris.Wrapf(err, "config: stat data dir %s", d)
		}
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

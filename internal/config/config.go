package config

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/i474232898/crop-advisor/internal/advisor"
	"github.com/i474232898/crop-advisor/internal/report"
)

type AppConfig struct {
	OpenWeatherAPIKey string
	MeteostatAPIKey   string
	GeocoderAPIKey    string

	// HTTPTimeout bounds every outbound provider query.
	HTTPTimeout time.Duration

	// MaxYearsBack is how many years the climate search walks back.
	MaxYearsBack int

	// DatasetDir holds the crop reference CSV files.
	DatasetDir string

	Scoring advisor.Scoring

	// FetchInterval controls how often the configured sites are surveyed.
	FetchInterval time.Duration

	// Sites to survey on a schedule.
	Sites []advisor.Site

	// In-memory store retention.
	StoreMaxHistory int           // max number of snapshots per location (0 = unlimited)
	StoreMaxAge     time.Duration // max age of snapshots (0 = unlimited)

	Redis RedisConfig

	Port string
}

// RedisConfig locates the snapshot stream. An empty Addr disables publishing.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.MeteostatAPIKey = os.Getenv("METEOSTAT_API_KEY")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	cfg.MaxYearsBack = getenvInt("MAX_YEARS_BACK", report.DefaultMaxYearsBack)
	cfg.DatasetDir = getenvDefault("DATASET_DIR", "./data")

	cfg.Scoring, err = LoadScoring(os.Getenv("SCORING_CONFIG"))
	if err != nil {
		return nil, err
	}

	if cfg.FetchInterval, err = getenvDuration("FETCH_INTERVAL", "1h"); err != nil {
		return nil, err
	}
	if cfg.Sites, err = ParseSites(os.Getenv("SITES")); err != nil {
		return nil, fmt.Errorf("invalid SITES: %w", err)
	}

	// Store retention.
	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 48)
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "48h"); err != nil {
		return nil, err
	}

	cfg.Redis = RedisConfig{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       getenvInt("REDIS_DB", 0),
		Stream:   getenvDefault("REDIS_STREAM", "crop_surveys"),
	}

	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

// LoadScoring reads scoring parameters from a YAML file. Keys the file omits keep
// their defaults; an empty path returns the defaults.
func LoadScoring(path string) (advisor.Scoring, error) {
	scoring := advisor.DefaultScoring()
	if path == "" {
		return scoring, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return advisor.Scoring{}, fmt.Errorf("read scoring config: %w", err)
	}
	return parseScoring(data, scoring)
}

func parseScoring(data []byte, scoring advisor.Scoring) (advisor.Scoring, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&scoring); err != nil {
		return advisor.Scoring{}, fmt.Errorf("parse scoring config: %w", err)
	}
	if err := scoring.Params.Validate(); err != nil {
		return advisor.Scoring{}, fmt.Errorf("invalid scoring config: %w", err)
	}
	if len(scoring.LabelColumns) == 0 {
		return advisor.Scoring{}, fmt.Errorf("invalid scoring config: label_columns must not be empty")
	}
	return scoring, nil
}

// ParseSites parses "name@lat,lon;name@lat,lon". The name is optional.
func ParseSites(s string) ([]advisor.Site, error) {
	var sites []advisor.Site
	for _, entry := range strings.Split(s, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		name, coords := "", entry
		if i := strings.Index(entry, "@"); i >= 0 {
			name, coords = strings.TrimSpace(entry[:i]), entry[i+1:]
		}

		parts := strings.Split(coords, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("site %q: expected lat,lon", entry)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil || lat < -90 || lat > 90 {
			return nil, fmt.Errorf("site %q: invalid latitude", entry)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil || lon < -180 || lon > 180 {
			return nil, fmt.Errorf("site %q: invalid longitude", entry)
		}

		c := report.Coordinates{Lat: lat, Lon: lon}
		if name == "" {
			name = c.Key()
		}
		sites = append(sites, advisor.Site{Name: name, Coordinates: c})
	}
	return sites, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

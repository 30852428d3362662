// Package config loads and validates crawler configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/JakeFAU/zvezda-crawler/internal/crawler"
	collyfetcher "github.com/JakeFAU/zvezda-crawler/internal/fetcher/colly"
)

// Validation error kinds. Load wraps exactly one of them.
var (
	ErrIncorrectURL           = errors.New("base_urls must be a non-empty list of URLs")
	ErrIncorrectArticleCount  = errors.New("total_articles_to_find_and_parse must be a positive integer")
	ErrArticleCountOutOfRange = errors.New("max_number_articles_to_get_from_one_seed exceeds total_articles_to_find_and_parse")
	ErrUnknownConfig          = errors.New("unrecognized crawler config")
)

// Required top-level keys.
const (
	KeyBaseURLs        = "base_urls"
	KeyTotalArticles   = "total_articles_to_find_and_parse"
	KeyPerSeedArticles = "max_number_articles_to_get_from_one_seed"
)

const envPrefix = "ZVEZDA"

// Storage backends.
const (
	BackendLocal  = "local"
	BackendMemory = "memory"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Crawl   CrawlConfig   `mapstructure:"-"`
	Site    SiteConfig    `mapstructure:"site"`
	Fetcher FetcherConfig `mapstructure:"fetcher"`
	Crawler CrawlerConfig `mapstructure:"crawler"`
	Storage StorageConfig `mapstructure:"storage"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// CrawlConfig holds the validated required keys.
type CrawlConfig struct {
	BaseURLs        []string
	TotalArticles   int
	PerSeedArticles int
}

// SiteConfig names the crawled site.
type SiteConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// FetcherConfig controls request identity and pacing.
type FetcherConfig struct {
	UserAgent string        `mapstructure:"user_agent"`
	MinDelay  time.Duration `mapstructure:"min_delay"`
	MaxDelay  time.Duration `mapstructure:"max_delay"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// CrawlerConfig holds optional crawl bounds.
type CrawlerConfig struct {
	MaxPages     int    `mapstructure:"max_pages"`
	SeenURLsFile string `mapstructure:"seen_urls_file"`
}

// StorageConfig selects the artifact backend.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	Root    string `mapstructure:"root"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// MetricsConfig enables the /metrics endpoint when ListenAddr is set.
type MetricsConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// Load builds a Config from disk and environment. Any failure is returned
// wrapping one of the validation error kinds.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("%w: read %s: %w", ErrUnknownConfig, path, err)
		}
	}

	crawl, err := crawlConfig(v)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		secondsToDurationHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrUnknownConfig, err)
	}
	cfg.Crawl = crawl

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("site.base_url", crawler.DefaultSiteURL)
	v.SetDefault("fetcher.user_agent", collyfetcher.DefaultUserAgent)
	v.SetDefault("fetcher.min_delay", crawler.DefaultMinDelay)
	v.SetDefault("fetcher.max_delay", crawler.DefaultMaxDelay)
	v.SetDefault("fetcher.timeout", 30*time.Second)
	v.SetDefault("crawler.max_pages", 0)
	v.SetDefault("storage.backend", BackendLocal)
	v.SetDefault("storage.root", "tmp")
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("crawler.seen_urls_file", "")
	v.SetDefault("metrics.listen_addr", "")
}

// secondsToDurationHook reads a bare number given for a duration as seconds,
// so "min_delay": 3 means three seconds. Strings with a unit such as "250ms"
// are left to StringToTimeDurationHookFunc.
func secondsToDurationHook() mapstructure.DecodeHookFuncType {
	durationType := reflect.TypeFor[time.Duration]()
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != durationType || from == durationType {
			return data, nil
		}
		var seconds float64
		switch from.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			seconds = float64(reflect.ValueOf(data).Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			seconds = float64(reflect.ValueOf(data).Uint())
		case reflect.Float32, reflect.Float64:
			seconds = reflect.ValueOf(data).Float()
		case reflect.String:
			parsed, err := strconv.ParseFloat(strings.TrimSpace(data.(string)), 64)
			if err != nil {
				return data, nil
			}
			seconds = parsed
		default:
			return data, nil
		}
		return time.Duration(seconds * float64(time.Second)), nil
	}
}

// crawlConfig checks the required keys in the order base URLs, total count,
// per-seed count, range.
func crawlConfig(v *viper.Viper) (CrawlConfig, error) {
	if !v.IsSet(KeyBaseURLs) && !v.IsSet(KeyTotalArticles) && !v.IsSet(KeyPerSeedArticles) {
		return CrawlConfig{}, fmt.Errorf("%w: no crawl keys found", ErrUnknownConfig)
	}

	rawURLs := requiredValue(v, KeyBaseURLs)
	urls, ok := stringList(rawURLs)
	if !ok {
		return CrawlConfig{}, fmt.Errorf("%w: got %T", ErrIncorrectURL, rawURLs)
	}
	rawTotal := requiredValue(v, KeyTotalArticles)
	total, ok := positiveInt(rawTotal)
	if !ok {
		return CrawlConfig{}, fmt.Errorf("%w: got %v", ErrIncorrectArticleCount, rawTotal)
	}
	rawPerSeed := requiredValue(v, KeyPerSeedArticles)
	perSeed, ok := positiveInt(rawPerSeed)
	if !ok {
		return CrawlConfig{}, fmt.Errorf("%w: %s must be a positive integer, got %v",
			ErrUnknownConfig, KeyPerSeedArticles, rawPerSeed)
	}
	if perSeed > total {
		return CrawlConfig{}, fmt.Errorf("%w: %d > %d", ErrArticleCountOutOfRange, perSeed, total)
	}
	return CrawlConfig{BaseURLs: urls, TotalArticles: total, PerSeedArticles: perSeed}, nil
}

// requiredValue returns the raw value of a required key. Environment
// variables only carry text, so ZVEZDA_BASE_URLS is split on commas and
// whitespace and the count variables are parsed as integers. Strings in a
// config file keep their type and fail validation.
func requiredValue(v *viper.Viper, key string) any {
	env, ok := os.LookupEnv(envPrefix + "_" + strings.ToUpper(key))
	if !ok {
		return v.Get(key)
	}
	if key == KeyBaseURLs {
		return strings.FieldsFunc(env, func(r rune) bool {
			return r == ',' || unicode.IsSpace(r)
		})
	}
	n, err := strconv.Atoi(strings.TrimSpace(env))
	if err != nil {
		return env
	}
	return n
}

// stringList accepts a non-empty list whose items are all non-blank strings.
func stringList(raw any) ([]string, bool) {
	var items []any
	switch list := raw.(type) {
	case []any:
		items = list
	case []string:
		for _, s := range list {
			items = append(items, s)
		}
	default:
		return nil, false
	}
	if len(items) == 0 {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return nil, false
		}
		out = append(out, strings.TrimSpace(s))
	}
	return out, true
}

// positiveInt accepts integers and integral floats (JSON numbers). Strings
// and booleans are wrong-typed.
func positiveInt(raw any) (int, bool) {
	var n int64
	switch x := raw.(type) {
	case int:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	case uint:
		if uint64(x) > math.MaxInt32 {
			return 0, false
		}
		n = int64(x)
	case uint64:
		if x > math.MaxInt32 {
			return 0, false
		}
		n = int64(x)
	case float64:
		if x != math.Trunc(x) || x > math.MaxInt32 {
			return 0, false
		}
		n = int64(x)
	default:
		return 0, false
	}
	if n <= 0 || n > math.MaxInt32 {
		return 0, false
	}
	return int(n), true
}

// Validate enforces the optional sections' limits.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Site.BaseURL) == "" {
		return fmt.Errorf("%w: site.base_url must be set", ErrUnknownConfig)
	}
	if c.Fetcher.MinDelay < 0 || c.Fetcher.MaxDelay < 0 {
		return fmt.Errorf("%w: fetcher delays must be >= 0", ErrUnknownConfig)
	}
	if c.Fetcher.MinDelay > c.Fetcher.MaxDelay {
		return fmt.Errorf("%w: fetcher.min_delay %s exceeds fetcher.max_delay %s",
			ErrUnknownConfig, c.Fetcher.MinDelay, c.Fetcher.MaxDelay)
	}
	if c.Fetcher.Timeout <= 0 {
		return fmt.Errorf("%w: fetcher.timeout must be > 0", ErrUnknownConfig)
	}
	if c.Crawler.MaxPages < 0 {
		return fmt.Errorf("%w: crawler.max_pages must be >= 0", ErrUnknownConfig)
	}
	switch c.Storage.Backend {
	case BackendLocal:
		if strings.TrimSpace(c.Storage.Root) == "" {
			return fmt.Errorf("%w: storage.root must be set for the local backend", ErrUnknownConfig)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("%w: unknown storage.backend %q", ErrUnknownConfig, c.Storage.Backend)
	}
	return nil
}

// CrawlSettings converts the loaded values into the crawl engine's settings.
func (c Config) CrawlSettings() crawler.Config {
	return crawler.Config{
		Seeds:           append([]string(nil), c.Crawl.BaseURLs...),
		TotalArticleCap: c.Crawl.TotalArticles,
		PerSeedCap:      c.Crawl.PerSeedArticles,
		MaxPages:        c.Crawler.MaxPages,
	}
}

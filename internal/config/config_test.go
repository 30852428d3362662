package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/JakeFAU/zvezda-crawler/internal/crawler"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadJSONDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "crawler_config.json", `{
  "base_urls": ["https://www.zvezdaaltaya.ru/category/news/", "https://www.zvezdaaltaya.ru/"],
  "total_articles_to_find_and_parse": 5,
  "max_number_articles_to_get_from_one_seed": 3
}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Crawl.BaseURLs) != 2 || cfg.Crawl.BaseURLs[1] != "https://www.zvezdaaltaya.ru/" {
		t.Fatalf("unexpected base urls: %v", cfg.Crawl.BaseURLs)
	}
	if cfg.Crawl.TotalArticles != 5 || cfg.Crawl.PerSeedArticles != 3 {
		t.Fatalf("unexpected counts: %+v", cfg.Crawl)
	}
	if cfg.Site.BaseURL != crawler.DefaultSiteURL {
		t.Fatalf("expected default site, got %q", cfg.Site.BaseURL)
	}
	if cfg.Fetcher.MinDelay != crawler.DefaultMinDelay || cfg.Fetcher.MaxDelay != crawler.DefaultMaxDelay {
		t.Fatalf("unexpected delays: %+v", cfg.Fetcher)
	}
	if cfg.Storage.Backend != BackendLocal || cfg.Storage.Root != "tmp" {
		t.Fatalf("unexpected storage defaults: %+v", cfg.Storage)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Development {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}

	settings := cfg.CrawlSettings()
	if settings.TotalArticleCap != 5 || settings.PerSeedCap != 3 || len(settings.Seeds) != 2 {
		t.Fatalf("unexpected crawl settings: %+v", settings)
	}
	if err := settings.Validate(); err != nil {
		t.Fatalf("crawl settings should be valid: %v", err)
	}
}

func TestLoadYAMLOverrides(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "config.yaml", `
base_urls:
  - http://127.0.0.1:8080/
total_articles_to_find_and_parse: 10
max_number_articles_to_get_from_one_seed: 10
site:
  base_url: http://127.0.0.1:8080
fetcher:
  user_agent: test-agent
  min_delay: 0s
  max_delay: 250ms
  timeout: 5s
crawler:
  max_pages: 7
  seen_urls_file: seen.txt
storage:
  backend: memory
logging:
  development: true
  level: debug
metrics:
  listen_addr: ":9102"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Site.BaseURL != "http://127.0.0.1:8080" {
		t.Fatalf("unexpected site: %q", cfg.Site.BaseURL)
	}
	if cfg.Fetcher.UserAgent != "test-agent" || cfg.Fetcher.MinDelay != 0 ||
		cfg.Fetcher.MaxDelay != 250*time.Millisecond || cfg.Fetcher.Timeout != 5*time.Second {
		t.Fatalf("unexpected fetcher config: %+v", cfg.Fetcher)
	}
	if cfg.Crawler.MaxPages != 7 || cfg.Crawler.SeenURLsFile != "seen.txt" {
		t.Fatalf("unexpected crawler config: %+v", cfg.Crawler)
	}
	if cfg.Storage.Backend != BackendMemory {
		t.Fatalf("unexpected backend: %q", cfg.Storage.Backend)
	}
	if !cfg.Logging.Development || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
	if cfg.Metrics.ListenAddr != ":9102" {
		t.Fatalf("unexpected metrics addr: %q", cfg.Metrics.ListenAddr)
	}
	if cfg.CrawlSettings().MaxPages != 7 {
		t.Fatalf("max pages not carried into crawl settings")
	}
}

func TestLoadValidationErrors(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		body string
		want error
	}{
		"base urls not a list": {
			body: `{"base_urls": "https://www.zvezdaaltaya.ru/", "total_articles_to_find_and_parse": 3, "max_number_articles_to_get_from_one_seed": 1}`,
			want: ErrIncorrectURL,
		},
		"base urls empty": {
			body: `{"base_urls": [], "total_articles_to_find_and_parse": 3, "max_number_articles_to_get_from_one_seed": 1}`,
			want: ErrIncorrectURL,
		},
		"base urls with number": {
			body: `{"base_urls": [42], "total_articles_to_find_and_parse": 3, "max_number_articles_to_get_from_one_seed": 1}`,
			want: ErrIncorrectURL,
		},
		"base urls missing": {
			body: `{"total_articles_to_find_and_parse": 3, "max_number_articles_to_get_from_one_seed": 1}`,
			want: ErrIncorrectURL,
		},
		"total is string": {
			body: `{"base_urls": ["https://www.zvezdaaltaya.ru/"], "total_articles_to_find_and_parse": "3", "max_number_articles_to_get_from_one_seed": 1}`,
			want: ErrIncorrectArticleCount,
		},
		"total is zero": {
			body: `{"base_urls": ["https://www.zvezdaaltaya.ru/"], "total_articles_to_find_and_parse": 0, "max_number_articles_to_get_from_one_seed": 1}`,
			want: ErrIncorrectArticleCount,
		},
		"total is fractional": {
			body: `{"base_urls": ["https://www.zvezdaaltaya.ru/"], "total_articles_to_find_and_parse": 2.5, "max_number_articles_to_get_from_one_seed": 1}`,
			want: ErrIncorrectArticleCount,
		},
		"total is bool": {
			body: `{"base_urls": ["https://www.zvezdaaltaya.ru/"], "total_articles_to_find_and_parse": true, "max_number_articles_to_get_from_one_seed": 1}`,
			want: ErrIncorrectArticleCount,
		},
		"per seed exceeds total": {
			body: `{"base_urls": ["https://www.zvezdaaltaya.ru/"], "total_articles_to_find_and_parse": 3, "max_number_articles_to_get_from_one_seed": 4}`,
			want: ErrArticleCountOutOfRange,
		},
		"per seed negative": {
			body: `{"base_urls": ["https://www.zvezdaaltaya.ru/"], "total_articles_to_find_and_parse": 3, "max_number_articles_to_get_from_one_seed": -1}`,
			want: ErrUnknownConfig,
		},
		"no crawl keys": {
			body: `{"site": {"base_url": "https://www.zvezdaaltaya.ru"}}`,
			want: ErrUnknownConfig,
		},
		"bad storage backend": {
			body: `{"base_urls": ["https://www.zvezdaaltaya.ru/"], "total_articles_to_find_and_parse": 3, "max_number_articles_to_get_from_one_seed": 1, "storage": {"backend": "gcs"}}`,
			want: ErrUnknownConfig,
		},
		"inverted delays": {
			body: `{"base_urls": ["https://www.zvezdaaltaya.ru/"], "total_articles_to_find_and_parse": 3, "max_number_articles_to_get_from_one_seed": 1, "fetcher": {"min_delay": "5s", "max_delay": "1s"}}`,
			want: ErrUnknownConfig,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(writeConfig(t, "crawler_config.json", tc.body))
			if !errors.Is(err, tc.want) {
				t.Fatalf("Load() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestLoadErrorKindsAreDistinct(t *testing.T) {
	t.Parallel()

	kinds := []error{ErrIncorrectURL, ErrIncorrectArticleCount, ErrArticleCountOutOfRange, ErrUnknownConfig}
	for i, a := range kinds {
		for j, b := range kinds {
			if i != j && errors.Is(a, b) {
				t.Fatalf("%v should not match %v", a, b)
			}
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, ErrUnknownConfig) {
		t.Fatalf("expected ErrUnknownConfig, got %v", err)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	t.Parallel()

	_, err := Load(writeConfig(t, "crawler_config.json", `{"base_urls": [`))
	if !errors.Is(err, ErrUnknownConfig) {
		t.Fatalf("expected ErrUnknownConfig, got %v", err)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ZVEZDA_STORAGE_BACKEND", "memory")
	t.Setenv("ZVEZDA_FETCHER_USER_AGENT", "env-agent")

	path := writeConfig(t, "crawler_config.json", `{
  "base_urls": ["https://www.zvezdaaltaya.ru/"],
  "total_articles_to_find_and_parse": 1,
  "max_number_articles_to_get_from_one_seed": 1
}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Storage.Backend != BackendMemory {
		t.Fatalf("expected env override of storage backend, got %q", cfg.Storage.Backend)
	}
	if cfg.Fetcher.UserAgent != "env-agent" {
		t.Fatalf("expected env override of user agent, got %q", cfg.Fetcher.UserAgent)
	}
}

func TestLoadBareDelayNumbersAreSeconds(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "crawler_config.json", `{
  "base_urls": ["https://www.zvezdaaltaya.ru/"],
  "total_articles_to_find_and_parse": 1,
  "max_number_articles_to_get_from_one_seed": 1,
  "fetcher": {"min_delay": 3, "max_delay": 10.5, "timeout": "20s"}
}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Fetcher.MinDelay != 3*time.Second {
		t.Fatalf("min_delay = %s, want 3s", cfg.Fetcher.MinDelay)
	}
	if cfg.Fetcher.MaxDelay != 10500*time.Millisecond {
		t.Fatalf("max_delay = %s, want 10.5s", cfg.Fetcher.MaxDelay)
	}
	if cfg.Fetcher.Timeout != 20*time.Second {
		t.Fatalf("timeout = %s, want 20s", cfg.Fetcher.Timeout)
	}
}

func TestLoadRequiredKeysFromEnv(t *testing.T) {
	t.Setenv("ZVEZDA_BASE_URLS", "https://www.zvezdaaltaya.ru/, https://www.zvezdaaltaya.ru/category/news/")
	t.Setenv("ZVEZDA_TOTAL_ARTICLES_TO_FIND_AND_PARSE", "5")
	t.Setenv("ZVEZDA_MAX_NUMBER_ARTICLES_TO_GET_FROM_ONE_SEED", " 2 ")
	t.Setenv("ZVEZDA_FETCHER_MIN_DELAY", "1")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Crawl.BaseURLs) != 2 || cfg.Crawl.BaseURLs[1] != "https://www.zvezdaaltaya.ru/category/news/" {
		t.Fatalf("unexpected base urls: %v", cfg.Crawl.BaseURLs)
	}
	if cfg.Crawl.TotalArticles != 5 || cfg.Crawl.PerSeedArticles != 2 {
		t.Fatalf("unexpected counts: %+v", cfg.Crawl)
	}
	if cfg.Fetcher.MinDelay != time.Second {
		t.Fatalf("min_delay = %s, want 1s", cfg.Fetcher.MinDelay)
	}
}

func TestLoadEnvOverridesFileCount(t *testing.T) {
	t.Setenv("ZVEZDA_TOTAL_ARTICLES_TO_FIND_AND_PARSE", "7")

	path := writeConfig(t, "crawler_config.json", `{
  "base_urls": ["https://www.zvezdaaltaya.ru/"],
  "total_articles_to_find_and_parse": 1,
  "max_number_articles_to_get_from_one_seed": 1
}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Crawl.TotalArticles != 7 {
		t.Fatalf("expected env total 7, got %d", cfg.Crawl.TotalArticles)
	}
}

func TestLoadEnvCountNotANumber(t *testing.T) {
	t.Setenv("ZVEZDA_TOTAL_ARTICLES_TO_FIND_AND_PARSE", "five")

	path := writeConfig(t, "crawler_config.json", `{
  "base_urls": ["https://www.zvezdaaltaya.ru/"],
  "total_articles_to_find_and_parse": 1,
  "max_number_articles_to_get_from_one_seed": 1
}`)

	if _, err := Load(path); !errors.Is(err, ErrIncorrectArticleCount) {
		t.Fatalf("expected ErrIncorrectArticleCount, got %v", err)
	}
}

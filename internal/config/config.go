package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/LinkfordSolutions/lead-scraper-system/internal/domain"
)

// SourceConfig controls one provider adapter. APIKey here is a fallback for
// dev setups; production keys live in the OS keychain (internal/secrets).
type SourceConfig struct {
	Enabled     bool    `yaml:"enabled" json:"enabled"`
	APIKey      string  `yaml:"api_key,omitempty" json:"api_key,omitempty"`
	RPS         float64 `yaml:"rps" json:"rps"`
	Concurrency int     `yaml:"concurrency" json:"concurrency"`
}

type Config struct {
	App struct {
		Port    int    `yaml:"port" json:"port"`
		DataDir string `yaml:"data_dir" json:"data_dir"`
		Env     string `yaml:"env" json:"env"` // dev | prod
	} `yaml:"app" json:"app"`

	Schedule struct {
		DailyAt         string `yaml:"daily_at" json:"daily_at"` // "03:00", engine-local wall clock
		RetryMax        int    `yaml:"retry_max" json:"retry_max"`
		UnitTimeoutSecs int    `yaml:"unit_timeout_seconds" json:"unit_timeout_seconds"`
	} `yaml:"schedule" json:"schedule"`

	Limits struct {
		PerUnit int `yaml:"per_unit" json:"per_unit"` // listing cap per work unit
	} `yaml:"limits" json:"limits"`

	Sources struct {
		TwoGIS    SourceConfig `yaml:"twogis" json:"twogis"`
		Yandex    SourceConfig `yaml:"yandex" json:"yandex"`
		EGR       SourceConfig `yaml:"egr" json:"egr"`
		Onliner   SourceConfig `yaml:"onliner" json:"onliner"`
		DealBy    SourceConfig `yaml:"dealby" json:"dealby"`
		Instagram SourceConfig `yaml:"instagram" json:"instagram"`
	} `yaml:"sources" json:"sources"`

	Categories []string `yaml:"categories" json:"categories"`
	Cities     []string `yaml:"cities" json:"cities"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

// ForSource returns the block for a provider. Unknown sources come back
// disabled.
func (c Config) ForSource(s domain.Source) SourceConfig {
	switch s {
	case domain.SourceTwoGIS:
		return c.Sources.TwoGIS
	case domain.SourceYandex:
		return c.Sources.Yandex
	case domain.SourceEGR:
		return c.Sources.EGR
	case domain.SourceOnliner:
		return c.Sources.Onliner
	case domain.SourceDealBy:
		return c.Sources.DealBy
	case domain.SourceInstagram:
		return c.Sources.Instagram
	}
	return SourceConfig{}
}

// EnabledSources in merge-priority order.
func (c Config) EnabledSources() []domain.Source {
	var out []domain.Source
	for _, s := range domain.AllSources() {
		if c.ForSource(s).Enabled {
			out = append(out, s)
		}
	}
	return out
}

// EnabledCategories maps the config strings onto the fixed enum, dropping
// anything unknown ("all" expands to the full set).
func (c Config) EnabledCategories() []domain.Category {
	if len(c.Categories) == 1 && strings.EqualFold(c.Categories[0], "all") {
		return domain.AllCategories()
	}
	var out []domain.Category
	for _, raw := range c.Categories {
		cat := domain.Category(strings.ToLower(strings.TrimSpace(raw)))
		if cat.Valid() && cat != domain.CategoryUnknown {
			out = append(out, cat)
		}
	}
	return out
}

package headlines

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/johnrirwin/smartnews/internal/models"
	"github.com/johnrirwin/smartnews/internal/ratelimit"
)

// FeedSource represents a single feed source from config
type FeedSource struct {
	Name    string        `json:"name" yaml:"name"`
	URL     string        `json:"url" yaml:"url"`
	Region  models.Region `json:"region" yaml:"region"`
	Enabled bool          `json:"enabled" yaml:"enabled"`
}

// FeedsConfig holds the feeds configuration
type FeedsConfig struct {
	Sources []FeedSource `json:"sources" yaml:"sources"`
}

// LoadFeedsConfig loads feed sources from a YAML or JSON file, chosen by
// extension.
func LoadFeedsConfig(configPath string) (*FeedsConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read feeds config: %w", err)
	}

	var config FeedsConfig
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		err = json.Unmarshal(data, &config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse feeds config: %w", err)
	}

	for i := range config.Sources {
		if config.Sources[i].Region == "" {
			config.Sources[i].Region = models.RegionIndia
		}
	}

	return &config, nil
}

// FindFeedsConfig searches for a feeds file in common locations. explicit,
// when set, is checked first.
func FindFeedsConfig(explicit string) string {
	locations := []string{
		"feeds.yaml",
		"feeds.yml",
		"feeds.json",
		"config/feeds.yaml",
		"config/feeds.json",
		"../feeds.yaml",
		"/app/feeds.yaml",
	}

	if explicit != "" {
		locations = append([]string{explicit}, locations...)
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			absPath, _ := filepath.Abs(loc)
			return absPath
		}
	}

	return ""
}

// CreateFetchersFromConfig creates fetchers for the enabled sources
func CreateFetchersFromConfig(config *FeedsConfig, limiter *ratelimit.Limiter, fetcherConfig FetcherConfig) []Fetcher {
	fetchers := make([]Fetcher, 0, len(config.Sources))
	for _, source := range config.Sources {
		if !source.Enabled || strings.TrimSpace(source.URL) == "" {
			continue
		}
		fetchers = append(fetchers, NewRSSFetcher(source.Name, source.URL, source.Region, limiter, fetcherConfig))
	}
	return fetchers
}

// GetDefaultFeedsConfig returns a default configuration when no config file is found
func GetDefaultFeedsConfig() *FeedsConfig {
	return &FeedsConfig{
		Sources: []FeedSource{
			{Name: "The Hindu", URL: "https://www.thehindu.com/news/national/feeder/default.rss", Region: models.RegionIndia, Enabled: true},
			{Name: "Times of India", URL: "https://timesofindia.indiatimes.com/rssfeedstopstories.cms", Region: models.RegionIndia, Enabled: true},
			{Name: "Indian Express", URL: "https://indianexpress.com/feed/", Region: models.RegionIndia, Enabled: true},
			{Name: "NDTV", URL: "https://feeds.feedburner.com/ndtvnews-top-stories", Region: models.RegionIndia, Enabled: true},
			{Name: "BBC World", URL: "https://feeds.bbci.co.uk/news/world/rss.xml", Region: models.RegionGlobal, Enabled: true},
			{Name: "Al Jazeera", URL: "https://www.aljazeera.com/xml/rss/all.xml", Region: models.RegionGlobal, Enabled: true},
		},
	}
}

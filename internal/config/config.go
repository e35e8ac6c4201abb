package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultBaseURL = "https://manga.in.ua"

type Config struct {
	BaseURL      string  `yaml:"base_url"`
	DataFolder   string  `yaml:"data_folder"`
	ResultFolder string  `yaml:"result_folder"`
	ResultPDF    string  `yaml:"result_pdf"`
	JoinEvery    int     `yaml:"join_every"`
	OneFile      bool    `yaml:"one_file"`
	Resolution   float64 `yaml:"resolution"`
	LogLevel     int     `yaml:"log_level"`

	PageWorkers    int  `yaml:"page_workers"`
	ChapterWorkers int  `yaml:"chapter_workers"`
	Retries        int  `yaml:"retries"`
	SkipBroken     bool `yaml:"skip_broken"`

	KeepTemp bool `yaml:"keep_temp"`
	KeepData bool `yaml:"keep_data"`

	UserAgent       string `yaml:"user_agent"`
	DefaultMangaURL string `yaml:"default_manga_url"`
}

// Options carries the CLI flag values that override the active profile.
type Options struct {
	IgnoreConfig bool

	MangaURL     string
	BaseURL      string
	DataFolder   string
	ResultFolder string
	ResultPDF    string
	JoinEvery    int
	OneFile      bool
	Resolution   float64
	LogLevel     int

	PageWorkers    int
	ChapterWorkers int
	Retries        int
	SkipBroken     bool

	KeepTemp bool
	KeepData bool

	UserAgent string
}

func DefaultConfig() *Config {
	return &Config{
		BaseURL:        DefaultBaseURL,
		Resolution:     100.0,
		LogLevel:       20,
		PageWorkers:    5,
		ChapterWorkers: 2,
		Retries:        3,
	}
}

func SaveYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func loadYAML(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	return &c, nil
}

// LoadMerged resolves the effective config: built-in defaults, overlaid by
// the active YAML profile, overlaid by CLI flags. Returns the profile path
// actually used, if any.
func LoadMerged(opts Options) (*Config, string, error) {
	if opts.IgnoreConfig {
		cfg := DefaultConfig()
		mergeConfig(cfg, opts)
		normalize(cfg)
		return cfg, "", nil
	}

	activePath, err := ActiveConfigPath()
	if err == ErrNoConfig || activePath == "" {
		cfg := DefaultConfig()
		mergeConfig(cfg, opts)
		normalize(cfg)
		return cfg, "", nil
	}
	if err != nil {
		return nil, "", err
	}

	cfg, err := loadYAML(activePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config %s: %w", activePath, err)
	}

	mergeConfig(cfg, opts)
	normalize(cfg)

	return cfg, activePath, nil
}

func mergeConfig(c *Config, o Options) {
	if o.MangaURL != "" {
		c.DefaultMangaURL = o.MangaURL
	}
	if o.BaseURL != "" {
		c.BaseURL = o.BaseURL
	}
	if o.DataFolder != "" {
		c.DataFolder = o.DataFolder
	}
	if o.ResultFolder != "" {
		c.ResultFolder = o.ResultFolder
	}
	if o.ResultPDF != "" {
		c.ResultPDF = o.ResultPDF
	}
	if o.JoinEvery != 0 {
		c.JoinEvery = o.JoinEvery
	}
	if o.OneFile {
		c.OneFile = true
	}
	if o.Resolution != 0 {
		c.Resolution = o.Resolution
	}
	if o.LogLevel != 0 {
		c.LogLevel = o.LogLevel
	}
	if o.PageWorkers != 0 {
		c.PageWorkers = o.PageWorkers
	}
	if o.ChapterWorkers != 0 {
		c.ChapterWorkers = o.ChapterWorkers
	}
	if o.Retries != 0 {
		c.Retries = o.Retries
	}
	if o.SkipBroken {
		c.SkipBroken = true
	}
	if o.KeepTemp {
		c.KeepTemp = true
	}
	if o.KeepData {
		c.KeepData = true
	}
	if o.UserAgent != "" {
		c.UserAgent = o.UserAgent
	}
}

func normalize(c *Config) {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")

	if c.Resolution <= 0 {
		c.Resolution = 100.0
	}
	if c.LogLevel <= 0 {
		c.LogLevel = 20
	}
	if c.PageWorkers <= 0 {
		c.PageWorkers = 5
	}
	if c.ChapterWorkers <= 0 {
		c.ChapterWorkers = 2
	}
	if c.Retries <= 0 {
		c.Retries = 3
	}
}

func (c *Config) Print() {
	fmt.Printf(" -base_url: %s\n", c.BaseURL)
	if c.DefaultMangaURL != "" {
		fmt.Printf(" -manga_url: %s\n", c.DefaultMangaURL)
	}
	if c.DataFolder != "" {
		fmt.Printf(" -data_folder: %s\n", c.DataFolder)
	}
	if c.ResultFolder != "" {
		fmt.Printf(" -result_folder: %s\n", c.ResultFolder)
	}
	if c.ResultPDF != "" {
		fmt.Printf(" -result_pdf: %s\n", c.ResultPDF)
	}
	if c.JoinEvery > 0 {
		fmt.Printf(" -join_every: %d\n", c.JoinEvery)
	}
	if c.OneFile {
		fmt.Printf(" -one_file: %t\n", c.OneFile)
	}
	fmt.Printf(" -resolution: %.1f\n", c.Resolution)
	fmt.Printf(" -log_level: %d\n", c.LogLevel)
	fmt.Printf(" -page_workers: %d\n", c.PageWorkers)
	fmt.Printf(" -chapter_workers: %d\n", c.ChapterWorkers)
	fmt.Printf(" -retries: %d\n", c.Retries)
	if c.SkipBroken {
		fmt.Printf(" -skip_broken: %t\n", c.SkipBroken)
	}
	if c.KeepTemp {
		fmt.Printf(" -keep_temp: %t\n", c.KeepTemp)
	}
	if c.KeepData {
		fmt.Printf(" -keep_data: %t\n", c.KeepData)
	}
}

package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// MailConfig holds the IMAP/SMTP settings for the ingested mailbox.
type MailConfig struct {
	IMAPHost string `mapstructure:"imap_host" yaml:"imap_host"`
	IMAPPort string `mapstructure:"imap_port" yaml:"imap_port"`
	SMTPHost string `mapstructure:"smtp_host" yaml:"smtp_host"`
	SMTPPort string `mapstructure:"smtp_port" yaml:"smtp_port"`

	// Username is the mailbox address; it is also the default report
	// recipient.
	Username string `mapstructure:"username" yaml:"username"`

	// UseTLS selects implicit TLS; otherwise STARTTLS is used.
	UseTLS bool `mapstructure:"use_tls" yaml:"use_tls"`

	// LookbackDays bounds the ingestion window. The store deduplicates,
	// so overlapping windows across runs are harmless.
	LookbackDays int `mapstructure:"lookback_days" yaml:"lookback_days"`

	// ReportTo overrides the report recipient.
	ReportTo string `mapstructure:"report_to" yaml:"report_to"`
}

// StoreConfig locates the local message database.
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// GenAIConfig configures the Gemini embedding and generation models.
type GenAIConfig struct {
	BaseURL         string `mapstructure:"base_url" yaml:"base_url"`
	EmbedModel      string `mapstructure:"embed_model" yaml:"embed_model"`
	GenerationModel string `mapstructure:"generation_model" yaml:"generation_model"`
	TimeoutSecs     int    `mapstructure:"timeout_secs" yaml:"timeout_secs"`
}

// VectorConfig configures the Chroma vector index. The collection is created
// with cosine distance; indexing and querying must use the same metric.
type VectorConfig struct {
	URL         string `mapstructure:"url" yaml:"url"`
	Collection  string `mapstructure:"collection" yaml:"collection"`
	TimeoutSecs int    `mapstructure:"timeout_secs" yaml:"timeout_secs"`
}

// IndexerConfig tunes the incremental indexing pass.
type IndexerConfig struct {
	// MinChunkLen drops trimmed paragraphs shorter than this many runes.
	MinChunkLen int `mapstructure:"min_chunk_len" yaml:"min_chunk_len"`

	// PauseMillis is the inter-message delay, a throughput cap on the
	// embedding quota rather than a correctness mechanism.
	PauseMillis int `mapstructure:"pause_millis" yaml:"pause_millis"`
}

// ReportConfig holds the report sections and retrieval depth.
type ReportConfig struct {
	TopK      int           `mapstructure:"top_k" yaml:"top_k"`
	OutputDir string        `mapstructure:"output_dir" yaml:"output_dir"`
	Sections  []SectionSpec `mapstructure:"sections" yaml:"sections"`
}

// ScheduleConfig drives the periodic pipeline runner.
type ScheduleConfig struct {
	// Cron is a standard 5-field cron expression.
	Cron string `mapstructure:"cron" yaml:"cron"`
}

// AppConfig is the top-level application configuration. It is loaded once and
// passed into each component at construction time; nothing reads it from
// ambient globals.
type AppConfig struct {
	Mail     MailConfig     `mapstructure:"mail" yaml:"mail"`
	Store    StoreConfig    `mapstructure:"store" yaml:"store"`
	GenAI    GenAIConfig    `mapstructure:"genai" yaml:"genai"`
	Vector   VectorConfig   `mapstructure:"vector" yaml:"vector"`
	Indexer  IndexerConfig  `mapstructure:"indexer" yaml:"indexer"`
	Report   ReportConfig   `mapstructure:"report" yaml:"report"`
	Schedule ScheduleConfig `mapstructure:"schedule" yaml:"schedule"`
}

// DefaultConfigPath returns the default configuration file location,
// ~/.config/maildigest/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "maildigest", "config.yaml")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "maildigest")
}

func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Mail: MailConfig{
			IMAPPort:     "993",
			SMTPPort:     "465",
			UseTLS:       true,
			LookbackDays: 1,
		},
		Store: StoreConfig{
			Path: filepath.Join(defaultDataDir(), "my_emails.db"),
		},
		GenAI: GenAIConfig{
			BaseURL:         "https://generativelanguage.googleapis.com",
			EmbedModel:      "text-embedding-004",
			GenerationModel: "gemini-2.5-flash",
			TimeoutSecs:     60,
		},
		Vector: VectorConfig{
			URL:         "http://localhost:8000",
			Collection:  "emails",
			TimeoutSecs: 30,
		},
		Indexer: IndexerConfig{
			MinChunkLen: 30,
			PauseMillis: 1000,
		},
		Report: ReportConfig{
			TopK:      5,
			OutputDir: defaultDataDir(),
			Sections:  DefaultSections(),
		},
		Schedule: ScheduleConfig{
			Cron: "0 7 * * *",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns the default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("mail.imap_port", "993")
	v.SetDefault("mail.smtp_port", "465")
	v.SetDefault("mail.use_tls", true)
	v.SetDefault("mail.lookback_days", 1)
	v.SetDefault("store.path", filepath.Join(defaultDataDir(), "my_emails.db"))
	v.SetDefault("genai.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("genai.embed_model", "text-embedding-004")
	v.SetDefault("genai.generation_model", "gemini-2.5-flash")
	v.SetDefault("genai.timeout_secs", 60)
	v.SetDefault("vector.url", "http://localhost:8000")
	v.SetDefault("vector.collection", "emails")
	v.SetDefault("vector.timeout_secs", 30)
	v.SetDefault("indexer.min_chunk_len", 30)
	v.SetDefault("indexer.pause_millis", 1000)
	v.SetDefault("report.top_k", 5)
	v.SetDefault("report.output_dir", defaultDataDir())
	v.SetDefault("schedule.cron", "0 7 * * *")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if len(cfg.Report.Sections) == 0 {
		cfg.Report.Sections = DefaultSections()
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("mail", cfg.Mail)
	v.Set("store", cfg.Store)
	v.Set("genai", cfg.GenAI)
	v.Set("vector", cfg.Vector)
	v.Set("indexer", cfg.Indexer)
	v.Set("report", cfg.Report)
	v.Set("schedule", cfg.Schedule)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

// Validate checks the startup preconditions that cannot be defaulted.
// Failures here are fatal and are not retried.
func (c *AppConfig) Validate() error {
	if c.Mail.IMAPHost == "" {
		return fmt.Errorf("mail.imap_host is required")
	}
	if c.Mail.Username == "" {
		return fmt.Errorf("mail.username is required")
	}
	if c.Report.TopK <= 0 {
		return fmt.Errorf("report.top_k must be positive")
	}
	return nil
}

// Recipient returns the address the report is mailed to.
func (c *MailConfig) Recipient() string {
	if c.ReportTo != "" {
		return c.ReportTo
	}
	return c.Username
}

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	LogLevel  string          `mapstructure:"log_level"`
	Festival  FestivalConfig  `mapstructure:"festival"`
	Phonemize PhonemizeConfig `mapstructure:"phonemize"`
	Server    ServerConfig    `mapstructure:"server"`
}

type FestivalConfig struct {
	Binary  string `mapstructure:"binary"`
	Script  string `mapstructure:"script"`
	Timeout int    `mapstructure:"timeout"` // seconds, 0 = no limit
	TempDir string `mapstructure:"temp_dir"`
}

type PhonemizeConfig struct {
	Jobs              int    `mapstructure:"jobs"`
	WordSeparator     string `mapstructure:"word_separator"`
	SyllableSeparator string `mapstructure:"syllable_separator"`
	PhoneSeparator    string `mapstructure:"phone_separator"`
	StripSeparator    bool   `mapstructure:"strip_separator"`
}

type ServerConfig struct {
	ListenAddr      string `mapstructure:"listen_addr"`
	Workers         int    `mapstructure:"workers"`
	MaxJobs         int    `mapstructure:"max_jobs"`
	MaxTextBytes    int    `mapstructure:"max_text_bytes"`
	RequestTimeout  int    `mapstructure:"request_timeout"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Festival: FestivalConfig{
			Binary:  "festival",
			Script:  "",
			Timeout: 0,
			TempDir: "",
		},
		Phonemize: PhonemizeConfig{
			Jobs:              1,
			WordSeparator:     " ",
			SyllableSeparator: "|",
			PhoneSeparator:    "-",
			StripSeparator:    false,
		},
		Server: ServerConfig{
			ListenAddr:      ":8080",
			Workers:         2,
			MaxJobs:         4,
			MaxTextBytes:    64 * 1024,
			RequestTimeout:  60,
			ShutdownTimeout: 30,
		},
	}
}

// flagKeys maps config keys to the flag names registered by RegisterFlags.
var flagKeys = map[string]string{
	"log_level":                    "log-level",
	"festival.binary":              "festival-binary",
	"festival.script":              "festival-script",
	"festival.timeout":             "festival-timeout",
	"festival.temp_dir":            "festival-temp-dir",
	"phonemize.jobs":               "jobs",
	"phonemize.word_separator":     "word-separator",
	"phonemize.syllable_separator": "syllable-separator",
	"phonemize.phone_separator":    "phone-separator",
	"phonemize.strip_separator":    "strip-separator",
	"server.listen_addr":           "server-listen-addr",
	"server.workers":               "workers",
	"server.max_jobs":              "server-max-jobs",
	"server.max_text_bytes":        "server-max-text-bytes",
	"server.request_timeout":       "server-request-timeout",
	"server.shutdown_timeout":      "server-shutdown-timeout",
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
	fs.String("festival-binary", defaults.Festival.Binary, "Festival executable name or path")
	fs.String("festival-script", defaults.Festival.Script, "Festival script template (empty uses the bundled script)")
	fs.Int("festival-timeout", defaults.Festival.Timeout, "Maximum seconds per festival run (0 = no limit)")
	fs.String("festival-temp-dir", defaults.Festival.TempDir, "Directory for festival input and script files")
	fs.IntP("jobs", "j", defaults.Phonemize.Jobs, "Number of parallel festival instances")
	fs.String("word-separator", defaults.Phonemize.WordSeparator, "Separator between words")
	fs.String("syllable-separator", defaults.Phonemize.SyllableSeparator, "Separator between syllables")
	fs.String("phone-separator", defaults.Phonemize.PhoneSeparator, "Separator between phones")
	fs.Bool("strip-separator", defaults.Phonemize.StripSeparator, "Remove the trailing separator of each token")
	fs.String("server-listen-addr", defaults.Server.ListenAddr, "HTTP listen address")
	fs.Int("workers", defaults.Server.Workers, "Maximum concurrent phonemize requests")
	fs.Int("server-max-jobs", defaults.Server.MaxJobs, "Maximum festival instances a single request may ask for")
	fs.Int("server-max-text-bytes", defaults.Server.MaxTextBytes, "Maximum request text size in bytes")
	fs.Int("server-request-timeout", defaults.Server.RequestTimeout, "Per-request timeout in seconds")
	fs.Int("server-shutdown-timeout", defaults.Server.ShutdownTimeout, "Graceful shutdown timeout in seconds")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix("PHONEMIZER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("phonemizer")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the pipeline cannot run with.
func (c Config) Validate() error {
	if c.Phonemize.Jobs < 1 {
		return fmt.Errorf("phonemize.jobs must be at least 1, got %d", c.Phonemize.Jobs)
	}
	if c.Server.MaxJobs < 1 {
		return fmt.Errorf("server.max_jobs must be at least 1, got %d", c.Server.MaxJobs)
	}
	if c.Festival.Timeout < 0 {
		return fmt.Errorf("festival.timeout must not be negative, got %d", c.Festival.Timeout)
	}
	return nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("log_level", c.LogLevel)
	v.SetDefault("festival.binary", c.Festival.Binary)
	v.SetDefault("festival.script", c.Festival.Script)
	v.SetDefault("festival.timeout", c.Festival.Timeout)
	v.SetDefault("festival.temp_dir", c.Festival.TempDir)
	v.SetDefault("phonemize.jobs", c.Phonemize.Jobs)
	v.SetDefault("phonemize.word_separator", c.Phonemize.WordSeparator)
	v.SetDefault("phonemize.syllable_separator", c.Phonemize.SyllableSeparator)
	v.SetDefault("phonemize.phone_separator", c.Phonemize.PhoneSeparator)
	v.SetDefault("phonemize.strip_separator", c.Phonemize.StripSeparator)
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.workers", c.Server.Workers)
	v.SetDefault("server.max_jobs", c.Server.MaxJobs)
	v.SetDefault("server.max_text_bytes", c.Server.MaxTextBytes)
	v.SetDefault("server.request_timeout", c.Server.RequestTimeout)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
}

// bindFlags binds every registered flag present in fs to its config key.
// Flags the command did not register are skipped.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for key, name := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

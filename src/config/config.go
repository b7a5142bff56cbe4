package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"screen-grab/src/export"
	"screen-grab/src/screenshot"
)

const (
	AppName         = "screen-grab"
	EnvPathEnvVar   = "SCREEN_GRAB_ENV"
	ConfigFileName  = "grab"
	ConfigFileType  = "yaml"
	DefaultSaveDir  = "~/Desktop"
	DefaultFormat   = "png"
	DefaultRadius   = 8.0
	DefaultQuality  = 90
	DefaultDeadline = 15
)

// keys maps viper keys to the environment variables that override them.
var keys = map[string]string{
	"save_folder":         "SAVE_FOLDER",
	"save_format":         "SAVE_FORMAT",
	"dark_mode":           "DARK_MODE",
	"enable_file_logging": "ENABLE_FILE_LOGGING",
	"log_dir":             "LOG_DIR",
	"handle_radius":       "HANDLE_RADIUS",
	"jpeg_quality":        "JPEG_QUALITY",
	"capture_backend":     "CAPTURE_BACKEND",
	"task_deadline_sec":   "TASK_DEADLINE_SEC",
	"default_screen":      "DEFAULT_SCREEN",
}

type LoadOptions struct {
	EnvPathOverride    string
	ConfigFileOverride string
	SaveFolderOverride string
	FormatOverride     string
}

// Config is read once at startup and handed to the session and export
// pipeline; nothing reads it from global state.
type Config struct {
	SaveFolder        string
	SaveFormat        export.Format
	DarkMode          bool
	EnableFileLogging bool
	LogDir            string
	HandleRadius      float64
	JPEGQuality       int
	CaptureBackend    string
	TaskDeadlineSec   int
	DefaultScreen     int

	// ConfigFile is the yaml file that was read, if any.
	ConfigFile string
	// EnvFile is the .env file that was loaded, if any.
	EnvFile string
}

// fileConfig mirrors the yaml layout.
type fileConfig struct {
	SaveFolder        string  `mapstructure:"save_folder"`
	SaveFormat        string  `mapstructure:"save_format"`
	DarkMode          bool    `mapstructure:"dark_mode"`
	EnableFileLogging bool    `mapstructure:"enable_file_logging"`
	LogDir            string  `mapstructure:"log_dir"`
	HandleRadius      float64 `mapstructure:"handle_radius"`
	JPEGQuality       int     `mapstructure:"jpeg_quality"`
	CaptureBackend    string  `mapstructure:"capture_backend"`
	TaskDeadlineSec   int     `mapstructure:"task_deadline_sec"`
	DefaultScreen     int     `mapstructure:"default_screen"`
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	return &Config{
		SaveFolder:      ExpandHome(DefaultSaveDir),
		SaveFormat:      export.FormatPNG,
		DarkMode:        true,
		HandleRadius:    DefaultRadius,
		JPEGQuality:     DefaultQuality,
		CaptureBackend:  screenshot.BackendDisplays,
		TaskDeadlineSec: DefaultDeadline,
	}
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

// LoadWithOptions resolves configuration in increasing priority:
// defaults, grab.yaml, environment (including .env), then opts.
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	envPath := resolveEnvPath(opts)
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			log.Printf("config: failed to load %s: %v", envPath, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	for key, env := range keys {
		_ = v.BindEnv(key, env)
	}

	configFile, err := readConfigFile(v, opts)
	if err != nil {
		return nil, err
	}

	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if s := strings.TrimSpace(opts.SaveFolderOverride); s != "" {
		fc.SaveFolder = s
	}
	if s := strings.TrimSpace(opts.FormatOverride); s != "" {
		fc.SaveFormat = s
	}

	format, err := export.ParseFormat(fc.SaveFormat)
	if err != nil {
		log.Printf("config: %v, using %s", err, DefaultFormat)
		format = export.FormatPNG
	}

	cfg := &Config{
		SaveFolder:        ExpandHome(fc.SaveFolder),
		SaveFormat:        format,
		DarkMode:          fc.DarkMode,
		EnableFileLogging: fc.EnableFileLogging,
		LogDir:            ExpandHome(fc.LogDir),
		HandleRadius:      fc.HandleRadius,
		JPEGQuality:       fc.JPEGQuality,
		CaptureBackend:    fc.CaptureBackend,
		TaskDeadlineSec:   fc.TaskDeadlineSec,
		DefaultScreen:     fc.DefaultScreen,
		ConfigFile:        configFile,
		EnvFile:           envPath,
	}
	cfg.Validate()
	return cfg, nil
}

// Validate resets out-of-range values to their defaults.
func (c *Config) Validate() {
	d := Default()
	if strings.TrimSpace(c.SaveFolder) == "" {
		c.SaveFolder = d.SaveFolder
	}
	if !c.SaveFormat.Valid() {
		c.SaveFormat = d.SaveFormat
	}
	if c.HandleRadius <= 0 {
		c.HandleRadius = d.HandleRadius
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		c.JPEGQuality = d.JPEGQuality
	}
	if c.TaskDeadlineSec <= 0 {
		c.TaskDeadlineSec = d.TaskDeadlineSec
	}
	if c.DefaultScreen < 0 {
		c.DefaultScreen = 0
	}
	if strings.TrimSpace(c.CaptureBackend) == "" {
		c.CaptureBackend = d.CaptureBackend
	}
}

// ExportOptions returns the encoder settings derived from c.
func (c *Config) ExportOptions() export.Options {
	opts := export.DefaultOptions()
	opts.JPEGQuality = c.JPEGQuality
	return opts
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("save_folder", DefaultSaveDir)
	v.SetDefault("save_format", DefaultFormat)
	v.SetDefault("dark_mode", true)
	v.SetDefault("enable_file_logging", false)
	v.SetDefault("log_dir", "")
	v.SetDefault("handle_radius", DefaultRadius)
	v.SetDefault("jpeg_quality", DefaultQuality)
	v.SetDefault("capture_backend", screenshot.BackendDisplays)
	v.SetDefault("task_deadline_sec", DefaultDeadline)
	v.SetDefault("default_screen", 0)
}

// readConfigFile reads the yaml file, if there is one. A missing file is
// not an error unless it was named explicitly.
func readConfigFile(v *viper.Viper, opts LoadOptions) (string, error) {
	if path := strings.TrimSpace(opts.ConfigFileOverride); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return "", fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return v.ConfigFileUsed(), nil
	}

	v.SetConfigName(ConfigFileName)
	v.SetConfigType(ConfigFileType)
	if dir := executableDir(); dir != "" {
		v.AddConfigPath(dir)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, AppName))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read config file: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

// resolveEnvPath looks for .env next to the executable, then for the file
// named by SCREEN_GRAB_ENV.
func resolveEnvPath(opts LoadOptions) string {
	if p := strings.TrimSpace(opts.EnvPathOverride); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
		return ""
	}

	if dir := executableDir(); dir != "" {
		exeEnv := filepath.Join(dir, ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}

	if alt := os.Getenv(EnvPathEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}
	return ""
}

func executableDir() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Dir(execPath)
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

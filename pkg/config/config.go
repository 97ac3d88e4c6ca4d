// Package config loads reel settings from .reel.yaml, REEL_* environment
// variables and a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"tableflip.dev/reel/pkg/timeutil"
)

const (
	KeyRoot         = "root"
	KeyPlayer       = "player"
	KeyProbe        = "probe"
	KeyAPIURL       = "api_url"
	KeyAPILimit     = "api_limit"
	KeyIdleTimeout  = "idle_timeout"
	KeyPollInterval = "poll_interval"
	KeyHistoryPath  = "history_path"
	KeyLogFile      = "log_file"
	KeyLogLevel     = "log_level"
	KeyAutoplay     = "autoplay"
	KeyShuffle      = "shuffle"
	KeyWatch        = "watch"
)

// Config is the resolved settings of one process.
type Config interface {
	Root() string
	Player() string
	Probe() string
	// APIURL is empty when the remote service is disabled.
	APIURL() string
	APILimit() int
	// IdleTimeout is negative when the idle auto-pick is disabled.
	IdleTimeout() time.Duration
	PollInterval() time.Duration
	HistoryPath() string
	LogFile() string
	LogLevel() string
	Autoplay() bool
	Shuffle() bool
	// Watch rescans the library between screens when files change.
	Watch() bool
}

// Load reads the configuration. A missing config file is fine; a malformed
// one is an error.
func Load() (Config, error) {
	return LoadFlags(nil)
}

// FlagKeys maps command line flag names to the keys they override.
var FlagKeys = map[string]string{
	"root":     KeyRoot,
	"player":   KeyPlayer,
	"idle":     KeyIdleTimeout,
	"autoplay": KeyAutoplay,
	"shuffle":  KeyShuffle,
	"watch":    KeyWatch,
	"log-file": KeyLogFile,
}

// LoadFlags is Load with any flags of fs named in FlagKeys taking precedence
// when they were set on the command line.
func LoadFlags(fs *pflag.FlagSet) (Config, error) {
	// Existing environment variables win over .env.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigName(".reel") // .yaml is implicit
	v.SetEnvPrefix("REEL")
	v.AutomaticEnv()

	if override := os.Getenv("REEL_CONFIG_PATH"); override != "" {
		v.AddConfigPath(override)
	}
	v.AddConfigPath("./")
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	if fs != nil {
		for name, key := range FlagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("config: bind --%s: %w", name, err)
				}
			}
		}
	}
	return FromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyRoot, "movies")
	v.SetDefault(KeyPlayer, "mpv")
	v.SetDefault(KeyProbe, "ffprobe")
	v.SetDefault(KeyAPIURL, "http://127.0.0.1:8000")
	v.SetDefault(KeyAPILimit, 500)
	v.SetDefault(KeyIdleTimeout, timeutil.DefaultIdle)
	v.SetDefault(KeyPollInterval, "100ms")
	v.SetDefault(KeyHistoryPath, "~/.reel/history")
	v.SetDefault(KeyLogFile, "~/.reel/reel.log")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyAutoplay, true)
	v.SetDefault(KeyShuffle, false)
	v.SetDefault(KeyWatch, false)
}

// FromViper resolves a Config from v, expanding ~ in paths.
func FromViper(v *viper.Viper) (Config, error) {
	c := &fileConfig{
		RootPath:   v.GetString(KeyRoot),
		PlayerBin:  v.GetString(KeyPlayer),
		ProbeBin:   v.GetString(KeyProbe),
		API:        strings.TrimRight(strings.TrimSpace(v.GetString(KeyAPIURL)), "/"),
		Limit:      v.GetInt(KeyAPILimit),
		Level:      v.GetString(KeyLogLevel),
		AutoplayOn: v.GetBool(KeyAutoplay),
		ShuffleOn:  v.GetBool(KeyShuffle),
		WatchOn:    v.GetBool(KeyWatch),
	}

	idle, err := ParseIdle(v.GetString(KeyIdleTimeout))
	if err != nil {
		return nil, err
	}
	c.Idle = idle

	poll, _, err := timeutil.ParseWindow(v.GetString(KeyPollInterval))
	if err != nil || poll <= 0 {
		return nil, fmt.Errorf("config: invalid %s %q", KeyPollInterval, v.GetString(KeyPollInterval))
	}
	c.Poll = poll

	for key, dst := range map[string]*string{
		KeyRoot:        &c.RootPath,
		KeyHistoryPath: &c.History,
		KeyLogFile:     &c.Log,
	} {
		expanded, err := homedir.Expand(v.GetString(key))
		if err != nil {
			return nil, fmt.Errorf("config: expand %s: %w", key, err)
		}
		*dst = expanded
	}
	return c, nil
}

// ParseIdle parses an idle timeout. Zero, "off" and negative values disable
// the idle auto-pick.
func ParseIdle(s string) (time.Duration, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "off", "never", "none":
		return -1, nil
	case "":
		s = timeutil.DefaultIdle
	}
	if strings.HasPrefix(s, "-") {
		return -1, nil
	}
	if n, err := strconv.Atoi(strings.TrimRight(s, "smh")); err == nil && n == 0 {
		return -1, nil
	}
	d, _, err := timeutil.ParseWindow(s)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s %q: %w", KeyIdleTimeout, s, err)
	}
	return d, nil
}

type fileConfig struct {
	RootPath   string        `json:"root"`
	PlayerBin  string        `json:"player"`
	ProbeBin   string        `json:"probe"`
	API        string        `json:"api_url"`
	Limit      int           `json:"api_limit"`
	Idle       time.Duration `json:"idle_timeout"`
	Poll       time.Duration `json:"poll_interval"`
	History    string        `json:"history_path"`
	Log        string        `json:"log_file"`
	Level      string        `json:"log_level"`
	AutoplayOn bool          `json:"autoplay"`
	ShuffleOn  bool          `json:"shuffle"`
	WatchOn    bool          `json:"watch"`
}

func (f *fileConfig) Root() string                { return f.RootPath }
func (f *fileConfig) Player() string              { return f.PlayerBin }
func (f *fileConfig) Probe() string               { return f.ProbeBin }
func (f *fileConfig) APIURL() string              { return f.API }
func (f *fileConfig) APILimit() int               { return f.Limit }
func (f *fileConfig) IdleTimeout() time.Duration  { return f.Idle }
func (f *fileConfig) PollInterval() time.Duration { return f.Poll }
func (f *fileConfig) HistoryPath() string         { return f.History }
func (f *fileConfig) LogFile() string             { return f.Log }
func (f *fileConfig) LogLevel() string            { return f.Level }
func (f *fileConfig) Autoplay() bool              { return f.AutoplayOn }
func (f *fileConfig) Shuffle() bool               { return f.ShuffleOn }
func (f *fileConfig) Watch() bool                 { return f.WatchOn }

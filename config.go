package headtrack

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/swdee/go-headtrack/tracker"
	"github.com/tidwall/gjson"
	"os"
)

// Config defines the settings of an annotation session
type Config struct {
	// Tracking holds the engine thresholds
	Tracking tracker.Params
	// DisplayWidth and DisplayHeight is the size of prompt images
	DisplayWidth  int
	DisplayHeight int
	// Margin in pixels drawn around a head box on prompt images
	Margin int
	// Letterbox keeps the frame aspect ratio when scaling prompt images
	Letterbox bool
	// LogLevel is a logrus level name
	LogLevel string
	// Remote holds the optional SFTP frame mirror settings
	Remote RemoteConfig
}

// RemoteConfig defines where frames are fetched from when they are not
// available locally
type RemoteConfig struct {
	// Dir is the frame directory on the remote host
	Dir string
	// Addr is the host:port of the SSH server
	Addr string
	User string
	// KeyFile is the private key used to authenticate
	KeyFile string
	// KnownHosts is the known_hosts file used to verify the host key
	KnownHosts string
}

// Enabled returns true if a remote frame mirror is configured
func (r RemoteConfig) Enabled() bool {
	return r.Dir != "" && r.Addr != ""
}

// DefaultConfig returns default session settings
func DefaultConfig() Config {
	return Config{
		Tracking:      tracker.DefaultParams(),
		DisplayWidth:  640,
		DisplayHeight: 360,
		Margin:        10,
		LogLevel:      "info",
	}
}

// LoadConfig reads a JSON config file on top of the defaults.  Only the keys
// present in the file are changed
func LoadConfig(file string) (Config, error) {

	data, err := os.ReadFile(file)

	if err != nil {
		return Config{}, errors.Wrap(err, "error reading config file")
	}

	cfg, err := ParseConfig(data)

	if err != nil {
		return Config{}, errors.Wrapf(err, "config file %s", file)
	}

	return cfg, nil
}

// ParseConfig parses JSON config data on top of the defaults
func ParseConfig(data []byte) (Config, error) {

	if !gjson.ValidBytes(data) {
		return Config{}, errors.New("invalid JSON")
	}

	cfg := DefaultConfig()
	doc := gjson.ParseBytes(data)

	if v := doc.Get("skip_prev_f"); v.Exists() {
		cfg.Tracking.SkipPrev = int(v.Int())
	}
	if v := doc.Get("skip_follow_f"); v.Exists() {
		cfg.Tracking.SkipFollow = int(v.Int())
	}
	if v := doc.Get("overlap_upper"); v.Exists() {
		cfg.Tracking.OverlapUpper = v.Float()
	}
	if v := doc.Get("overlap_lower"); v.Exists() {
		cfg.Tracking.OverlapLower = v.Float()
	}
	if v := doc.Get("display.width"); v.Exists() {
		cfg.DisplayWidth = int(v.Int())
	}
	if v := doc.Get("display.height"); v.Exists() {
		cfg.DisplayHeight = int(v.Int())
	}
	if v := doc.Get("display.margin"); v.Exists() {
		cfg.Margin = int(v.Int())
	}
	if v := doc.Get("display.letterbox"); v.Exists() {
		cfg.Letterbox = v.Bool()
	}
	if v := doc.Get("log_level"); v.Exists() {
		cfg.LogLevel = v.String()
	}

	remote := doc.Get("remote")
	cfg.Remote = RemoteConfig{
		Dir:        remote.Get("dir").String(),
		Addr:       remote.Get("addr").String(),
		User:       remote.Get("user").String(),
		KeyFile:    remote.Get("key_file").String(),
		KnownHosts: remote.Get("known_hosts").String(),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the config values are usable
func (c Config) Validate() error {

	if err := c.Tracking.Validate(); err != nil {
		return err
	}

	if c.DisplayWidth <= 0 || c.DisplayHeight <= 0 {
		return errors.Errorf("display size must be positive, got %dx%d",
			c.DisplayWidth, c.DisplayHeight)
	}

	if c.Margin < 0 {
		return errors.Errorf("margin must not be negative, got %d", c.Margin)
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "log_level")
	}

	return nil
}

// Level returns the logrus level of the config, info if unparsable
func (c Config) Level() logrus.Level {

	lvl, err := logrus.ParseLevel(c.LogLevel)

	if err != nil {
		return logrus.InfoLevel
	}

	return lvl
}

package config

import (
	"errors"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses command-line arguments and an optional config file to produce
// a Config. Positional arguments are the proxy shorthand strings; flags
// override config-file settings.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	configPath := flagSet.Lookup("config").Value.String()
	if len(args) == 0 && configPath == "" {
		displayHelp(cmd)
		return nil, ErrHelpRequested
	}

	cfgViper := viper.New()
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		TargetURL:  DefaultTargetURL,
		Backend:    DefaultBackend,
		Number:     1,
		Timeout:    DefaultTimeout,
		Format:     DefaultFormat,
		ConfigFile: configPath,
		Tracing:    TracingConfig{Protocol: "grpc"},
	}

	if err := applyConfigSettings(cfg, cfgViper); err != nil {
		return nil, err
	}

	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}

	if positional := flagSet.Args(); len(positional) > 0 {
		cfg.Proxies = positional
	}

	cfg.TargetURL = strings.TrimSpace(cfg.TargetURL)
	cfg.Backend = strings.TrimSpace(cfg.Backend)

	return cfg, nil
}

// applyConfigSettings applies settings from a config file to the Config.
func applyConfigSettings(cfg *Config, v *viper.Viper) error {
	if v.IsSet("proxies") {
		cfg.Proxies = v.GetStringSlice("proxies")
	}
	if v.IsSet("url") {
		cfg.TargetURL = v.GetString("url")
	}
	if v.IsSet("agent") {
		cfg.UserAgent = v.GetString("agent")
	}
	if v.IsSet("backend") {
		cfg.Backend = v.GetString("backend")
	}
	if v.IsSet("number") {
		cfg.Number = v.GetInt("number")
	}
	if v.IsSet("workers") {
		cfg.Workers = v.GetInt("workers")
	}
	if v.IsSet("timeout") {
		cfg.Timeout = v.GetDuration("timeout")
	}
	if v.IsSet("repeat") {
		cfg.Repeat = v.GetDuration("repeat")
	}
	if v.IsSet("print") {
		cfg.Print = v.GetBool("print")
	}
	if v.IsSet("format") {
		cfg.Format = v.GetString("format")
	}
	if v.IsSet("json") {
		cfg.JSONOutput = v.GetBool("json")
	}
	if v.IsSet("quiet") {
		cfg.Quiet = v.GetBool("quiet")
	}
	if v.IsSet("verbose") {
		cfg.Verbose = v.GetBool("verbose")
	}
	if v.IsSet("debug") {
		cfg.Debug = v.GetBool("debug")
	}
	if v.IsSet("tracing.enabled") {
		cfg.Tracing.Enabled = v.GetBool("tracing.enabled")
	}
	if v.IsSet("tracing.endpoint") {
		cfg.Tracing.Endpoint = v.GetString("tracing.endpoint")
	}
	if v.IsSet("tracing.protocol") {
		cfg.Tracing.Protocol = v.GetString("tracing.protocol")
	}
	if v.IsSet("tracing.service_name") {
		cfg.Tracing.ServiceName = v.GetString("tracing.service_name")
	}
	if v.IsSet("tracing.insecure") {
		cfg.Tracing.Insecure = v.GetBool("tracing.insecure")
	}
	return nil
}

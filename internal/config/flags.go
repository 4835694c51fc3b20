package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "proxytest [flags] PROXYHOST:STARTPORT[-ENDPORT] ...",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Request flags
	flags.StringP("url", "u", DefaultTargetURL, "URL of the webpage to fetch through each proxy")
	flags.StringP("agent", "a", "", "User agent string to send (default: random)")
	flags.StringP("backend", "b", DefaultBackend, "Backend to fetch with")
	flags.IntP("number", "n", 1, "Number of times to test each proxy")
	flags.IntP("workers", "j", 0, "Max number of concurrent requests (0 means unlimited, 1 means sequential)")
	flags.DurationP("timeout", "t", DefaultTimeout, "Per-request timeout")
	flags.DurationP("repeat", "r", 0, "Keep running, repeating the test after this interval (0 means run once)")

	// Output flags
	flags.BoolP("print", "p", false, "Print each fetched webpage to stdout on success")
	flags.StringP("format", "f", DefaultFormat, "Template for --print output ({{placeholder}} syntax)")
	flags.Bool("json", false, "Emit the summary report as JSON")
	flags.BoolP("quiet", "q", false, "Suppress logging (overrides --debug and --verbose; --print still works)")
	flags.BoolP("verbose", "v", false, "Enable verbose logging to stderr")
	flags.BoolP("debug", "d", false, "Enable debug logging to stderr (overrides --verbose)")

	flags.String("config", "", "Path to configuration file (JSON or YAML)")

	// Tracing flags
	flags.Bool("trace", false, "Enable OpenTelemetry tracing")
	flags.String("trace-endpoint", "", "OTLP exporter endpoint (defaults to OTEL_EXPORTER_OTLP_ENDPOINT)")
	flags.String("trace-protocol", "grpc", "OTLP exporter protocol: 'grpc' or 'http'")
	flags.String("trace-service", "", "Service name reported on traces")
	flags.Bool("trace-insecure", false, "Skip TLS verification on the OTLP exporter")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\n", cmd.UseLine())
	fmt.Fprintln(out, "Test if one or more HTTP proxies are working by requesting a webpage through each.")
	fmt.Fprintln(out, "Use \"none\" as a proxy to fetch the webpage directly.")
	fmt.Fprintln(out, "\nFlags:")
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
	fmt.Fprintln(out, "\nExit status: 0 on success, 1 if any proxy tests failed, or 2 if an error")
	fmt.Fprintln(out, "prevented any proxy tests from starting or finishing.")
}

// applyFlagOverrides applies command-line flag values to the config,
// overriding values from the config file.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if fs.Changed("url") {
		val, err := fs.GetString("url")
		if err != nil {
			return err
		}
		cfg.TargetURL = val
	}
	if fs.Changed("agent") {
		val, err := fs.GetString("agent")
		if err != nil {
			return err
		}
		cfg.UserAgent = val
	}
	if fs.Changed("backend") {
		val, err := fs.GetString("backend")
		if err != nil {
			return err
		}
		cfg.Backend = val
	}
	if fs.Changed("number") {
		val, err := fs.GetInt("number")
		if err != nil {
			return err
		}
		cfg.Number = val
	}
	if fs.Changed("workers") {
		val, err := fs.GetInt("workers")
		if err != nil {
			return err
		}
		cfg.Workers = val
	}
	if fs.Changed("timeout") {
		val, err := fs.GetDuration("timeout")
		if err != nil {
			return err
		}
		cfg.Timeout = val
	}
	if fs.Changed("repeat") {
		val, err := fs.GetDuration("repeat")
		if err != nil {
			return err
		}
		cfg.Repeat = val
	}
	if fs.Changed("print") {
		val, err := fs.GetBool("print")
		if err != nil {
			return err
		}
		cfg.Print = val
	}
	if fs.Changed("format") {
		val, err := fs.GetString("format")
		if err != nil {
			return err
		}
		cfg.Format = val
	}
	if fs.Changed("json") {
		val, err := fs.GetBool("json")
		if err != nil {
			return err
		}
		cfg.JSONOutput = val
	}
	if fs.Changed("quiet") {
		val, err := fs.GetBool("quiet")
		if err != nil {
			return err
		}
		cfg.Quiet = val
	}
	if fs.Changed("verbose") {
		val, err := fs.GetBool("verbose")
		if err != nil {
			return err
		}
		cfg.Verbose = val
	}
	if fs.Changed("debug") {
		val, err := fs.GetBool("debug")
		if err != nil {
			return err
		}
		cfg.Debug = val
	}
	if fs.Changed("trace") {
		val, err := fs.GetBool("trace")
		if err != nil {
			return err
		}
		cfg.Tracing.Enabled = val
	}
	if fs.Changed("trace-endpoint") {
		val, err := fs.GetString("trace-endpoint")
		if err != nil {
			return err
		}
		cfg.Tracing.Endpoint = val
	}
	if fs.Changed("trace-protocol") {
		val, err := fs.GetString("trace-protocol")
		if err != nil {
			return err
		}
		cfg.Tracing.Protocol = val
	}
	if fs.Changed("trace-service") {
		val, err := fs.GetString("trace-service")
		if err != nil {
			return err
		}
		cfg.Tracing.ServiceName = val
	}
	if fs.Changed("trace-insecure") {
		val, err := fs.GetBool("trace-insecure")
		if err != nil {
			return err
		}
		cfg.Tracing.Insecure = val
	}
	return nil
}

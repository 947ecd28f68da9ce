package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gofhir/jsonld/pkg/logger"
)

var version = "dev"

// EnvPrefix prefixes environment overrides, e.g. JSONLD_BASE.
const EnvPrefix = "JSONLD"

// app carries state shared by the commands of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     Config
	log     *logger.Logger
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

// errFailures reports that some documents failed after all were processed.
var errFailures = errors.New("one or more documents failed to expand")

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{
		v:      viper.New(),
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}

	root := &cobra.Command{
		Use:           "jsonld",
		Short:         "Expand JSON-LD documents",
		Long:          `jsonld expands JSON-LD documents into their context-free form, resolving terms, compact IRIs and remote contexts.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initConfig()
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "",
		"config file (default: .jsonld.yaml, then ~/.config/jsonld/config.yaml)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error, none")
	_ = a.v.BindPFlag("log_level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(newExpandCmd(a), newConfigCmd(a), newVersionCmd(a))
	return root
}

func (a *app) initConfig() error {
	defaults := Defaults()
	v := a.v
	v.SetDefault("loader", defaults.Loader)
	v.SetDefault("format", defaults.Format)
	v.SetDefault("workers", defaults.Workers)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("http.timeout", defaults.HTTP.Timeout)
	v.SetDefault("http.max_bytes", defaults.HTTP.MaxBytes)
	v.SetDefault("http.cache_ttl", defaults.HTTP.CacheTTL)
	v.SetDefault("watch.debounce", defaults.Watch.Debounce)
	v.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	v.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	v.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	v.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if a.cfgFile != "" {
		v.SetConfigFile(a.cfgFile)
	} else {
		// Config lookup order:
		// 1. .jsonld.yaml (current directory)
		// 2. ~/.config/jsonld/config.yaml (user config)
		if _, err := os.Stat(".jsonld.yaml"); err == nil {
			v.SetConfigFile(".jsonld.yaml")
		} else {
			if home, err := os.UserHomeDir(); err == nil {
				v.AddConfigPath(filepath.Join(home, ".config", "jsonld"))
			}
			v.SetConfigName("config")
			v.SetConfigType("yaml")
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	if err := v.Unmarshal(&a.cfg); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}

	level, err := logger.ParseLevel(a.cfg.LogLevel)
	if err != nil {
		return err
	}
	a.log = logger.New(a.stderr, level)
	logger.SetDefault(a.log)
	if used := v.ConfigFileUsed(); used != "" {
		a.log.Debug("config loaded", "path", used)
	}
	return nil
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(a.stdout, "jsonld %s\n", version)
			return err
		},
	}
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ".jsonld.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if err := WriteDefaultConfig(path, force); err != nil {
				return err
			}
			a.log.Info("created default config", "path", path)
			_, err := fmt.Fprintln(a.stdout, path)
			return err
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	cmd.AddCommand(initCmd)
	return cmd
}

// Package main provides the classpath binary entry point.
// It classifies, resolves and prints the dependencies of Maven artifacts.
package main

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/git-pkgs/classpath/config"
	"github.com/git-pkgs/classpath/fetch"
	"github.com/git-pkgs/classpath/internal/maven"
)

const (
	Version = "0.1.0"
	appName = "classpath"
)

const (
	outputText = "text"
	outputYAML = "yaml"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries the state shared by all subcommands.
type app struct {
	configPath      string
	verbose         bool
	output          string
	repositories    []string
	localRepository string

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Classify Maven dependencies into class loader layers",
		Long: `classpath reads the POM of a root artifact and splits its dependencies
into the container, application, plugin and shared library layers of a
plugin based runtime.

Configuration is read from ~/.config/classpath/config.yaml, then from the
nearest classpath.yaml, then from --config.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Config file path (YAML)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVarP(&a.output, "output", "o", outputText, "Output format (text, yaml)")
	flags.StringSliceVar(&a.repositories, "repository", nil, "Remote repository URL, repeatable; replaces configured repositories")
	flags.StringVar(&a.localRepository, "local-repository", "", "Local repository directory")

	cmd.AddCommand(
		newClassifyCmd(a),
		newResolveCmd(a),
		newTreeCmd(a),
		&cobra.Command{
			Use:               "version",
			Short:             "Print version information",
			PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
			},
		},
	)

	return cmd
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	if a.output != outputText && a.output != outputYAML {
		return fmt.Errorf("unknown output format %q", a.output)
	}

	level := zapcore.WarnLevel
	if a.verbose {
		level = zapcore.DebugLevel
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Encoding = "console"
	logger, err := zc.Build()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	a.logger = logger.Named(appName)

	cfg, err := config.NewLoader(a.logger).Load(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if len(a.repositories) > 0 {
		cfg.Repositories = make([]config.RepositoryConfig, len(a.repositories))
		for i, u := range a.repositories {
			cfg.Repositories[i] = config.RepositoryConfig{ID: fmt.Sprintf("cli-%d", i), URL: u}
		}
	}
	if a.localRepository != "" {
		cfg.LocalRepository = a.localRepository
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	a.cfg = cfg
	return nil
}

// resolver builds a Maven resolver from the loaded configuration. The returned
// function releases its HTTP resources.
func (a *app) resolver() (*maven.Resolver, func(), error) {
	dir, err := a.cfg.LocalRepositoryPath()
	if err != nil {
		return nil, nil, err
	}

	f := fetch.NewFetcher(
		fetch.WithUserAgent(a.cfg.Fetch.UserAgent),
		fetch.WithMaxRetries(a.cfg.Fetch.MaxRetries),
		fetch.WithBaseDelay(a.cfg.Fetch.BaseDelay),
		fetch.WithMaxDelay(a.cfg.Fetch.MaxDelay),
		fetch.WithAuthFunc(a.authenticate),
	)
	r := maven.New(
		a.cfg.RepositoryURLs(),
		maven.NewLocalRepository(dir),
		fetch.NewCircuitBreakerFetcher(f),
		maven.WithLogger(a.logger),
		maven.WithConcurrency(a.cfg.Fetch.Concurrency),
	)
	a.logger.Debug("resolver ready",
		zap.Strings("repositories", r.Repositories()),
		zap.String("local", dir))

	return r, func() {
		if err := f.Close(); err != nil {
			a.logger.Warn("closing fetcher", zap.Error(err))
		}
		_ = a.logger.Sync()
	}, nil
}

func (a *app) authenticate(url string) (string, string) {
	user, pass, ok := a.cfg.Credentials(url)
	if !ok {
		return "", ""
	}
	return "Authorization", "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

// Command fetchcore exposes the dependency resolver and directory hasher
// as a standalone CLI, the way the teacher's registry binary exposes its
// server as a cobra command tree (registry/root.go, registry/registry.go).
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pkgcache/fetchcore/configuration"
	"github.com/pkgcache/fetchcore/internal/dcontext"
	"github.com/pkgcache/fetchcore/version"
)

var (
	showVersion   bool
	configPath    string
	defaultFormat = "text"
)

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a fetchcore configuration file")
	RootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "show the version and exit")
	RootCmd.AddCommand(ResolveCmd)
	RootCmd.AddCommand(HashCmd)
}

// RootCmd is the main command for the fetchcore binary.
var RootCmd = &cobra.Command{
	Use:   "fetchcore",
	Short: "fetchcore resolves and caches package-graph dependencies",
	Long:  "fetchcore resolves a project's declared dependencies against a content-addressed cache and emits a dependency-source fragment for a build runner to consume.",
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion {
			version.PrintVersion()
			return
		}
		// nolint:errcheck
		cmd.Usage()
	},
}

// resolveConfiguration loads the configuration named by --config, or, if
// unset, by the FETCHCORE_CONFIGURATION_PATH environment variable; when
// neither is set it returns an empty (default-valued) configuration,
// mirroring the teacher's resolveConfiguration in registry/registry.go.
func resolveConfiguration() (*configuration.Configuration, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("FETCHCORE_CONFIGURATION_PATH")
	}

	if path == "" {
		return configuration.Parse(strings.NewReader(""))
	}

	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()

	config, err := configuration.Parse(fp)
	if err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", path, err)
	}
	return config, nil
}

// configureLogging prepares the background context with a logger built
// from config, mirroring the teacher's configureLogging in
// registry/registry.go, and returns that context for callers to thread
// through the resolve run.
func configureLogging(config *configuration.Configuration) (context.Context, error) {
	level, err := logrus.ParseLevel(config.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
		logrus.Warnf("error parsing level %q: %v, using %q", config.Log.Level, err, level)
	}
	logrus.SetLevel(level)

	formatter := config.Log.Formatter
	if formatter == "" {
		formatter = defaultFormat
	}
	switch formatter {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	case "text":
		logrus.SetFormatter(&logrus.TextFormatter{TimestampFormat: time.RFC3339Nano})
	default:
		return nil, fmt.Errorf("unsupported logging formatter: %q", formatter)
	}

	ctx := dcontext.WithLogger(context.Background(), dcontext.GetLogger(context.Background()))
	dcontext.SetDefaultLogger(dcontext.GetLogger(ctx))
	return ctx, nil
}

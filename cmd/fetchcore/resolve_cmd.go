package main

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pkgcache/fetchcore/cachestore"
	"github.com/pkgcache/fetchcore/codegen"
	"github.com/pkgcache/fetchcore/internal/dcontext"
	"github.com/pkgcache/fetchcore/pkggraph"
	"github.com/pkgcache/fetchcore/resolve"
)

// generatedFragmentName is the basename create_file_pkg writes the
// resolved dependency-source fragment under when it's cached as a
// synthetic o/<hex> object, so a repeat resolve of an unchanged graph
// on an unchanged binary reuses the cached fragment's object path.
const generatedFragmentName = "deps_graph.txt"

var resolveOutputPath string

func init() {
	ResolveCmd.Flags().StringVarP(&resolveOutputPath, "output", "o", "", "write the dependency-source fragment here instead of stdout")
}

// ResolveCmd resolves a project's manifest tree against the content-
// addressed cache and emits the build runner's dependency-source
// fragment, the CLI-facing entry point for resolve.Resolver and
// codegen.Emit.
var ResolveCmd = &cobra.Command{
	Use:   "resolve <project-dir>",
	Short: "resolve a project's dependency manifest against the cache",
	Long:  "resolve reads <project-dir>'s manifest tree, fetches and verifies every declared dependency against the content-addressed cache, and writes a dependency-source fragment describing the resolved graph.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := resolveConfiguration()
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
		ctx, err := configureLogging(config)
		if err != nil {
			return err
		}

		cacheDir, err := config.CacheDirOrDefault()
		if err != nil {
			return err
		}
		store, err := cachestore.Open(cacheDir)
		if err != nil {
			return fmt.Errorf("opening cache store at %s: %w", cacheDir, err)
		}

		resolver := resolve.New(store, resolve.Config{
			ManifestFileName: config.ManifestFileName,
			BuildMarkerFile:  config.BuildMarkerFile,
			HashWorkers:      config.HashWorkers,
			HTTPClient:       &http.Client{Timeout: time.Duration(config.HTTPTimeoutSeconds) * time.Second},
		})

		root, bundle, err := resolver.Resolve(ctx, args[0])
		if err != nil {
			if !bundle.Empty() {
				fmt.Fprintln(os.Stderr, bundle.Error())
			}
			return err
		}

		var buf bytes.Buffer
		if err := codegen.Emit(&buf, root, config.BuildMarkerFile); err != nil {
			return err
		}

		if filePkg, err := pkggraph.CreateFilePkg(ctx, store, generatedFragmentName, buf.Bytes()); err != nil {
			dcontext.GetLogger(ctx).Warnf("caching generated dependency-source fragment: %v", err)
		} else {
			dcontext.GetLogger(ctx).Debugf("cached generated dependency-source fragment at %s", filePkg.RootDir)
		}

		out := os.Stdout
		if resolveOutputPath != "" {
			f, err := os.Create(resolveOutputPath)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer f.Close()
			out = f
		}

		_, err = out.Write(buf.Bytes())
		return err
	},
}

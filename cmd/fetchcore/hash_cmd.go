package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pkgcache/fetchcore/pkghash"
)

// HashCmd computes the content hash of a directory tree the same way the
// resolver does when verifying a freshly-fetched dependency, useful for
// generating the `.hash = "..."` line a manifest author pastes in.
var HashCmd = &cobra.Command{
	Use:   "hash <dir>",
	Short: "print the content hash of a directory",
	Long:  "hash walks <dir> the same way the resolver hashes a freshly-fetched dependency and prints its multihash, suitable for pasting into a manifest's .hash field.",
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

		digest, err := pkghash.HashDirectory(ctx, args[0], config.HashWorkers)
		if err != nil {
			return err
		}

		hexHash, err := digest.Multihash()
		if err != nil {
			return fmt.Errorf("encoding multihash: %w", err)
		}

		fmt.Println(hexHash)
		return nil
	},
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/orgchart/pkg/cache"
	"github.com/matzehuels/orgchart/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the avatar cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached avatars",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := c.fileCache()
			if err != nil {
				return err
			}
			p := newPrinter(cmd.OutOrStdout())
			count, size, err := fc.Stats()
			if err != nil {
				return fmt.Errorf("scan cache: %w", err)
			}
			if count == 0 {
				p.info("Cache is empty")
				return nil
			}
			if err := fc.Clear(); err != nil {
				p.error("Could not clear %s", fc.Dir())
				return err
			}
			p.success("Cleared %d cached avatars (%s)", count, formatBytes(size))
			p.detail("Directory: %s", fc.Dir())
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	var stats bool
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := c.fileCache()
			if err != nil {
				return err
			}
			if !stats {
				fmt.Fprintln(cmd.OutOrStdout(), fc.Dir())
				return nil
			}
			count, size, err := fc.Stats()
			if err != nil {
				return fmt.Errorf("scan cache: %w", err)
			}
			p := newPrinter(cmd.OutOrStdout())
			p.keyValue("Directory", fc.Dir())
			p.keyValue("Entries", StyleNumber.Render(fmt.Sprint(count)))
			p.keyValue("Size", formatBytes(size))
			return nil
		},
	}
	cmd.Flags().BoolVar(&stats, "stats", false, "also print entry count and size")
	return cmd
}

// fileCache opens the on-disk cache. Only the file backend has a local
// directory to manage.
func (c *CLI) fileCache() (*cache.FileCache, error) {
	cc := c.settings().Cache
	if cc.Backend != "" && cc.Backend != config.BackendFile {
		return nil, fmt.Errorf("cache backend %q has no local directory", cc.Backend)
	}
	fc, err := cache.NewFileCache(cc.Dir)
	if err != nil {
		return nil, fmt.Errorf("open cache dir: %w", err)
	}
	return fc, nil
}

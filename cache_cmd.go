package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/readtext/internal/cache"
)

var (
	cacheCmd = &cobra.Command{
		Use:     "cache",
		Short:   "Inspect or clear the audio cache",
		Long:    paragraph(fmt.Sprintf("\n%s the synthesized audio kept on disk so repeated text is not sent to the engine again.", keyword("Inspect"))),
		Example: paragraph("readtext cache\nreadtext cache clear\nreadtext cache prune"),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			disk, err := openDiskCache()
			if err != nil {
				return err
			}
			defer disk.Close() //nolint:errcheck

			fmt.Fprintln(cmd.OutOrStdout(), cacheTable(disk, cfg.Cache.TTL))
			return nil
		},
	}

	cacheClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached audio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			disk, err := openDiskCache()
			if err != nil {
				return err
			}
			defer disk.Close() //nolint:errcheck

			size := disk.Size()
			if err := disk.Clear(); err != nil {
				return fmt.Errorf("unable to clear cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s of cached audio from %s\n", humanize.Bytes(uint64(size)), disk.Dir()) //nolint:gosec
			return nil
		},
	}

	cacheDirCmd = &cobra.Command{
		Use:   "dir",
		Short: "Print the cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), cfg.CacheConfig(defaultCacheDir()).Dir)
			return nil
		},
	}

	cachePruneCmd = &cobra.Command{
		Use:   "prune",
		Short: "Remove cached audio older than the configured ttl",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.Cache.TTL <= 0 {
				fmt.Fprintln(cmd.OutOrStdout(), dimStyle("cache ttl is not set, nothing to prune"))
				return nil
			}
			disk, err := openDiskCache()
			if err != nil {
				return err
			}
			defer disk.Close() //nolint:errcheck

			n := disk.RemoveOlderThan(time.Now().Add(-cfg.Cache.TTL))
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d items\n", n)
			return nil
		},
	}
)

func init() {
	cacheCmd.AddCommand(cacheClearCmd, cacheDirCmd, cachePruneCmd)
}

// defaultCacheDir is the user cache directory, or a temp dir when none can
// be determined.
func defaultCacheDir() string {
	dir, err := gap.NewScope(gap.User, "readtext").CacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "readtext-cache")
	}
	return filepath.Join(dir, "audio")
}

func openDiskCache() (*cache.Disk, error) {
	cc := cfg.CacheConfig(defaultCacheDir())
	disk, err := cache.NewDisk(cc.Dir, cc.DiskCapacity, cc.CompressionLevel)
	if err != nil {
		return nil, fmt.Errorf("unable to open cache: %w", err)
	}
	return disk, nil
}

func cacheTable(disk *cache.Disk, ttl time.Duration) string {
	stats := disk.Stats()

	oldest := "-"
	if entries := disk.Oldest(1); len(entries) > 0 {
		oldest = humanize.Time(entries[0].LastAccess)
	}
	expiry := "never"
	if ttl > 0 {
		expiry = humanize.RelTime(time.Now().Add(-ttl), time.Now(), "after caching", "")
	}

	used := 0.0
	if stats.Capacity > 0 {
		used = float64(stats.Size) / float64(stats.Capacity) * 100
	}

	rows := [][]string{
		{"Directory", disk.Dir()},
		{"Items", humanize.Comma(stats.ItemCount)},
		{"Size", fmt.Sprintf("%s of %s (%.1f%%)", humanize.Bytes(uint64(stats.Size)), humanize.Bytes(uint64(stats.Capacity)), used)}, //nolint:gosec
		{"Least recently used", oldest},
		{"Expires", expiry},
	}
	return renderTable([]string{"Cache", ""}, rows, nil)
}

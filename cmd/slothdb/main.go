// Command slothdb is a CLI frontend over client.Client: it is the
// "external collaborator" spec.md §1 carves out of the core (a
// frontend, configuration loading, and logging are explicitly not
// part of the storage engine proper).
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/intellect4all/slothdb/client"
	"github.com/intellect4all/slothdb/errs"
	"github.com/intellect4all/slothdb/storagefs"
)

var (
	dbName             string
	memtableThreshold  int
	levelScalingFactor int
	verbose            bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "slothdb",
		Short: "slothdb is an embedded LSM key-value store",
		Long:  "slothdb puts, gets, and compacts an on-disk LSM tree rooted at --db.",
	}

	root.PersistentFlags().StringVar(&dbName, "db", "slothdb-data/db", "tree name (and on-disk path prefix) to operate on")
	root.PersistentFlags().IntVar(&memtableThreshold, "memtable-threshold", 0, "memtable flush threshold M (0 = default)")
	root.PersistentFlags().IntVar(&levelScalingFactor, "level-scaling-factor", 0, "level-scaling factor S (0 = default)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newPutCmd(), newGetCmd(), newCompactCmd(), newStatsCmd())
	return root
}

func config() client.Config {
	cfg := client.DefaultConfig()
	if memtableThreshold > 0 {
		cfg.MemtableThreshold = memtableThreshold
	}
	if levelScalingFactor > 0 {
		cfg.LevelScalingFactor = levelScalingFactor
	}
	return cfg
}

func logger() *logrus.Logger {
	log := logrus.StandardLogger()
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

// openClient loads the existing tree at dbName if one is on disk,
// falling back to a fresh Client otherwise (spec §7: loading a
// directory with no matching files yields an empty tree, not an
// error, so a brand-new database and a freshly created one converge
// on the same code path).
func openClient() (*client.Client, error) {
	fs := storagefs.NewOS()
	c, err := client.Load(fs, dbName, config())
	if err != nil {
		return nil, err
	}
	c.SetLogger(logger())
	c.EnableBloomCache()
	return c, nil
}

func newPutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put <key> <value>",
		Short: "Insert or replace a key's value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openClient()
			if err != nil {
				return err
			}
			if err := c.Put(args[0], args[1]); err != nil {
				return err
			}
			// A process only ever calls Put once, so the in-memory
			// memtable threshold can never be reached within a single
			// invocation. Force the write to disk before exiting.
			if err := c.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK\n")
			return nil
		},
	}
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Read a key's value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openClient()
			if err != nil {
				return err
			}
			value, err := c.Get(args[0])
			if err != nil {
				if errors.Is(err, errs.ErrNotFound) {
					fmt.Fprintf(cmd.OutOrStdout(), "(not found)\n")
					return nil
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func newCompactCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compact",
		Short: "Force a compaction pass over every full level",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openClient()
			if err != nil {
				return err
			}
			if err := c.Compact(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "compacted %s: %d levels\n", dbName, c.TreeLevels())
			return nil
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the number of levels currently on disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openClient()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tree: %s\nlevels: %d\n", dbName, c.TreeLevels())
			return nil
		},
	}
}

// cmd/rivet/main.go
package main

import (
	"fmt"
	"os"

	"rivet/internal/changes"
	"rivet/internal/config"
	"rivet/internal/fingerprint"
	"rivet/internal/history"
	"rivet/internal/logging"
	"rivet/internal/snapshot"
	"rivet/internal/uptodate"

	"github.com/dgraph-io/badger/v4"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "rivet",
	Short: "Rivet is an incremental build change detector",
	Long: `Rivet snapshots the declared file properties of build tasks and decides,
run over run, whether a task's inputs actually changed. Files are matched by
normalized identity, so a reordered classpath or a relocated-but-identical
file does not invalidate a task.`,
}

func openStore(cfg *config.Config) (*badger.DB, *history.Store, error) {
	opts := badger.DefaultOptions(cfg.StateDir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("opening state database: %w", err)
	}
	store, err := history.NewStore(db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("initializing store: %w", err)
	}
	return db, store, nil
}

func normalizerFor(prop config.Property) fingerprint.Normalizer {
	switch prop.Normalize {
	case "name":
		return fingerprint.NameOnlyNormalizer{}
	case "relative":
		return fingerprint.RelativePathNormalizer{Root: prop.Root}
	default:
		return fingerprint.AbsolutePathNormalizer{}
	}
}

func captureProperties(declared []config.Property, includeAdded bool) ([]uptodate.Property, error) {
	var props []uptodate.Property
	for _, p := range declared {
		set, err := snapshot.Capture(snapshot.Options{
			Root:       p.Root,
			Include:    p.Include,
			Exclude:    p.Exclude,
			Normalizer: normalizerFor(p),
		})
		if err != nil {
			return nil, fmt.Errorf("capturing %s: %w", p.Label, err)
		}
		props = append(props, uptodate.Property{
			Label:    p.Label,
			Current:  set,
			Detector: changes.NewOrderInsensitive(includeAdded),
		})
	}
	return props, nil
}

// taskProperties captures every declared property of a task. Additions are
// reported for inputs; output properties only care about modifications and
// removals.
func taskProperties(task config.Task) ([]uptodate.Property, error) {
	props, err := captureProperties(task.Inputs, true)
	if err != nil {
		return nil, err
	}
	outputs, err := captureProperties(task.Outputs, false)
	if err != nil {
		return nil, err
	}
	return append(props, outputs...), nil
}

func lookupTask(cfg *config.Config, name string) (config.Task, error) {
	task, ok := cfg.Tasks[name]
	if !ok {
		return config.Task{}, fmt.Errorf("task not declared in config: %s", name)
	}
	return task, nil
}

func printChange(c changes.Change) {
	switch c.Kind {
	case changes.Added:
		color.Green("  + %s (%s)", c.Path, c.Property)
	case changes.Modified:
		color.Yellow("  ~ %s (%s)", c.Path, c.Property)
	case changes.Removed:
		color.Red("  - %s (%s)", c.Path, c.Property)
	}
}

func init() {
	var initCmd = &cobra.Command{
		Use:   "init",
		Short: "Initialize the rivet state directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.DefaultPath())
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if err := os.MkdirAll(cfg.StateDir, 0755); err != nil {
				return fmt.Errorf("creating state directory: %w", err)
			}
			db, _, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			fmt.Println("Initialized rivet state in", cfg.StateDir)
			return nil
		},
	}

	var record bool
	var checkCmd = &cobra.Command{
		Use:   "check [task]",
		Short: "Check whether a task is up to date",
		Long:  `Captures the task's declared properties, compares them against the last recorded execution and prints every change found.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.DefaultPath())
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			logger, err := logging.NewLogger(cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("initializing logger: %w", err)
			}
			defer logger.Sync()

			task, err := lookupTask(cfg, args[0])
			if err != nil {
				return err
			}
			props, err := taskProperties(task)
			if err != nil {
				return err
			}

			db, store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			checker := uptodate.NewChecker(store, logger.WithTask(args[0]))
			result, err := checker.Check(args[0], props, false)
			if err != nil {
				return fmt.Errorf("checking task: %w", err)
			}

			if result.UpToDate {
				color.Green("%s is up to date", args[0])
			} else {
				color.Yellow("%s is out of date (%d changes)", args[0], len(result.Changes))
				for _, c := range result.Changes {
					printChange(c)
				}
			}

			if record {
				if err := checker.Commit(result, props); err != nil {
					return fmt.Errorf("recording execution: %w", err)
				}
			}
			return nil
		},
	}
	checkCmd.Flags().BoolVar(&record, "record", true, "record this check as the new baseline")

	var keyCmd = &cobra.Command{
		Use:   "key [task]",
		Short: "Print a task's cache key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.DefaultPath())
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			task, err := lookupTask(cfg, args[0])
			if err != nil {
				return err
			}
			props, err := taskProperties(task)
			if err != nil {
				return err
			}

			fmt.Println(uptodate.CacheKey(props))
			return nil
		},
	}

	var historyCmd = &cobra.Command{
		Use:   "history [task]",
		Short: "List recorded executions of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.DefaultPath())
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			db, store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			executions, err := store.Executions(args[0])
			if err != nil {
				return fmt.Errorf("loading history: %w", err)
			}
			if len(executions) == 0 {
				fmt.Println("No executions recorded for", args[0])
				return nil
			}
			for _, e := range executions {
				verdict := color.YellowString("out of date (%d changes)", e.ChangeCount)
				if e.UpToDate {
					verdict = color.GreenString("up to date")
				}
				fmt.Printf("%s  %s  key=%s  %s\n",
					e.StartedAt.Local().Format("2006-01-02 15:04:05"), e.ID[:8], e.CacheKey[:12], verdict)
			}
			return nil
		},
	}

	rootCmd.AddCommand(initCmd, checkCmd, keyCmd, historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

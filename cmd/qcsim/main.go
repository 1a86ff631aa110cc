package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"QuorumCore/internal/logger"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}

		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main entry point with error handling.
func run(args []string) error {
	cfg, err := parseFlags(args)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger.Init(logger.Options{Level: level})

	printStartupInfo(cfg)

	rep, err := simulate(cfg)
	if err != nil {
		return fmt.Errorf("simulate:\n%w", err)
	}

	logger.Info("simulation done",
		"verified", rep.SyncOK,
		"order", fmt.Sprint(rep.Order),
	)

	if rep.SyncOK != rep.AsyncOK {
		logger.Error("verification paths disagree",
			"obj_hash", rep.Digest.Short(),
			"sync", rep.SyncOK,
			"async", rep.AsyncOK,
		)
		return fmt.Errorf("%w: sync=%v async=%v", ErrDisagree, rep.SyncOK, rep.AsyncOK)
	}

	return nil
}

// printStartupInfo displays the simulator configuration.
func printStartupInfo(cfg *Config) {
	logger.Info("starting quorum simulation",
		"replicas", cfg.Replicas,
		"majority", cfg.Majority,
		"signers", cfg.signers(),
		"corrupt", cfg.Corrupt,
		"commands", cfg.Commands,
		"byzantine", cfg.Byzantine,
		"workers", cfg.Workers,
		"data", cfg.DataPath,
		"seed", cfg.Seed,
	)
}

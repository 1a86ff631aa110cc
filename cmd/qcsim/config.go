package main

import (
	"errors"
	"flag"
	"fmt"
)

// Config holds the simulator configuration.
type Config struct {
	// Replicas is the number of replicas n.
	Replicas int

	// Majority overrides the quorum size; 0 keeps n - f.
	Majority int

	// Signers is how many replicas sign the certificate; 0 means all.
	Signers int

	// Corrupt is how many of the signatures get a flipped bit.
	Corrupt int

	// Commands is the number of commands to order.
	Commands int

	// Byzantine is how many replicas propose the reversed order.
	Byzantine int

	// Workers is the verification pool size; 0 uses runtime.NumCPU.
	Workers int

	// DataPath is the key store directory; empty keeps keys in memory.
	DataPath string

	// Seed drives key derivation and the honest command order.
	Seed int64

	// Debug enables debug logging.
	Debug bool
}

// parseFlags parses command-line flags into Config.
func parseFlags(args []string) (*Config, error) {
	cfg := &Config{}

	fs := flag.NewFlagSet("qcsim", flag.ContinueOnError)
	fs.IntVar(&cfg.Replicas, "replicas", 4, "Number of replicas")
	fs.IntVar(&cfg.Majority, "majority", 0, "Quorum size (0 = n - f)")
	fs.IntVar(&cfg.Signers, "signers", 0, "Replicas signing the certificate (0 = all)")
	fs.IntVar(&cfg.Corrupt, "corrupt", 0, "Signatures to corrupt")
	fs.IntVar(&cfg.Commands, "commands", 8, "Commands to order")
	fs.IntVar(&cfg.Byzantine, "byzantine", 0, "Replicas proposing a reversed order")
	fs.IntVar(&cfg.Workers, "workers", 0, "Verification workers (0 = number of CPUs)")
	fs.StringVar(&cfg.DataPath, "data", "", "Key store directory (empty = in-memory)")
	fs.Int64Var(&cfg.Seed, "seed", 1, "Seed for keys and proposals")
	fs.BoolVar(&cfg.Debug, "debug", false, "Enable debug logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid flags:\n%w", err)
	}

	return cfg, nil
}

// validate checks that the counts fit the replica set.
func (c *Config) validate() error {
	switch {
	case c.Replicas <= 0:
		return errors.New("replicas must be positive")
	case c.Majority < 0 || c.Majority > c.Replicas:
		return fmt.Errorf("majority %d outside [0, %d]", c.Majority, c.Replicas)
	case c.Signers < 0 || c.Signers > c.Replicas:
		return fmt.Errorf("signers %d outside [0, %d]", c.Signers, c.Replicas)
	case c.Corrupt < 0:
		return errors.New("corrupt must not be negative")
	case c.Commands < 0:
		return errors.New("commands must not be negative")
	case c.Byzantine < 0 || c.Byzantine > c.Replicas:
		return fmt.Errorf("byzantine %d outside [0, %d]", c.Byzantine, c.Replicas)
	case c.Workers < 0:
		return errors.New("workers must not be negative")
	}

	return nil
}

// signers returns the effective signer count.
func (c *Config) signers() int {
	if c.Signers == 0 {
		return c.Replicas
	}
	return c.Signers
}

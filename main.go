package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/seqsense/pcreg/internal/config"
)

func main() {
	var (
		configPath  = flag.String("config", "", "YAML config file")
		source      = flag.String("source", "", "source PCD file")
		target      = flag.String("target", "", "target PCD file")
		corres      = flag.String("corres", "", "correspondence file, identity correspondences if empty")
		output      = flag.String("output", "", "output PCD file of the transformed source")
		interactive = flag.Bool("i", false, "start interactive console")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	overrideString(&cfg.Source, *source)
	overrideString(&cfg.Target, *target)
	overrideString(&cfg.Correspondences, *corres)
	overrideString(&cfg.Output, *output)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	s, err := loadSession(cfg)
	if err != nil {
		logger.Fatalw("Failed to load", "error", err)
	}
	logger.Infow("Loaded",
		"source", cfg.Source, "source_points", s.source.Len(),
		"target", cfg.Target, "target_points", s.target.Len(),
		"correspondences", s.corres.Len(),
		"estimation", s.estimation.EstimationType(),
	)

	if *interactive {
		runConsole(&console{s: s}, os.Stdin, os.Stdout, logger)
	} else if err := register(s, logger); err != nil {
		logger.Fatalw("Registration failed", "error", err)
	}

	if cfg.Output != "" {
		if err := writePCDFile(cfg.Output, s.source); err != nil {
			logger.Fatalw("Failed to write output", "error", err)
		}
		logger.Infow("Saved", "output", cfg.Output)
	}
}

func overrideString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func newLogger(cfg *config.Config) (*zap.SugaredLogger, error) {
	lv, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lv)
	zcfg.DisableStacktrace = true
	l, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

// register runs one estimation step and applies it to the source.
func register(s *session, logger *zap.SugaredLogger) error {
	before, err := s.RMSE()
	if err != nil {
		return err
	}
	logger.Infow("Before registration", "rmse", before)

	m, err := s.Compute()
	if err != nil {
		return err
	}
	logger.Infow("Estimated transformation", "matrix", matRows(m))
	if err := s.Apply(); err != nil {
		return err
	}

	after, err := s.RMSE()
	if err != nil {
		return err
	}
	logger.Infow("After registration", "rmse", after)
	return nil
}

func runConsole(c *console, r io.Reader, w io.Writer, logger *zap.SugaredLogger) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		res, err := c.Run(sc.Text())
		if err != nil {
			logger.Errorw("Command failed", "command", sc.Text(), "error", err)
			continue
		}
		if res != "" {
			fmt.Fprintln(w, res)
		}
	}
	if err := sc.Err(); err != nil {
		logger.Errorw("Failed to read console input", "error", err)
	}
}

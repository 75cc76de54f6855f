package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mheijden/fitfix/pkg/config"
	"github.com/mheijden/fitfix/pkg/logging"
	"github.com/mheijden/fitfix/pkg/metrics"
	"github.com/mheijden/fitfix/pkg/refit"
	"github.com/mheijden/fitfix/pkg/store"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		modelPath  = flag.String("model", "", "Piping model file (.json, .json.sz, .db or .sqlite)")
		configPath = flag.String("config", "", "Audit configuration file (YAML)")
		write      = flag.Bool("write", false, "Persist the audited model back to the model file")
		logLevel   = flag.String("log-level", "", "Log level override: debug, info, warn or error")
	)
	flag.Parse()

	if *modelPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fitfix -model <path> [-config <path>] [-write] [-log-level <level>]")
		flag.PrintDefaults()
		return 1
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			return 1
		}
		cfg = loaded
	}

	level := cfg.LogLevel
	if *logLevel != "" {
		level = *logLevel
	}
	var logger logging.Logger = logging.NewJSONLogger(os.Stderr, logging.ParseLevel(level))
	logger = logger.With(logging.Component("fitfix"))

	registry := metrics.DefaultRegistry()

	st, err := store.Open(*modelPath, registry)
	if err != nil {
		logger.Error("failed to open model store", logging.Path(*modelPath), logging.Error(err))
		return 1
	}
	defer func() { _ = st.Close() }()

	m, err := st.Load()
	if err != nil {
		logger.Error("failed to load model", logging.Path(*modelPath), logging.Error(err))
		return 1
	}

	engine := refit.NewEngine(m, cfg, logger, registry)
	summary, err := engine.Run()
	if err != nil {
		logger.Error("audit run aborted", logging.Error(err))
		return 1
	}

	if *write {
		if err := st.Save(m); err != nil {
			logger.Error("failed to save audited model", logging.Path(*modelPath), logging.Error(err))
			return 1
		}
	}

	fmt.Println(summary.String())
	return 0
}

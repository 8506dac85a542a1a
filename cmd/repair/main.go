package main

import (
	"encoding/json"
	"flag"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/stemlight/compass/internal/catalog"
	"github.com/stemlight/compass/internal/config"
	"github.com/stemlight/compass/internal/repair"
)

// repair runs the offline catalog repair job: load a raw catalog CSV, apply
// the imputation and consolidation passes, and write the repaired CSV plus a
// JSON report of everything that changed. The input file is never modified.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	input := flag.String("input", cfg.Repair.InputPath, "catalog CSV to repair")
	output := flag.String("output", cfg.Repair.OutputPath, "path for the repaired CSV")
	reportPath := flag.String("report", cfg.Repair.ReportPath, "path for the JSON repair report")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		logger.SetLevel(level)
	}

	cat, err := catalog.Load(*input)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load catalog")
	}
	logger.WithFields(logrus.Fields{
		"path": *input,
		"rows": cat.Len(),
	}).Info("Catalog loaded")

	pipeline := repair.New(repair.Options{
		ForestSize:     cfg.Repair.ForestSize,
		CVFolds:        cfg.Repair.CVFolds,
		ConfidenceFlag: cfg.Repair.ConfidenceFlag,
		Seed:           cfg.Repair.Seed,
	}, logger)

	report, err := pipeline.Run(cat)
	if err != nil {
		logger.WithError(err).Fatal("Catalog repair failed")
	}

	if err := cat.Save(*output); err != nil {
		logger.WithError(err).Fatal("Failed to write repaired catalog")
	}

	reportJSON, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		logger.WithError(err).Fatal("Failed to encode repair report")
	}
	if err := os.WriteFile(*reportPath, reportJSON, 0o644); err != nil {
		logger.WithError(err).Fatal("Failed to write repair report")
	}

	logger.WithFields(logrus.Fields{
		"output":            *output,
		"report":            *reportPath,
		"rows":              report.Rows,
		"predictions":       report.Imputation.Predictions,
		"cv_accuracy":       report.Imputation.CVAccuracy,
		"consistency_fixes": report.TotalFixes,
	}).Info("Catalog repair complete")
}

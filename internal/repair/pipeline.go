// Package repair implements the offline catalog repair job: prerequisite
// imputation, STEM-field consolidation, grade standardization and rule-based
// consistency fixes. Every pass is idempotent. The pipeline mutates an
// in-memory catalog and reports what changed; writing the repaired CSV to a
// new file is the caller's concern, the input file is never touched.
package repair

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/stemlight/compass/internal/catalog"
	"github.com/stemlight/compass/pkg/models"
)

// Options carries the pipeline tunables. Zero values fall back to the
// defaults below.
type Options struct {
	ForestSize     int
	CVFolds        int
	ConfidenceFlag float64
	Seed           int64
}

func (o Options) withDefaults() Options {
	if o.ForestSize <= 0 {
		o.ForestSize = 100
	}
	if o.CVFolds <= 0 {
		o.CVFolds = 5
	}
	if o.ConfidenceFlag <= 0 {
		o.ConfidenceFlag = 0.70
	}
	if o.Seed == 0 {
		o.Seed = 42
	}
	return o
}

// ConsolidationReport summarizes a categorical cleanup pass.
type ConsolidationReport struct {
	UniqueBefore int            `json:"unique_before"`
	UniqueAfter  int            `json:"unique_after"`
	Changed      int            `json:"changed"`
	Distribution map[string]int `json:"distribution"`
}

// Report aggregates what every pass changed. It is written next to the
// repaired catalog as JSON.
type Report struct {
	Rows        int                  `json:"rows"`
	Imputation  *ImputationReport    `json:"imputation"`
	StemFields  *ConsolidationReport `json:"stem_fields"`
	Grades      *ConsolidationReport `json:"grades"`
	Consistency []RuleApplication    `json:"consistency"`
	TotalFixes  int                  `json:"total_consistency_fixes"`
	CompletedAt time.Time            `json:"completed_at"`
}

type Pipeline struct {
	opts   Options
	logger *logrus.Logger
}

func New(opts Options, logger *logrus.Logger) *Pipeline {
	return &Pipeline{opts: opts.withDefaults(), logger: logger}
}

// Run applies the four passes to the catalog in place and returns the
// aggregate report.
func (p *Pipeline) Run(cat *catalog.Catalog) (*Report, error) {
	resources := cat.Resources
	report := &Report{Rows: len(resources)}

	imputation, err := imputePrerequisites(resources, p.opts)
	if err != nil {
		return nil, err
	}
	report.Imputation = imputation
	p.logger.WithFields(logrus.Fields{
		"missing_before": imputation.MissingBefore,
		"predictions":    imputation.Predictions,
		"cv_accuracy":    imputation.CVAccuracy,
		"low_confidence": imputation.LowConfidence,
	}).Info("Prerequisite imputation complete")

	report.StemFields = p.consolidateStemFields(resources)
	report.Grades = p.standardizeGrades(resources)

	report.Consistency = applyConsistencyRules(resources)
	for _, application := range report.Consistency {
		report.TotalFixes += application.Rows
		p.logger.WithFields(logrus.Fields{
			"rule": application.Rule,
			"rows": application.Rows,
		}).Info("Consistency rule applied")
	}

	deriveCategories(resources)

	report.CompletedAt = time.Now().UTC()
	return report, nil
}

func (p *Pipeline) consolidateStemFields(resources []models.Resource) *ConsolidationReport {
	report := &ConsolidationReport{Distribution: make(map[string]int)}

	before := make(map[string]bool)
	for i := range resources {
		raw := resources[i].Tier1StemField()
		before[raw] = true

		consolidated := ConsolidateStemField(raw)
		if consolidated != raw {
			report.Changed++
		}
		resources[i].StemFieldTier1 = consolidated
		report.Distribution[consolidated]++
	}
	report.UniqueBefore = len(before)
	report.UniqueAfter = len(report.Distribution)

	p.logger.WithFields(logrus.Fields{
		"unique_before": report.UniqueBefore,
		"unique_after":  report.UniqueAfter,
		"changed":       report.Changed,
	}).Info("STEM fields consolidated")
	return report
}

func (p *Pipeline) standardizeGrades(resources []models.Resource) *ConsolidationReport {
	report := &ConsolidationReport{Distribution: make(map[string]int)}

	before := make(map[string]bool)
	for i := range resources {
		raw := resources[i].GradeLabel()
		before[raw] = true

		standardized := StandardizeGrade(raw)
		if standardized != raw {
			report.Changed++
		}
		resources[i].TargetGrade = standardized
		resources[i].TargetGradeStandardized = standardized
		report.Distribution[standardized]++
	}
	report.UniqueBefore = len(before)
	report.UniqueAfter = len(report.Distribution)

	p.logger.WithFields(logrus.Fields{
		"unique_before": report.UniqueBefore,
		"unique_after":  report.UniqueAfter,
		"changed":       report.Changed,
	}).Info("Target grades standardized")
	return report
}

// deriveCategories materializes category_tier1 so the recommender never has
// to fall back to the raw column.
func deriveCategories(resources []models.Resource) {
	for i := range resources {
		if resources[i].CategoryTier1 == "" {
			resources[i].CategoryTier1 = resources[i].Category
		}
	}
}

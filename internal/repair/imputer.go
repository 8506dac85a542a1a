package repair

import (
	"fmt"
	"sort"
	"strings"

	"github.com/stemlight/compass/internal/ml"
	"github.com/stemlight/compass/pkg/models"
)

// imputationFeatures are the categorical columns the classifier learns
// prerequisite_level from.
var imputationFeatures = []struct {
	name string
	get  func(*models.Resource) string
}{
	{"category", func(r *models.Resource) string { return r.Category }},
	{"target_grade", func(r *models.Resource) string { return r.TargetGrade }},
	{"support_level", func(r *models.Resource) string { return r.SupportLevel }},
	{"cost_category", func(r *models.Resource) string { return r.CostCategory }},
	{"location_type", func(r *models.Resource) string { return r.LocationType }},
	{"time_commitment", func(r *models.Resource) string { return r.TimeCommitment }},
}

// ImputationReport summarizes the prerequisite fill pass. Low-confidence
// predictions are a quality signal, never a blocker.
type ImputationReport struct {
	MissingBefore  int     `json:"missing_before"`
	MissingAfter   int     `json:"missing_after"`
	Predictions    int     `json:"predictions"`
	CVAccuracy     float64 `json:"cv_accuracy"`
	MeanConfidence float64 `json:"mean_confidence"`
	LowConfidence  int     `json:"low_confidence"`
}

// labelEncoder assigns each distinct string its rank in sorted order, the
// same coding a fresh fit would produce in any run over the same values.
type labelEncoder struct {
	classes []string
	index   map[string]int
}

func fitLabelEncoder(values []string) *labelEncoder {
	distinct := make(map[string]bool, len(values))
	for _, v := range values {
		distinct[v] = true
	}

	classes := make([]string, 0, len(distinct))
	for v := range distinct {
		classes = append(classes, v)
	}
	sort.Strings(classes)

	index := make(map[string]int, len(classes))
	for i, v := range classes {
		index[v] = i
	}
	return &labelEncoder{classes: classes, index: index}
}

func (e *labelEncoder) encode(v string) float64 { return float64(e.index[v]) }
func (e *labelEncoder) decode(i int) string     { return e.classes[i] }
func (e *labelEncoder) size() int               { return len(e.classes) }

// imputePrerequisites fills every missing prerequisite_level with a forest
// prediction. Feature encoders are fit on the union of training and
// prediction rows so a category seen only on a missing row still has a code.
func imputePrerequisites(resources []models.Resource, opts Options) (*ImputationReport, error) {
	var trainRows, missingRows []int
	for i := range resources {
		if strings.TrimSpace(resources[i].PrerequisiteLevel) == "" {
			missingRows = append(missingRows, i)
		} else {
			trainRows = append(trainRows, i)
		}
	}

	report := &ImputationReport{MissingBefore: len(missingRows)}
	if len(missingRows) == 0 {
		return report, nil
	}
	if len(trainRows) == 0 {
		return nil, fmt.Errorf("cannot impute prerequisite_level: no labeled rows to train on")
	}

	encoders := make([]*labelEncoder, len(imputationFeatures))
	for f, feature := range imputationFeatures {
		values := make([]string, len(resources))
		for i := range resources {
			values[i] = feature.get(&resources[i])
		}
		encoders[f] = fitLabelEncoder(values)
	}

	encodeRow := func(i int) []float64 {
		row := make([]float64, len(imputationFeatures))
		for f, feature := range imputationFeatures {
			row[f] = encoders[f].encode(feature.get(&resources[i]))
		}
		return row
	}

	labels := make([]string, len(trainRows))
	for n, i := range trainRows {
		labels[n] = resources[i].PrerequisiteLevel
	}
	target := fitLabelEncoder(labels)

	xTrain := make([][]float64, len(trainRows))
	yTrain := make([]int, len(trainRows))
	for n, i := range trainRows {
		xTrain[n] = encodeRow(i)
		yTrain[n] = target.index[resources[i].PrerequisiteLevel]
	}

	forestCfg := ml.ForestConfig{Trees: opts.ForestSize, Seed: opts.Seed}

	accuracy, err := crossValidate(xTrain, yTrain, target.size(), opts.CVFolds, forestCfg)
	if err != nil {
		return nil, fmt.Errorf("cross-validation failed: %w", err)
	}
	report.CVAccuracy = accuracy

	forest, err := ml.TrainForest(xTrain, yTrain, target.size(), forestCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to train imputation forest: %w", err)
	}

	var confidenceSum float64
	for _, i := range missingRows {
		class, confidence, err := forest.Predict(encodeRow(i))
		if err != nil {
			return nil, err
		}
		resources[i].PrerequisiteLevel = target.decode(class)
		confidenceSum += confidence
		if confidence < opts.ConfidenceFlag {
			report.LowConfidence++
		}
	}

	report.Predictions = len(missingRows)
	report.MeanConfidence = confidenceSum / float64(len(missingRows))
	for i := range resources {
		if strings.TrimSpace(resources[i].PrerequisiteLevel) == "" {
			report.MissingAfter++
		}
	}
	return report, nil
}

// crossValidate reports mean accuracy over contiguous folds. Too little data
// for the requested fold count yields zero accuracy rather than an error;
// the metric is informational.
func crossValidate(x [][]float64, y []int, numClasses, folds int, cfg ml.ForestConfig) (float64, error) {
	if folds < 2 || len(x) < folds {
		return 0, nil
	}

	var sum float64
	scored := 0
	for fold := 0; fold < folds; fold++ {
		testStart := fold * len(x) / folds
		testEnd := (fold + 1) * len(x) / folds
		if testEnd <= testStart {
			continue
		}

		xTrain := make([][]float64, 0, len(x)-(testEnd-testStart))
		yTrain := make([]int, 0, len(y)-(testEnd-testStart))
		for i := range x {
			if i < testStart || i >= testEnd {
				xTrain = append(xTrain, x[i])
				yTrain = append(yTrain, y[i])
			}
		}

		forest, err := ml.TrainForest(xTrain, yTrain, numClasses, cfg)
		if err != nil {
			return 0, err
		}

		correct := 0
		for i := testStart; i < testEnd; i++ {
			class, _, err := forest.Predict(x[i])
			if err != nil {
				return 0, err
			}
			if class == y[i] {
				correct++
			}
		}
		sum += float64(correct) / float64(testEnd-testStart)
		scored++
	}

	if scored == 0 {
		return 0, nil
	}
	return sum / float64(scored), nil
}

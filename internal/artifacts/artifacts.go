// Package artifacts loads the trained model bundle the recommendation
// engine serves from: per-dimension K-Means centroids with their scalers
// and row assignments, the TF-IDF vectorizer and document matrix, and the
// training-time cluster quality metrics. The bundle is produced offline;
// this package only validates and decodes it.
package artifacts

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/stemlight/compass/internal/ml"
)

// Matching dimensions of the student profile feature spaces.
const (
	DimAccessibility = "accessibility"
	DimAcademic      = "academic"
	DimStemInterest  = "stem_interest"
	DimFormat        = "format"
)

// Bundle file names, fixed by the training job.
const (
	manifestFile   = "manifest.json"
	formatFile     = "format_scaler.json"
	vectorizerFile = "tfidf_vectorizer.json"
	matrixFile     = "tfidf_matrix.json"
	metricsFile    = "cluster_metrics.json"
)

type Manifest struct {
	Version     int               `json:"version"`
	CreatedAt   time.Time         `json:"created_at"`
	CatalogRows int               `json:"catalog_rows"`
	Files       map[string]string `json:"files,omitempty"`
}

// ClusterArtifact bundles everything one clustered dimension needs at
// inference time: the fitted centroids, the scaler that produced the
// training space, and the per-catalog-row cluster assignments.
type ClusterArtifact struct {
	Model       *ml.ClusterModel
	Scaler      *ml.StandardScaler
	Assignments []int
}

type ClusterMetrics struct {
	Silhouette    float64 `json:"silhouette"`
	DaviesBouldin float64 `json:"davies_bouldin"`
	Inertia       float64 `json:"inertia"`
	NClusters     int     `json:"n_clusters"`
}

// Bundle is the immutable set of loaded artifacts. A dimension whose
// artifacts were missing or unreadable is recorded in disabled instead of
// failing the load; only catalog misalignment aborts.
type Bundle struct {
	Manifest      Manifest
	Accessibility *ClusterArtifact
	Academic      *ClusterArtifact
	FormatScaler  *ml.StandardScaler
	Vectorizer    *ml.Vectorizer
	Matrix        *ml.CSRMatrix
	Metrics       map[string]ClusterMetrics

	disabled map[string]string
}

// Enabled reports whether the dimension loaded cleanly.
func (b *Bundle) Enabled(dim string) bool {
	_, off := b.disabled[dim]
	return !off
}

// DisabledDimensions returns dimension name to reason for every dimension
// that failed to load.
func (b *Bundle) DisabledDimensions() map[string]string {
	out := make(map[string]string, len(b.disabled))
	for dim, reason := range b.disabled {
		out[dim] = reason
	}
	return out
}

// Cluster returns the cluster artifact for an enabled clustered dimension.
func (b *Bundle) Cluster(dim string) *ClusterArtifact {
	switch dim {
	case DimAccessibility:
		return b.Accessibility
	case DimAcademic:
		return b.Academic
	}
	return nil
}

type Loader struct {
	dir       string
	logger    *logrus.Logger
	validator *schemaValidator
}

func NewLoader(dir string, logger *logrus.Logger) (*Loader, error) {
	validator, err := newSchemaValidator()
	if err != nil {
		return nil, err
	}
	return &Loader{dir: dir, logger: logger, validator: validator}, nil
}

// LoadBundle reads and validates a bundle directory against a catalog of
// catalogRows rows.
func LoadBundle(dir string, catalogRows int, logger *logrus.Logger) (*Bundle, error) {
	loader, err := NewLoader(dir, logger)
	if err != nil {
		return nil, err
	}
	return loader.Load(catalogRows)
}

// Load assembles the bundle. The manifest is mandatory and its row count
// must match the catalog; everything else degrades per dimension.
func (l *Loader) Load(catalogRows int) (*Bundle, error) {
	manifest, err := l.loadManifest()
	if err != nil {
		return nil, err
	}
	if manifest.CatalogRows != catalogRows {
		return nil, fmt.Errorf("artifact bundle was trained on %d catalog rows, catalog has %d",
			manifest.CatalogRows, catalogRows)
	}

	bundle := &Bundle{
		Manifest: *manifest,
		Metrics:  make(map[string]ClusterMetrics),
		disabled: make(map[string]string),
	}

	for _, dim := range []string{DimAccessibility, DimAcademic} {
		artifact, err := l.loadClusterArtifact(dim, catalogRows)
		if err != nil {
			if isAlignmentError(err) {
				return nil, err
			}
			l.disable(bundle, dim, err)
			continue
		}
		switch dim {
		case DimAccessibility:
			bundle.Accessibility = artifact
		case DimAcademic:
			bundle.Academic = artifact
		}
		l.logger.WithFields(logrus.Fields{
			"dimension": dim,
			"clusters":  artifact.Model.K(),
			"features":  artifact.Model.Dimensions(),
		}).Info("Loaded cluster artifact")
	}

	if scaler, err := l.loadFormatScaler(); err != nil {
		l.disable(bundle, DimFormat, err)
	} else {
		bundle.FormatScaler = scaler
	}

	vectorizer, matrix, err := l.loadTfidf(catalogRows)
	if err != nil {
		if isAlignmentError(err) {
			return nil, err
		}
		l.disable(bundle, DimStemInterest, err)
	} else {
		bundle.Vectorizer = vectorizer
		bundle.Matrix = matrix
		l.logger.WithFields(logrus.Fields{
			"vocabulary": vectorizer.Dimensions(),
			"documents":  matrix.RowCount,
		}).Info("Loaded TF-IDF artifacts")
	}

	if err := l.loadMetrics(bundle); err != nil {
		l.logger.WithError(err).Debug("Cluster metrics unavailable")
	}

	return bundle, nil
}

func (l *Loader) disable(bundle *Bundle, dim string, err error) {
	bundle.disabled[dim] = err.Error()
	l.logger.WithFields(logrus.Fields{
		"dimension": dim,
		"error":     err.Error(),
	}).Warn("Dimension disabled, matching will skip it")
}

func (l *Loader) loadManifest() (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(l.dir, manifestFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read bundle manifest: %w", err)
	}
	if err := l.validator.validate("manifest", data); err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to decode bundle manifest: %w", err)
	}
	return &manifest, nil
}

type centroidsDoc struct {
	K         int               `json:"k"`
	Features  []string          `json:"features"`
	Centroids [][]float64       `json:"centroids"`
	Scaler    ml.StandardScaler `json:"scaler"`
}

func (l *Loader) loadClusterArtifact(dim string, catalogRows int) (*ClusterArtifact, error) {
	data, err := os.ReadFile(filepath.Join(l.dir, dim+"_centroids.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s centroids: %w", dim, err)
	}
	if err := l.validator.validate("centroids", data); err != nil {
		return nil, err
	}

	var doc centroidsDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s centroids: %w", dim, err)
	}

	model := &ml.ClusterModel{Features: doc.Features, Centroids: doc.Centroids}
	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s cluster model: %w", dim, err)
	}
	if doc.K != model.K() {
		return nil, fmt.Errorf("%s manifest declares k=%d but %d centroids are present", dim, doc.K, model.K())
	}
	if err := doc.Scaler.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s scaler: %w", dim, err)
	}
	if doc.Scaler.Dimensions() != model.Dimensions() {
		return nil, fmt.Errorf("%s scaler covers %d features, centroids have %d",
			dim, doc.Scaler.Dimensions(), model.Dimensions())
	}

	assignments, err := l.loadAssignments(dim, catalogRows, model.K())
	if err != nil {
		return nil, err
	}

	scaler := doc.Scaler
	return &ClusterArtifact{Model: model, Scaler: &scaler, Assignments: assignments}, nil
}

// loadAssignments reads the row-to-cluster CSV. A row count that disagrees
// with the catalog is a misalignment, which aborts the whole load rather
// than degrading the dimension.
func (l *Loader) loadAssignments(dim string, catalogRows, k int) ([]int, error) {
	f, err := os.Open(filepath.Join(l.dir, dim+"_clusters.csv"))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s assignments: %w", dim, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s assignments header: %w", dim, err)
	}
	if len(header) != 2 || header[0] != "index" || header[1] != "cluster" {
		return nil, fmt.Errorf("%s assignments have header %v, want [index cluster]", dim, header)
	}

	assignments := make([]int, 0, catalogRows)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s assignments: %w", dim, err)
		}

		idx, err := strconv.Atoi(record[0])
		if err != nil || idx != len(assignments) {
			return nil, fmt.Errorf("%s assignments are not contiguous at row %d", dim, len(assignments))
		}
		cluster, err := strconv.Atoi(record[1])
		if err != nil || cluster < 0 || cluster >= k {
			return nil, fmt.Errorf("%s assignment %d has cluster %q outside [0, %d)", dim, idx, record[1], k)
		}
		assignments = append(assignments, cluster)
	}

	if len(assignments) != catalogRows {
		return nil, alignmentError{dim: dim, have: len(assignments), want: catalogRows}
	}
	return assignments, nil
}

func (l *Loader) loadFormatScaler() (*ml.StandardScaler, error) {
	data, err := os.ReadFile(filepath.Join(l.dir, formatFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read format scaler: %w", err)
	}
	if err := l.validator.validate("scaler", data); err != nil {
		return nil, err
	}

	var scaler ml.StandardScaler
	if err := json.Unmarshal(data, &scaler); err != nil {
		return nil, fmt.Errorf("failed to decode format scaler: %w", err)
	}
	if err := scaler.Validate(); err != nil {
		return nil, fmt.Errorf("invalid format scaler: %w", err)
	}
	return &scaler, nil
}

type vectorizerDoc struct {
	Vocabulary  map[string]int `json:"vocabulary"`
	IDF         []float64      `json:"idf"`
	NgramMin    int            `json:"ngram_min"`
	NgramMax    int            `json:"ngram_max"`
	Lowercase   bool           `json:"lowercase"`
	StopWords   []string       `json:"stop_words"`
	MaxFeatures int            `json:"max_features"`
}

func (l *Loader) loadTfidf(catalogRows int) (*ml.Vectorizer, *ml.CSRMatrix, error) {
	data, err := os.ReadFile(filepath.Join(l.dir, vectorizerFile))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read vectorizer: %w", err)
	}
	if err := l.validator.validate("vectorizer", data); err != nil {
		return nil, nil, err
	}

	var doc vectorizerDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("failed to decode vectorizer: %w", err)
	}
	if doc.NgramMin == 0 {
		doc.NgramMin = 1
	}
	if doc.NgramMax == 0 {
		doc.NgramMax = doc.NgramMin
	}
	vectorizer, err := ml.NewVectorizer(doc.Vocabulary, doc.IDF, doc.NgramMin, doc.NgramMax, doc.Lowercase, doc.StopWords)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid vectorizer: %w", err)
	}

	data, err = os.ReadFile(filepath.Join(l.dir, matrixFile))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read document matrix: %w", err)
	}
	if err := l.validator.validate("matrix", data); err != nil {
		return nil, nil, err
	}

	var matrix ml.CSRMatrix
	if err := json.Unmarshal(data, &matrix); err != nil {
		return nil, nil, fmt.Errorf("failed to decode document matrix: %w", err)
	}
	if err := matrix.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid document matrix: %w", err)
	}
	if matrix.ColCount != vectorizer.Dimensions() {
		return nil, nil, fmt.Errorf("document matrix has %d columns, vectorizer has %d terms",
			matrix.ColCount, vectorizer.Dimensions())
	}
	if matrix.RowCount != catalogRows {
		return nil, nil, alignmentError{dim: DimStemInterest, have: matrix.RowCount, want: catalogRows}
	}

	return vectorizer, &matrix, nil
}

func (l *Loader) loadMetrics(bundle *Bundle) error {
	data, err := os.ReadFile(filepath.Join(l.dir, metricsFile))
	if err != nil {
		return err
	}
	if err := l.validator.validate("metrics", data); err != nil {
		return err
	}
	return json.Unmarshal(data, &bundle.Metrics)
}

type alignmentError struct {
	dim  string
	have int
	want int
}

func (e alignmentError) Error() string {
	return fmt.Sprintf("%s artifacts cover %d catalog rows, catalog has %d", e.dim, e.have, e.want)
}

func isAlignmentError(err error) bool {
	_, ok := err.(alignmentError)
	return ok
}

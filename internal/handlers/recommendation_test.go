package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stemlight/compass/internal/services"
	"github.com/stemlight/compass/pkg/models"
)

// MockRecommender is a mock implementation of services.Recommender.
type MockRecommender struct {
	mock.Mock
}

func (m *MockRecommender) GetRecommendations(ctx context.Context, req *models.RecommendationRequest) (*models.RecommendationResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RecommendationResponse), args.Error(1)
}

func (m *MockRecommender) LoadAllModels(catalogPath, bundleDir string) error {
	args := m.Called(catalogPath, bundleDir)
	return args.Error(0)
}

func (m *MockRecommender) ArtifactInfo() map[string]interface{} {
	args := m.Called()
	return args.Get(0).(map[string]interface{})
}

func (m *MockRecommender) Ready() bool {
	args := m.Called()
	return args.Bool(0)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel) // Reduce noise in tests
	return logger
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("POST", path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return performRequest(router, req)
}

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRecommendationHandler_Recommend(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockEngine := new(MockRecommender)
	handler := NewRecommendationHandler(mockEngine, testLogger())

	mockResponse := &models.RecommendationResponse{
		RequestID: uuid.New(),
		Recommendations: []models.Recommendation{
			{Rank: 1, Name: "Robotics Club", Category: "Competition", SimilarityScore: "0.912", MatchPercentage: 95},
			{Rank: 2, Name: "Intro to Python", Category: "Online Course", SimilarityScore: "0.544", MatchPercentage: 92},
		},
		CandidateCount: 12,
		GeneratedAt:    time.Now().UTC(),
	}

	mockEngine.On("GetRecommendations", mock.Anything, mock.MatchedBy(func(req *models.RecommendationRequest) bool {
		return req.Profile.GradeLevel == 11 && req.Count == 5
	})).Return(mockResponse, nil)

	router := gin.New()
	router.POST("/api/v1/recommendations", handler.Recommend)

	w := postJSON(router, "/api/v1/recommendations",
		`{"profile": {"grade_level": 11, "stem_fields": ["Computer Science"]}, "count": 5}`)

	assert.Equal(t, http.StatusOK, w.Code)

	var response models.RecommendationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response.Recommendations, 2)
	assert.Equal(t, "Robotics Club", response.Recommendations[0].Name)
	assert.Equal(t, 12, response.CandidateCount)

	mockEngine.AssertExpectations(t)
}

func TestRecommendationHandler_Recommend_InvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockEngine := new(MockRecommender)
	handler := NewRecommendationHandler(mockEngine, testLogger())

	router := gin.New()
	router.POST("/api/v1/recommendations", handler.Recommend)

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{name: "malformed JSON", body: `{"profile": `, wantCode: "INVALID_REQUEST_BODY"},
		{name: "grade out of range", body: `{"profile": {"grade_level": 13}}`, wantCode: "VALIDATION_FAILED"},
		{name: "count too large", body: `{"profile": {}, "count": 500}`, wantCode: "VALIDATION_FAILED"},
		{name: "unknown location filter", body: `{"profile": {}, "location_filter": "moon"}`, wantCode: "VALIDATION_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(router, "/api/v1/recommendations", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)

			var response models.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, tt.wantCode, response.Error.Code)
		})
	}

	mockEngine.AssertNotCalled(t, "GetRecommendations", mock.Anything, mock.Anything)
}

func TestRecommendationHandler_Recommend_EmptyProfile(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// An empty profile is a valid request; the engine fills in defaults.
	mockEngine := new(MockRecommender)
	mockEngine.On("GetRecommendations", mock.Anything, mock.MatchedBy(func(req *models.RecommendationRequest) bool {
		return req.Profile.GradeLevel == 0 && req.Count == 0
	})).Return(&models.RecommendationResponse{
		RequestID:   uuid.New(),
		GeneratedAt: time.Now().UTC(),
	}, nil)

	handler := NewRecommendationHandler(mockEngine, testLogger())
	router := gin.New()
	router.POST("/api/v1/recommendations", handler.Recommend)

	w := postJSON(router, "/api/v1/recommendations", `{"profile": {}}`)

	assert.Equal(t, http.StatusOK, w.Code)
	mockEngine.AssertExpectations(t)
}

func TestRecommendationHandler_Recommend_ModelsNotLoaded(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockEngine := new(MockRecommender)
	mockEngine.On("GetRecommendations", mock.Anything, mock.Anything).
		Return(nil, services.ErrModelsNotLoaded)

	handler := NewRecommendationHandler(mockEngine, testLogger())
	router := gin.New()
	router.POST("/api/v1/recommendations", handler.Recommend)

	w := postJSON(router, "/api/v1/recommendations", `{"profile": {"grade_level": 9}}`)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "MODELS_NOT_LOADED")
}

func TestRecommendationHandler_Recommend_EngineError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockEngine := new(MockRecommender)
	mockEngine.On("GetRecommendations", mock.Anything, mock.Anything).
		Return(nil, errors.New("vectorizer transform failed"))

	handler := NewRecommendationHandler(mockEngine, testLogger())
	router := gin.New()
	router.POST("/api/v1/recommendations", handler.Recommend)

	w := postJSON(router, "/api/v1/recommendations", `{"profile": {"grade_level": 9}}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "RECOMMENDATION_GENERATION_FAILED")
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemlight/compass/internal/config"
)

func adminTestConfig() *config.Config {
	return &config.Config{
		Artifacts: config.ArtifactsConfig{
			Dir:         "./testdata/artifacts",
			CatalogPath: "./testdata/catalog.csv",
		},
	}
}

func TestAdminHandler_GetArtifacts(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockEngine := new(MockRecommender)
	mockEngine.On("ArtifactInfo").Return(map[string]interface{}{
		"loaded":          true,
		"catalog_rows":    412,
		"bundle_version":  3,
		"active_clusters": 8,
	})

	handler := NewAdminHandler(testLogger(), adminTestConfig(), mockEngine)
	router := gin.New()
	router.GET("/api/v1/admin/artifacts", handler.GetArtifacts)

	req, _ := http.NewRequest("GET", "/api/v1/admin/artifacts", nil)
	w := performRequest(router, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var info map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, true, info["loaded"])
	assert.Equal(t, float64(412), info["catalog_rows"])
}

func TestAdminHandler_ReloadArtifacts(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockEngine := new(MockRecommender)
	mockEngine.On("LoadAllModels", "./testdata/catalog.csv", "./testdata/artifacts").Return(nil)
	mockEngine.On("ArtifactInfo").Return(map[string]interface{}{"loaded": true})

	handler := NewAdminHandler(testLogger(), adminTestConfig(), mockEngine)
	router := gin.New()
	router.POST("/api/v1/admin/reload", handler.ReloadArtifacts)

	w := postJSON(router, "/api/v1/admin/reload", `{}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "reloaded")

	mockEngine.AssertExpectations(t)
}

func TestAdminHandler_ReloadArtifacts_Failure(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockEngine := new(MockRecommender)
	mockEngine.On("LoadAllModels", "./testdata/catalog.csv", "./testdata/artifacts").
		Return(errors.New("open bundle manifest: no such file or directory"))

	handler := NewAdminHandler(testLogger(), adminTestConfig(), mockEngine)
	router := gin.New()
	router.POST("/api/v1/admin/reload", handler.ReloadArtifacts)

	w := postJSON(router, "/api/v1/admin/reload", `{}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "ARTIFACT_RELOAD_FAILED")

	// The previous artifacts keep serving; the handler never reports new info.
	mockEngine.AssertNotCalled(t, "ArtifactInfo")
}

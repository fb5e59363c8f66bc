package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/civigraph/resolve/internal/config"
	"github.com/civigraph/resolve/internal/core/dedupe"
	"github.com/civigraph/resolve/internal/core/model"
)

func testServer() *Server {
	gin.SetMode(gin.TestMode)
	return &Server{cfg: config.Default(), log: zap.NewNop()}
}

func postJSON(t *testing.T, r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := testServer().SetupRouter()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestDeduplicateInline(t *testing.T) {
	r := testServer().SetupRouter()

	w := postJSON(t, r, "/deduplicate", DeduplicateRequest{
		Preset: "conservative",
		Entities: []model.Entity{
			{ID: "e1", Title: "John Smith", Description: "City planner."},
			{ID: "e2", Title: "john smith"},
		},
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Report   dedupe.Report  `json:"report"`
		Entities []model.Entity `json:"entities"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, 2, resp.Report.OriginalCount)
	assert.Equal(t, 1, resp.Report.FinalCount)
	require.Len(t, resp.Entities, 1)
	assert.Equal(t, "John Smith", resp.Entities[0].Title)
	assert.Contains(t, resp.Entities[0].Aliases, "john smith")
}

func TestDeduplicateRejectsUnknownPreset(t *testing.T) {
	r := testServer().SetupRouter()
	w := postJSON(t, r, "/deduplicate", DeduplicateRequest{Preset: "yolo"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeduplicateRejectsBadInput(t *testing.T) {
	r := testServer().SetupRouter()
	w := postJSON(t, r, "/deduplicate", DeduplicateRequest{
		Entities: []model.Entity{{Title: "A"}, {Title: "A"}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDeduplicateWithoutStore(t *testing.T) {
	r := testServer().SetupRouter()
	w := postJSON(t, r, "/deduplicate", DeduplicateRequest{GroupID: "g1"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestDeduplicateWriteBackRequiresStoreLoad(t *testing.T) {
	r := testServer().SetupRouter()
	w := postJSON(t, r, "/deduplicate", DeduplicateRequest{
		WriteBack: true,
		Entities:  []model.Entity{{Title: "A"}, {Title: "B"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeduplicateMalformedBody(t *testing.T) {
	r := testServer().SetupRouter()
	req := httptest.NewRequest(http.MethodPost, "/deduplicate", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCommunitiesInline(t *testing.T) {
	r := testServer().SetupRouter()
	w := postJSON(t, r, "/communities", CommunitiesRequest{
		Entities: []model.Entity{{Title: "a1"}, {Title: "a2"}},
		Relationships: []model.Relationship{
			{Source: "a1", Target: "a2"},
		},
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Communities []struct {
			Label   string   `json:"label"`
			Members []string `json:"members"`
		} `json:"communities"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Communities, 1)
	assert.ElementsMatch(t, []string{"a1", "a2"}, resp.Communities[0].Members)
}

func TestCommunitiesWithoutStore(t *testing.T) {
	r := testServer().SetupRouter()
	w := postJSON(t, r, "/communities", CommunitiesRequest{GroupID: "g1"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-while/go-bbdiversity/internal/config"
	"github.com/go-while/go-bbdiversity/internal/database"
	"github.com/go-while/go-bbdiversity/internal/database/dbtest"
	"github.com/go-while/go-bbdiversity/internal/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// --- test helpers -----------------------------------------------------------

func testWebConfig() *config.WebConfig {
	cfg := config.NewDefaultConfig().Web
	cfg.AccessLog = false
	cfg.StaticDir = ""
	cfg.TemplatesDir = ""
	return cfg
}

func newFixtureServer(t *testing.T, webcfg *config.WebConfig) *WebServer {
	t.Helper()
	store, err := database.Open(context.Background(), dbtest.New(t))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewServer(store, webcfg)
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), v), "body: %s", rr.Body.String())
}

// --- endpoints ---------------------------------------------------------------

func TestNames(t *testing.T) {
	s := newFixtureServer(t, testWebConfig())
	rr := get(t, s.Router, "/names")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `["BB_940","BB_941"]`, rr.Body.String())
}

func TestOTUFields(t *testing.T) {
	s := newFixtureServer(t, testWebConfig())
	rr := get(t, s.Router, "/otu")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `["lowest_taxonomic_unit_found"]`, rr.Body.String())
}

func TestOTUDescription(t *testing.T) {
	s := newFixtureServer(t, testWebConfig())

	rr := get(t, s.Router, "/otu/9")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"otu_id":9,"lowest_taxonomic_unit_found":"Bacteria;Firmicutes"}`, rr.Body.String())

	assert.Equal(t, http.StatusNotFound, get(t, s.Router, "/otu/404").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, s.Router, "/otu/abc").Code)
}

func TestSampleValues(t *testing.T) {
	s := newFixtureServer(t, testWebConfig())
	rr := get(t, s.Router, "/samples/BB_940")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[{"otu_ids":[9,5],"sample_values":[7,3]}]`, rr.Body.String())
}

func TestSampleValuesForEveryName(t *testing.T) {
	s := newFixtureServer(t, testWebConfig())
	var names []string
	decode(t, get(t, s.Router, "/names"), &names)
	require.NotEmpty(t, names)

	for _, name := range names {
		rr := get(t, s.Router, "/samples/"+name)
		require.Equal(t, http.StatusOK, rr.Code, name)
		var out []models.SampleValues
		decode(t, rr, &out)
		require.Len(t, out, 1, name)
		require.Equal(t, len(out[0].OTUIDs), len(out[0].Values), name)
		for i, v := range out[0].Values {
			assert.Greater(t, v, int64(1), name)
			if i > 0 {
				assert.LessOrEqual(t, v, out[0].Values[i-1], name)
			}
		}
	}
}

func TestSampleValuesUnknownSampleLegacy(t *testing.T) {
	s := newFixtureServer(t, testWebConfig())
	rr := get(t, s.Router, "/samples/ZZZ_999")
	require.Equal(t, http.StatusOK, rr.Code)
	var msg string
	decode(t, rr, &msg)
	assert.Equal(t, "Error Sample: ZZZ_999 not found!", msg)
}

func TestSampleValuesUnknownSampleStrict(t *testing.T) {
	cfg := testWebConfig()
	cfg.StrictErrors = true
	s := newFixtureServer(t, cfg)
	rr := get(t, s.Router, "/samples/ZZZ_999")
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":"Error Sample: ZZZ_999 not found!"}`, rr.Body.String())
}

func TestMetadata(t *testing.T) {
	s := newFixtureServer(t, testWebConfig())
	rr := get(t, s.Router, "/metadata/BB_940")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"SAMPLEID":940,"ETHNICITY":"Caucasian","GENDER":"F","AGE":24,"LOCATION":"Beaufort/NC","BBTYPE":"I"}`,
		rr.Body.String())
}

func TestMetadataAndWashFrequencyShareParsing(t *testing.T) {
	s := newFixtureServer(t, testWebConfig())
	for _, name := range []string{"BB_940", "XX_940", "BB_0940"} {
		var md map[string]interface{}
		decode(t, get(t, s.Router, "/metadata/"+name), &md)
		assert.EqualValues(t, 940, md["SAMPLEID"], name)

		rr := get(t, s.Router, "/wfreq/"+name)
		require.Equal(t, http.StatusOK, rr.Code, name)
		assert.JSONEq(t, `2`, rr.Body.String(), name)
	}
}

func TestWashFrequencyNull(t *testing.T) {
	s := newFixtureServer(t, testWebConfig())
	rr := get(t, s.Router, "/wfreq/BB_941")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `null`, rr.Body.String())
}

func TestMissingSubjectIsNotFound(t *testing.T) {
	s := newFixtureServer(t, testWebConfig())
	for _, path := range []string{"/metadata/BB_942", "/wfreq/BB_942"} {
		rr := get(t, s.Router, path)
		assert.Equal(t, http.StatusNotFound, rr.Code, path)
		var body map[string]string
		decode(t, rr, &body)
		assert.NotEmpty(t, body["error"], path)
	}
}

func TestDuplicateSubjectIsConflict(t *testing.T) {
	s := newFixtureServer(t, testWebConfig())
	assert.Equal(t, http.StatusConflict, get(t, s.Router, "/metadata/BB_950").Code)
	assert.Equal(t, http.StatusConflict, get(t, s.Router, "/wfreq/BB_950").Code)
}

func TestMalformedSampleIsBadRequest(t *testing.T) {
	s := newFixtureServer(t, testWebConfig())
	for _, name := range []string{"BB", "BB_", "BB_abc", "940", "BB_+940"} {
		assert.Equal(t, http.StatusBadRequest, get(t, s.Router, "/metadata/"+name).Code, name)
		assert.Equal(t, http.StatusBadRequest, get(t, s.Router, "/wfreq/"+name).Code, name)
	}
}

func TestEndpointsAreIdempotent(t *testing.T) {
	s := newFixtureServer(t, testWebConfig())
	for _, path := range []string{"/names", "/otu", "/metadata/BB_940", "/wfreq/BB_940", "/samples/BB_941", "/samples/nope"} {
		first := get(t, s.Router, path)
		second := get(t, s.Router, path)
		assert.Equal(t, first.Code, second.Code, path)
		assert.Equal(t, first.Body.String(), second.Body.String(), path)
	}
}

// --- store failures ----------------------------------------------------------

// brokenStore fails every read with err
type brokenStore struct{ err error }

func (b brokenStore) SampleNames(context.Context) ([]string, error) { return nil, b.err }
func (b brokenStore) OTUFields(context.Context) ([]string, error)   { return nil, b.err }
func (b brokenStore) Metadata(context.Context, int64) (*models.SampleMetadata, error) {
	return nil, b.err
}
func (b brokenStore) WashFrequency(context.Context, int64) (null.Float, error) {
	return null.Float{}, b.err
}
func (b brokenStore) SampleValues(context.Context, string) (*models.SampleValues, error) {
	return nil, b.err
}
func (b brokenStore) OTUDescription(context.Context, int64) (models.OTUDescription, error) {
	return nil, b.err
}
func (b brokenStore) Ping(context.Context) error { return b.err }

func TestStoreFailureIsServerError(t *testing.T) {
	s := NewServer(brokenStore{err: errors.New("disk I/O error")}, testWebConfig())
	for _, path := range []string{"/names", "/otu", "/otu/1", "/metadata/BB_940", "/wfreq/BB_940", "/samples/BB_940"} {
		rr := get(t, s.Router, path)
		assert.Equal(t, http.StatusInternalServerError, rr.Code, path)
		var body map[string]string
		decode(t, rr, &body)
		assert.Equal(t, "Internal Server Error", body["error"], path)
		assert.NotContains(t, rr.Body.String(), "disk I/O error", path)
	}
}

func TestClosedStoreIsUnavailable(t *testing.T) {
	s := NewServer(brokenStore{err: errors.Wrap(database.ErrClosed, "/srv/data/bb.sqlite")}, testWebConfig())
	for _, path := range []string{"/names", "/healthz"} {
		rr := get(t, s.Router, path)
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code, path)
		assert.NotContains(t, rr.Body.String(), "/srv/data", path)
	}
}

// --- pages and health ---------------------------------------------------------

func TestPingAndHealth(t *testing.T) {
	s := newFixtureServer(t, testWebConfig())

	rr := get(t, s.Router, "/ping")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "pong", rr.Body.String())

	rr = get(t, s.Router, "/healthz")
	require.Equal(t, http.StatusOK, rr.Code)
	var health models.Health
	decode(t, rr, &health)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 2, health.Samples)
	assert.Equal(t, 1, health.OTUFields)
}

func TestHomePageFallback(t *testing.T) {
	s := newFixtureServer(t, testWebConfig())
	rr := get(t, s.Router, "/")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rr.Body.String(), "/names")
}

func TestHomePageTemplate(t *testing.T) {
	cfg := testWebConfig()
	cfg.TemplatesDir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cfg.TemplatesDir, "index.html"),
		[]byte(`<html><title>{{.Title}}</title></html>`), 0o600))
	s := newFixtureServer(t, cfg)

	rr := get(t, s.Router, "/")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "<html><title>Belly Button Biodiversity</title></html>", rr.Body.String())
}

func TestStaticFiles(t *testing.T) {
	cfg := testWebConfig()
	cfg.StaticDir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cfg.StaticDir, "app.js"), []byte("buildPlot();"), 0o600))
	s := newFixtureServer(t, cfg)

	rr := get(t, s.Router, "/static/app.js")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "buildPlot();", rr.Body.String())
}

func TestSecurityHeaders(t *testing.T) {
	s := newFixtureServer(t, testWebConfig())
	rr := get(t, s.Router, "/names")
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
}

func TestStatusForError(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusForError(errors.Wrap(database.ErrInvalidSampleName, "x")))
	assert.Equal(t, http.StatusNotFound, statusForError(errors.Wrap(database.ErrNotFound, "x")))
	assert.Equal(t, http.StatusNotFound, statusForError(database.ErrUnknownSample))
	assert.Equal(t, http.StatusConflict, statusForError(database.ErrAmbiguous))
	assert.Equal(t, http.StatusServiceUnavailable, statusForError(context.Canceled))
	assert.Equal(t, http.StatusInternalServerError, statusForError(errors.New("boom")))
}

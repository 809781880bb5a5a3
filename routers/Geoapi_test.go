package routers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/GrainArc/GeoObjectServer/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type apiBody struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestEngine(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := models.OpenDB("sqlite", filepath.Join(t.TempDir(), "api.db"), false)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return NewEngine(db), db
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, payload interface{}) (int, apiBody) {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out apiBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func TestGeoObjectLifecycle(t *testing.T) {
	r, _ := newTestEngine(t)

	linkID := uuid.New()
	code, body := doJSON(t, r, http.MethodPost, "/geoobjects", map[string]interface{}{
		"name": "Волга",
		"input_topology_links": []map[string]interface{}{
			{"id": linkID, "predicate": "flows_from"},
		},
	})
	require.Equal(t, http.StatusOK, code, body.Message)
	var created models.GeoObject
	require.NoError(t, json.Unmarshal(body.Data, &created))
	require.Len(t, created.InputTopologyLinks, 1)
	assert.Equal(t, linkID, created.InputTopologyLinks[0].ID)

	code, body = doJSON(t, r, http.MethodGet, "/geoobjects/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, code)
	var fetched models.GeoObject
	require.NoError(t, json.Unmarshal(body.Data, &fetched))
	assert.Equal(t, "Волга", fetched.Name)

	created.Name = "Волга-2"
	created.InputTopologyLinks = nil
	created.OutputTopologyLinks = []models.OutputTopologyLink{{TopologyLink: models.TopologyLink{Predicate: "flows_into"}}}
	code, body = doJSON(t, r, http.MethodPut, "/geoobjects", created)
	require.Equal(t, http.StatusOK, code, body.Message)
	var updated models.GeoObject
	require.NoError(t, json.Unmarshal(body.Data, &updated))
	assert.Equal(t, "Волга-2", updated.Name)
	assert.Empty(t, updated.InputTopologyLinks)
	assert.Len(t, updated.OutputTopologyLinks, 1)

	code, body = doJSON(t, r, http.MethodGet, "/geoobjects/byname?name="+url.QueryEscape("Волга-2"), nil)
	require.Equal(t, http.StatusOK, code)
	var byName models.GeoObject
	require.NoError(t, json.Unmarshal(body.Data, &byName))
	assert.Equal(t, created.ID, byName.ID)

	code, body = doJSON(t, r, http.MethodDelete, "/geoobjects/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "GeoObject got deleted", body.Message)

	code, body = doJSON(t, r, http.MethodDelete, "/geoobjects/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "GeoObeject could not be found", body.Message)

	code, _ = doJSON(t, r, http.MethodGet, "/geoobjects/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, body = doJSON(t, r, http.MethodGet, "/geoobjects/"+created.ID.String()+"/records", nil)
	require.Equal(t, http.StatusOK, code)
	var records []models.GeoObjectRecord
	require.NoError(t, json.Unmarshal(body.Data, &records))
	assert.Len(t, records, 3)
}

func TestUpdateMissingObject(t *testing.T) {
	r, _ := newTestEngine(t)

	code, _ := doJSON(t, r, http.MethodPut, "/geoobjects", map[string]interface{}{"id": uuid.New(), "name": "ghost"})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = doJSON(t, r, http.MethodPatch, "/geoobjects", map[string]interface{}{"id": uuid.New(), "name": "ghost"})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestInvalidIDAndCycle(t *testing.T) {
	r, _ := newTestEngine(t)

	code, _ := doJSON(t, r, http.MethodGet, "/geoobjects/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := doJSON(t, r, http.MethodPost, "/geoobjects", map[string]interface{}{"name": "parent"})
	require.Equal(t, http.StatusOK, code)
	var parent models.GeoObject
	require.NoError(t, json.Unmarshal(body.Data, &parent))

	code, _ = doJSON(t, r, http.MethodPost, "/geoobjects", map[string]interface{}{
		"name":               "loop",
		"parent_geo_objects": []map[string]interface{}{{"id": parent.ID}},
		"child_geo_objects":  []map[string]interface{}{{"id": parent.ID}},
	})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestClassifierAndAspectRoutes(t *testing.T) {
	r, _ := newTestEngine(t)

	code, body := doJSON(t, r, http.MethodPost, "/geoobjects", map[string]interface{}{
		"name":            "озеро",
		"geo_object_info": map[string]interface{}{"full_name": "озеро Байкал"},
	})
	require.Equal(t, http.StatusOK, code, body.Message)
	var obj models.GeoObject
	require.NoError(t, json.Unmarshal(body.Data, &obj))
	require.NotNil(t, obj.GeoObjectInfo)

	code, body = doJSON(t, r, http.MethodPost, "/classifiers", map[string]interface{}{"name": "lake"})
	require.Equal(t, http.StatusOK, code)
	var classifier models.GeoClassifier
	require.NoError(t, json.Unmarshal(body.Data, &classifier))

	code, _ = doJSON(t, r, http.MethodPost, "/classifiers", map[string]interface{}{"code": "nameless"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = doJSON(t, r, http.MethodGet, "/classifiers/"+classifier.ID.String(), nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = doJSON(t, r, http.MethodGet, "/classifiers/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, code)

	infoPath := "/geoobjectinfo/" + obj.GeoObjectInfo.ID.String() + "/classifiers"
	code, body = doJSON(t, r, http.MethodPost, infoPath, map[string]interface{}{"classifier_id": classifier.ID})
	require.Equal(t, http.StatusOK, code, body.Message)
	code, body = doJSON(t, r, http.MethodPost, infoPath, map[string]interface{}{"classifier_id": classifier.ID})
	require.Equal(t, http.StatusOK, code)
	var joins []models.GeoObjectsGeoClassifiers
	require.NoError(t, json.Unmarshal(body.Data, &joins))
	assert.Len(t, joins, 2)

	code, _ = doJSON(t, r, http.MethodPost, infoPath, map[string]interface{}{"classifier_id": "bad"})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = doJSON(t, r, http.MethodPost, infoPath, map[string]interface{}{"classifier_id": uuid.New()})
	assert.Equal(t, http.StatusNotFound, code)

	code, body = doJSON(t, r, http.MethodGet, "/classifiers/associations", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(body.Data, &joins))
	assert.Len(t, joins, 2)

	code, body = doJSON(t, r, http.MethodPost, "/aspects", map[string]interface{}{"type": "survey"})
	require.Equal(t, http.StatusOK, code)
	var aspect models.Aspect
	require.NoError(t, json.Unmarshal(body.Data, &aspect))

	code, _ = doJSON(t, r, http.MethodPost, "/geoobjects/"+obj.ID.String()+"/aspects/"+aspect.ID.String(), nil)
	require.Equal(t, http.StatusOK, code)
	code, body = doJSON(t, r, http.MethodGet, "/geoobjects/"+obj.ID.String()+"/aspects", nil)
	require.Equal(t, http.StatusOK, code)
	var aspects []models.Aspect
	require.NoError(t, json.Unmarshal(body.Data, &aspects))
	require.Len(t, aspects, 1)
	assert.Equal(t, aspect.ID, aspects[0].ID)

	code, _ = doJSON(t, r, http.MethodPost, "/geoobjects/"+obj.ID.String()+"/aspects/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestGeoJSONExport(t *testing.T) {
	r, _ := newTestEngine(t)

	code, body := doJSON(t, r, http.MethodPost, "/geoobjects", map[string]interface{}{
		"name": "точка",
		"geometry_version": map[string]interface{}{
			"version": 1,
			"geojson": map[string]interface{}{"type": "Point", "coordinates": []float64{37.6, 55.7}},
		},
	})
	require.Equal(t, http.StatusOK, code, body.Message)

	req := httptest.NewRequest(http.MethodGet, "/geoobjects/geojson", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "точка", fc.Features[0].Properties["name"])
}

func TestEditorSocket(t *testing.T) {
	r, db := newTestEngine(t)
	server := httptest.NewServer(r)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/editor/ws?username=tester"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	var resp models.EditorResponse
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, "state", resp.Type)
	require.NotNil(t, resp.State)
	assert.Empty(t, resp.State.Features)

	require.NoError(t, conn.WriteJSON(models.EditorMessage{Action: "click", Lat: 55.7, Lng: 37.6}))
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, "state", resp.Type)
	require.Len(t, resp.State.Features, 1)

	require.NoError(t, conn.WriteJSON(models.EditorMessage{Action: "click", Lat: 120, Lng: 37.6}))
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, "error", resp.Type)

	require.NoError(t, conn.WriteJSON(models.EditorMessage{Action: "unite", Type: "Polygon"}))
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, "command", resp.Type)
	assert.Equal(t, "closePopup", resp.Command)
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, "error", resp.Type)
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, "state", resp.Type)

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		var session models.EditSession
		if err := db.Order("id DESC").First(&session).Error; err != nil {
			return false
		}
		return session.Status == models.EditSessionClosed && session.Created == 1
	}, 5*time.Second, 20*time.Millisecond)

	var count int64
	require.NoError(t, db.Model(&models.GeoObject{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

package editor

import (
	"path/filepath"
	"testing"

	"github.com/GrainArc/GeoObjectServer/models"
	"github.com/GrainArc/GeoObjectServer/services"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepositorySync(t *testing.T) (*RepositorySync, *services.GeoObjectService) {
	t.Helper()
	db, err := models.OpenDB("sqlite", filepath.Join(t.TempDir(), "editor.db"), false)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	service := services.NewGeoObjectService(db)
	return NewRepositorySync(service), service
}

func TestRepositorySyncRoundTrip(t *testing.T) {
	store, service := newTestRepositorySync(t)
	s := NewSession(store, nil)

	a, err := s.HandleMapClick(55.70, 37.60)
	require.NoError(t, err)
	_, err = s.HandleMapClick(55.71, 37.61)
	require.NoError(t, err)
	_, err = s.HandleMapClick(55.72, 37.60)
	require.NoError(t, err)
	for _, o := range s.Objects() {
		require.NoError(t, s.ToggleObjectSelect(o.ID))
	}
	polygon, err := s.UnitePointsTo(Polygon)
	require.NoError(t, err)
	s.Close()

	persisted, err := service.List()
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, polygon.ID, persisted[0].ID)
	assert.Equal(t, "Polygon-"+polygon.ID.String()[:8], persisted[0].Name)
	require.NotNil(t, persisted[0].GeometryVersion)
	assert.Equal(t, models.StatusDraft, persisted[0].GeometryVersion.Status)
	assert.NotZero(t, persisted[0].GeometryVersion.AreaValue)

	missing, err := service.GetByID(a.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, Polygon, loaded[0].Type)
	assert.True(t, loaded[0].Readonly)
	assert.Equal(t, polygon.Geometry, loaded[0].Geometry)
}

func TestRestoredObjectDeletedFromStorage(t *testing.T) {
	store, service := newTestRepositorySync(t)

	version := &models.GeometryVersion{}
	require.NoError(t, version.SetGeometry(orb.Point{37.6, 55.7}))
	created, err := service.Add(&models.GeoObject{Name: "persisted", GeometryVersion: version})
	require.NoError(t, err)

	loaded, err := store.Load()
	require.NoError(t, err)
	s := NewSession(store, nil)
	s.Restore(loaded)
	require.NoError(t, s.DeleteObject(created.ID))
	s.Close()

	gone, err := service.GetByID(created.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestRepositorySyncDeleteMissing(t *testing.T) {
	store, _ := newTestRepositorySync(t)

	err := store.Delete(uuid.New())
	require.Error(t, err)
	assert.Equal(t, services.MsgGeoObjectNotFound, err.Error())
}

func TestFromGeoObject(t *testing.T) {
	_, ok := FromGeoObject(models.GeoObject{ID: uuid.New()})
	assert.False(t, ok)

	version := &models.GeometryVersion{}
	require.NoError(t, version.SetGeometry(orb.LineString{{1, 1}, {2, 2}}))
	obj, ok := FromGeoObject(models.GeoObject{ID: uuid.New(), GeometryVersion: version})
	require.True(t, ok)
	assert.Equal(t, PolyLine, obj.Type)
	assert.True(t, obj.Readonly)

	multi := &models.GeometryVersion{}
	require.NoError(t, multi.SetGeometry(orb.MultiPoint{{1, 1}, {2, 2}}))
	_, ok = FromGeoObject(models.GeoObject{ID: uuid.New(), GeometryVersion: multi})
	assert.False(t, ok)
}

package editor

import (
	"errors"
	"fmt"

	"github.com/GrainArc/GeoObjectServer/models"
	"github.com/GrainArc/GeoObjectServer/services"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

// RepositorySync 通过 GeoObjectService 持久化编辑对象
type RepositorySync struct {
	service *services.GeoObjectService
}

func NewRepositorySync(service *services.GeoObjectService) *RepositorySync {
	return &RepositorySync{service: service}
}

func (r *RepositorySync) Create(obj EditorObject) error {
	version := &models.GeometryVersion{Version: 1, Status: models.StatusDraft}
	if err := version.SetGeometry(obj.Geometry); err != nil {
		return err
	}
	_, err := r.service.Add(&models.GeoObject{
		ID:              obj.ID,
		Name:            fmt.Sprintf("%s-%s", obj.Type, obj.ID.String()[:8]),
		GeometryVersion: version,
	})
	return err
}

func (r *RepositorySync) Delete(id uuid.UUID) error {
	ok, msg := r.service.Delete(id)
	if !ok {
		return errors.New(msg)
	}
	return nil
}

// FromGeoObject 已持久化对象转为只读编辑对象，没有可编辑几何时返回false
func FromGeoObject(obj models.GeoObject) (EditorObject, bool) {
	if obj.GeometryVersion == nil {
		return EditorObject{}, false
	}
	geometry, err := obj.GeometryVersion.Geometry()
	if err != nil || geometry == nil {
		return EditorObject{}, false
	}

	var t ObjectType
	switch geometry.(type) {
	case orb.Point:
		t = Point
	case orb.LineString:
		t = PolyLine
	case orb.Polygon:
		t = Polygon
	default:
		return EditorObject{}, false
	}
	return EditorObject{
		ID:       obj.ID,
		Type:     t,
		Geometry: geometry,
		Readonly: true,
	}, true
}

// Load 读取全部已持久化对象
func (r *RepositorySync) Load() ([]EditorObject, error) {
	objects, err := r.service.List()
	if err != nil {
		return nil, err
	}
	var out []EditorObject
	for _, o := range objects {
		if e, ok := FromGeoObject(o); ok {
			out = append(out, e)
		}
	}
	return out, nil
}

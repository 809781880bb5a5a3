package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GeometryVersion 几何版本，几何以GeoJSON存储
type GeometryVersion struct {
	ID                           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Version                      int            `json:"version"`
	Status                       Status         `json:"status"`
	AuthoritativeKnowledgeSource string         `json:"authoritative_knowledge_source"`
	CreationTime                 *time.Time     `json:"creation_time"`
	UpdateTime                   *time.Time     `json:"update_time"`
	ArchiveTime                  *time.Time     `json:"archive_time"`
	GeoJSON                      datatypes.JSON `json:"geojson"`
	AreaValue                    float64        `json:"area_value"`   // 平方米
	LengthValue                  float64        `json:"length_value"` // 米
	MinLon                       float64        `json:"min_lon"`
	MinLat                       float64        `json:"min_lat"`
	MaxLon                       float64        `json:"max_lon"`
	MaxLat                       float64        `json:"max_lat"`
}

func (GeometryVersion) TableName() string {
	return "geometry_version"
}

func (g *GeometryVersion) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// BeforeSave 根据GeoJSON计算面积、长度、外包框
func (g *GeometryVersion) BeforeSave(tx *gorm.DB) error {
	return g.measure()
}

func (g *GeometryVersion) measure() error {
	geometry, err := g.Geometry()
	if err != nil {
		return err
	}
	if geometry == nil {
		return nil
	}
	bound := geometry.Bound()
	g.MinLon, g.MinLat = bound.Min.Lon(), bound.Min.Lat()
	g.MaxLon, g.MaxLat = bound.Max.Lon(), bound.Max.Lat()
	g.AreaValue = geo.Area(geometry)
	g.LengthValue = geo.Length(geometry)
	return nil
}

// Geometry 解析GeoJSON几何，空值返回nil
func (g *GeometryVersion) Geometry() (orb.Geometry, error) {
	if len(g.GeoJSON) == 0 || string(g.GeoJSON) == "null" {
		return nil, nil
	}
	parsed, err := geojson.UnmarshalGeometry(g.GeoJSON)
	if err != nil {
		return nil, errors.New("几何GeoJSON解析失败: " + err.Error())
	}
	return parsed.Geometry(), nil
}

// SetGeometry 写入几何并重新计算度量
func (g *GeometryVersion) SetGeometry(geometry orb.Geometry) error {
	data, err := geojson.NewGeometry(geometry).MarshalJSON()
	if err != nil {
		return err
	}
	g.GeoJSON = datatypes.JSON(data)
	return g.measure()
}

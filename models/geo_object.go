package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GeoObject 地理对象，聚合根
// 带 gorm:"-" 的字段由 services 中的聚合组装显式填充，不做懒加载
type GeoObject struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name              string     `gorm:"type:varchar(255);index" json:"name"`
	GeoNameFeatureID  *uuid.UUID `gorm:"type:uuid" json:"geo_name_feature_id"`
	GeometryVersionID *uuid.UUID `gorm:"type:uuid" json:"geometry_version_id"`
	CreatedAt         int64      `gorm:"autoCreateTime" json:"created_at"`

	GeoNameFeature      *GeoNameFeature      `gorm:"-" json:"geo_name_feature,omitempty"`
	GeometryVersion     *GeometryVersion     `gorm:"-" json:"geometry_version,omitempty"`
	GeoObjectInfo       *GeoObjectInfo       `gorm:"-" json:"geo_object_info,omitempty"`
	ParentGeoObjects    []GeoObject          `gorm:"-" json:"parent_geo_objects"`
	ChildGeoObjects     []GeoObject          `gorm:"-" json:"child_geo_objects"`
	InputTopologyLinks  []InputTopologyLink  `gorm:"-" json:"input_topology_links"`
	OutputTopologyLinks []OutputTopologyLink `gorm:"-" json:"output_topology_links"`
	Aspects             []Aspect             `gorm:"-" json:"aspects"`
}

func (GeoObject) TableName() string {
	return "geo_object"
}

func (o *GeoObject) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// GeoNameFeature 名称特征
type GeoNameFeature struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GeoName      string    `gorm:"type:varchar(255)" json:"geo_name"`
	Meaning      string    `json:"meaning"`
	LanguageCode string    `gorm:"type:varchar(16)" json:"language_code"`
}

func (GeoNameFeature) TableName() string {
	return "geo_name_feature"
}

func (f *GeoNameFeature) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// GeoObjectRelation 父子关系边，构成有向无环图
type GeoObjectRelation struct {
	ID       int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ParentID uuid.UUID `gorm:"type:uuid;index" json:"parent_id"`
	ChildID  uuid.UUID `gorm:"type:uuid;index" json:"child_id"`
}

func (GeoObjectRelation) TableName() string {
	return "geo_object_relation"
}

// TopologyLink 拓扑连接公共字段
type TopologyLink struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	GeoObjectID       uuid.UUID  `gorm:"type:uuid;index" json:"geo_object_id"`
	LinkedGeoObjectID *uuid.UUID `gorm:"type:uuid" json:"linked_geo_object_id"`
	Predicate         string     `gorm:"type:varchar(255)" json:"predicate"`
	Status            string     `gorm:"type:varchar(50)" json:"status"`
	Comment           string     `json:"comment"`
	CreationTime      *time.Time `json:"creation_time"`
	UpdateTime        *time.Time `json:"update_time"`
}

func (l TopologyLink) LinkID() uuid.UUID {
	return l.ID
}

func (l *TopologyLink) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// InputTopologyLink 输入拓扑连接
type InputTopologyLink struct {
	TopologyLink
}

func (InputTopologyLink) TableName() string {
	return "input_topology_link"
}

// OutputTopologyLink 输出拓扑连接
type OutputTopologyLink struct {
	TopologyLink
}

func (OutputTopologyLink) TableName() string {
	return "output_topology_link"
}

// Aspect 附属对象，外键在 Aspect 一侧，同一时间最多挂在一个对象上
type Aspect struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Type        string     `gorm:"type:varchar(255)" json:"type"`
	Code        string     `gorm:"type:varchar(255)" json:"code"`
	EndPoint    string     `json:"end_point"`
	CommonInfo  string     `json:"common_info"`
	GeoObjectID *uuid.UUID `gorm:"type:uuid;index" json:"geo_object_id"`
}

func (Aspect) TableName() string {
	return "aspect"
}

func (a *Aspect) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Status 生命周期状态
type Status int

const (
	StatusDraft Status = iota
	StatusActive
	StatusArchived
	StatusDeleted
)

// GeoObjectInfo 对象元数据，与 GeoObject 一对一（可选）
type GeoObjectInfo struct {
	ID                           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	FullName                     string     `gorm:"type:varchar(255)" json:"full_name"`
	ShortName                    string     `gorm:"type:varchar(255)" json:"short_name"`
	AuthoritativeKnowledgeSource string     `json:"authoritative_knowledge_source"`
	Version                      int        `json:"version"`
	LanguageCode                 string     `gorm:"type:varchar(16)" json:"language_code"`
	Language                     string     `gorm:"type:varchar(64)" json:"language"`
	Status                       Status     `json:"status"`
	ArchiveTime                  *time.Time `json:"archive_time"`
	UpdateTime                   *time.Time `json:"update_time"`
	CreationTime                 *time.Time `json:"creation_time"`
	CommonInfo                   string     `json:"common_info"`
	GeographicalObjectID         *uuid.UUID `gorm:"type:uuid;index" json:"geographical_object_id"`

	GeoClassifiers           []GeoClassifier            `gorm:"-" json:"geo_classifiers"`
	GeoObjectsGeoClassifiers []GeoObjectsGeoClassifiers `gorm:"-" json:"-"`
}

func (GeoObjectInfo) TableName() string {
	return "geo_object_info"
}

func (i *GeoObjectInfo) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// GeoClassifier 分类标签
type GeoClassifier struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255);index" json:"name"`
	Code        string    `gorm:"type:varchar(255)" json:"code"`
	Description string    `json:"description"`
	CommonInfo  string    `json:"common_info"`
}

func (GeoClassifier) TableName() string {
	return "geo_classifier"
}

func (c *GeoClassifier) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// GeoObjectsGeoClassifiers 元数据与分类的关联表，允许重复关联
type GeoObjectsGeoClassifiers struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GeoObjectInfoID uuid.UUID `gorm:"type:uuid;index" json:"geo_object_info_id"`
	GeoClassifierID uuid.UUID `gorm:"type:uuid;index" json:"geo_classifier_id"`

	GeoObjectInfo *GeoObjectInfo `gorm:"foreignKey:GeoObjectInfoID" json:"geo_object_info,omitempty"`
	GeoClassifier *GeoClassifier `gorm:"foreignKey:GeoClassifierID" json:"geo_classifier,omitempty"`
}

func (GeoObjectsGeoClassifiers) TableName() string {
	return "geo_objects_geo_classifiers"
}

func (j *GeoObjectsGeoClassifiers) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}

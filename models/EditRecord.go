package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// 变更类型
const (
	RecordAdd          = "add"
	RecordUpdate       = "update"
	RecordUpdateScalar = "update_scalar"
	RecordDelete       = "delete"
)

// GeoObjectRecord 对象变更记录，保存变更前后的聚合
type GeoObjectRecord struct {
	ID           int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	GeoObjectID  uuid.UUID      `gorm:"type:uuid;index" json:"geo_object_id"`
	Type         string         `gorm:"type:varchar(50)" json:"type"`
	Date         string         `gorm:"type:varchar(255)" json:"date"`
	OldAggregate datatypes.JSON `json:"old_aggregate"`
	NewAggregate datatypes.JSON `json:"new_aggregate"`
}

func (GeoObjectRecord) TableName() string {
	return "geo_object_record"
}

package services

import (
	"fmt"

	"github.com/GrainArc/GeoObjectServer/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AddAspect 新建独立的Aspect
func (s *GeoObjectService) AddAspect(aspect *models.Aspect) (*models.Aspect, error) {
	created := *aspect
	if err := s.conn().Create(&created).Error; err != nil {
		return nil, fmt.Errorf("保存附属对象失败: %w", err)
	}
	return &created, nil
}

// ListAspects 挂在对象上的Aspect
func (s *GeoObjectService) ListAspects(geoObjectID uuid.UUID) ([]models.Aspect, error) {
	aspects := []models.Aspect{}
	if err := s.conn().Where("geo_object_id = ?", geoObjectID).Order("id").Find(&aspects).Error; err != nil {
		return nil, err
	}
	return aspects, nil
}

// AttachAspect 直接按条件更新Aspect外键，不先加载Aspect，返回重新加载的对象
func (s *GeoObjectService) AttachAspect(geoObjectID, aspectID uuid.UUID) (*models.GeoObject, error) {
	db := s.conn()

	var count int64
	if err := db.Model(&models.GeoObject{}).Where("id = ?", geoObjectID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrGeoObjectNotFound
	}

	result := db.Model(&models.Aspect{}).Where("id = ?", aspectID).Update("geo_object_id", geoObjectID)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		// 值未变化时部分驱动影响行数为0，再确认一次
		if err := db.Model(&models.Aspect{}).Where("id = ?", aspectID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, ErrAspectNotFound
		}
	}
	return s.GetByID(geoObjectID)
}

// attachOrCreateAspect 新建对象时：已存在的Aspect改挂，不存在的新建
func attachOrCreateAspect(tx *gorm.DB, owner uuid.UUID, aspect models.Aspect) error {
	if aspect.ID != uuid.Nil {
		result := tx.Model(&models.Aspect{}).Where("id = ?", aspect.ID).Update("geo_object_id", owner)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			return nil
		}
	}
	aspect.GeoObjectID = &owner
	if err := tx.Create(&aspect).Error; err != nil {
		return fmt.Errorf("保存附属对象失败: %w", err)
	}
	return nil
}

package services

import (
	"fmt"

	"github.com/GrainArc/GeoObjectServer/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AddGeoClassifier 新建分类
func (s *GeoObjectService) AddGeoClassifier(classifier *models.GeoClassifier) (*models.GeoClassifier, error) {
	created := *classifier
	if err := s.conn().Create(&created).Error; err != nil {
		return nil, fmt.Errorf("保存分类失败: %w", err)
	}
	return &created, nil
}

// ListGeoClassifiers 全部分类
func (s *GeoObjectService) ListGeoClassifiers() ([]models.GeoClassifier, error) {
	classifiers := []models.GeoClassifier{}
	if err := s.conn().Order("name, id").Find(&classifiers).Error; err != nil {
		return nil, err
	}
	return classifiers, nil
}

// GetGeoClassifier 获取分类
// 存储层出错时只记日志并返回nil，与其他读操作不同
func (s *GeoObjectService) GetGeoClassifier(id uuid.UUID) *models.GeoClassifier {
	var classifiers []models.GeoClassifier
	if err := s.conn().Where("id = ?", id).Limit(1).Find(&classifiers).Error; err != nil {
		log.Warn().Err(err).Str("id", id.String()).Msg("查询分类失败，按不存在处理")
		return nil
	}
	if len(classifiers) == 0 {
		return nil
	}
	return &classifiers[0]
}

// AddClassifierAssociation 给元数据挂分类，不去重
func (s *GeoObjectService) AddClassifierAssociation(infoID, classifierID uuid.UUID) ([]models.GeoObjectsGeoClassifiers, error) {
	err := s.conn().Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.GeoObjectInfo{}).Where("id = ?", infoID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrGeoObjectInfoNotFound
		}
		if err := tx.Model(&models.GeoClassifier{}).Where("id = ?", classifierID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrGeoClassifierNotFound
		}

		join := models.GeoObjectsGeoClassifiers{GeoObjectInfoID: infoID, GeoClassifierID: classifierID}
		return tx.Create(&join).Error
	})
	if err != nil {
		return nil, err
	}
	return s.ListClassifierAssociations(&infoID)
}

// ListClassifierAssociations 关联行，两端都已加载；infoID为nil时返回整张关联表
func (s *GeoObjectService) ListClassifierAssociations(infoID *uuid.UUID) ([]models.GeoObjectsGeoClassifiers, error) {
	joins := []models.GeoObjectsGeoClassifiers{}
	query := s.conn().Preload("GeoObjectInfo").Preload("GeoClassifier").Order("id")
	if infoID != nil {
		query = query.Where("geo_object_info_id = ?", *infoID)
	}
	if err := query.Find(&joins).Error; err != nil {
		return nil, err
	}
	return joins, nil
}

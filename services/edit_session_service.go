package services

import (
	"errors"
	"time"

	"github.com/GrainArc/GeoObjectServer/models"
	"gorm.io/gorm"
)

type EditSessionService struct {
	db *gorm.DB
}

func NewEditSessionService(db *gorm.DB) *EditSessionService {
	if db == nil {
		db = models.GetDB()
	}
	return &EditSessionService{db: db}
}

// Open 开启编辑会话
func (s *EditSessionService) Open(username string) (*models.EditSession, error) {
	session := &models.EditSession{
		Username:  username,
		CreatedAt: time.Now().Format("2006-01-02 15:04:05"),
		Status:    models.EditSessionActive,
	}
	if err := s.db.Create(session).Error; err != nil {
		return nil, errors.New("创建编辑会话失败: " + err.Error())
	}
	return session, nil
}

// Close 关闭编辑会话并记录会话内的增删数量
func (s *EditSessionService) Close(id int64, created, deleted int) error {
	result := s.db.Model(&models.EditSession{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":    models.EditSessionClosed,
		"closed_at": time.Now().Format("2006-01-02 15:04:05"),
		"created":   created,
		"deleted":   deleted,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("编辑会话不存在")
	}
	return nil
}

// List 按状态列出编辑会话，status为空返回全部
func (s *EditSessionService) List(status string) ([]models.EditSession, error) {
	sessions := []models.EditSession{}
	query := s.db.Order("id DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

package views

import (
	"github.com/GrainArc/GeoObjectServer/models"
	"github.com/GrainArc/GeoObjectServer/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type classifierAssociationRequest struct {
	ClassifierID string `json:"classifier_id" binding:"required,uuid"`
}

// AddClassifier 新建分类
func (h *GeoObjectHandler) AddClassifier(c *gin.Context) {
	var classifier models.GeoClassifier
	if err := c.ShouldBindJSON(&classifier); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}
	if classifier.Name == "" {
		response.BadRequest(c, "分类名称不能为空")
		return
	}
	created, err := h.service.AddGeoClassifier(&classifier)
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "新建成功", created)
}

// ListClassifiers 全部分类
func (h *GeoObjectHandler) ListClassifiers(c *gin.Context) {
	classifiers, err := h.service.ListGeoClassifiers()
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, classifiers)
}

// GetClassifier 获取分类
func (h *GeoObjectHandler) GetClassifier(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	classifier := h.service.GetGeoClassifier(id)
	if classifier == nil {
		response.NotFound(c, "分类不存在")
		return
	}
	response.Success(c, classifier)
}

// ListAllAssociations 整张分类关联表
func (h *GeoObjectHandler) ListAllAssociations(c *gin.Context) {
	joins, err := h.service.ListClassifierAssociations(nil)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, joins)
}

// ListInfoAssociations 某条元数据的分类关联
func (h *GeoObjectHandler) ListInfoAssociations(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	joins, err := h.service.ListClassifierAssociations(&id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, joins)
}

// AddInfoAssociation 给元数据挂分类
func (h *GeoObjectHandler) AddInfoAssociation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req classifierAssociationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}
	joins, err := h.service.AddClassifierAssociation(id, uuid.MustParse(req.ClassifierID))
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "关联成功", joins)
}

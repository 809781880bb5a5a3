package views

import (
	"errors"

	"github.com/GrainArc/GeoObjectServer/methods"
	"github.com/GrainArc/GeoObjectServer/models"
	"github.com/GrainArc/GeoObjectServer/response"
	"github.com/GrainArc/GeoObjectServer/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type GeoObjectHandler struct {
	service *services.GeoObjectService
}

func NewGeoObjectHandler(service *services.GeoObjectService) *GeoObjectHandler {
	return &GeoObjectHandler{service: service}
}

func parseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "无效的ID")
		return uuid.Nil, false
	}
	return id, true
}

// writeError 按错误类型返回
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrGeoObjectNotFound),
		errors.Is(err, services.ErrGeoObjectInfoNotFound),
		errors.Is(err, services.ErrGeoClassifierNotFound),
		errors.Is(err, services.ErrAspectNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, services.ErrRelationCycle):
		response.BadRequest(c, err.Error())
	default:
		response.InternalError(c, err.Error())
	}
}

// List 获取全部对象
func (h *GeoObjectHandler) List(c *gin.Context) {
	objects, err := h.service.List()
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, objects)
}

// Get 按id获取对象
func (h *GeoObjectHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	obj, err := h.service.GetByID(id)
	if err != nil {
		writeError(c, err)
		return
	}
	if obj == nil {
		response.NotFound(c, services.MsgGeoObjectNotFound)
		return
	}
	response.Success(c, obj)
}

// GetByName 按名称获取对象
// @Param name query string true "对象名称"
func (h *GeoObjectHandler) GetByName(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		response.BadRequest(c, "名称不能为空")
		return
	}
	obj, err := h.service.GetByName(name)
	if err != nil {
		writeError(c, err)
		return
	}
	if obj == nil {
		response.NotFound(c, services.MsgGeoObjectNotFound)
		return
	}
	response.Success(c, obj)
}

// Add 新建对象
func (h *GeoObjectHandler) Add(c *gin.Context) {
	var obj models.GeoObject
	if err := c.ShouldBindJSON(&obj); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}
	created, err := h.service.Add(&obj)
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "新建成功", created)
}

// Update 整体更新对象，调和拓扑连接
func (h *GeoObjectHandler) Update(c *gin.Context) {
	var obj models.GeoObject
	if err := c.ShouldBindJSON(&obj); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}
	if err := h.service.Update(&obj); err != nil {
		writeError(c, err)
		return
	}
	updated, err := h.service.GetByID(obj.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "更新成功", updated)
}

// UpdateScalar 只更新标量字段
func (h *GeoObjectHandler) UpdateScalar(c *gin.Context) {
	var obj models.GeoObject
	if err := c.ShouldBindJSON(&obj); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}
	if err := h.service.UpdateScalar(&obj); err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "更新成功", nil)
}

// Delete 删除对象
func (h *GeoObjectHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	deleted, msg := h.service.Delete(id)
	if !deleted {
		response.NotFound(c, msg)
		return
	}
	response.SuccessWithMessage(c, msg, nil)
}

// GeoJSON 全部对象导出为FeatureCollection
func (h *GeoObjectHandler) GeoJSON(c *gin.Context) {
	objects, err := h.service.List()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(200, methods.GeoObjectsToGeoJSON(objects))
}

// Records 对象变更记录
func (h *GeoObjectHandler) Records(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	records, err := h.service.ListRecords(id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, records)
}

// ListAspects 对象上的Aspect
func (h *GeoObjectHandler) ListAspects(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	aspects, err := h.service.ListAspects(id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, aspects)
}

// AttachAspect 把Aspect挂到对象上
func (h *GeoObjectHandler) AttachAspect(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	aspectID, ok := parseID(c, "aspectId")
	if !ok {
		return
	}
	obj, err := h.service.AttachAspect(id, aspectID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, obj)
}

// AddAspect 新建Aspect
func (h *GeoObjectHandler) AddAspect(c *gin.Context) {
	var aspect models.Aspect
	if err := c.ShouldBindJSON(&aspect); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return
	}
	created, err := h.service.AddAspect(&aspect)
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "新建成功", created)
}

// ClearTrackedState 重置数据访问会话
func (h *GeoObjectHandler) ClearTrackedState(c *gin.Context) {
	h.service.ClearTrackedState()
	response.SuccessWithMessage(c, "已重置", nil)
}

package services

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GrainArc/GeoObjectServer/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var (
	ErrGeoObjectNotFound     = errors.New("地理对象不存在")
	ErrGeoObjectInfoNotFound = errors.New("对象元数据不存在")
	ErrGeoClassifierNotFound = errors.New("分类不存在")
	ErrAspectNotFound        = errors.New("附属对象不存在")
	ErrRelationCycle         = errors.New("父子关系不能成环")
)

const (
	MsgGeoObjectNotFound = "GeoObeject could not be found"
	MsgGeoObjectDeleted  = "GeoObject got deleted"
)

// snapshotRead 聚合读取的事务选项，多条查询看到同一快照
var snapshotRead = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

// GeoObjectService 地理对象数据访问
type GeoObjectService struct {
	mu   sync.RWMutex
	root *gorm.DB
	db   *gorm.DB
}

func NewGeoObjectService(db *gorm.DB) *GeoObjectService {
	if db == nil {
		db = models.GetDB()
	}
	return &GeoObjectService{
		root: db,
		db:   db.Session(&gorm.Session{NewDB: true}),
	}
}

func (s *GeoObjectService) conn() *gorm.DB {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db
}

// ClearTrackedState 丢弃当前会话状态，换一个新的gorm会话
func (s *GeoObjectService) ClearTrackedState() {
	s.mu.Lock()
	s.db = s.root.Session(&gorm.Session{NewDB: true})
	s.mu.Unlock()
}

// List 获取全部对象及完整聚合，同一事务内读取
func (s *GeoObjectService) List() ([]models.GeoObject, error) {
	objects := []models.GeoObject{}
	err := s.conn().Transaction(func(tx *gorm.DB) error {
		if err := tx.Order("created_at, id").Find(&objects).Error; err != nil {
			return err
		}
		return assemble(tx, objects, fullAggregate)
	}, snapshotRead)
	if err != nil {
		return nil, err
	}
	return objects, nil
}

// GetByID 按id获取完整聚合，不存在返回nil
func (s *GeoObjectService) GetByID(id uuid.UUID) (*models.GeoObject, error) {
	var obj *models.GeoObject
	err := s.conn().Transaction(func(tx *gorm.DB) error {
		var err error
		obj, err = loadAggregate(tx, id, fullAggregate)
		return err
	}, snapshotRead)
	return obj, err
}

// GetByName 按名称获取，只带拓扑连接
// 重名时取创建最早的，再按id排序
func (s *GeoObjectService) GetByName(name string) (*models.GeoObject, error) {
	var objects []models.GeoObject
	err := s.conn().Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("name = ?", name).Order("created_at, id").Limit(1).Find(&objects).Error; err != nil {
			return err
		}
		return assemble(tx, objects, linksOnly)
	}, snapshotRead)
	if err != nil {
		return nil, err
	}
	if len(objects) == 0 {
		return nil, nil
	}
	return &objects[0], nil
}

func loadAggregate(tx *gorm.DB, id uuid.UUID, parts aggregateParts) (*models.GeoObject, error) {
	var objects []models.GeoObject
	if err := tx.Where("id = ?", id).Limit(1).Find(&objects).Error; err != nil {
		return nil, err
	}
	if len(objects) == 0 {
		return nil, nil
	}
	if err := assemble(tx, objects, parts); err != nil {
		return nil, err
	}
	return &objects[0], nil
}

// Add 新建对象及内嵌的子实体，返回重新加载的聚合
func (s *GeoObjectService) Add(obj *models.GeoObject) (*models.GeoObject, error) {
	if obj == nil {
		return nil, errors.New("对象不能为空")
	}

	var created *models.GeoObject
	err := s.conn().Transaction(func(tx *gorm.DB) error {
		root := scalarsOf(obj)

		if obj.GeoNameFeature != nil {
			feature := *obj.GeoNameFeature
			if err := tx.Create(&feature).Error; err != nil {
				return fmt.Errorf("保存名称特征失败: %w", err)
			}
			root.GeoNameFeatureID = &feature.ID
		}
		if obj.GeometryVersion != nil {
			version := *obj.GeometryVersion
			if err := tx.Create(&version).Error; err != nil {
				return fmt.Errorf("保存几何失败: %w", err)
			}
			root.GeometryVersionID = &version.ID
		}
		if err := tx.Create(&root).Error; err != nil {
			return fmt.Errorf("保存对象失败: %w", err)
		}

		if err := applyLinkDiff(tx, diffLinks(nil, bindInputLinks(root.ID, obj.InputTopologyLinks))); err != nil {
			return fmt.Errorf("保存输入拓扑连接失败: %w", err)
		}
		if err := applyLinkDiff(tx, diffLinks(nil, bindOutputLinks(root.ID, obj.OutputTopologyLinks))); err != nil {
			return fmt.Errorf("保存输出拓扑连接失败: %w", err)
		}
		if obj.GeoObjectInfo != nil {
			if err := addInfo(tx, root.ID, obj.GeoObjectInfo); err != nil {
				return err
			}
		}
		if err := addRelations(tx, root.ID, obj.ParentGeoObjects, obj.ChildGeoObjects); err != nil {
			return err
		}
		for _, aspect := range obj.Aspects {
			if err := attachOrCreateAspect(tx, root.ID, aspect); err != nil {
				return err
			}
		}

		var err error
		created, err = loadAggregate(tx, root.ID, fullAggregate)
		if err != nil {
			return err
		}
		return writeRecord(tx, root.ID, models.RecordAdd, nil, created)
	})
	if err != nil {
		return nil, err
	}
	log.Debug().Str("id", created.ID.String()).Str("name", created.Name).Msg("对象已新建")
	return created, nil
}

// Update 覆盖标量字段并按id调和输入、输出拓扑连接，一个事务提交
func (s *GeoObjectService) Update(obj *models.GeoObject) error {
	if obj == nil {
		return errors.New("对象不能为空")
	}

	return s.conn().Transaction(func(tx *gorm.DB) error {
		existing, err := loadAggregate(tx, obj.ID, fullAggregate)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrGeoObjectNotFound
		}

		if err := tx.Model(&models.GeoObject{}).Where("id = ?", obj.ID).Updates(scalarColumns(obj)).Error; err != nil {
			return fmt.Errorf("更新对象失败: %w", err)
		}

		inputs := diffLinks(existing.InputTopologyLinks, bindInputLinks(obj.ID, obj.InputTopologyLinks))
		if err := applyLinkDiff(tx, inputs); err != nil {
			return fmt.Errorf("调和输入拓扑连接失败: %w", err)
		}
		outputs := diffLinks(existing.OutputTopologyLinks, bindOutputLinks(obj.ID, obj.OutputTopologyLinks))
		if err := applyLinkDiff(tx, outputs); err != nil {
			return fmt.Errorf("调和输出拓扑连接失败: %w", err)
		}

		updated, err := loadAggregate(tx, obj.ID, fullAggregate)
		if err != nil {
			return err
		}
		if !inputs.empty() || !outputs.empty() {
			log.Debug().
				Str("id", obj.ID.String()).
				Int("input_update", len(inputs.Update)).Int("input_insert", len(inputs.Insert)).Int("input_delete", len(inputs.Delete)).
				Int("output_update", len(outputs.Update)).Int("output_insert", len(outputs.Insert)).Int("output_delete", len(outputs.Delete)).
				Msg("拓扑连接已调和")
		}

		// 聚合没有变化时不写变更记录
		if sameAggregate(existing, updated) {
			return nil
		}
		return writeRecord(tx, obj.ID, models.RecordUpdate, existing, updated)
	})
}

// UpdateScalar 只更新对象表的标量字段，不动子集合
func (s *GeoObjectService) UpdateScalar(obj *models.GeoObject) error {
	if obj == nil {
		return errors.New("对象不能为空")
	}

	return s.conn().Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.GeoObject{}).Where("id = ?", obj.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrGeoObjectNotFound
		}
		if err := tx.Model(&models.GeoObject{}).Where("id = ?", obj.ID).Updates(scalarColumns(obj)).Error; err != nil {
			return fmt.Errorf("更新对象失败: %w", err)
		}
		return writeRecord(tx, obj.ID, models.RecordUpdateScalar, nil, nil)
	})
}

// Delete 删除对象，级联删除拓扑连接和父子关系，Aspect和元数据只解除关联
func (s *GeoObjectService) Delete(id uuid.UUID) (bool, string) {
	found := false
	err := s.conn().Transaction(func(tx *gorm.DB) error {
		existing, err := loadAggregate(tx, id, fullAggregate)
		if err != nil {
			return err
		}
		if existing == nil {
			return nil
		}
		found = true

		if err := tx.Where("geo_object_id = ?", id).Delete(&models.InputTopologyLink{}).Error; err != nil {
			return err
		}
		if err := tx.Where("geo_object_id = ?", id).Delete(&models.OutputTopologyLink{}).Error; err != nil {
			return err
		}
		if err := tx.Where("parent_id = ? OR child_id = ?", id, id).Delete(&models.GeoObjectRelation{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Aspect{}).Where("geo_object_id = ?", id).Update("geo_object_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.GeoObjectInfo{}).Where("geographical_object_id = ?", id).Update("geographical_object_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", id).Delete(&models.GeoObject{}).Error; err != nil {
			return err
		}
		return writeRecord(tx, id, models.RecordDelete, existing, nil)
	})
	if err != nil {
		log.Error().Err(err).Str("id", id.String()).Msg("删除对象失败")
		return false, err.Error()
	}
	if !found {
		return false, MsgGeoObjectNotFound
	}
	return true, MsgGeoObjectDeleted
}

// ListRecords 对象变更记录，新的在前
func (s *GeoObjectService) ListRecords(id uuid.UUID) ([]models.GeoObjectRecord, error) {
	records := []models.GeoObjectRecord{}
	if err := s.conn().Where("geo_object_id = ?", id).Order("id DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func scalarsOf(obj *models.GeoObject) models.GeoObject {
	return models.GeoObject{
		ID:                obj.ID,
		Name:              obj.Name,
		GeoNameFeatureID:  obj.GeoNameFeatureID,
		GeometryVersionID: obj.GeometryVersionID,
	}
}

func scalarColumns(obj *models.GeoObject) map[string]interface{} {
	return map[string]interface{}{
		"name":                obj.Name,
		"geo_name_feature_id": obj.GeoNameFeatureID,
		"geometry_version_id": obj.GeometryVersionID,
	}
}

func bindInputLinks(owner uuid.UUID, links []models.InputTopologyLink) []models.InputTopologyLink {
	bound := make([]models.InputTopologyLink, len(links))
	for i, l := range links {
		l.GeoObjectID = owner
		bound[i] = l
	}
	return bound
}

func bindOutputLinks(owner uuid.UUID, links []models.OutputTopologyLink) []models.OutputTopologyLink {
	bound := make([]models.OutputTopologyLink, len(links))
	for i, l := range links {
		l.GeoObjectID = owner
		bound[i] = l
	}
	return bound
}

func addInfo(tx *gorm.DB, owner uuid.UUID, in *models.GeoObjectInfo) error {
	info := *in
	info.GeographicalObjectID = &owner
	info.GeoClassifiers = nil
	info.GeoObjectsGeoClassifiers = nil
	if err := tx.Create(&info).Error; err != nil {
		return fmt.Errorf("保存元数据失败: %w", err)
	}

	for _, c := range in.GeoClassifiers {
		classifier := c
		var count int64
		if classifier.ID != uuid.Nil {
			if err := tx.Model(&models.GeoClassifier{}).Where("id = ?", classifier.ID).Count(&count).Error; err != nil {
				return err
			}
		}
		if count == 0 {
			if err := tx.Create(&classifier).Error; err != nil {
				return fmt.Errorf("保存分类失败: %w", err)
			}
		}
		join := models.GeoObjectsGeoClassifiers{GeoObjectInfoID: info.ID, GeoClassifierID: classifier.ID}
		if err := tx.Create(&join).Error; err != nil {
			return fmt.Errorf("保存分类关联失败: %w", err)
		}
	}
	return nil
}

func addRelations(tx *gorm.DB, id uuid.UUID, parents, children []models.GeoObject) error {
	parentSet := map[uuid.UUID]bool{}
	for _, p := range parents {
		parentSet[p.ID] = true
	}
	for _, c := range children {
		if c.ID == id || parentSet[c.ID] {
			return ErrRelationCycle
		}
	}

	edges := make([]models.GeoObjectRelation, 0, len(parents)+len(children))
	related := make([]uuid.UUID, 0, len(parents)+len(children))
	for _, p := range parents {
		if p.ID == id {
			return ErrRelationCycle
		}
		edges = append(edges, models.GeoObjectRelation{ParentID: p.ID, ChildID: id})
		related = append(related, p.ID)
	}
	for _, c := range children {
		edges = append(edges, models.GeoObjectRelation{ParentID: id, ChildID: c.ID})
		related = append(related, c.ID)
	}
	if len(edges) == 0 {
		return nil
	}

	var count int64
	if err := tx.Model(&models.GeoObject{}).Where("id IN ?", related).Count(&count).Error; err != nil {
		return err
	}
	if int(count) != len(uniqueIDs(related)) {
		return fmt.Errorf("父子对象: %w", ErrGeoObjectNotFound)
	}

	// 新边 parent -> id -> child；已有边中从child能走到id或任一parent即成环
	if len(children) > 0 {
		targets := uniqueIDs(append([]uuid.UUID{id}, idsOf(parents)...))
		found, err := reachesAny(tx, idsOf(children), targets)
		if err != nil {
			return err
		}
		if found {
			return ErrRelationCycle
		}
	}
	return tx.Create(&edges).Error
}

// reachesAny 沿已有父子边向下广度遍历，判断能否到达targets中的对象
func reachesAny(tx *gorm.DB, from []uuid.UUID, targets map[uuid.UUID]struct{}) (bool, error) {
	visited := make(map[uuid.UUID]struct{}, len(from))
	frontier := make([]uuid.UUID, 0, len(from))
	for _, f := range from {
		if _, ok := targets[f]; ok {
			return true, nil
		}
		if _, ok := visited[f]; !ok {
			visited[f] = struct{}{}
			frontier = append(frontier, f)
		}
	}

	for len(frontier) > 0 {
		var next []uuid.UUID
		if err := tx.Model(&models.GeoObjectRelation{}).Where("parent_id IN ?", frontier).Pluck("child_id", &next).Error; err != nil {
			return false, err
		}
		frontier = frontier[:0]
		for _, n := range next {
			if _, ok := targets[n]; ok {
				return true, nil
			}
			if _, ok := visited[n]; ok {
				continue
			}
			visited[n] = struct{}{}
			frontier = append(frontier, n)
		}
	}
	return false, nil
}

func idsOf(objects []models.GeoObject) []uuid.UUID {
	ids := make([]uuid.UUID, len(objects))
	for i, o := range objects {
		ids[i] = o.ID
	}
	return ids
}

// sameAggregate 比较两次加载的聚合序列化结果
func sameAggregate(a, b *models.GeoObject) bool {
	before, err := json.Marshal(a)
	if err != nil {
		return false
	}
	after, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(before, after)
}

func uniqueIDs(ids []uuid.UUID) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func writeRecord(tx *gorm.DB, id uuid.UUID, kind string, before, after *models.GeoObject) error {
	record := models.GeoObjectRecord{
		GeoObjectID: id,
		Type:        kind,
		Date:        time.Now().Format("2006-01-02 15:04:05"),
	}
	if before != nil {
		data, err := json.Marshal(before)
		if err != nil {
			return err
		}
		record.OldAggregate = data
	}
	if after != nil {
		data, err := json.Marshal(after)
		if err != nil {
			return err
		}
		record.NewAggregate = data
	}
	return tx.Create(&record).Error
}

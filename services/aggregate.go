package services

import (
	"github.com/GrainArc/GeoObjectServer/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// aggregateParts 聚合组装时需要加载的部分
type aggregateParts struct {
	nameFeature bool
	geometry    bool
	info        bool
	relations   bool
	links       bool
	aspects     bool
}

var fullAggregate = aggregateParts{true, true, true, true, true, true}
var linksOnly = aggregateParts{links: true}

// assemble 对一批对象按需批量查询各部分并回填，每部分一条查询
func assemble(db *gorm.DB, objects []models.GeoObject, parts aggregateParts) error {
	if len(objects) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(objects))
	index := make(map[uuid.UUID]*models.GeoObject, len(objects))
	for i := range objects {
		o := &objects[i]
		ids[i] = o.ID
		index[o.ID] = o
		o.ParentGeoObjects = []models.GeoObject{}
		o.ChildGeoObjects = []models.GeoObject{}
		o.InputTopologyLinks = []models.InputTopologyLink{}
		o.OutputTopologyLinks = []models.OutputTopologyLink{}
		o.Aspects = []models.Aspect{}
	}

	if parts.nameFeature {
		if err := assembleNameFeatures(db, objects); err != nil {
			return err
		}
	}
	if parts.geometry {
		if err := assembleGeometry(db, objects); err != nil {
			return err
		}
	}
	if parts.info {
		if err := assembleInfo(db, ids, index); err != nil {
			return err
		}
	}
	if parts.relations {
		if err := assembleRelations(db, ids, index); err != nil {
			return err
		}
	}
	if parts.links {
		var inputs []models.InputTopologyLink
		if err := db.Where("geo_object_id IN ?", ids).Order("id").Find(&inputs).Error; err != nil {
			return err
		}
		for _, l := range inputs {
			o := index[l.GeoObjectID]
			o.InputTopologyLinks = append(o.InputTopologyLinks, l)
		}

		var outputs []models.OutputTopologyLink
		if err := db.Where("geo_object_id IN ?", ids).Order("id").Find(&outputs).Error; err != nil {
			return err
		}
		for _, l := range outputs {
			o := index[l.GeoObjectID]
			o.OutputTopologyLinks = append(o.OutputTopologyLinks, l)
		}
	}
	if parts.aspects {
		var aspects []models.Aspect
		if err := db.Where("geo_object_id IN ?", ids).Order("id").Find(&aspects).Error; err != nil {
			return err
		}
		for _, a := range aspects {
			o := index[*a.GeoObjectID]
			o.Aspects = append(o.Aspects, a)
		}
	}
	return nil
}

func assembleNameFeatures(db *gorm.DB, objects []models.GeoObject) error {
	var fids []uuid.UUID
	for _, o := range objects {
		if o.GeoNameFeatureID != nil {
			fids = append(fids, *o.GeoNameFeatureID)
		}
	}
	if len(fids) == 0 {
		return nil
	}
	var features []models.GeoNameFeature
	if err := db.Where("id IN ?", fids).Find(&features).Error; err != nil {
		return err
	}
	byID := make(map[uuid.UUID]models.GeoNameFeature, len(features))
	for _, f := range features {
		byID[f.ID] = f
	}
	for i := range objects {
		if id := objects[i].GeoNameFeatureID; id != nil {
			if f, ok := byID[*id]; ok {
				objects[i].GeoNameFeature = &f
			}
		}
	}
	return nil
}

func assembleGeometry(db *gorm.DB, objects []models.GeoObject) error {
	var gids []uuid.UUID
	for _, o := range objects {
		if o.GeometryVersionID != nil {
			gids = append(gids, *o.GeometryVersionID)
		}
	}
	if len(gids) == 0 {
		return nil
	}
	var versions []models.GeometryVersion
	if err := db.Where("id IN ?", gids).Find(&versions).Error; err != nil {
		return err
	}
	byID := make(map[uuid.UUID]models.GeometryVersion, len(versions))
	for _, v := range versions {
		byID[v.ID] = v
	}
	for i := range objects {
		if id := objects[i].GeometryVersionID; id != nil {
			if v, ok := byID[*id]; ok {
				objects[i].GeometryVersion = &v
			}
		}
	}
	return nil
}

// assembleInfo 元数据及其分类（经关联表）
func assembleInfo(db *gorm.DB, ids []uuid.UUID, index map[uuid.UUID]*models.GeoObject) error {
	var infos []models.GeoObjectInfo
	if err := db.Where("geographical_object_id IN ?", ids).Find(&infos).Error; err != nil {
		return err
	}
	if len(infos) == 0 {
		return nil
	}

	infoIDs := make([]uuid.UUID, len(infos))
	for i, info := range infos {
		infoIDs[i] = info.ID
	}
	var joins []models.GeoObjectsGeoClassifiers
	if err := db.Where("geo_object_info_id IN ?", infoIDs).Order("id").Find(&joins).Error; err != nil {
		return err
	}

	classifiers := map[uuid.UUID]models.GeoClassifier{}
	if len(joins) > 0 {
		cids := make([]uuid.UUID, len(joins))
		for i, j := range joins {
			cids[i] = j.GeoClassifierID
		}
		var found []models.GeoClassifier
		if err := db.Where("id IN ?", cids).Find(&found).Error; err != nil {
			return err
		}
		for _, c := range found {
			classifiers[c.ID] = c
		}
	}

	for i := range infos {
		info := infos[i]
		info.GeoClassifiers = []models.GeoClassifier{}
		info.GeoObjectsGeoClassifiers = []models.GeoObjectsGeoClassifiers{}
		for _, j := range joins {
			if j.GeoObjectInfoID != info.ID {
				continue
			}
			info.GeoObjectsGeoClassifiers = append(info.GeoObjectsGeoClassifiers, j)
			if c, ok := classifiers[j.GeoClassifierID]; ok {
				info.GeoClassifiers = append(info.GeoClassifiers, c)
			}
		}
		// 一个对象只挂一条元数据，多条时取第一条
		if o := index[*info.GeographicalObjectID]; o.GeoObjectInfo == nil {
			o.GeoObjectInfo = &info
		}
	}
	return nil
}

// assembleRelations 父对象和子对象只带标量字段
func assembleRelations(db *gorm.DB, ids []uuid.UUID, index map[uuid.UUID]*models.GeoObject) error {
	var relations []models.GeoObjectRelation
	if err := db.Where("parent_id IN ? OR child_id IN ?", ids, ids).Order("id").Find(&relations).Error; err != nil {
		return err
	}
	if len(relations) == 0 {
		return nil
	}

	var related []uuid.UUID
	for _, r := range relations {
		related = append(related, r.ParentID, r.ChildID)
	}
	var shallow []models.GeoObject
	if err := db.Where("id IN ?", related).Find(&shallow).Error; err != nil {
		return err
	}
	byID := make(map[uuid.UUID]models.GeoObject, len(shallow))
	for _, s := range shallow {
		byID[s.ID] = s
	}

	for _, r := range relations {
		if child, ok := index[r.ChildID]; ok {
			if parent, found := byID[r.ParentID]; found {
				child.ParentGeoObjects = append(child.ParentGeoObjects, parent)
			}
		}
		if parent, ok := index[r.ParentID]; ok {
			if child, found := byID[r.ChildID]; found {
				parent.ChildGeoObjects = append(parent.ChildGeoObjects, child)
			}
		}
	}
	return nil
}

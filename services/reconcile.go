package services

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// identified 带id的子集合元素
type identified interface {
	LinkID() uuid.UUID
}

// linkDiff 子集合差异
type linkDiff[T identified] struct {
	Update []T // incoming ∩ persisted
	Insert []T // incoming \ persisted
	Delete []T // persisted \ incoming
}

func (d linkDiff[T]) empty() bool {
	return len(d.Update) == 0 && len(d.Insert) == 0 && len(d.Delete) == 0
}

// diffLinks 按id比较已存集合与传入集合
// 传入集合中id重复时后者覆盖前者；零id视为新增
func diffLinks[T identified](persisted, incoming []T) linkDiff[T] {
	var d linkDiff[T]

	existing := make(map[uuid.UUID]struct{}, len(persisted))
	for _, p := range persisted {
		existing[p.LinkID()] = struct{}{}
	}

	seen := make(map[uuid.UUID]int, len(incoming))
	for _, in := range incoming {
		id := in.LinkID()
		if id == uuid.Nil {
			d.Insert = append(d.Insert, in)
			continue
		}
		if _, ok := existing[id]; ok {
			if idx, dup := seen[id]; dup {
				d.Update[idx] = in
				continue
			}
			seen[id] = len(d.Update)
			d.Update = append(d.Update, in)
			continue
		}
		if idx, dup := seen[id]; dup {
			d.Insert[idx] = in
			continue
		}
		seen[id] = len(d.Insert)
		d.Insert = append(d.Insert, in)
	}

	for _, p := range persisted {
		if _, ok := seen[p.LinkID()]; !ok {
			d.Delete = append(d.Delete, p)
		}
	}
	return d
}

// applyLinkDiff 顺序：更新、新增、删除
func applyLinkDiff[T identified](tx *gorm.DB, d linkDiff[T]) error {
	for i := range d.Update {
		if err := tx.Save(&d.Update[i]).Error; err != nil {
			return err
		}
	}
	if len(d.Insert) > 0 {
		if err := tx.Create(&d.Insert).Error; err != nil {
			return err
		}
	}
	if len(d.Delete) > 0 {
		ids := make([]uuid.UUID, len(d.Delete))
		for i, l := range d.Delete {
			ids[i] = l.LinkID()
		}
		if err := tx.Where("id IN ?", ids).Delete(new(T)).Error; err != nil {
			return err
		}
	}
	return nil
}

package editor

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
)

// ObjectType 编辑对象类型
type ObjectType string

const (
	Point    ObjectType = "Point"
	PolyLine ObjectType = "PolyLine"
	Polygon  ObjectType = "Polygon"
)

var (
	ErrNotEnoughPoints = errors.New("选中的点数量不足")
	ErrInvalidTarget   = errors.New("只能合并为线或面")
	ErrInvalidType     = errors.New("地图点击只能新建点")
	ErrObjectNotFound  = errors.New("编辑对象不存在")
)

// minPoints 合并所需的最少选中点数
var minPoints = map[ObjectType]int{
	PolyLine: 2,
	Polygon:  3,
}

// EditorObject 会话中的编辑对象，Readonly 表示从存储载入而非本会话新建
type EditorObject struct {
	ID       uuid.UUID
	Type     ObjectType
	Geometry orb.Geometry
	Selected bool
	Readonly bool
}

// Synchronizer 会话与数据访问之间的同步边界
type Synchronizer interface {
	Create(obj EditorObject) error
	Delete(id uuid.UUID) error
}

// MapSurface 地图控件
type MapSurface interface {
	ClosePopup()
}

// Session 一次编辑会话的状态
// 状态方法只能在同一个事件循环里调用；持久化在后台按顺序执行，不阻塞调用方
type Session struct {
	objects []EditorObject
	sync    Synchronizer
	surface MapSurface

	ops     chan func(Synchronizer) error
	pending sync.WaitGroup
	done    chan struct{}
	closed  bool

	Created int
	Deleted int
}

func NewSession(s Synchronizer, surface MapSurface) *Session {
	session := &Session{
		sync:    s,
		surface: surface,
		ops:     make(chan func(Synchronizer) error, 256),
		done:    make(chan struct{}),
	}
	go session.run()
	return session
}

func (s *Session) run() {
	defer close(s.done)
	for op := range s.ops {
		if err := op(s.sync); err != nil {
			log.Error().Err(err).Msg("编辑对象同步失败")
		}
		s.pending.Done()
	}
}

func (s *Session) dispatch(op func(Synchronizer) error) {
	if s.sync == nil || s.closed {
		return
	}
	s.pending.Add(1)
	s.ops <- op
}

// Wait 等待已派发的持久化操作完成
func (s *Session) Wait() {
	s.pending.Wait()
}

// Close 执行完剩余操作后停止后台同步
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.ops)
	<-s.done
}

func (s *Session) closePopup() {
	if s.surface != nil {
		s.surface.ClosePopup()
	}
}

// Restore 载入已持久化的对象，标记为只读
func (s *Session) Restore(objects []EditorObject) {
	for _, o := range objects {
		o.Readonly = true
		o.Selected = false
		s.objects = append(s.objects, o)
	}
}

// Objects 当前对象快照
func (s *Session) Objects() []EditorObject {
	out := make([]EditorObject, len(s.objects))
	copy(out, s.objects)
	return out
}

func (s *Session) indexOf(id uuid.UUID) int {
	for i, o := range s.objects {
		if o.ID == id {
			return i
		}
	}
	return -1
}

// HandleMapClick 地图点击新建点
func (s *Session) HandleMapClick(lat, lng float64) (EditorObject, error) {
	return s.AddObject(Point, lat, lng)
}

// AddObject 在给定坐标追加一个点对象
func (s *Session) AddObject(t ObjectType, lat, lng float64) (EditorObject, error) {
	if t != Point {
		return EditorObject{}, ErrInvalidType
	}
	obj := EditorObject{
		ID:       uuid.New(),
		Type:     Point,
		Geometry: orb.Point{lng, lat},
	}
	s.objects = append(s.objects, obj)
	s.Created++
	s.dispatch(func(store Synchronizer) error {
		return store.Create(obj)
	})
	return obj, nil
}

// ToggleObjectSelect 切换选中状态
func (s *Session) ToggleObjectSelect(id uuid.UUID) error {
	i := s.indexOf(id)
	if i < 0 {
		return ErrObjectNotFound
	}
	s.objects[i].Selected = !s.objects[i].Selected
	return nil
}

// DeleteObject 从会话和存储中删除对象，载入的对象同样删除
func (s *Session) DeleteObject(id uuid.UUID) error {
	i := s.indexOf(id)
	if i < 0 {
		return ErrObjectNotFound
	}
	s.objects = append(s.objects[:i], s.objects[i+1:]...)
	s.Deleted++
	s.dispatch(func(store Synchronizer) error {
		return store.Delete(id)
	})
	return nil
}

// SelectedByType 某一类型中选中的对象，保持会话顺序
func (s *Session) SelectedByType(t ObjectType) []EditorObject {
	var out []EditorObject
	for _, o := range s.objects {
		if o.Type == t && o.Selected {
			out = append(out, o)
		}
	}
	return out
}

// UnitePointsTo 把选中的点合并为一条线或一个面，源点从会话和存储中移除
func (s *Session) UnitePointsTo(target ObjectType) (EditorObject, error) {
	need, ok := minPoints[target]
	if !ok {
		return EditorObject{}, ErrInvalidTarget
	}
	s.closePopup()

	points := s.SelectedByType(Point)
	if len(points) < need {
		return EditorObject{}, fmt.Errorf("%w: %s 需要%d个，已选%d个", ErrNotEnoughPoints, target, need, len(points))
	}

	line := make(orb.LineString, 0, len(points)+1)
	for _, p := range points {
		if pt, ok := p.Geometry.(orb.Point); ok {
			line = append(line, pt)
		}
	}
	if len(line) < need {
		return EditorObject{}, fmt.Errorf("%w: %s 需要%d个，已选%d个", ErrNotEnoughPoints, target, need, len(line))
	}

	var geometry orb.Geometry = line
	if target == Polygon {
		ring := append(orb.Ring(line), line[0])
		geometry = orb.Polygon{ring}
	}
	united := EditorObject{
		ID:       uuid.New(),
		Type:     target,
		Geometry: geometry,
	}

	for _, p := range points {
		if err := s.DeleteObject(p.ID); err != nil {
			return EditorObject{}, err
		}
	}

	s.objects = append(s.objects, united)
	s.Created++
	s.dispatch(func(store Synchronizer) error {
		return store.Create(united)
	})
	return united, nil
}

// handleEvent 对某一类型的全部选中对象执行同一操作，先关闭弹窗
func (s *Session) handleEvent(t ObjectType, fn func(uuid.UUID) error) []error {
	s.closePopup()

	var errs []error
	for _, o := range s.SelectedByType(t) {
		if err := fn(o.ID); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// ClearSelection 取消某一类型的全部选中
func (s *Session) ClearSelection(t ObjectType) []error {
	return s.handleEvent(t, s.ToggleObjectSelect)
}

// DeleteSelected 删除某一类型的全部选中对象
func (s *Session) DeleteSelected(t ObjectType) []error {
	return s.handleEvent(t, s.DeleteObject)
}

// FeatureCollection 会话状态转为GeoJSON
func (s *Session) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, o := range s.objects {
		f := geojson.NewFeature(o.Geometry)
		f.ID = o.ID.String()
		f.Properties["_id"] = o.ID.String()
		f.Properties["type"] = string(o.Type)
		f.Properties["selected"] = o.Selected
		f.Properties["readonly"] = o.Readonly
		fc.Append(f)
	}
	return fc
}

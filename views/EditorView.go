package views

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/GrainArc/GeoObjectServer/editor"
	"github.com/GrainArc/GeoObjectServer/models"
	"github.com/GrainArc/GeoObjectServer/services"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// 地图编辑会话

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 生产环境需要严格检查
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type EditorHandler struct {
	objects  *services.GeoObjectService
	sessions *services.EditSessionService
	validate *validator.Validate
}

func NewEditorHandler(objects *services.GeoObjectService, sessions *services.EditSessionService) *EditorHandler {
	return &EditorHandler{
		objects:  objects,
		sessions: sessions,
		validate: validator.New(),
	}
}

// editorConn 一个websocket连接，写操作加锁
type editorConn struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

func (ec *editorConn) send(resp models.EditorResponse) {
	ec.mu.Lock()
	err := ec.conn.WriteJSON(resp)
	ec.mu.Unlock()
	if err != nil {
		log.Warn().Err(err).Msg("编辑器消息发送失败")
		ec.cancel()
	}
}

// ClosePopup 通知前端关闭地图弹窗
func (ec *editorConn) ClosePopup() {
	ec.send(models.EditorResponse{Type: "command", Command: "closePopup"})
}

// Socket 升级到 WebSocket 并开启编辑会话
// @Param username query string false "用户名"
func (h *EditorHandler) Socket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket升级失败")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	ec := &editorConn{conn: conn, ctx: ctx, cancel: cancel}

	record, err := h.sessions.Open(c.DefaultQuery("username", "本地"))
	if err != nil {
		ec.send(models.EditorResponse{Type: "error", Message: err.Error()})
		cancel()
		conn.Close()
		return
	}

	store := editor.NewRepositorySync(h.objects)
	session := editor.NewSession(store, ec)
	if persisted, err := store.Load(); err != nil {
		log.Warn().Err(err).Msg("加载已有对象失败")
	} else {
		session.Restore(persisted)
	}

	defer func() {
		cancel()
		session.Close()
		if err := h.sessions.Close(record.ID, session.Created, session.Deleted); err != nil {
			log.Warn().Err(err).Int64("session", record.ID).Msg("关闭编辑会话失败")
		}
		conn.Close()
		log.Info().Int64("session", record.ID).Msg("编辑会话已关闭")
	}()

	ec.send(models.EditorResponse{Type: "state", State: session.FeatureCollection()})
	go h.heartbeat(ec)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		var msg models.EditorMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Msg("websocket异常关闭")
			}
			return
		}
		if err := h.validate.Struct(msg); err != nil {
			ec.send(models.EditorResponse{Type: "error", Message: err.Error()})
			continue
		}
		if err := applyEditorMessage(session, msg); err != nil {
			ec.send(models.EditorResponse{Type: "error", Message: err.Error()})
		}
		ec.send(models.EditorResponse{Type: "state", State: session.FeatureCollection()})
	}
}

func (h *EditorHandler) heartbeat(ec *editorConn) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ec.ctx.Done():
			return
		case <-ticker.C:
			ec.mu.Lock()
			err := ec.conn.WriteMessage(websocket.PingMessage, nil)
			ec.mu.Unlock()
			if err != nil {
				ec.cancel()
				return
			}
		}
	}
}

// applyEditorMessage 把一条消息转成会话操作
func applyEditorMessage(session *editor.Session, msg models.EditorMessage) error {
	switch msg.Action {
	case "click":
		_, err := session.HandleMapClick(msg.Lat, msg.Lng)
		return err
	case "toggle", "delete":
		id, err := uuid.Parse(msg.ID)
		if err != nil {
			return errors.New("缺少对象id")
		}
		if msg.Action == "toggle" {
			return session.ToggleObjectSelect(id)
		}
		return session.DeleteObject(id)
	case "unite":
		_, err := session.UnitePointsTo(editor.ObjectType(msg.Type))
		return err
	case "clear_selection":
		return errors.Join(session.ClearSelection(editor.ObjectType(msg.Type))...)
	case "delete_selected":
		return errors.Join(session.DeleteSelected(editor.ObjectType(msg.Type))...)
	}
	return nil
}

package models

// models/edit_session.go

const (
	EditSessionActive = "active"
	EditSessionClosed = "closed"
)

// EditSession 地图编辑会话，一个websocket连接对应一条
type EditSession struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string `gorm:"type:varchar(255)" json:"username"`
	CreatedAt string `gorm:"type:varchar(255)" json:"created_at"`
	ClosedAt  string `gorm:"type:varchar(255)" json:"closed_at"`
	Status    string `gorm:"type:varchar(50);index" json:"status"` // active / closed
	Created   int    `json:"created"`                              // 会话内新建对象数
	Deleted   int    `json:"deleted"`                              // 会话内删除对象数
}

func (EditSession) TableName() string {
	return "edit_session"
}

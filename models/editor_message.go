// models/editor_message.go
package models

import (
	"github.com/paulmach/orb/geojson"
)

// EditorMessage 编辑器websocket上行消息
type EditorMessage struct {
	Action string  `json:"action" validate:"required,oneof=click toggle delete unite clear_selection delete_selected state"`
	Lat    float64 `json:"lat" validate:"latitude"`                                // click
	Lng    float64 `json:"lng" validate:"longitude"`                               // click
	ID     string  `json:"id" validate:"omitempty,uuid"`                           // toggle / delete
	Type   string  `json:"type" validate:"omitempty,oneof=Point PolyLine Polygon"` // unite / clear_selection / delete_selected
}

// EditorResponse 编辑器websocket下行消息
type EditorResponse struct {
	Type    string                     `json:"type"`              // "state" / "error" / "command"
	Command string                     `json:"command,omitempty"` // closePopup
	State   *geojson.FeatureCollection `json:"state,omitempty"`
	Message string                     `json:"message,omitempty"`
}

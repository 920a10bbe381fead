package server

// EditorMessage is the envelope for editor websocket requests. Type selects
// the operation; the remaining fields are read per-operation.
type EditorMessage struct {
	Type string `json:"type"`

	// Node operations
	Schema string `json:"schema,omitempty"`
	Class  string `json:"class,omitempty"`
	NodeID int    `json:"node_id,omitempty"`

	// Link operations
	LinkID     int `json:"link_id,omitempty"`
	Origin     int `json:"origin,omitempty"`
	OriginSlot int `json:"origin_slot,omitempty"`
	Target     int `json:"target,omitempty"`
	TargetSlot int `json:"target_slot,omitempty"`

	// Native value writes
	Field string      `json:"field,omitempty"`
	Value interface{} `json:"value,omitempty"`

	// Config import
	Config map[string]interface{} `json:"config,omitempty"`
}

// editorResponse is the envelope for editor websocket replies
type editorResponse struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
	Error   string      `json:"error,omitempty"`
}

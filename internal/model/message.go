package model

import "time"

// ChatMessage WebSocket 聊天消息
type ChatMessage struct {
	MessageID string             `json:"messageId"`
	Type      string             `json:"type"` // CHAT, HEARTBEAT, DIAGNOSIS_REPLY
	Content   string             `json:"content"`
	Images    []ImagePayload     `json:"images,omitempty"`
	Audios    []AudioPayload     `json:"audios,omitempty"`
	Palpation []PalpationReading `json:"palpation,omitempty"`
	Sender    int64              `json:"sender"`
	SessionID string             `json:"sessionId,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// ChatAck 消息确认响应
type ChatAck struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Message   string `json:"message"`
}

// DiagnosisReply 推送给用户的诊断回复消息
type DiagnosisReply struct {
	MessageID string     `json:"messageId"`
	Type      string     `json:"type"` // DIAGNOSIS_REPLY
	Reply     *ChatReply `json:"reply"`
	Timestamp time.Time  `json:"timestamp"`
}

package model

import "time"

// ModalityResult 单诊法分析结果，仅在一次请求内有效
type ModalityResult struct {
	Modality          Modality `json:"modality"`
	DetectedSymptoms  []string `json:"detectedSymptoms,omitempty"`
	OverallAssessment string   `json:"overallAssessment"`
	Confidence        float64  `json:"confidence"`
}

// HealthRecommendation 健康建议
type HealthRecommendation struct {
	Category string `json:"category"` // lifestyle, followup 等
	Content  string `json:"content"`
	Priority int    `json:"priority"`
}

// IntegratedDiagnosis 综合辨证结果，仅当同一请求内存在两个及以上诊法结果时生成
type IntegratedDiagnosis struct {
	Evidence          []string               `json:"evidence"`
	OverallAssessment string                 `json:"overallAssessment"`
	Syndrome          string                 `json:"syndrome"`     // 证型
	Pathogenesis      string                 `json:"pathogenesis"` // 病机
	Treatment         string                 `json:"treatment"`    // 治法
	Prognosis         string                 `json:"prognosis"`    // 预后
	Recommendations   []HealthRecommendation `json:"recommendations"`
	Confidence        float64                `json:"confidence"`
}

// DiagnosisAction 建议的下一步诊断动作
type DiagnosisAction struct {
	Modality  Modality `json:"modality"`
	Prompt    string   `json:"prompt"`
	Priority  int      `json:"priority"`
	Required  bool     `json:"required"`
	AutoStart bool     `json:"autoStart"`
}

// ChatReply 一次调度的最终输出，每次调用重新构建，调度器不保留
type ChatReply struct {
	ReplyID     string               `json:"replyId"`
	Text        string               `json:"text"`
	Actions     []DiagnosisAction    `json:"actions"`
	Suggestions []string             `json:"suggestions"`
	Results     []ModalityResult     `json:"diagnosisResults"`
	Integrated  *IntegratedDiagnosis `json:"integrated,omitempty"`
	Degraded    bool                 `json:"degraded"`
	Timestamp   time.Time            `json:"timestamp"`
}

package model

// UrgencyLevel 紧急程度
type UrgencyLevel string

const (
	UrgencyLow       UrgencyLevel = "low"
	UrgencyMedium    UrgencyLevel = "medium"
	UrgencyHigh      UrgencyLevel = "high"
	UrgencyEmergency UrgencyLevel = "emergency"
)

// Urgent 是否需要紧急提示
func (u UrgencyLevel) Urgent() bool {
	return u == UrgencyHigh || u == UrgencyEmergency
}

// IntentRecord 意图识别结果，每条消息生成一份，不持久化
type IntentRecord struct {
	NeedsInquiry   bool `json:"needsInquiry"`
	NeedsLook      bool `json:"needsLook"`
	NeedsListen    bool `json:"needsListen"`
	NeedsPalpation bool `json:"needsPalpation"`

	// ExtractedSymptoms 按在消息中出现先后排序、去重后的症状词
	ExtractedSymptoms []string     `json:"extractedSymptoms"`
	Urgency           UrgencyLevel `json:"urgencyLevel"`
	Confidence        float64      `json:"confidence"`
}

// Needs 判断某诊法是否被标记
func (r IntentRecord) Needs(m Modality) bool {
	switch m {
	case ModalityInquiry:
		return r.NeedsInquiry
	case ModalityLook:
		return r.NeedsLook
	case ModalityListen:
		return r.NeedsListen
	case ModalityPalpation:
		return r.NeedsPalpation
	}
	return false
}

// Any 是否有任一诊法被标记
func (r IntentRecord) Any() bool {
	return r.NeedsInquiry || r.NeedsLook || r.NeedsListen || r.NeedsPalpation
}

// NeedCount 被标记的诊法数量
func (r IntentRecord) NeedCount() int {
	count := 0
	for _, m := range AllModalities {
		if r.Needs(m) {
			count++
		}
	}
	return count
}

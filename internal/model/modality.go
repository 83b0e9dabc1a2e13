package model

// Modality 诊法枚举（四诊）
type Modality string

const (
	ModalityInquiry   Modality = "inquiry"   // 问诊
	ModalityLook      Modality = "look"      // 望诊
	ModalityListen    Modality = "listen"    // 闻诊
	ModalityPalpation Modality = "palpation" // 切诊
)

// AllModalities 固定顺序的全部诊法，响应结果按此顺序排列
var AllModalities = [4]Modality{
	ModalityInquiry,
	ModalityLook,
	ModalityListen,
	ModalityPalpation,
}

// Valid 判断是否为合法诊法
func (m Modality) Valid() bool {
	switch m {
	case ModalityInquiry, ModalityLook, ModalityListen, ModalityPalpation:
		return true
	}
	return false
}

// Label 诊法中文名
func (m Modality) Label() string {
	switch m {
	case ModalityInquiry:
		return "问诊"
	case ModalityLook:
		return "望诊"
	case ModalityListen:
		return "闻诊"
	case ModalityPalpation:
		return "切诊"
	}
	return string(m)
}

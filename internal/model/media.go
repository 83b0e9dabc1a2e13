package model

// ImagePayload 望诊图片，Data 为 base64 编码内容或可访问 URL
type ImagePayload struct {
	Tag  string `json:"tag"` // tongue, face 等
	Data string `json:"data"`
}

// AudioPayload 闻诊音频
type AudioPayload struct {
	Tag  string `json:"tag"` // cough, voice 等
	Data string `json:"data"`
}

// PalpationReading 切诊传感器数据
type PalpationReading struct {
	Tag  string `json:"tag"` // pulse 等
	Data string `json:"data"`
}

// MediaContext 一次对话请求携带的用户与多模态数据
type MediaContext struct {
	UserID    int64              `json:"userId"`
	Images    []ImagePayload     `json:"images,omitempty"`
	Audios    []AudioPayload     `json:"audios,omitempty"`
	Palpation []PalpationReading `json:"palpation,omitempty"`
}

// HasImages 是否附带图片
func (c MediaContext) HasImages() bool { return len(c.Images) > 0 }

// HasAudio 是否附带音频
func (c MediaContext) HasAudio() bool { return len(c.Audios) > 0 }

// HasPalpationData 是否附带切诊数据
func (c MediaContext) HasPalpationData() bool { return len(c.Palpation) > 0 }

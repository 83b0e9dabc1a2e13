package dispatch

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/suokelife/suoke-dispatch-go/internal/model"
)

// 固定快捷回复
var quickSuggestions = []string{
	"继续描述症状",
	"上传舌象照片",
	"录制语音",
	"查看详细报告",
}

// 降级响应的固定文案与建议
const degradedText = "抱歉，诊断服务暂时不可用，请稍后再试。"

var degradedSuggestions = []string{
	"稍后重试",
	"查看历史报告",
	"联系人工客服",
}

// Composer 响应组装器
// Compose 对相同输入产生相同文本（ReplyID 与时间戳除外）
type Composer struct{}

// NewComposer 创建响应组装器
func NewComposer() *Composer {
	return &Composer{}
}

// Compose 根据意图与诊法结果组装用户可见回复
func (c *Composer) Compose(rec model.IntentRecord, results []model.ModalityResult, integrated *model.IntegratedDiagnosis) *model.ChatReply {
	var sb strings.Builder

	// 开场语按紧急程度选择
	switch {
	case rec.Urgency.Urgent():
		sb.WriteString("您描述的情况需要重视，建议尽快就医。")
	case len(rec.ExtractedSymptoms) > 0:
		fmt.Fprintf(&sb, "了解到您有以下症状：%s。", strings.Join(rec.ExtractedSymptoms, "、"))
	default:
		sb.WriteString("您好，我是小艾，让我来帮您了解您的健康状况。")
	}

	if integrated != nil {
		sb.WriteString("\n")
		sb.WriteString(integrated.OverallAssessment)
		for _, r := range integrated.Recommendations {
			sb.WriteString("\n- ")
			sb.WriteString(r.Content)
		}
	} else {
		for _, res := range results {
			fmt.Fprintf(&sb, "\n【%s】%s", res.Modality.Label(), res.OverallAssessment)
		}
	}

	return &model.ChatReply{
		ReplyID:     uuid.New().String(),
		Text:        sb.String(),
		Actions:     c.buildActions(rec, results),
		Suggestions: quickSuggestions,
		Results:     results,
		Integrated:  integrated,
		Timestamp:   time.Now(),
	}
}

// ComposeDegraded 所有被调用的诊法都失败时的降级回复
func (c *Composer) ComposeDegraded() *model.ChatReply {
	return &model.ChatReply{
		ReplyID:     uuid.New().String(),
		Text:        degradedText,
		Suggestions: degradedSuggestions,
		Degraded:    true,
		Timestamp:   time.Now(),
	}
}

// buildActions 生成下一步诊断动作
// 问诊动作只要意图标记即附加（单轮交互不等于问诊完成，由前端驱动完整对话）；
// 望/闻/切仅在被标记但缺少结果时附加
func (c *Composer) buildActions(rec model.IntentRecord, results []model.ModalityResult) []model.DiagnosisAction {
	present := make(map[model.Modality]bool, len(results))
	for _, r := range results {
		present[r.Modality] = true
	}

	var actions []model.DiagnosisAction
	if rec.NeedsInquiry {
		actions = append(actions, model.DiagnosisAction{
			Modality:  model.ModalityInquiry,
			Prompt:    "开始问诊对话，进一步了解您的症状",
			Priority:  1,
			Required:  true,
			AutoStart: true,
		})
	}
	if rec.NeedsLook && !present[model.ModalityLook] {
		actions = append(actions, model.DiagnosisAction{
			Modality: model.ModalityLook,
			Prompt:   "上传舌象或面部照片进行望诊",
			Priority: 2,
		})
	}
	if rec.NeedsListen && !present[model.ModalityListen] {
		actions = append(actions, model.DiagnosisAction{
			Modality: model.ModalityListen,
			Prompt:   "录制咳嗽或语音进行闻诊",
			Priority: 3,
		})
	}
	if rec.NeedsPalpation && !present[model.ModalityPalpation] {
		actions = append(actions, model.DiagnosisAction{
			Modality: model.ModalityPalpation,
			Prompt:   "连接脉诊设备进行切诊",
			Priority: 4,
		})
	}
	return actions
}

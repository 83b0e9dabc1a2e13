package intent

import (
	"sort"
	"strings"

	"github.com/suokelife/suoke-dispatch-go/internal/model"
)

// Classifier 意图识别器
// Classify 是纯函数：相同输入必然产生相同结果，无 I/O，不会失败
type Classifier struct {
	vocab *Vocabulary
}

// NewClassifier 创建意图识别器
func NewClassifier(vocab *Vocabulary) *Classifier {
	return &Classifier{vocab: vocab}
}

// Classify 识别消息意图
// 空消息且无附带数据时返回：全部诊法为否，置信度 0.5，紧急程度 low
func (c *Classifier) Classify(message string, media model.MediaContext) model.IntentRecord {
	symptoms := matchAll(message, c.vocab.Symptoms)

	rec := model.IntentRecord{
		NeedsInquiry:      len(symptoms) > 0,
		NeedsLook:         media.HasImages() || matchAny(message, c.vocab.LookTriggers),
		NeedsListen:       media.HasAudio() || matchAny(message, c.vocab.ListenTriggers),
		NeedsPalpation:    media.HasPalpationData() || matchAny(message, c.vocab.PalpationTriggers),
		ExtractedSymptoms: symptoms,
	}

	switch {
	case matchAny(message, c.vocab.Emergency):
		rec.Urgency = model.UrgencyHigh
	case len(symptoms) > 0:
		rec.Urgency = model.UrgencyMedium
	default:
		rec.Urgency = model.UrgencyLow
	}

	rec.Confidence = confidence(rec)
	return rec
}

// confidence 置信度 = 0.5 + 0.1×症状数 + 0.2×问诊 + 0.1×(望+闻+切)，截断到 [0,1]
func confidence(rec model.IntentRecord) float64 {
	score := 0.5 + 0.1*float64(len(rec.ExtractedSymptoms))
	if rec.NeedsInquiry {
		score += 0.2
	}
	for _, m := range []model.Modality{model.ModalityLook, model.ModalityListen, model.ModalityPalpation} {
		if rec.Needs(m) {
			score += 0.1
		}
	}
	if score > 1.0 {
		score = 1.0
	}
	if score < 0 {
		score = 0
	}
	return score
}

// matchAll 返回消息中命中的词，按词在消息中首次出现的位置排序、去重
// 排序以消息为准，词表条目的先后不影响结果
func matchAll(message string, terms []string) []string {
	type hit struct {
		term string
		pos  int
	}

	var hits []hit
	seen := make(map[string]bool)
	for _, term := range terms {
		if term == "" || seen[term] {
			continue
		}
		if pos := strings.Index(message, term); pos >= 0 {
			hits = append(hits, hit{term: term, pos: pos})
			seen[term] = true
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	var matched []string
	for _, h := range hits {
		matched = append(matched, h.term)
	}
	return matched
}

// matchAny 判断消息是否命中任一词
func matchAny(message string, terms []string) bool {
	for _, term := range terms {
		if term != "" && strings.Contains(message, term) {
			return true
		}
	}
	return false
}

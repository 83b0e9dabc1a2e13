package dispatch

import (
	"fmt"
	"strings"

	"github.com/suokelife/suoke-dispatch-go/internal/model"
)

// Aggregator 多诊法结果聚合器
// 仅当同一请求内存在两个及以上诊法结果时调用
type Aggregator struct{}

// NewAggregator 创建聚合器
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Aggregate 将多个诊法结果合成综合辨证
// 证型/病机/治法/预后目前是基线文案，输出结构是稳定契约，
// 融合算法可在保持结构不变的前提下替换
func (a *Aggregator) Aggregate(results []model.ModalityResult) *model.IntegratedDiagnosis {
	evidence := make([]string, 0, len(results))
	for _, r := range results {
		evidence = append(evidence, fmt.Sprintf("【%s】%s", r.Modality.Label(), r.OverallAssessment))
	}

	return &model.IntegratedDiagnosis{
		Evidence:          evidence,
		OverallAssessment: fmt.Sprintf("综合%d项诊法分析：%s", len(results), strings.Join(evidence, "；")),
		Syndrome:          "气血失和（待进一步确诊）",
		Pathogenesis:      "情志失调、饮食不节导致气机不畅",
		Treatment:         "调和气血，疏肝理气",
		Prognosis:         "及时调理预后良好",
		Recommendations: []model.HealthRecommendation{
			{Category: "lifestyle", Content: "保持规律作息，饮食清淡，适度运动", Priority: 1},
			{Category: "followup", Content: "建议一周后复诊，跟踪症状变化", Priority: 2},
		},
		Confidence: weightedConfidence(results),
	}
}

// weightedConfidence 各诊法置信度加权平均，截断到 [0,1]
func weightedConfidence(results []model.ModalityResult) float64 {
	if len(results) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range results {
		sum += r.Confidence
	}
	mean := sum / float64(len(results))
	if mean > 1.0 {
		mean = 1.0
	}
	if mean < 0 {
		mean = 0
	}
	return mean
}

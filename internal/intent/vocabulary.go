package intent

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Vocabulary 意图识别词表
// 词表是配置数据，由 yaml 文件加载，不在代码中硬编码
type Vocabulary struct {
	Symptoms          []string `yaml:"symptoms"`  // 症状词，触发问诊
	Emergency         []string `yaml:"emergency"` // 急症词
	LookTriggers      []string `yaml:"look"`      // 望诊触发词
	ListenTriggers    []string `yaml:"listen"`    // 闻诊触发词
	PalpationTriggers []string `yaml:"palpation"` // 切诊触发词
}

// LoadVocabulary 从 yaml 文件加载词表
func LoadVocabulary(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取词表文件失败: %w", err)
	}

	var vocab Vocabulary
	if err := yaml.Unmarshal(data, &vocab); err != nil {
		return nil, fmt.Errorf("解析词表文件失败: %w", err)
	}

	return &vocab, nil
}

package utils

import "strings"

// 内置 Label key。CEL 表达式中以 label.<key> 访问，例如 label.recall_source == "catalog"。
const (
	LabelRecallSource = "recall_source"
	LabelRankModel    = "rank_model"
	LabelColdStart    = "cold_start"
)

// Label 解释候选为何出现在 feed 中、经过了哪些阶段。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // recall / rank / rerank / feed
}

// NewLabel 构造一个 Label。
func NewLabel(value, source string) Label {
	return Label{Value: value, Source: source}
}

// Values 返回累积过的全部取值。
func (l Label) Values() []string {
	if l.Value == "" {
		return nil
	}
	return strings.Split(l.Value, "|")
}

// MergeLabel 合并同名 Label：Value 以 '|' 累积，Source 以 ',' 累积，已有的取值不重复追加。
// 同一节点在 pipeline 中出现两次（例如额外配置的 rank.score）时标签保持不变。
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}
	return Label{
		Value:  appendUnique(existing.Value, incoming.Value, "|"),
		Source: appendUnique(existing.Source, incoming.Source, ","),
	}
}

func appendUnique(joined, v, sep string) string {
	switch {
	case v == "":
		return joined
	case joined == "":
		return v
	}
	for _, s := range strings.Split(joined, sep) {
		if s == v {
			return joined
		}
	}
	return joined + sep + v
}

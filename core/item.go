package core

import "github.com/rushteam/crossell/pkg/utils"

// Item 是推荐链路中的候选商品承载结构：分数、静态属性、元信息、标签。
// Score 随链路阶段演进（召回时为相似度基础分，融合后为最终分）；
// Rating / Category 来自商品元数据，参与排序与多样性约束。
type Item struct {
	ID       int64
	Score    float64
	Rating   float64
	Category string
	Features map[string]float64
	Meta     map[string]any
	Labels   map[string]utils.Label
}

func NewItem(id int64) *Item {
	return &Item{
		ID:       id,
		Features: make(map[string]float64),
		Meta:     make(map[string]any),
		Labels:   make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

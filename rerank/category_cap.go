package rerank

import (
	"context"

	"github.com/rushteam/crossell/core"
	"github.com/rushteam/crossell/pipeline"
)

// CategoryCap 是带计数的类目多样性重排：顺序扫描已排序的候选，
// 某类目入选数量达到 Max 后，跳过该类目的后续候选。
//
// 计数器是每次请求新建的局部状态，请求之间互不影响。
// 与 TopN 串联时等价于边选边停的贪心：先按上限剔除，再截断。
type CategoryCap struct {
	// Max 单个类目允许入选的最大数量，必须 >= 1
	Max int
}

func (n *CategoryCap) Name() string        { return "rerank.category_cap" }
func (n *CategoryCap) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *CategoryCap) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Max < 1 {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidInput,
			"rerank: max_per_category must be >= 1")
	}
	if len(items) == 0 {
		return items, nil
	}

	counts := make(map[string]int, 16)
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		if counts[it.Category] >= n.Max {
			continue
		}
		counts[it.Category]++
		out = append(out, it)
	}
	return out, nil
}

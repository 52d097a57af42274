package rerank

import (
	"context"

	"github.com/rushteam/crossell/core"
	"github.com/rushteam/crossell/pipeline"
)

// TopN 截取前 N 个候选，保持入参顺序。
// 候选不足 N 时原样返回短列表，不补齐、不报错。
type TopN struct {
	// N 要保留的数量，必须 >= 1
	N int
}

func (n *TopN) Name() string        { return "rerank.topn" }
func (n *TopN) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *TopN) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.N < 1 {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidInput,
			"rerank: n must be >= 1")
	}
	if len(items) <= n.N {
		return items, nil
	}
	return items[:n.N], nil
}

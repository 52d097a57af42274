package rank

import (
	"context"
	"sort"

	"github.com/rushteam/crossell/core"
	"github.com/rushteam/crossell/pipeline"
	"github.com/rushteam/crossell/snapshot"
)

// 融合权重默认值：个性化相似度分占 0.7，全局流行度占 0.3。
const (
	DefaultBaseWeight       = 0.7
	DefaultPopularityWeight = 0.3
)

// FusionNode 把召回阶段的相似度基础分与全局流行度融合，并完成排序。
//
//	fused = BaseWeight*base + PopularityWeight*popularity
//
// 流行度表中缺失的商品按 0 融合（join 语义）。排序按 (rating, fused)
// 双键降序：评分是首要键，融合分只在同评分桶内破平。这是刻意的
// 设计选择：质量信号优先于个性化信号。
type FusionNode struct {
	// Snapshot 提供流行度表，与召回阶段钉住的是同一份快照
	Snapshot *snapshot.Snapshot

	// BaseWeight / PopularityWeight 为 0 时取默认值 0.7 / 0.3
	BaseWeight       float64
	PopularityWeight float64
}

func (n *FusionNode) Name() string        { return "rank.fusion" }
func (n *FusionNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *FusionNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	baseWeight := n.BaseWeight
	popWeight := n.PopularityWeight
	if baseWeight == 0 && popWeight == 0 {
		baseWeight = DefaultBaseWeight
		popWeight = DefaultPopularityWeight
	}

	popularity := make(map[int64]float64)
	if n.Snapshot != nil {
		popularity = n.Snapshot.Popularity
	}

	for _, it := range items {
		if it == nil {
			continue
		}
		pop := popularity[it.ID]
		it.Features["popularity"] = pop
		it.Score = baseWeight*it.Score + popWeight*pop
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Rating != items[j].Rating {
			return items[i].Rating > items[j].Rating
		}
		return items[i].Score > items[j].Score
	})
	return items, nil
}

package recall

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/rushteam/crossell/core"
	"github.com/rushteam/crossell/pipeline"
	"github.com/rushteam/crossell/pkg/utils"
	"github.com/rushteam/crossell/snapshot"
)

// LatentRecall 是基于隐因子相似度的召回源。
//
// 核心思想：用户买过什么，就推相似的商品。
// base_j = Σ_i sim[j][i] * row[i]，即候选商品与用户已购商品的
// 相似度按交互强度加权求和。
//
// 候选集是全量商品（数据规模为数百商品，全表扫描可接受）；
// 同时把商品静态属性（评分/类目/名称/价格）附到候选上，
// 供后续排序与多样性约束使用。
type LatentRecall struct {
	// Snapshot 是本次请求钉住的产物快照，由上层一次性取得
	Snapshot *snapshot.Snapshot
}

func (r *LatentRecall) Name() string        { return "recall.latent" }
func (r *LatentRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *LatentRecall) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	snap := r.Snapshot
	if snap == nil {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeMissingArtifact,
			"recall: no snapshot loaded")
	}

	if rctx.UserIndex < 0 || rctx.UserIndex >= snap.NumUsers() {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeUnknownUser,
			fmt.Sprintf("user id %d does not exist", rctx.UserIndex))
	}

	row := snap.Interactions.Row(rctx.UserIndex)

	out := make([]*core.Item, 0, snap.NumProducts())
	for j := 0; j < snap.NumProducts(); j++ {
		p := snap.ProductAt(j)

		it := core.NewItem(p.ID)
		it.Score = floats.Dot(snap.SimilarityRow(j), row)
		it.Rating = p.Rating
		it.Category = p.Category
		it.Meta["name"] = p.Name
		it.Meta["price"] = p.Price
		it.Features["base_score"] = it.Score
		it.PutLabel("recall_source", utils.Label{Value: "latent", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

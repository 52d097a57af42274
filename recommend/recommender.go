package recommend

import (
	"context"
	"fmt"

	"github.com/rushteam/crossell/core"
	"github.com/rushteam/crossell/filter"
	"github.com/rushteam/crossell/pipeline"
	"github.com/rushteam/crossell/rank"
	"github.com/rushteam/crossell/recall"
	"github.com/rushteam/crossell/rerank"
	"github.com/rushteam/crossell/snapshot"
)

// Options 是推荐服务的可调参数。
type Options struct {
	// BaseWeight / PopularityWeight 融合权重，零值取 0.7 / 0.3
	BaseWeight       float64
	PopularityWeight float64

	// Rule 可选的 CEL 橱窗规则表达式；命中的候选保留，为空不过滤
	Rule string
}

// Recommender 是在线推荐的门面：校验请求契约、钉住快照、
// 组装并执行 Pipeline（召回 → 过滤 → 融合排序 → 多样性 → 截断）。
//
// 对共享状态只读：任意数量的并发请求可以无协调地执行。
// Reload 通过 Holder 原子替换整份快照，请求期内看到的产物组合
// 永远出自同一次训练。
type Recommender struct {
	holder *snapshot.Holder
	opts   Options
	rule   *filter.RuleFilter
}

// New 创建推荐服务。规则表达式在这里一次性编译，非法表达式立即报错。
func New(holder *snapshot.Holder, opts Options) (*Recommender, error) {
	rule, err := filter.NewRuleFilter(opts.Rule)
	if err != nil {
		return nil, fmt.Errorf("compile rule: %w", err)
	}
	return &Recommender{
		holder: holder,
		opts:   opts,
		rule:   rule,
	}, nil
}

// Recommend 返回给定用户的推荐商品 ID 列表，按选中顺序排列。
//
// 契约：
//   - userID 必须是交互矩阵的合法行下标，否则 UNKNOWN_USER
//   - n >= 1 且 maxPerCategory >= 1，否则 INVALID_INPUT
//   - 结果长度 <= n；单类目出现次数 <= maxPerCategory；
//     凑不满 n 时返回短列表
func (r *Recommender) Recommend(ctx context.Context, userID, n, maxPerCategory int) ([]int64, error) {
	if n < 1 {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidInput,
			fmt.Sprintf("recommend: n must be >= 1, got %d", n))
	}
	if maxPerCategory < 1 {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidInput,
			fmt.Sprintf("recommend: max_per_category must be >= 1, got %d", maxPerCategory))
	}

	// 钉住快照：整个请求使用同一份产物，Reload 不影响进行中的请求
	snap := r.holder.Current()
	if snap == nil {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeMissingArtifact,
			"recommend: no snapshot loaded")
	}

	rctx := &core.RecommendContext{
		UserIndex:      userID,
		N:              n,
		MaxPerCategory: maxPerCategory,
	}

	p := r.buildPipeline(snap, n, maxPerCategory)
	items, err := p.Run(ctx, rctx, nil)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids, nil
}

// Reload 用新一轮训练的产物整体替换当前快照。
func (r *Recommender) Reload(s *snapshot.Snapshot) {
	r.holder.Swap(s)
}

// buildPipeline 针对钉住的快照组装节点链。节点是轻量结构体，
// 每次请求新建，不在请求间共享可变状态。
func (r *Recommender) buildPipeline(snap *snapshot.Snapshot, n, maxPerCategory int) *pipeline.Pipeline {
	nodes := []pipeline.Node{
		&recall.LatentRecall{Snapshot: snap},
	}
	if r.opts.Rule != "" {
		nodes = append(nodes, &filter.FilterNode{Filters: []filter.Filter{r.rule}})
	}
	nodes = append(nodes,
		&rank.FusionNode{
			Snapshot:         snap,
			BaseWeight:       r.opts.BaseWeight,
			PopularityWeight: r.opts.PopularityWeight,
		},
		&rerank.CategoryCap{Max: maxPerCategory},
		&rerank.TopN{N: n},
	)
	return &pipeline.Pipeline{Nodes: nodes}
}

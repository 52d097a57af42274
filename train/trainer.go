package train

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/crossell/core"
	"github.com/rushteam/crossell/dataset"
	"github.com/rushteam/crossell/model"
	"github.com/rushteam/crossell/snapshot"
)

// Options 是一次训练任务的超参数。
type Options struct {
	// MaxComponents 截断分解的秩上限，零值取 model.DefaultMaxComponents
	MaxComponents int

	// DecayLambda 流行度时间衰减常数，零值取 dataset.DefaultDecayLambda
	DecayLambda float64

	// RandomFill / Seed 透传给交互矩阵构建（复刻开关，默认关闭）
	RandomFill bool
	Seed       int64

	// Now 流行度计算的参考时间，零值取 time.Now()
	Now time.Time
}

// Trainer 执行离线训练：订单与商品进，六件产物出。
//
// 整个任务是串行批处理；唯一的内部并发是交互矩阵与流行度两个
// 互不依赖的聚合并行执行。任务之间不允许并发：两次训练写同一
// 前缀会互相覆盖，调度上必须串行化（按任务排队，不是靠锁）。
//
// 错误策略：任何一步失败整个任务中止，不发布任何产物。
type Trainer struct {
	Store  core.Store
	Prefix string
	Opts   Options
	Logger *zap.Logger
}

// Run 执行一次完整训练并发布快照。返回发布的快照，便于同进程
// 的服务组件直接 Reload。
func (t *Trainer) Run(ctx context.Context, orders []core.Order, products []core.Product) (*snapshot.Snapshot, error) {
	logger := t.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// 目录按商品 ID 升序排列，与交互矩阵的列顺序对齐
	catalog := make([]core.Product, len(products))
	copy(catalog, products)
	sort.Slice(catalog, func(i, j int) bool { return catalog[i].ID < catalog[j].ID })
	productIDs := make([]int64, len(catalog))
	for i, p := range catalog {
		productIDs[i] = p.ID
	}

	logger.Info("training started",
		zap.Int("orders", len(orders)),
		zap.Int("products", len(products)))

	// 交互矩阵与流行度互不依赖，并行聚合
	var (
		interactions *dataset.InteractionMatrix
		popularity   map[int64]float64
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		interactions, err = dataset.BuildInteractionMatrix(orders, productIDs, dataset.BuilderOptions{
			RandomFill: t.Opts.RandomFill,
			Seed:       t.Opts.Seed,
		})
		return err
	})
	eg.Go(func() error {
		scorer := &dataset.PopularityScorer{
			Lambda: t.Opts.DecayLambda,
			Now:    t.Opts.Now,
		}
		popularity = scorer.Score(orders)
		return egCtx.Err()
	})
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("aggregate order history: %w", err)
	}

	logger.Info("interaction matrix built",
		zap.Int("users", interactions.NumUsers()),
		zap.Int("products", interactions.NumProducts()),
		zap.Int("scored_products", len(popularity)))

	factorization, err := model.Factorize(interactions, t.Opts.MaxComponents)
	if err != nil {
		return nil, fmt.Errorf("factorize: %w", err)
	}
	logger.Info("factorization finished", zap.Int("rank", factorization.Rank))

	snap := &snapshot.Snapshot{
		Interactions: interactions,
		UserFactors:  factorization.UserFactors,
		ItemFactors:  factorization.ItemFactors,
		Similarity:   factorization.Similarity,
		Popularity:   popularity,
		Catalog:      catalog,
	}

	// 发布是最后一步：之前任何失败都不会留下产物
	if err := snapshot.Save(ctx, t.Store, t.Prefix, snap); err != nil {
		return nil, fmt.Errorf("publish snapshot: %w", err)
	}
	logger.Info("snapshot published",
		zap.String("store", t.Store.Name()),
		zap.String("prefix", t.Prefix))

	return snap, nil
}

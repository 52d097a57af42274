package dataset

import (
	"math"
	"time"

	"github.com/rushteam/crossell/core"
)

// 流行度打分的默认参数。
// 衰减常数 0.001 意味着约 693 天前的订单仍保留约 50% 权重。
const (
	DefaultDecayLambda    = 0.001
	defaultCountWeight    = 0.4
	defaultQuantityWeight = 0.4
	defaultDecayWeight    = 0.2
)

// PopularityScorer 把订单历史聚合为每个商品的全局流行度分数。
//
// 分数构成：
//   - 订单数（按全商品最大值归一化到 [0,1]）
//   - 销量总和（同上）
//   - 订单时间衰减权重均值 exp(-lambda * days)，天然落在 (0,1]
//
// score = 0.4*normCount + 0.4*normQuantity + 0.2*meanDecay
//
// 没有订单的商品不产出条目；消费方按缺失即 0 处理（join 语义，不是错误）。
type PopularityScorer struct {
	// Lambda 时间衰减常数，零值时取 DefaultDecayLambda
	Lambda float64

	// Now 计算订单距今天数的参考时间，零值时取 time.Now()
	Now time.Time
}

type popularityAgg struct {
	orderCount  float64
	quantitySum float64
	decaySum    float64
}

// Score 返回 map[productID]popularityScore。
func (s *PopularityScorer) Score(orders []core.Order) map[int64]float64 {
	lambda := s.Lambda
	if lambda == 0 {
		lambda = DefaultDecayLambda
	}
	now := s.Now
	if now.IsZero() {
		now = time.Now()
	}

	groups := make(map[int64]*popularityAgg)
	for _, o := range orders {
		agg, ok := groups[o.ProductID]
		if !ok {
			agg = &popularityAgg{}
			groups[o.ProductID] = agg
		}
		days := now.Sub(o.OrderDate).Hours() / 24
		agg.orderCount++
		agg.quantitySum += float64(o.Quantity)
		agg.decaySum += math.Exp(-lambda * days)
	}

	var maxCount, maxQuantity float64
	for _, agg := range groups {
		if agg.orderCount > maxCount {
			maxCount = agg.orderCount
		}
		if agg.quantitySum > maxQuantity {
			maxQuantity = agg.quantitySum
		}
	}

	scores := make(map[int64]float64, len(groups))
	for productID, agg := range groups {
		meanDecay := agg.decaySum / agg.orderCount
		scores[productID] = defaultCountWeight*normalize(agg.orderCount, maxCount) +
			defaultQuantityWeight*normalize(agg.quantitySum, maxQuantity) +
			defaultDecayWeight*meanDecay
	}
	return scores
}

// normalize 按列最大值归一化；最大值为 0 时定义为 0，避免 NaN 传播。
func normalize(v, max float64) float64 {
	if max == 0 {
		return 0
	}
	return v / max
}

package snapshot

import (
	"fmt"
	"sync/atomic"

	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/crossell/core"
	"github.com/rushteam/crossell/dataset"
)

// Snapshot 是一次离线训练产出的全部服务产物，作为整体加载、整体替换。
//
// 不变式：
//   - 六件产物出自同一次训练，行列顺序互相对齐
//   - 服务期只读，请求处理过程中不发生任何修改
//   - 替换只能通过 Holder.Swap 原子完成，不允许逐字段更新
type Snapshot struct {
	Interactions *dataset.InteractionMatrix
	UserFactors  *mat.Dense
	ItemFactors  *mat.Dense
	Similarity   *mat.Dense

	// Popularity 是商品全局流行度；无订单的商品缺失，按 0 消费
	Popularity map[int64]float64

	// Catalog 与交互矩阵的列顺序对齐：Catalog[j].ID == Interactions.Products[j]
	Catalog []core.Product
}

func (s *Snapshot) NumUsers() int    { return s.Interactions.NumUsers() }
func (s *Snapshot) NumProducts() int { return s.Interactions.NumProducts() }

// ProductAt 返回第 j 列对应的商品元数据。
func (s *Snapshot) ProductAt(j int) core.Product { return s.Catalog[j] }

// PopularityAt 返回第 j 列商品的流行度；缺失即 0。
func (s *Snapshot) PopularityAt(j int) float64 {
	return s.Popularity[s.Interactions.Products[j]]
}

// SimilarityRow 返回相似度矩阵第 j 行的只读视图。
func (s *Snapshot) SimilarityRow(j int) []float64 {
	return s.Similarity.RawRowView(j)
}

// Validate 校验六件产物的形状与对齐关系。
// 任何不一致都视为产物损坏，返回 MISSING_ARTIFACT：不允许服务
// 在部分陈旧/部分缺失的状态下启动。
func (s *Snapshot) Validate() error {
	if s.Interactions == nil || s.UserFactors == nil || s.ItemFactors == nil ||
		s.Similarity == nil || s.Popularity == nil || s.Catalog == nil {
		return malformed("snapshot has nil artifact")
	}

	numUsers, numProducts := s.NumUsers(), s.NumProducts()

	if len(s.Interactions.Data) != numUsers*numProducts {
		return malformed(fmt.Sprintf("interaction matrix has %d cells, want %d",
			len(s.Interactions.Data), numUsers*numProducts))
	}
	if ur, uk := s.UserFactors.Dims(); ur != numUsers || uk < 1 {
		return malformed(fmt.Sprintf("user factors shape %dx%d does not match %d users", ur, uk, numUsers))
	}
	ir, ik := s.ItemFactors.Dims()
	if ir != numProducts {
		return malformed(fmt.Sprintf("item factors shape %dx%d does not match %d products", ir, ik, numProducts))
	}
	if _, uk := s.UserFactors.Dims(); uk != ik {
		return malformed(fmt.Sprintf("user factors rank %d != item factors rank %d", uk, ik))
	}
	if sr, sc := s.Similarity.Dims(); sr != numProducts || sc != numProducts {
		return malformed(fmt.Sprintf("similarity shape %dx%d is not %dx%d", sr, sc, numProducts, numProducts))
	}
	if len(s.Catalog) != numProducts {
		return malformed(fmt.Sprintf("catalog has %d products, matrix has %d columns", len(s.Catalog), numProducts))
	}
	for j, p := range s.Catalog {
		if p.ID != s.Interactions.Products[j] {
			return malformed(fmt.Sprintf("catalog misaligned at column %d: product %d != %d",
				j, p.ID, s.Interactions.Products[j]))
		}
	}
	return nil
}

func malformed(msg string) error {
	return core.NewDomainError(core.ModuleSnapshot, core.ErrorCodeMissingArtifact, "snapshot: "+msg)
}

// Holder 持有当前生效的快照，支持并发读与原子替换。
// 读方通过 Current 一次性取走指针，整个请求期间使用同一快照，
// 不会观察到半新半旧的产物组合。
type Holder struct {
	current atomic.Pointer[Snapshot]
}

func NewHolder(s *Snapshot) *Holder {
	h := &Holder{}
	if s != nil {
		h.current.Store(s)
	}
	return h
}

// Current 返回当前快照；尚未加载时返回 nil。
func (h *Holder) Current() *Snapshot {
	return h.current.Load()
}

// Swap 用新一轮训练的产物整体替换当前快照。
func (h *Holder) Swap(s *Snapshot) {
	h.current.Store(s)
}

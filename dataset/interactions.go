package dataset

import (
	"math/rand"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/crossell/core"
)

// InteractionMatrix 是稠密的用户 x 商品交互矩阵。
// 行按客户 ID 升序，列按已知商品 ID 升序；这一顺序在训练与服务间共享，
// 后续的因子矩阵、相似度矩阵必须复用同一顺序。
type InteractionMatrix struct {
	// Users 行顺序对应的客户 ID
	Users []int64
	// Products 列顺序对应的商品 ID
	Products []int64
	// Data 按行优先展开的矩阵数据，取值为聚合购买数量（整数值）
	Data []float64
}

func (m *InteractionMatrix) NumUsers() int    { return len(m.Users) }
func (m *InteractionMatrix) NumProducts() int { return len(m.Products) }

// Row 返回第 i 行（某个用户对全部商品的交互强度）。
// 返回的是底层切片的视图，调用方不得修改。
func (m *InteractionMatrix) Row(i int) []float64 {
	n := m.NumProducts()
	return m.Data[i*n : (i+1)*n]
}

// At 返回 (i, j) 处的聚合数量。
func (m *InteractionMatrix) At(i, j int) float64 {
	return m.Data[i*m.NumProducts()+j]
}

// UserRow 返回客户 ID 对应的行下标。
func (m *InteractionMatrix) UserRow(customerID int64) (int, bool) {
	i := sort.Search(len(m.Users), func(i int) bool { return m.Users[i] >= customerID })
	if i < len(m.Users) && m.Users[i] == customerID {
		return i, true
	}
	return 0, false
}

// ProductCol 返回商品 ID 对应的列下标。
func (m *InteractionMatrix) ProductCol(productID int64) (int, bool) {
	j := sort.Search(len(m.Products), func(j int) bool { return m.Products[j] >= productID })
	if j < len(m.Products) && m.Products[j] == productID {
		return j, true
	}
	return 0, false
}

// Dense 返回 gonum 稠密矩阵视图，供矩阵分解使用。
func (m *InteractionMatrix) Dense() *mat.Dense {
	return mat.NewDense(m.NumUsers(), m.NumProducts(), m.Data)
}

// BuilderOptions 控制交互矩阵的构建行为。
type BuilderOptions struct {
	// RandomFill 为 true 时，缺失单元格填充伪随机 0/1 而不是 0。
	// 这是对上游历史行为的复刻开关：随机填充会向分解输入注入噪声，
	// 默认关闭，保证训练可复现。
	RandomFill bool

	// Seed 随机填充的种子；RandomFill 开启时固定种子可复现同一矩阵
	Seed int64
}

type interactionKey struct {
	customerID int64
	productID  int64
}

type interactionAgg struct {
	quantity  int
	lastOrder time.Time
}

// BuildInteractionMatrix 把订单历史聚合为稠密交互矩阵。
//
// 聚合规则：按 (customer, product) 分组，数量求和、订单日期取最近；
// 透视为稠密矩阵后，用户从未购买的单元格按 opts 填充。
// 已有非零聚合数量的单元格不受填充影响。
//
// 订单为空时返回 DATA_INSUFFICIENT：零秩输入不允许进入分解。
func BuildInteractionMatrix(orders []core.Order, productIDs []int64, opts BuilderOptions) (*InteractionMatrix, error) {
	if len(orders) == 0 {
		return nil, core.NewDomainError(core.ModuleDataset, core.ErrorCodeDataInsufficient,
			"dataset: no orders to build interaction matrix")
	}

	groups := make(map[interactionKey]*interactionAgg)
	userSet := make(map[int64]struct{})
	for _, o := range orders {
		userSet[o.CustomerID] = struct{}{}
		key := interactionKey{customerID: o.CustomerID, productID: o.ProductID}
		agg, ok := groups[key]
		if !ok {
			agg = &interactionAgg{}
			groups[key] = agg
		}
		agg.quantity += o.Quantity
		if o.OrderDate.After(agg.lastOrder) {
			agg.lastOrder = o.OrderDate
		}
	}

	users := make([]int64, 0, len(userSet))
	for id := range userSet {
		users = append(users, id)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })

	products := make([]int64, len(productIDs))
	copy(products, productIDs)
	sort.Slice(products, func(i, j int) bool { return products[i] < products[j] })

	m := &InteractionMatrix{
		Users:    users,
		Products: products,
		Data:     make([]float64, len(users)*len(products)),
	}

	for i, userID := range users {
		for j, productID := range products {
			agg, ok := groups[interactionKey{customerID: userID, productID: productID}]
			if !ok {
				continue
			}
			m.Data[i*len(products)+j] = float64(agg.quantity)
		}
	}

	if opts.RandomFill {
		rng := rand.New(rand.NewSource(opts.Seed))
		for i := range m.Data {
			if m.Data[i] == 0 {
				m.Data[i] = float64(rng.Intn(2))
			}
		}
	}

	return m, nil
}

package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/crossell/core"
	"github.com/rushteam/crossell/dataset"
)

// DefaultMaxComponents 是截断分解的默认秩上限。
// 实际秩 k = min(maxComponents, min(numUsers, numProducts) - 1)。
const DefaultMaxComponents = 500

// Factorization 是一次离线分解的不可变产物。
//
//   - UserFactors: numUsers x k
//   - ItemFactors: numProducts x k
//   - Similarity:  numProducts x numProducts，物品因子行两两余弦相似度，
//     对称、对角线为 1
//
// UserFactors · ItemFactorsᵀ 在最小二乘意义下逼近交互矩阵。
type Factorization struct {
	Rank        int
	UserFactors *mat.Dense
	ItemFactors *mat.Dense
	Similarity  *mat.Dense
}

// Factorize 对交互矩阵做截断 SVD 分解，并派生物品相似度矩阵。
//
// SVD 本身是确定性的（无随机初始化），同一输入必然产出同一组因子。
// k <= 0（用户或商品少于 2 个）时返回 INSUFFICIENT_RANK，
// 拒绝退化分解。
func Factorize(m *dataset.InteractionMatrix, maxComponents int) (*Factorization, error) {
	if maxComponents <= 0 {
		maxComponents = DefaultMaxComponents
	}

	numUsers, numProducts := m.NumUsers(), m.NumProducts()
	k := min(maxComponents, min(numUsers, numProducts)-1)
	if k <= 0 {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInsufficientRank,
			fmt.Sprintf("model: rank %d is degenerate (%d users, %d products)", k, numUsers, numProducts))
	}

	var svd mat.SVD
	if ok := svd.Factorize(m.Dense(), mat.SVDThin); !ok {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInsufficientRank,
			"model: svd factorization did not converge")
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	values := svd.Values(nil)

	// user_factors = U_k · Σ_k（对应 TruncatedSVD 的 fit_transform 输出）
	userFactors := mat.NewDense(numUsers, k, nil)
	for i := 0; i < numUsers; i++ {
		for c := 0; c < k; c++ {
			userFactors.Set(i, c, u.At(i, c)*values[c])
		}
	}

	// item_factors = V_k（每行是一个商品的 k 维隐向量）
	itemFactors := mat.NewDense(numProducts, k, nil)
	for j := 0; j < numProducts; j++ {
		for c := 0; c < k; c++ {
			itemFactors.Set(j, c, v.At(j, c))
		}
	}

	return &Factorization{
		Rank:        k,
		UserFactors: userFactors,
		ItemFactors: itemFactors,
		Similarity:  cosineSimilarity(itemFactors),
	}, nil
}

// cosineSimilarity 计算因子矩阵各行之间的余弦相似度方阵。
// 零向量行与任何行的相似度定义为 0；对角线恒为 1。
func cosineSimilarity(factors *mat.Dense) *mat.Dense {
	n, _ := factors.Dims()

	norms := make([]float64, n)
	for i := 0; i < n; i++ {
		row := factors.RawRowView(i)
		norms[i] = math.Sqrt(floats.Dot(row, row))
	}

	sim := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		sim.Set(i, i, 1)
		for j := i + 1; j < n; j++ {
			var s float64
			if norms[i] > 0 && norms[j] > 0 {
				s = floats.Dot(factors.RawRowView(i), factors.RawRowView(j)) / (norms[i] * norms[j])
			}
			sim.Set(i, j, s)
			sim.Set(j, i, s)
		}
	}
	return sim
}

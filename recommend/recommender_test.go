package recommend

import (
	"context"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/crossell/core"
	"github.com/rushteam/crossell/dataset"
	"github.com/rushteam/crossell/snapshot"
)

// identitySnapshot 构造相似度为单位矩阵的快照：base 分直接等于
// 用户交互行，便于手算期望结果。
func identitySnapshot(rows []float64, catalog []core.Product, popularity map[int64]float64) *snapshot.Snapshot {
	n := len(catalog)
	users := len(rows) / n

	userIDs := make([]int64, users)
	for i := range userIDs {
		userIDs[i] = int64(i + 1)
	}
	productIDs := make([]int64, n)
	for j, p := range catalog {
		productIDs[j] = p.ID
	}

	sim := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		sim.Set(i, i, 1)
	}

	return &snapshot.Snapshot{
		Interactions: &dataset.InteractionMatrix{
			Users:    userIDs,
			Products: productIDs,
			Data:     rows,
		},
		UserFactors: mat.NewDense(users, 1, make([]float64, users)),
		ItemFactors: mat.NewDense(n, 1, make([]float64, n)),
		Similarity:  sim,
		Popularity:  popularity,
		Catalog:     catalog,
	}
}

func newTestRecommender(t *testing.T, snap *snapshot.Snapshot, opts Options) *Recommender {
	t.Helper()
	r, err := New(snapshot.NewHolder(snap), opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r
}

// 商品 ID 升序排列，目录与矩阵列对齐
var abcCatalog = []core.Product{
	{ID: 1, Name: "A", Category: "X", Rating: 5},
	{ID: 2, Name: "B", Category: "X", Rating: 5},
	{ID: 3, Name: "C", Category: "Y", Rating: 4},
}

func TestRecommend_CategoryCapScenario(t *testing.T) {
	// fused(A) > fused(B)，两者同为 5 星同类目；C 低一星但另一类目。
	// n=2, cap=1 时 B 被类目上限跳过，期望 [A, C]。
	snap := identitySnapshot([]float64{1, 0.5, 0}, abcCatalog, nil)
	r := newTestRecommender(t, snap, Options{})

	got, err := r.Recommend(context.Background(), 0, 2, 1)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("Recommend() = %v, want [1 3]", got)
	}
}

func TestRecommend_ResultBounds(t *testing.T) {
	snap := identitySnapshot([]float64{1, 0.5, 0.2}, abcCatalog, nil)
	r := newTestRecommender(t, snap, Options{})

	tests := []struct {
		name    string
		n       int
		cap     int
		maxLen  int
		byCat   map[string]int // 类目出现次数上限
	}{
		{name: "n smaller than catalog", n: 2, cap: 2, maxLen: 2},
		{name: "n larger than catalog", n: 10, cap: 2, maxLen: 3},
		{name: "tight cap shortens result", n: 10, cap: 1, maxLen: 2, byCat: map[string]int{"X": 1, "Y": 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Recommend(context.Background(), 0, tt.n, tt.cap)
			if err != nil {
				t.Fatalf("Recommend() error = %v", err)
			}
			if len(got) > tt.maxLen {
				t.Fatalf("len = %d, want <= %d", len(got), tt.maxLen)
			}

			counts := make(map[string]int)
			for _, id := range got {
				for _, p := range abcCatalog {
					if p.ID == id {
						counts[p.Category]++
					}
				}
			}
			for cat, cnt := range counts {
				if cnt > tt.cap {
					t.Errorf("category %q appears %d times, cap %d", cat, cnt, tt.cap)
				}
			}
		})
	}
}

func TestRecommend_UnknownUser(t *testing.T) {
	snap := identitySnapshot([]float64{1, 0, 0}, abcCatalog, nil)
	r := newTestRecommender(t, snap, Options{})

	for _, userID := range []int{-1, 1, 99} {
		_, err := r.Recommend(context.Background(), userID, 5, 2)
		if !core.IsUnknownUser(err) {
			t.Fatalf("user %d: error = %v, want UNKNOWN_USER", userID, err)
		}
	}

	// 错误消息直接透出到请求边界
	_, err := r.Recommend(context.Background(), 7, 5, 2)
	if want := "user id 7 does not exist"; err == nil || err.Error() != want {
		t.Fatalf("error message = %v, want %q", err, want)
	}
}

func TestRecommend_InvalidInput(t *testing.T) {
	snap := identitySnapshot([]float64{1, 0, 0}, abcCatalog, nil)
	r := newTestRecommender(t, snap, Options{})

	tests := []struct {
		name string
		n    int
		cap  int
	}{
		{name: "zero n", n: 0, cap: 2},
		{name: "negative n", n: -3, cap: 2},
		{name: "zero cap", n: 5, cap: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// 契约违反必须显式失败，而不是静默返回空列表
			_, err := r.Recommend(context.Background(), 0, tt.n, tt.cap)
			if !core.IsInvalidInput(err) {
				t.Fatalf("error = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestRecommend_Idempotent(t *testing.T) {
	snap := identitySnapshot([]float64{1, 0.5, 0.2}, abcCatalog, map[int64]float64{2: 0.4})
	r := newTestRecommender(t, snap, Options{})

	first, err := r.Recommend(context.Background(), 0, 3, 2)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	second, err := r.Recommend(context.Background(), 0, 3, 2)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("lengths differ: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("results differ at %d: %v vs %v", i, first, second)
		}
	}
}

func TestRecommend_ColdStartUsesPopularity(t *testing.T) {
	// 全零交互行：base 分全 0，排序完全由流行度驱动。
	// 评分设为同一档，避免评分主键掩盖流行度的影响。
	catalog := []core.Product{
		{ID: 1, Name: "A", Category: "X", Rating: 3},
		{ID: 2, Name: "B", Category: "Y", Rating: 3},
		{ID: 3, Name: "C", Category: "Z", Rating: 3},
	}
	popularity := map[int64]float64{1: 0.2, 2: 0.9, 3: 0.5}

	snap := identitySnapshot([]float64{0, 0, 0}, catalog, popularity)
	r := newTestRecommender(t, snap, Options{})

	got, err := r.Recommend(context.Background(), 0, 3, 1)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(got) != 3 || got[0] != 2 || got[1] != 3 || got[2] != 1 {
		t.Fatalf("Recommend() = %v, want popularity order [2 3 1]", got)
	}
}

func TestRecommend_RuleFilter(t *testing.T) {
	snap := identitySnapshot([]float64{1, 0.5, 0.2}, abcCatalog, nil)
	r := newTestRecommender(t, snap, Options{Rule: `item.category != "X"`})

	got, err := r.Recommend(context.Background(), 0, 5, 2)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	// X 类目整体被橱窗规则剔除，只剩 C
	if len(got) != 1 || got[0] != 3 {
		t.Fatalf("Recommend() = %v, want [3]", got)
	}
}

func TestRecommend_InvalidRule(t *testing.T) {
	snap := identitySnapshot([]float64{1, 0, 0}, abcCatalog, nil)
	if _, err := New(snapshot.NewHolder(snap), Options{Rule: "not a valid ((("}); err == nil {
		t.Fatalf("New() with invalid rule must fail at construction")
	}
}

func TestRecommend_NoSnapshot(t *testing.T) {
	r := newTestRecommender(t, nil, Options{})
	_, err := r.Recommend(context.Background(), 0, 5, 2)
	if !core.IsMissingArtifact(err) {
		t.Fatalf("error = %v, want MISSING_ARTIFACT", err)
	}
}

func TestRecommend_Reload(t *testing.T) {
	snap1 := identitySnapshot([]float64{1, 0.5, 0}, abcCatalog, nil)
	r := newTestRecommender(t, snap1, Options{})

	before, err := r.Recommend(context.Background(), 0, 1, 2)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(before) != 1 || before[0] != 1 {
		t.Fatalf("before reload = %v, want [1]", before)
	}

	// 整体替换快照：新矩阵里用户偏好转向 B
	snap2 := identitySnapshot([]float64{0, 2, 0}, abcCatalog, nil)
	r.Reload(snap2)

	after, err := r.Recommend(context.Background(), 0, 1, 2)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(after) != 1 || after[0] != 2 {
		t.Fatalf("after reload = %v, want [2]", after)
	}
}

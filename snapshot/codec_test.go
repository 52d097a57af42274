package snapshot

import (
	"context"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/crossell/core"
	"github.com/rushteam/crossell/dataset"
	"github.com/rushteam/crossell/store"
)

func testSnapshot() *Snapshot {
	return &Snapshot{
		Interactions: &dataset.InteractionMatrix{
			Users:    []int64{1, 2},
			Products: []int64{11, 12, 13},
			Data:     []float64{1, 0, 2, 0, 3, 0},
		},
		UserFactors: mat.NewDense(2, 2, []float64{1, 0, 0, 1}),
		ItemFactors: mat.NewDense(3, 2, []float64{1, 0, 0, 1, 1, 1}),
		Similarity: mat.NewDense(3, 3, []float64{
			1, 0, 0.5,
			0, 1, 0.5,
			0.5, 0.5, 1,
		}),
		Popularity: map[int64]float64{11: 0.9, 13: 0.4},
		Catalog: []core.Product{
			{ID: 11, Name: "a", Category: "X", Rating: 5},
			{ID: 12, Name: "b", Category: "X", Rating: 4},
			{ID: 13, Name: "c", Category: "Y", Rating: 3},
		},
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	snap := testSnapshot()

	if err := Save(ctx, st, "test", snap); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(ctx, st, "test")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loaded.NumUsers() != 2 || loaded.NumProducts() != 3 {
		t.Fatalf("loaded shape %dx%d, want 2x3", loaded.NumUsers(), loaded.NumProducts())
	}
	if !mat.EqualApprox(loaded.Similarity, snap.Similarity, 1e-15) {
		t.Errorf("similarity changed through round trip")
	}
	if got := loaded.PopularityAt(0); got != 0.9 {
		t.Errorf("popularity of first column = %v, want 0.9", got)
	}
	// 流行度表缺失的商品按 0 消费
	if got := loaded.PopularityAt(1); got != 0 {
		t.Errorf("missing popularity = %v, want 0", got)
	}
	if got := loaded.ProductAt(2).Category; got != "Y" {
		t.Errorf("catalog category = %q, want Y", got)
	}
}

func TestSave_PublishesHotList(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	if err := Save(ctx, st, "test", testSnapshot()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	members, err := st.ZRange(ctx, "test:hot", 0, -1)
	if err != nil {
		t.Fatalf("ZRange() error = %v", err)
	}
	// 按流行度降序：11 (0.9) 在 13 (0.4) 之前
	if len(members) != 2 || members[0] != "11" || members[1] != "13" {
		t.Fatalf("hot list = %v, want [11 13]", members)
	}
}

func TestLoad_MissingArtifact(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	if err := Save(ctx, st, "test", testSnapshot()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := st.Delete(ctx, "test:item_similarity"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, err := Load(ctx, st, "test")
	if !core.IsMissingArtifact(err) {
		t.Fatalf("error = %v, want MISSING_ARTIFACT", err)
	}
}

func TestLoad_MalformedArtifact(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	if err := Save(ctx, st, "test", testSnapshot()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := st.Set(ctx, "test:user_factors", []byte("not json")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	_, err := Load(ctx, st, "test")
	if !core.IsMissingArtifact(err) {
		t.Fatalf("error = %v, want MISSING_ARTIFACT", err)
	}
}

func TestValidate_Misalignment(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Snapshot)
	}{
		{
			name:   "similarity wrong shape",
			mutate: func(s *Snapshot) { s.Similarity = mat.NewDense(2, 2, nil) },
		},
		{
			name:   "catalog too short",
			mutate: func(s *Snapshot) { s.Catalog = s.Catalog[:2] },
		},
		{
			name: "catalog out of order",
			mutate: func(s *Snapshot) {
				s.Catalog[0], s.Catalog[1] = s.Catalog[1], s.Catalog[0]
			},
		},
		{
			name:   "user factors wrong rows",
			mutate: func(s *Snapshot) { s.UserFactors = mat.NewDense(3, 2, nil) },
		},
		{
			name:   "nil artifact",
			mutate: func(s *Snapshot) { s.Popularity = nil },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := testSnapshot()
			tt.mutate(snap)
			if err := snap.Validate(); !core.IsMissingArtifact(err) {
				t.Fatalf("Validate() = %v, want MISSING_ARTIFACT", err)
			}
		})
	}
}

func TestHolder_Swap(t *testing.T) {
	h := NewHolder(nil)
	if h.Current() != nil {
		t.Fatalf("empty holder must return nil")
	}

	s1 := testSnapshot()
	h.Swap(s1)
	if h.Current() != s1 {
		t.Fatalf("Current() did not return swapped snapshot")
	}

	s2 := testSnapshot()
	h.Swap(s2)
	if h.Current() != s2 {
		t.Fatalf("Swap() must replace the whole snapshot")
	}
}

package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/crossell/core"
	"github.com/rushteam/crossell/dataset"
	"github.com/rushteam/crossell/recommend"
	"github.com/rushteam/crossell/snapshot"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	// 单用户、三商品，相似度为单位矩阵：期望结果可手算
	snap := &snapshot.Snapshot{
		Interactions: &dataset.InteractionMatrix{
			Users:    []int64{1},
			Products: []int64{1, 2, 3},
			Data:     []float64{1, 0.5, 0},
		},
		UserFactors: mat.NewDense(1, 1, []float64{0}),
		ItemFactors: mat.NewDense(3, 1, []float64{0, 0, 0}),
		Similarity:  mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}),
		Popularity:  map[int64]float64{},
		Catalog: []core.Product{
			{ID: 1, Name: "A", Category: "X", Rating: 5},
			{ID: 2, Name: "B", Category: "X", Rating: 5},
			{ID: 3, Name: "C", Category: "Y", Rating: 4},
		},
	}

	rec, err := recommend.New(snapshot.NewHolder(snap), recommend.Options{})
	if err != nil {
		t.Fatalf("recommend.New() error = %v", err)
	}
	return New(rec, nil, Options{})
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/recommendations", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHandleRecommendations(t *testing.T) {
	h := testServer(t).Handler()

	w := post(t, h, `{"user_id": 0, "n": 2, "max_per_category": 1}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		UserID          int     `json:"user_id"`
		Recommendations []int64 `json:"recommendations"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.UserID != 0 {
		t.Errorf("user_id = %d, want 0", resp.UserID)
	}
	// 同类目 B 被跳过：[A, C]
	if len(resp.Recommendations) != 2 || resp.Recommendations[0] != 1 || resp.Recommendations[1] != 3 {
		t.Errorf("recommendations = %v, want [1 3]", resp.Recommendations)
	}
}

func TestHandleRecommendations_Defaults(t *testing.T) {
	h := testServer(t).Handler()

	// n / max_per_category 缺省为 5 / 2
	w := post(t, h, `{"user_id": 0}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Recommendations []int64 `json:"recommendations"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Recommendations) != 3 {
		t.Errorf("recommendations = %v, want all 3 products", resp.Recommendations)
	}
}

func TestHandleRecommendations_Errors(t *testing.T) {
	h := testServer(t).Handler()

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantDetail string
	}{
		{
			name:       "unknown user",
			body:       `{"user_id": 9}`,
			wantStatus: http.StatusBadRequest,
			wantDetail: "user id 9 does not exist",
		},
		{
			name:       "negative user",
			body:       `{"user_id": -1}`,
			wantStatus: http.StatusBadRequest,
			wantDetail: "user id -1 does not exist",
		},
		{
			name:       "zero n",
			body:       `{"user_id": 0, "n": 0}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "zero cap",
			body:       `{"user_id": 0, "max_per_category": 0}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing user_id",
			body:       `{"n": 5}`,
			wantStatus: http.StatusBadRequest,
			wantDetail: "user_id is required",
		},
		{
			name:       "malformed body",
			body:       `{not json`,
			wantStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(t, h, tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantDetail == "" {
				return
			}
			var resp struct {
				Detail string `json:"detail"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if resp.Detail != tt.wantDetail {
				t.Errorf("detail = %q, want %q", resp.Detail, tt.wantDetail)
			}
		})
	}
}

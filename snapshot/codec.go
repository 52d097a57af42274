package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/crossell/core"
	"github.com/rushteam/crossell/dataset"
)

// 产物 key 后缀。六件产物在 Store 中以同一前缀组织，
// 例如 "crossell:v1:interactions"。
const (
	keyInteractions = "interactions"
	keyUserFactors  = "user_factors"
	keyItemFactors  = "item_factors"
	keySimilarity   = "item_similarity"
	keyPopularity   = "popularity"
	keyProducts     = "products"

	// KeyHot 是训练附带发布的热门商品有序集合（member 为商品 ID），
	// 供运维 ZRange 巡检 TopN，不参与服务读路径。
	KeyHot = "hot"
)

var artifactKeys = []string{
	keyInteractions, keyUserFactors, keyItemFactors,
	keySimilarity, keyPopularity, keyProducts,
}

type matrixJSON struct {
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	Data []float64 `json:"data"`
}

type interactionsJSON struct {
	Users    []int64   `json:"users"`
	Products []int64   `json:"products"`
	Data     []float64 `json:"data"`
}

type popularityEntryJSON struct {
	ProductID int64   `json:"product_id"`
	Score     float64 `json:"score"`
}

func artifactKey(prefix, suffix string) string {
	if prefix == "" {
		return suffix
	}
	return prefix + ":" + suffix
}

// Save 把快照整体写入 Store。
// 先校验、先序列化，全部成功后通过一次 BatchSet 发布；任何一步失败
// 都不会留下部分产物。若后端支持有序集合，附带发布流行度热榜。
func Save(ctx context.Context, st core.Store, prefix string, s *Snapshot) error {
	if err := s.Validate(); err != nil {
		return err
	}

	blobs := make(map[string][]byte, len(artifactKeys))

	put := func(suffix string, v any) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", suffix, err)
		}
		blobs[artifactKey(prefix, suffix)] = data
		return nil
	}

	if err := put(keyInteractions, interactionsJSON{
		Users:    s.Interactions.Users,
		Products: s.Interactions.Products,
		Data:     s.Interactions.Data,
	}); err != nil {
		return err
	}
	if err := put(keyUserFactors, denseToJSON(s.UserFactors)); err != nil {
		return err
	}
	if err := put(keyItemFactors, denseToJSON(s.ItemFactors)); err != nil {
		return err
	}
	if err := put(keySimilarity, denseToJSON(s.Similarity)); err != nil {
		return err
	}

	popularity := make([]popularityEntryJSON, 0, len(s.Popularity))
	for id, score := range s.Popularity {
		popularity = append(popularity, popularityEntryJSON{ProductID: id, Score: score})
	}
	if err := put(keyPopularity, popularity); err != nil {
		return err
	}
	if err := put(keyProducts, s.Catalog); err != nil {
		return err
	}

	if err := st.BatchSet(ctx, blobs); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}

	// 热榜是旁路产物，发布失败不回滚快照本身
	if kv, ok := st.(core.KeyValueStore); ok {
		hotKey := artifactKey(prefix, KeyHot)
		for id, score := range s.Popularity {
			if err := kv.ZAdd(ctx, hotKey, score, strconv.FormatInt(id, 10)); err != nil {
				return fmt.Errorf("publish hot list: %w", err)
			}
		}
	}
	return nil
}

// Load 从 Store 整体加载快照。
// 任何一件产物缺失或无法解析都返回 MISSING_ARTIFACT：服务不允许
// 带着不完整的产物启动。
func Load(ctx context.Context, st core.Store, prefix string) (*Snapshot, error) {
	keys := make([]string, 0, len(artifactKeys))
	for _, suffix := range artifactKeys {
		keys = append(keys, artifactKey(prefix, suffix))
	}

	blobs, err := st.BatchGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	get := func(suffix string, v any) error {
		data, ok := blobs[artifactKey(prefix, suffix)]
		if !ok {
			return core.NewDomainError(core.ModuleSnapshot, core.ErrorCodeMissingArtifact,
				fmt.Sprintf("snapshot: artifact %q is missing", suffix))
		}
		if err := json.Unmarshal(data, v); err != nil {
			return core.NewDomainError(core.ModuleSnapshot, core.ErrorCodeMissingArtifact,
				fmt.Sprintf("snapshot: artifact %q is malformed: %v", suffix, err))
		}
		return nil
	}

	var interactions interactionsJSON
	if err := get(keyInteractions, &interactions); err != nil {
		return nil, err
	}
	var userFactors, itemFactors, similarity matrixJSON
	if err := get(keyUserFactors, &userFactors); err != nil {
		return nil, err
	}
	if err := get(keyItemFactors, &itemFactors); err != nil {
		return nil, err
	}
	if err := get(keySimilarity, &similarity); err != nil {
		return nil, err
	}
	var popularity []popularityEntryJSON
	if err := get(keyPopularity, &popularity); err != nil {
		return nil, err
	}
	var catalog []core.Product
	if err := get(keyProducts, &catalog); err != nil {
		return nil, err
	}

	popMap := make(map[int64]float64, len(popularity))
	for _, e := range popularity {
		popMap[e.ProductID] = e.Score
	}

	s := &Snapshot{
		Interactions: &dataset.InteractionMatrix{
			Users:    interactions.Users,
			Products: interactions.Products,
			Data:     interactions.Data,
		},
		UserFactors: denseFromJSON(userFactors),
		ItemFactors: denseFromJSON(itemFactors),
		Similarity:  denseFromJSON(similarity),
		Popularity:  popMap,
		Catalog:     catalog,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func denseToJSON(d *mat.Dense) matrixJSON {
	rows, cols := d.Dims()
	data := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		data = append(data, d.RawRowView(i)...)
	}
	return matrixJSON{Rows: rows, Cols: cols, Data: data}
}

func denseFromJSON(m matrixJSON) *mat.Dense {
	if m.Rows <= 0 || m.Cols <= 0 || len(m.Data) != m.Rows*m.Cols {
		return nil
	}
	return mat.NewDense(m.Rows, m.Cols, m.Data)
}

package dataset

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rushteam/crossell/core"
)

// LoadOrders 从 JSON 文件加载订单历史（训练任务的输入边界）。
func LoadOrders(path string) ([]core.Order, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read orders: %w", err)
	}

	var orders []core.Order
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, fmt.Errorf("parse orders: %w", err)
	}
	return orders, nil
}

// LoadProducts 从 JSON 文件加载商品元数据。
func LoadProducts(path string) ([]core.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read products: %w", err)
	}

	var products []core.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("parse products: %w", err)
	}
	return products, nil
}

package main

import (
	"context"
	"flag"
	"os"

	"go.uber.org/zap"

	"github.com/rushteam/crossell/config"
	"github.com/rushteam/crossell/core"
	"github.com/rushteam/crossell/dataset"
	"github.com/rushteam/crossell/store"
	"github.com/rushteam/crossell/train"
)

func main() {
	var (
		configPath   = flag.String("config", "", "YAML 配置文件路径（可选）")
		ordersPath   = flag.String("orders", "orders.json", "订单历史 JSON 文件")
		productsPath = flag.String("products", "products.json", "商品元数据 JSON 文件")
	)
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	cfg := config.Default()
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
		if err != nil {
			logger.Fatal("load config", zap.Error(err))
		}
	}

	orders, err := dataset.LoadOrders(*ordersPath)
	if err != nil {
		logger.Fatal("load orders", zap.Error(err))
	}
	products, err := dataset.LoadProducts(*productsPath)
	if err != nil {
		logger.Fatal("load products", zap.Error(err))
	}

	st, err := openStore(cfg)
	if err != nil {
		logger.Fatal("open store", zap.Error(err))
	}
	defer st.Close()

	trainer := &train.Trainer{
		Store:  st,
		Prefix: cfg.Store.Prefix,
		Opts: train.Options{
			MaxComponents: cfg.Training.MaxComponents,
			DecayLambda:   cfg.Training.DecayLambda,
			RandomFill:    cfg.Training.RandomFill,
			Seed:          cfg.Training.Seed,
		},
		Logger: logger,
	}

	if _, err := trainer.Run(context.Background(), orders, products); err != nil {
		logger.Fatal("training failed", zap.Error(err))
	}
}

func openStore(cfg *config.Config) (core.Store, error) {
	switch cfg.Store.Backend {
	case "redis":
		return store.NewRedisStore(cfg.Store.Addr, cfg.Store.DB)
	default:
		// memory 后端不跨进程持久化，只适合开发自测
		return store.NewMemoryStore(), nil
	}
}

package main

import (
	"context"
	"flag"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/rushteam/crossell/config"
	"github.com/rushteam/crossell/core"
	"github.com/rushteam/crossell/recommend"
	"github.com/rushteam/crossell/server"
	"github.com/rushteam/crossell/snapshot"
	"github.com/rushteam/crossell/store"
)

func main() {
	configPath := flag.String("config", "", "YAML 配置文件路径（可选）")
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

	st, err := openStore(cfg)
	if err != nil {
		logger.Fatal("open store", zap.Error(err))
	}
	defer st.Close()

	// 产物缺失或损坏时直接拒绝启动，不允许半初始化状态对外服务
	snap, err := snapshot.Load(context.Background(), st, cfg.Store.Prefix)
	if err != nil {
		logger.Fatal("load snapshot", zap.Error(err))
	}
	logger.Info("snapshot loaded",
		zap.Int("users", snap.NumUsers()),
		zap.Int("products", snap.NumProducts()))

	rec, err := recommend.New(snapshot.NewHolder(snap), recommend.Options{
		BaseWeight:       cfg.Serving.BaseWeight,
		PopularityWeight: cfg.Serving.PopularityWeight,
		Rule:             cfg.Serving.Rule,
	})
	if err != nil {
		logger.Fatal("init recommender", zap.Error(err))
	}

	srv := server.New(rec, logger, server.Options{
		DefaultN:              cfg.Serving.DefaultN,
		DefaultMaxPerCategory: cfg.Serving.DefaultMaxPerCategory,
	})

	logger.Info("serving", zap.String("addr", cfg.Server.Addr))
	if err := http.ListenAndServe(cfg.Server.Addr, srv.Handler()); err != nil {
		logger.Fatal("serve", zap.Error(err))
	}
}

func openStore(cfg *config.Config) (core.Store, error) {
	switch cfg.Store.Backend {
	case "redis":
		return store.NewRedisStore(cfg.Store.Addr, cfg.Store.DB)
	default:
		return store.NewMemoryStore(), nil
	}
}

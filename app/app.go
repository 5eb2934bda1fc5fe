// Package app 组装预测服务的各个组件
package app

import (
	"context"
	"fmt"
	"net"

	"go.uber.org/zap"

	"flightfare/config"
	qhttp "flightfare/http"
	"flightfare/ml"
	"flightfare/monitoring"
)

// App 进程级服务，启动时加载一次模型，之后只读
type App struct {
	cfg       *config.Config
	logger    *zap.Logger
	predictor *ml.Predictor
	metrics   *monitoring.MetricsCollector
	server    *qhttp.Server
}

// New 校验配置并加载归一化器与模型，任一失败则返回错误
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	predictor, err := ml.LoadPredictor(cfg.Artifacts.ScalerPath, cfg.Artifacts.ModelPath, cfg.Predict.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("load artifacts: %w", err)
	}
	logger.Info("artifacts loaded",
		zap.String("scaler", cfg.Artifacts.ScalerPath),
		zap.String("model", cfg.Artifacts.ModelPath),
		zap.Int("features", ml.FeatureWidth))
	return NewWithPredictor(cfg, predictor, logger), nil
}

// NewWithPredictor 使用已加载的预测器组装服务
func NewWithPredictor(cfg *config.Config, predictor *ml.Predictor, logger *zap.Logger) *App {
	metrics := monitoring.NewMetricsCollector()
	handler := qhttp.NewHandler(predictor, logger,
		qhttp.WithMetrics(metrics),
		qhttp.WithStrictCategories(cfg.Predict.StrictCategories))

	serverCfg := qhttp.DefaultServerConfig()
	serverCfg.Port = cfg.Server.Port
	if cfg.Server.Timeout > 0 {
		serverCfg.Timeout = cfg.Server.Timeout
	}
	if len(cfg.Server.AllowedOrigins) > 0 {
		serverCfg.AllowedOrigins = cfg.Server.AllowedOrigins
	}

	return &App{
		cfg:       cfg,
		logger:    logger,
		predictor: predictor,
		metrics:   metrics,
		server:    qhttp.NewServer(serverCfg, handler, logger),
	}
}

// Predictor 返回已加载的预测器
func (a *App) Predictor() *ml.Predictor {
	return a.predictor
}

// Run 在配置端口上提供服务，直到ctx取消
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.server.Addr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.server.Addr(), err)
	}
	return a.Serve(ctx, ln)
}

// Serve 在给定监听器上提供服务，ctx取消后优雅关闭
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.cfg.Artifacts.Watch {
		watcher, err := ml.NewArtifactWatcher(a.logger, a.cfg.Artifacts.ScalerPath, a.cfg.Artifacts.ModelPath)
		if err != nil {
			a.logger.Warn("artifact watcher disabled", zap.Error(err))
		} else {
			go watcher.Run(ctx)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if err := a.server.Stop(context.Background()); err != nil {
		return err
	}
	if err := <-errCh; err != nil {
		return err
	}
	a.logger.Info("server stopped")
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fantasy-backend/internal/common"
	"fantasy-backend/internal/db"
	"fantasy-backend/internal/logic"
)

func main() {
	config, err := LoadConfig()
	if err != nil {
		reportStartupError(os.Stderr, "加载配置失败", err)
		os.Exit(1)
	}
	defer common.Logger.Sync()
	config.Print()

	db.InitDB(config)
	store := db.NewGormStore(db.GetDB())

	ctx := context.Background()
	generator, err := logic.NewTextGenerator(ctx, config)
	if err != nil {
		common.Logger.Fatalw("初始化AI服务失败", "error", err)
	}
	publisher, err := logic.NewPublisher(config.NATS.URL)
	if err != nil {
		common.Logger.Warnw("消息服务不可用，事件将不会发布", "error", err)
		publisher = logic.NopPublisher{}
	}
	defer publisher.Close()

	analytics := logic.NewAnalytics(store, nil)
	job := logic.NewAnalysisJob(store, store, generator, publisher, nil)

	// 启动定时任务调度器
	scheduler := logic.NewScheduler(job, config.Scheduler.AnalysisSpec)
	if err := scheduler.Start(); err != nil {
		common.Logger.Fatalw("启动定时任务失败", "spec", config.Scheduler.AnalysisSpec, "error", err)
	}
	defer scheduler.Stop()

	// 启动Gin路由
	handlers := logic.NewHandlers(store, logic.NewRecordService(store), analytics, job)
	server := &http.Server{
		Addr:    ":" + config.App.Port,
		Handler: logic.SetupRouter(handlers),
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			common.Logger.Fatalw("HTTP服务异常退出", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.Logger.Infow("正在关闭服务")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		common.Logger.Errorw("关闭HTTP服务失败", "error", err)
	}
}

// reportStartupError 日志在配置加载后才初始化，之前的错误直接写到 w
func reportStartupError(w io.Writer, msg string, err error) {
	fmt.Fprintf(w, "%s: %v\n", msg, err)
}

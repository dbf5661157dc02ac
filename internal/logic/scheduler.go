package logic

import (
	"context"

	"fantasy-backend/internal/common"

	"github.com/robfig/cron/v3"
)

// cronLogger 把cron的日志接到全局 Logger
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	common.Logger.Infow(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	common.Logger.Errorw(msg, append(keysAndValues, "error", err)...)
}

// Scheduler 定时任务调度器
type Scheduler struct {
	cron *cron.Cron
	job  *AnalysisJob
	spec string
}

func NewScheduler(job *AnalysisJob, spec string) *Scheduler {
	logger := cronLogger{}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		job:  job,
		spec: spec,
	}
}

// Start 注册分析任务并启动，spec 非法时返回错误
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, s.runAnalysis)
	if err != nil {
		return err
	}
	s.cron.Start()
	common.Logger.Infow("启动定时任务调度器", "spec", s.spec)
	return nil
}

// Stop 停止调度并等待正在执行的任务结束
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// runAnalysis 不设超时，SkipIfStillRunning 保证两次执行不会重叠
func (s *Scheduler) runAnalysis() {
	common.Logger.Infow("开始定时分析")
	if _, err := s.job.Run(context.Background()); err != nil {
		common.Logger.Errorw("定时分析中断", "error", err)
	}
}

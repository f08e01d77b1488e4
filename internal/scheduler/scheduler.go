package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"PostPromoter/internal/logger"
	"PostPromoter/internal/model"
	"PostPromoter/internal/notifier"
)

// Engine is the bot state driven by the poll loop.
type Engine interface {
	Tick(ctx context.Context) error
	Wait()
	Status() model.Status
	PendingBids() []model.Bid
}

// cronLogger routes cron's own messages through zap.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}

// Scheduler drives the engine on a fixed period.
type Scheduler struct {
	Cron     *cron.Cron
	Engine   Engine
	Ctx      context.Context
	Interval time.Duration

	// job is the poll task shared by the cron entry and RunNow, so both go
	// through the same overlap guard.
	job cron.Job
}

// NewScheduler creates a new Scheduler. A tick that is still running when the
// next one is due causes the next one to be skipped.
func NewScheduler(ctx context.Context, eng Engine, interval time.Duration) *Scheduler {
	cl := cronLogger{l: logger.Named("cron").Sugar()}
	s := &Scheduler{
		Cron:     cron.New(cron.WithSeconds(), cron.WithLogger(cl)),
		Engine:   eng,
		Ctx:      ctx,
		Interval: interval,
	}
	s.job = cron.NewChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)).Then(cron.FuncJob(s.tick))
	return s
}

// Register adds the poll task.
func (s *Scheduler) Register() error {
	spec := fmt.Sprintf("@every %s", s.Interval)
	if _, err := s.Cron.AddJob(spec, s.job); err != nil {
		return fmt.Errorf("register poll task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	logger.Info("scheduler started", zap.Duration("interval", s.Interval))
}

// Stop stops the scheduler and waits for the running tick and round.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Engine.Wait()
	logger.Info("scheduler stopped")
}

// RunNow executes one tick immediately (for RUN_ON_START). It is skipped if
// a scheduled tick is still running.
func (s *Scheduler) RunNow() {
	s.job.Run()
}

func (s *Scheduler) tick() {
	if s.Ctx.Err() != nil {
		return
	}
	if err := s.Engine.Tick(s.Ctx); err != nil {
		logger.Warn("tick abandoned", zap.Error(err))
	}
}

// HandleCommand processes an operator command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/status":
		return notifier.FormatStatus(s.Engine.Status())
	case "/pool":
		return notifier.FormatPool(s.Engine.PendingBids())
	default:
		return "Available commands:\n• /status\n• /pool"
	}
}

// Package state defines shared program state.
package state

import (
	"context"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"cssnitro/config"
	"cssnitro/registry"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	// used by inspect subcommand
	Stylesheet string
	Scenario   string
	Output     string

	start         time.Time
	restoreStdLog func()

	mu   sync.Mutex
	regs []*registry.Registry
}

func newLocalEnv() *LocalEnv {
	return &LocalEnv{start: time.Now()}
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, newLocalEnv())
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
		e.restoreStdLog = nil
	}
}

// NewRegistry creates style registry from engine configuration. Registries
// opened here are closed by CloseRegistries unless closed earlier.
func (e *LocalEnv) NewRegistry(opts ...registry.Option) *registry.Registry {
	conf := &config.EngineConfig{}
	if e.Cfg != nil {
		conf = &e.Cfg.Engine
	}
	log := e.Log
	if log == nil {
		log = zap.NewNop()
	}
	reg := conf.Prepare(log, opts...)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.regs = append(e.regs, reg)
	return reg
}

// CloseRegistries closes every registry opened through environment, pending
// style updates are delivered first. Closing is idempotent.
func (e *LocalEnv) CloseRegistries() (err error) {
	e.mu.Lock()
	regs := e.regs
	e.regs = nil
	e.mu.Unlock()

	for _, reg := range regs {
		err = multierr.Append(err, reg.Close())
	}
	if len(regs) > 0 && e.Log != nil {
		e.Log.Debug("Registries closed", zap.Int("count", len(regs)), zap.Error(err))
	}
	return err
}

package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"cssnitro/config"
	"cssnitro/registry"
)

func testLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
}

func TestContextWithEnv(t *testing.T) {
	ctx := ContextWithEnv(context.Background())
	env := EnvFromContext(ctx)
	if env == nil {
		t.Fatal("EnvFromContext() returned nil")
	}
	if env.start.IsZero() {
		t.Error("Environment start time not set")
	}
	if EnvFromContext(ctx) != env {
		t.Error("Expected the same environment on every lookup")
	}
}

func TestEnvFromContext_PanicOnMissingEnv(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic when env not in context")
		}
	}()
	EnvFromContext(context.Background())
}

func TestLocalEnv_Uptime(t *testing.T) {
	env := EnvFromContext(ContextWithEnv(context.Background()))

	time.Sleep(10 * time.Millisecond)
	uptime := env.Uptime()

	if uptime < 10*time.Millisecond {
		t.Errorf("Uptime() = %v, expected at least 10ms", uptime)
	}
	if uptime > time.Second {
		t.Errorf("Uptime() = %v, unexpectedly large", uptime)
	}
}

func TestLocalEnv_StdLog(t *testing.T) {
	tests := []struct {
		name     string
		log      *zap.Logger
		redirect bool
	}{
		{"redirect", testLogger(t), true},
		{"restore without redirect", testLogger(t), false},
		{"nil logger", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := &LocalEnv{Log: tt.log}
			if tt.redirect {
				env.RedirectStdLog()
				if (env.restoreStdLog != nil) != (tt.log != nil) {
					t.Errorf("restoreStdLog set = %v, logger present = %v", env.restoreStdLog != nil, tt.log != nil)
				}
			}
			env.RestoreStdLog()
			if env.restoreStdLog != nil {
				t.Error("Expected restoreStdLog to be cleared")
			}
		})
	}
}

func TestLocalEnv_RedirectAndRestore(t *testing.T) {
	env := &LocalEnv{Log: testLogger(t)}
	for i := range 3 {
		env.RedirectStdLog()
		if env.restoreStdLog == nil {
			t.Errorf("Iteration %d: restoreStdLog not set", i)
		}
		env.RestoreStdLog()
	}
}

func TestLocalEnv_Integration(t *testing.T) {
	env := EnvFromContext(ContextWithEnv(context.Background()))

	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	env.Cfg = cfg
	env.Log = testLogger(t)
	env.Stylesheet = "styles.yaml"

	env.RedirectStdLog()
	defer env.RestoreStdLog()

	r := env.NewRegistry()
	defer func() {
		if err := env.CloseRegistries(); err != nil {
			t.Errorf("CloseRegistries() error = %v", err)
		}
	}()
	if r.Window() != env.Cfg.Engine.Window.Window() {
		t.Errorf("Window() = %+v, want configured %+v", r.Window(), env.Cfg.Engine.Window)
	}
}

func TestLocalEnv_CloseRegistries(t *testing.T) {
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	env := &LocalEnv{Cfg: cfg, Log: testLogger(t)}

	first := env.NewRegistry()
	second := env.NewRegistry()
	if err := first.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if err := env.CloseRegistries(); err != nil {
		t.Fatalf("CloseRegistries() error = %v", err)
	}
	if err := second.RegisterClassname("box", nil); !errors.Is(err, registry.ErrClosed) {
		t.Errorf("RegisterClassname() error = %v, want ErrClosed", err)
	}
	if err := env.CloseRegistries(); err != nil {
		t.Errorf("second CloseRegistries() error = %v", err)
	}
}

func TestLocalEnv_NewRegistryWithoutConfig(t *testing.T) {
	env := &LocalEnv{}
	r := env.NewRegistry()
	defer env.CloseRegistries()
	if err := r.RegisterClassname("box", nil); err != nil {
		t.Errorf("RegisterClassname() error = %v", err)
	}
}

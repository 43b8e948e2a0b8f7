package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/tracelog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ogurasousui/hr-records-api/internal/platform/config"
)

func TestBuildPoolConfig(t *testing.T) {
	t.Parallel()

	dbCfg := config.DatabaseConfig{
		Host:            "localhost",
		Port:            15432,
		User:            "user",
		Password:        "pass",
		Name:            "hr",
		SSLMode:         "disable",
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 10 * time.Minute,
	}

	poolCfg, err := BuildPoolConfig(dbCfg)
	if err != nil {
		t.Fatalf("BuildPoolConfig returned error: %v", err)
	}

	if poolCfg.MaxConns != 20 {
		t.Errorf("expected MaxConns 20, got %d", poolCfg.MaxConns)
	}
	if poolCfg.MinConns != 5 {
		t.Errorf("expected MinConns 5, got %d", poolCfg.MinConns)
	}
	if poolCfg.MaxConnLifetime != 30*time.Minute {
		t.Errorf("unexpected MaxConnLifetime: %v", poolCfg.MaxConnLifetime)
	}
	if poolCfg.MaxConnIdleTime != 10*time.Minute {
		t.Errorf("unexpected MaxConnIdleTime: %v", poolCfg.MaxConnIdleTime)
	}
	if poolCfg.ConnConfig.Database != "hr" {
		t.Errorf("expected database hr, got %s", poolCfg.ConnConfig.Database)
	}
	if got := poolCfg.ConnConfig.RuntimeParams["application_name"]; got != applicationName {
		t.Errorf("expected application_name %s, got %s", applicationName, got)
	}
}

func TestBuildPoolConfig_QueryTracer(t *testing.T) {
	t.Parallel()

	dbCfg := config.DatabaseConfig{Host: "localhost", Port: 5432, User: "u", Password: "p", Name: "hr", SSLMode: "disable"}

	poolCfg, err := BuildPoolConfig(dbCfg, WithLogger(zap.NewNop()))
	if err != nil {
		t.Fatalf("BuildPoolConfig returned error: %v", err)
	}
	if poolCfg.ConnConfig.Tracer != nil {
		t.Errorf("expected no tracer when debug is disabled")
	}

	core, _ := observer.New(zapcore.DebugLevel)
	poolCfg, err = BuildPoolConfig(dbCfg, WithLogger(zap.New(core)))
	if err != nil {
		t.Fatalf("BuildPoolConfig returned error: %v", err)
	}
	if _, ok := poolCfg.ConnConfig.Tracer.(*tracelog.TraceLog); !ok {
		t.Errorf("expected tracelog tracer, got %T", poolCfg.ConnConfig.Tracer)
	}
}

func TestQueryLogger_OmitsArgs(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	l := queryLogger{logger: zap.New(core)}

	l.Log(context.Background(), tracelog.LogLevelInfo, "Query", map[string]any{
		"sql":  "SELECT 1 FROM auth_users WHERE username = $1",
		"args": []any{"secret"},
	})
	l.Log(context.Background(), tracelog.LogLevelError, "Query", map[string]any{"err": "boom"})

	entries := logs.AllUntimed()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Level != zapcore.InfoLevel || entries[1].Level != zapcore.ErrorLevel {
		t.Errorf("unexpected levels: %v, %v", entries[0].Level, entries[1].Level)
	}
	fields := entries[0].ContextMap()
	if _, ok := fields["args"]; ok {
		t.Errorf("expected args to be omitted, got %v", fields)
	}
	if fields["sql"] != "SELECT 1 FROM auth_users WHERE username = $1" {
		t.Errorf("unexpected sql field: %v", fields["sql"])
	}
}

type flakyPinger struct {
	failures int
	calls    int
}

func (p *flakyPinger) Ping(context.Context) error {
	p.calls++
	if p.calls <= p.failures {
		return errors.New("connection refused")
	}
	return nil
}

func TestPingWithRetry(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	o := buildOptions([]PoolOption{WithLogger(zap.New(core)), WithPingRetry(3, time.Millisecond)})

	db := &flakyPinger{failures: 2}
	if err := pingWithRetry(context.Background(), db, o); err != nil {
		t.Fatalf("expected ping to succeed on third attempt, got %v", err)
	}
	if db.calls != 3 {
		t.Errorf("expected 3 calls, got %d", db.calls)
	}
	if logs.FilterMessage("database not ready, retrying").Len() != 2 {
		t.Errorf("expected 2 retry logs, got %d", logs.Len())
	}

	db = &flakyPinger{failures: 5}
	if err := pingWithRetry(context.Background(), db, o); err == nil {
		t.Fatalf("expected error after exhausting attempts")
	}
	if db.calls != 3 {
		t.Errorf("expected 3 calls, got %d", db.calls)
	}
}

func TestPingWithRetry_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := buildOptions([]PoolOption{WithPingRetry(5, time.Hour)})
	db := &flakyPinger{failures: 5}
	if err := pingWithRetry(ctx, db, o); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if db.calls != 1 {
		t.Errorf("expected a single attempt, got %d", db.calls)
	}
}

package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/heartmarshall/symbolset/pkg/config"
)

func TestNewPool_DisabledCatalog(t *testing.T) {
	t.Parallel()

	pool, err := NewPool(context.Background(), config.DatabaseConfig{})
	if !errors.Is(err, errNoDSN) {
		t.Fatalf("NewPool(empty dsn) error = %v, want errNoDSN", err)
	}
	if pool != nil {
		t.Error("NewPool(empty dsn) returned a pool")
	}
}

func TestNewPool_InvalidDSN(t *testing.T) {
	t.Parallel()

	_, err := NewPool(context.Background(), config.DatabaseConfig{DSN: "postgres://u:p@host:notaport/db", MaxConns: 1})
	if err == nil {
		t.Fatal("NewPool(invalid dsn) returned no error")
	}
}

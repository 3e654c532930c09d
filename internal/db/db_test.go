package db

import (
	"context"
	"io/fs"
	"testing"
)

func TestNewWithInvalidURL(t *testing.T) {
	_, err := New(context.Background(), "postgres://invalid:5432/nonexistent?connect_timeout=1")
	if err == nil {
		t.Fatal("expected error for invalid database URL, got nil")
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := fs.Glob(migrations, "migrations/*.up.sql")
	if err != nil {
		t.Fatalf("glob failed: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expected at least one up migration")
	}
}

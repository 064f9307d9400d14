package database

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"hseqaudit/cmd/internal/domain/entity"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type captureWriter struct {
	mu    sync.Mutex
	lines []string
}

func (w *captureWriter) Printf(format string, args ...any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lines = append(w.lines, fmt.Sprintf(format, args...))
}

func (w *captureWriter) output() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return strings.Join(w.lines, "\n")
}

func TestGormLogger_SkipsRecordNotFound(t *testing.T) {
	w := &captureWriter{}
	cfg := gormConfig()
	cfg.Logger = newGormLogger(w)

	db, err := gorm.Open(sqlite.Open(":memory:"), cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = Close(db) })
	if err := db.AutoMigrate(&entity.Company{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	var company entity.Company
	err = db.First(&company, 424242).Error
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
	if out := w.output(); strings.Contains(out, "record not found") {
		t.Errorf("missing row was logged: %s", out)
	}

	if err := db.Table("missing_table").First(&company).Error; err == nil {
		t.Fatal("query on a missing table should fail")
	}
	if out := w.output(); !strings.Contains(out, "missing_table") {
		t.Errorf("real query errors must still be logged, got %q", out)
	}
}

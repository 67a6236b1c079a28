package benchmarks

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/randalmurphal/flowmend/pkg/flowmend/cursor"
)

func sampleRecord(i int) cursor.Record {
	return cursor.Record{
		SessionID: "bench-session",
		RootID:    fmt.Sprintf("root-%03d", i%100),
		Token:     "0a1b2c3d:4:pg-0001,pg-0002,pg-0003,pg-0004",
		Kind:      "processor",
		Visited:   i,
	}
}

// BenchmarkMemoryStore_Save measures in-memory cursor persistence.
func BenchmarkMemoryStore_Save(b *testing.B) {
	store := cursor.NewMemoryStore()
	defer store.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = store.Save(sampleRecord(i))
	}
}

// BenchmarkMemoryStore_Load measures in-memory cursor lookup.
func BenchmarkMemoryStore_Load(b *testing.B) {
	store := cursor.NewMemoryStore()
	defer store.Close()
	_ = store.Save(sampleRecord(0))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.Load("bench-session", "root-000")
	}
}

// BenchmarkSQLiteStore_Save measures durable cursor persistence.
func BenchmarkSQLiteStore_Save(b *testing.B) {
	store, err := cursor.NewSQLiteStore(filepath.Join(b.TempDir(), "cursors.db"))
	if err != nil {
		b.Fatal(err)
	}
	defer store.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = store.Save(sampleRecord(i))
	}
}

// BenchmarkSQLiteStore_Load measures durable cursor lookup.
func BenchmarkSQLiteStore_Load(b *testing.B) {
	store, err := cursor.NewSQLiteStore(filepath.Join(b.TempDir(), "cursors.db"))
	if err != nil {
		b.Fatal(err)
	}
	defer store.Close()
	_ = store.Save(sampleRecord(0))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.Load("bench-session", "root-000")
	}
}

package statscache

import (
	"context"
	"testing"

	"github.com/metalforge/sheetcost/internal/toolpath"
)

func TestMemoryGetPutRoundTrip(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()
	key := toolpath.ContentHash{0x01, 0x02}
	stats := toolpath.Stats{CutLengthMM: 123.45, PierceCount: 3}

	if _, ok, err := c.Get(ctx, key); err != nil || ok {
		t.Fatalf("expected miss before Put, got ok=%v err=%v", ok, err)
	}

	if err := c.Put(ctx, key, stats); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("expected hit after Put, got ok=%v err=%v", ok, err)
	}
	if got.CutLengthMM != stats.CutLengthMM || got.PierceCount != stats.PierceCount {
		t.Errorf("Get() = %+v, want %+v", got, stats)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestMemoryConcurrentAccess(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()
	done := make(chan struct{})
	key := toolpath.ContentHash{0xAA}

	for i := 0; i < 8; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			_ = c.Put(ctx, key, toolpath.Stats{PierceCount: n})
			_, _, _ = c.Get(ctx, key)
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (single content-addressed key)", c.Len())
	}
}

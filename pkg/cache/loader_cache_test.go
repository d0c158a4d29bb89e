package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestLoaderCache_Get_miss_then_hit(t *testing.T) {
	loads := atomic.Int32{}

	c, err := NewLoaderCache[string, string](10, func(s string) string { return s })
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	load := func(_ context.Context, key string) (string, error) {
		loads.Add(1)

		return "v-" + key, nil
	}

	v, hit, err := c.GetWithStats(ctx, "a", load)
	if err != nil {
		t.Fatal(err)
	}

	if hit {
		t.Error("expected miss")
	}

	if v != "v-a" {
		t.Errorf("got %q", v)
	}

	if loads.Load() != 1 {
		t.Errorf("loads = %d", loads.Load())
	}

	v, hit, err = c.GetWithStats(ctx, "a", load)
	if err != nil {
		t.Fatal(err)
	}

	if !hit {
		t.Error("expected hit")
	}

	if v != "v-a" {
		t.Errorf("got %q", v)
	}

	if loads.Load() != 1 {
		t.Errorf("loads = %d", loads.Load())
	}
}

func TestLoaderCache_Get_singleflight(t *testing.T) {
	loads := atomic.Int32{}

	c, err := NewLoaderCache[string, int](10, func(s string) string { return s })
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()

	var gate sync.WaitGroup
	gate.Add(1)

	var arrived atomic.Int32
	//nolint:unparam // load always returns nil error for this test.
	load := func(_ context.Context, _ string) (int, error) {
		loads.Add(1)

		return 42, nil
	}

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if arrived.Add(1) == 10 {
				gate.Done()
			}

			gate.Wait()

			val, _, err := c.GetWithStats(ctx, "x", load)
			if err != nil {
				t.Error(err)

				return
			}

			if val != 42 {
				t.Errorf("got %d", val)
			}
		}()
	}

	wg.Wait()

	// Scheduling may let some callers miss the in-flight load, so only bound the count.
	if n := loads.Load(); n < 1 || n > 10 {
		t.Errorf("expected 1–10 loads (singleflight coalescing), got %d", n)
	}
}

func TestLoaderCache_Invalidate(t *testing.T) {
	c, err := NewLoaderCache[string, string](10, func(s string) string { return s })
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	load := func(_ context.Context, key string) (string, error) { return "v-" + key, nil }

	_, _ = c.Get(ctx, "a", load)
	if c.Len() != 1 {
		t.Errorf("Len = %d", c.Len())
	}

	c.Invalidate("a")

	if c.Len() != 0 {
		t.Errorf("Len = %d", c.Len())
	}

	_, hit, _ := c.GetWithStats(ctx, "a", load)
	if hit {
		t.Error("expected miss after Invalidate")
	}
}

func TestLoaderCache_InvalidateAll(t *testing.T) {
	c, err := NewLoaderCache[string, string](10, func(s string) string { return s })
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	load := func(_ context.Context, key string) (string, error) { return "v-" + key, nil }

	_, _ = c.Get(ctx, "a", load)

	_, _ = c.Get(ctx, "b", load)
	if c.Len() != 2 {
		t.Errorf("Len = %d", c.Len())
	}

	c.InvalidateAll()

	if c.Len() != 0 {
		t.Errorf("Len = %d", c.Len())
	}

	_, hit, _ := c.GetWithStats(ctx, "a", load)
	if hit {
		t.Error("expected miss after InvalidateAll")
	}
}

func TestLoaderCache_Get_load_error(t *testing.T) {
	c, err := NewLoaderCache[string, string](10, func(s string) string { return s })
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	loadErr := context.DeadlineExceeded
	load := func(_ context.Context, _ string) (string, error) {
		return "", loadErr
	}

	_, err = c.Get(ctx, "a", load)
	if !errors.Is(err, loadErr) {
		t.Errorf("got err %v", err)
	}

	if c.Len() != 0 {
		t.Error("failed load should not be cached")
	}
}

func TestLoaderCache_GetMany(t *testing.T) {
	c, err := NewLoaderCache[string, int](10, func(s string) string { return s })
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()

	var batches [][]string

	loadMany := func(_ context.Context, keys []string) ([]int, error) {
		batches = append(batches, append([]string(nil), keys...))

		out := make([]int, len(keys))
		for i, k := range keys {
			out[i] = len(k)
		}

		return out, nil
	}

	got, hits, err := c.GetMany(ctx, []string{"a", "bb", "a", "ccc"}, loadMany)
	if err != nil {
		t.Fatal(err)
	}

	if hits != 0 {
		t.Errorf("hits = %d, want 0", hits)
	}

	want := []int{1, 2, 1, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %d, want %d", i, got[i], want[i])
		}
	}

	if len(batches) != 1 || len(batches[0]) != 3 {
		t.Fatalf("expected one batch of 3 distinct keys, got %v", batches)
	}

	got, hits, err = c.GetMany(ctx, []string{"bb", "dddd"}, loadMany)
	if err != nil {
		t.Fatal(err)
	}

	if hits != 1 {
		t.Errorf("hits = %d, want 1", hits)
	}

	if got[0] != 2 || got[1] != 4 {
		t.Errorf("got %v", got)
	}

	if len(batches) != 2 || len(batches[1]) != 1 || batches[1][0] != "dddd" {
		t.Errorf("second batch should only load the miss, got %v", batches)
	}
}

func TestLoaderCache_GetMany_errors(t *testing.T) {
	c, err := NewLoaderCache[string, int](10, func(s string) string { return s })
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()

	_, _, err = c.GetMany(ctx, []string{"a"}, func(context.Context, []string) ([]int, error) {
		return nil, context.Canceled
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got err %v", err)
	}

	_, _, err = c.GetMany(ctx, []string{"a", "b"}, func(context.Context, []string) ([]int, error) {
		return []int{1}, nil
	})
	if err == nil {
		t.Error("expected count mismatch error")
	}

	if c.Len() != 0 {
		t.Errorf("failed loads should not be cached, Len = %d", c.Len())
	}
}

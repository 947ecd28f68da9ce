package cache

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestLRU_Basic(t *testing.T) {
	c := New[string, int](3)

	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("c", 3)

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v; want 1, true", v, ok)
	}
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Errorf("Get(c) = %d, %v; want 3, true", v, ok)
	}
	if _, ok := c.Get("d"); ok {
		t.Error("Get(d) should return false for missing key")
	}
}

func TestLRU_Eviction(t *testing.T) {
	var evicted []string
	c := New(2, WithEvictCallback(func(k string, _ int) {
		evicted = append(evicted, k)
	}))

	c.Add("a", 1)
	c.Add("b", 2)
	c.Get("a")
	c.Add("c", 3)

	if len(evicted) != 1 || evicted[0] != "b" {
		t.Errorf("evicted = %v; want [b]", evicted)
	}
	if _, ok := c.Get("b"); ok {
		t.Error("'b' should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("'a' was used recently and should remain")
	}
	if s := c.Stats(); s.Evicts != 1 || s.Size != 2 {
		t.Errorf("Stats() = %+v; want 1 evict, size 2", s)
	}
}

func TestLRU_Update(t *testing.T) {
	c := New[string, int](2)

	c.Add("a", 1)
	c.Add("a", 10)

	if v, _ := c.Get("a"); v != 10 {
		t.Errorf("Get(a) = %d; want 10", v)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d; want 1", c.Len())
	}
}

func TestLRU_GetOrLoad(t *testing.T) {
	c := New[string, string](4)
	calls := 0
	load := func() (string, error) {
		calls++
		return "loaded", nil
	}

	v, hit, err := c.GetOrLoad("k", load)
	if err != nil || hit || v != "loaded" {
		t.Fatalf("first GetOrLoad = %q, %v, %v", v, hit, err)
	}
	v, hit, err = c.GetOrLoad("k", load)
	if err != nil || !hit || v != "loaded" {
		t.Fatalf("second GetOrLoad = %q, %v, %v", v, hit, err)
	}
	if calls != 1 {
		t.Errorf("load called %d times; want 1", calls)
	}

	boom := errors.New("boom")
	_, _, err = c.GetOrLoad("bad", func() (string, error) { return "", boom })
	if !errors.Is(err, boom) {
		t.Errorf("err = %v; want boom", err)
	}
	if _, ok := c.Peek("bad"); ok {
		t.Error("failed loads must not be cached")
	}

	if s := c.Stats(); s.Loads != 1 {
		t.Errorf("Loads = %d; want 1", s.Loads)
	}
}

func TestLRU_RemoveFuncAndPurge(t *testing.T) {
	c := New[string, int](10)
	for i := 0; i < 5; i++ {
		c.Add(fmt.Sprintf("https://example.org/%d", i), i)
	}

	n := c.RemoveFunc(func(k string) bool { return k == "https://example.org/1" || k == "https://example.org/3" })
	if n != 2 || c.Len() != 3 {
		t.Errorf("RemoveFunc removed %d, Len() = %d; want 2, 3", n, c.Len())
	}

	c.Purge()
	if c.Len() != 0 {
		t.Errorf("Len() after Purge = %d; want 0", c.Len())
	}
}

func TestLRU_Stats(t *testing.T) {
	c := New[string, int](0)
	if c.Stats().Capacity != DefaultCapacity {
		t.Errorf("Capacity = %d; want %d", c.Stats().Capacity, DefaultCapacity)
	}

	c.Add("a", 1)
	c.Get("a")
	c.Get("a")
	c.Get("a")
	c.Get("b")

	s := c.Stats()
	if s.Hits != 3 || s.Misses != 1 || s.HitRate != 0.75 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestLRU_Concurrent(t *testing.T) {
	c := New[int, int](64)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				k := (g*1000 + i) % 100
				c.Add(k, i)
				c.Get(k)
				_, _, _ = c.GetOrLoad(k+1, func() (int, error) { return i, nil })
			}
		}(g)
	}
	wg.Wait()

	if c.Len() > 64 {
		t.Errorf("Len() = %d exceeds capacity", c.Len())
	}
}

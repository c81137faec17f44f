package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ehdc-llpg/addrparse/internal/address"
)

func TestNilCacheIsNoop(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	if err := c.Set(ctx, Key{Locale: "US", Kind: "location", Text: "100 Main St"}, address.Record{"street": "Main"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	rec, hit, err := c.Get(ctx, Key{Locale: "US", Kind: "location", Text: "100 Main St"})
	if err != nil || hit || rec != nil {
		t.Errorf("Get() = %v, %v, %v; want nil, false, nil", rec, hit, err)
	}
	if err := c.Flush(ctx); err != nil {
		t.Errorf("Flush() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	c, err = Dial(ctx, "", "", 0)
	if err != nil || c != nil {
		t.Errorf("Dial(\"\") = %v, %v; want nil, nil", c, err)
	}
}

func TestKeyIncludesGeneration(t *testing.T) {
	c := &Cache{keyPrefix: "p:"}

	tests := []struct {
		name string
		a, b Key
		same bool
	}{
		{"locale case folds", Key{1, "US", "location", "x"}, Key{1, "us", "location", "x"}, true},
		{"generation differs", Key{1, "US", "location", "x"}, Key{2, "US", "location", "x"}, false},
		{"kind differs", Key{1, "US", "location", "x"}, Key{1, "US", "street", "x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.key(tt.a) == c.key(tt.b); got != tt.same {
				t.Errorf("key(%+v) == key(%+v) is %v, want %v", tt.a, tt.b, got, tt.same)
			}
		})
	}

	if got := c.key(Key{7, "CA", "po", "PO Box 1"}); got != "p:parse:7|ca|po|PO Box 1" {
		t.Errorf("key() = %q", got)
	}
}

func TestNewRequiresClient(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("New() without client error = nil")
	}
}

func TestRedisCache(t *testing.T) {
	// Skip test if Redis is not available
	client := redis.NewClient(&redis.Options{
		Addr: "127.0.0.1:6379",
		DB:   3,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	defer client.FlushDB(ctx)

	c, err := New(Config{Client: client, KeyPrefix: "addrparse-test:", TTL: time.Minute})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Close()

	mainSt := Key{Generation: 1, Locale: "US", Kind: "location", Text: "100 Main St"}
	noMatch := Key{Generation: 1, Locale: "US", Kind: "location", Text: "999999"}

	t.Run("miss", func(t *testing.T) {
		_, hit, err := c.Get(ctx, Key{Generation: 1, Locale: "US", Kind: "location", Text: "nothing here"})
		if err != nil || hit {
			t.Errorf("Get() hit = %v, err = %v", hit, err)
		}
	})

	t.Run("record round trip", func(t *testing.T) {
		want := address.Record{"number": "100", "street": "Main", "type": "St"}
		if err := c.Set(ctx, mainSt, want); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		got, hit, err := c.Get(ctx, Key{Generation: 1, Locale: "us", Kind: "location", Text: "100 Main St"})
		if err != nil || !hit {
			t.Fatalf("Get() hit = %v, err = %v", hit, err)
		}
		if got["street"] != "Main" || got["type"] != "St" {
			t.Errorf("Get() = %v, want %v", got, want)
		}
	})

	t.Run("cached no match", func(t *testing.T) {
		if err := c.Set(ctx, noMatch, nil); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		got, hit, err := c.Get(ctx, noMatch)
		if err != nil || !hit || got != nil {
			t.Errorf("Get() = %v, %v, %v; want nil, true, nil", got, hit, err)
		}
	})

	t.Run("other generation misses", func(t *testing.T) {
		next := mainSt
		next.Generation = 2
		if _, hit, err := c.Get(ctx, next); err != nil || hit {
			t.Errorf("Get(generation 2) hit = %v, err = %v", hit, err)
		}
	})

	t.Run("flush", func(t *testing.T) {
		if err := c.Flush(ctx); err != nil {
			t.Fatalf("Flush() error = %v", err)
		}
		if _, hit, _ := c.Get(ctx, mainSt); hit {
			t.Error("entry survived Flush()")
		}
	})
}

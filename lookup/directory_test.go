package lookup

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	redisstore "github.com/open-rails/insights/storage/redis"
)

func newTestCache(t *testing.T) *redisstore.LookupCache {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return redisstore.NewLookupCache(rdb, "", time.Minute)
}

// A warm cache satisfies lookups without touching postgres at all; the nil
// pool would panic if the direct-read path were taken.
func TestDirectory_VillageCacheHit(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	want := Village{
		LGDCode:      "V-4217",
		Name:         "Khedgaon",
		TalukaCode:   "T-88",
		TalukaName:   "Dindori",
		DistrictName: "Nashik",
	}
	if err := cache.Put(ctx, kindVillage, want.LGDCode, want); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	d := NewDirectory(nil, cache, "", nil)
	got, ok, err := d.Village(ctx, want.LGDCode)
	if err != nil {
		t.Fatalf("Village: %v", err)
	}
	if !ok {
		t.Fatal("expected village to resolve from cache")
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestDirectory_TalukaCacheHit(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	want := Taluka{
		LGDCode:      "T-88",
		Name:         "Dindori",
		DistrictName: "Nashik",
		VillageCount: 157,
	}
	if err := cache.Put(ctx, kindTaluka, want.LGDCode, want); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	d := NewDirectory(nil, cache, "", nil)
	got, ok, err := d.Taluka(ctx, want.LGDCode)
	if err != nil {
		t.Fatalf("Taluka: %v", err)
	}
	if !ok {
		t.Fatal("expected taluka to resolve from cache")
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestDirectory_RefreshWithoutCacheIsNoop(t *testing.T) {
	d := NewDirectory(nil, nil, "", nil)
	if err := d.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
}

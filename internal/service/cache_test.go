package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/meridianhq/meridian/internal/service"
	"github.com/stretchr/testify/assert"
)

func TestCacheService(t *testing.T) {
	svc := service.NewCacheService(service.CacheConfig{
		TTL:         time.Minute,
		CleanupFreq: time.Minute,
	})
	defer svc.Close()

	ctx := context.Background()

	type entry struct {
		Name string
	}

	t.Run("set then get round trips", func(t *testing.T) {
		assert.NoError(t, svc.Set(ctx, "k1", entry{Name: "Acme"}))

		var out entry
		assert.NoError(t, svc.Get(ctx, "k1", &out))
		assert.Equal(t, "Acme", out.Name)
	})

	t.Run("get or set fetches once", func(t *testing.T) {
		calls := 0
		fetch := func() (interface{}, error) {
			calls++
			return entry{Name: "Fetched"}, nil
		}

		var out entry
		assert.NoError(t, svc.GetOrSet(ctx, "k2", &out, fetch))
		assert.NoError(t, svc.GetOrSet(ctx, "k2", &out, fetch))
		assert.Equal(t, 1, calls)
		assert.Equal(t, "Fetched", out.Name)
	})

	t.Run("fetch errors are not cached", func(t *testing.T) {
		var out entry
		err := svc.GetOrSet(ctx, "k3", &out, func() (interface{}, error) {
			return nil, errors.New("boom")
		})
		assert.Error(t, err)

		assert.NoError(t, svc.GetOrSet(ctx, "k3", &out, func() (interface{}, error) {
			return entry{Name: "Recovered"}, nil
		}))
		assert.Equal(t, "Recovered", out.Name)
	})

	t.Run("delete evicts", func(t *testing.T) {
		assert.NoError(t, svc.Set(ctx, "k4", entry{Name: "Gone"}))
		svc.Delete(ctx, "k4")

		var out entry
		assert.Error(t, svc.Get(ctx, "k4", &out))
	})
}

package store_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/chewton2k/Imprint/store"
	"github.com/chewton2k/Imprint/store/storetest"
)

func TestMemoryConformance(t *testing.T) {
	storetest.RunSuite(t, func(t *testing.T) store.Store {
		return store.NewMemory()
	})
}

func TestMemoryConcurrentCreates(t *testing.T) {
	s := store.NewMemory()
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := storetest.Record(t, i)
			if _, err := s.Create(ctx, r); err != nil {
				errs <- fmt.Errorf("create %d: %w", i, err)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	for i := 0; i < 32; i++ {
		if _, err := s.FindByID(ctx, fmt.Sprintf("rec-%d", i)); err != nil {
			t.Errorf("FindByID rec-%d: %v", i, err)
		}
	}
}

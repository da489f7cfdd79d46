package core

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuietProgress(t *testing.T) {
	base := context.Background()
	assert.False(t, shouldQuietProgress(base))

	quiet := WithQuietProgress(base)
	assert.True(t, shouldQuietProgress(quiet))

	// Derived contexts keep the flag; the parent is unchanged
	child, cancel := context.WithCancel(quiet)
	defer cancel()
	assert.True(t, shouldQuietProgress(child))
	assert.False(t, shouldQuietProgress(base))
}

func TestQuietProgress_ConcurrentReads(t *testing.T) {
	ctx := WithQuietProgress(context.Background())
	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			assert.True(t, shouldQuietProgress(ctx))
		})
	}
	wg.Wait()
}

package memory

import (
	"testing"

	"github.com/MrSnakeDoc/toolshelf/internal/store"
	"github.com/MrSnakeDoc/toolshelf/internal/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return New()
	})
}

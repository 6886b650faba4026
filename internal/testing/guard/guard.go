package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("HELIX_TEST_MODE") == "" {
			_ = os.Setenv("HELIX_TEST_MODE", "1")
		}
	})
}

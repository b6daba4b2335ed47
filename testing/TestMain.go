// Package testing pins the process environment for packages that blank-import it.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
	"time"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("FOODZONE_TEST_MODE", "1")
		// Report rendering must never reach a real Gotenberg from tests.
		_ = os.Setenv("GOTENBERG_URL", "http://127.0.0.1:0")
		if os.Getenv("LOG_LEVEL") == "" {
			_ = os.Setenv("LOG_LEVEL", "error")
		}
		time.Local = time.UTC
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}

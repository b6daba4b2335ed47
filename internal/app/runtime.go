package app

import (
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/foodzone/foodzone-pos/internal/platform/httpx"
)

const testModeEnv = "FOODZONE_TEST_MODE"

var (
	testModeFlag atomic.Bool
	testModeOnce sync.Once
)

func detectTestMode() {
	on, _ := strconv.ParseBool(os.Getenv(testModeEnv))
	testModeFlag.Store(on)
}

// InTestMode reports whether binaries should return before touching Postgres,
// Redis or Gotenberg.
func InTestMode() bool {
	testModeOnce.Do(detectTestMode)
	return testModeFlag.Load()
}

// RefreshTestMode re-reads FOODZONE_TEST_MODE.
func RefreshTestMode() {
	testModeOnce.Do(func() {})
	detectTestMode()
}

// ReadOnlyGuard rejects ledger mutations on a reporting-only instance
// (APP_READ_ONLY). Summaries, ranges, reports and health stay available.
func ReadOnlyGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
		default:
			httpx.Problem(w, http.StatusForbidden, "Read-only instance",
				"this instance serves reports only; record sales and closeouts on the till")
		}
	})
}

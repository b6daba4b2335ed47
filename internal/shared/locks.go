package shared

import "fmt"

// CloseoutLockKey builds the redis key guarding a day's closeout.
func CloseoutLockKey(period string) string {
	return fmt.Sprintf("foodzone:closeout:%s:lock", period)
}

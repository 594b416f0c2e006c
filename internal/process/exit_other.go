//go:build !linux

package process

// AwaitExit is only implemented on Linux. Elsewhere it reports false and
// descendants are killed on deadline only.
func AwaitExit(pid int) bool {
	return false
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package strm_test

import "testing"

// skipRace skips tests that exercise atomix/lfq cross-variable memory
// ordering. The race detector tracks per-variable happens-before and
// cannot see store-release on slots paired with load-acquire on the
// cursor, producing false positives.
func skipRace(tb testing.TB) {
	tb.Helper()
	tb.Skip("skip: ring uses cross-variable memory ordering")
}

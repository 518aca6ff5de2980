// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package scq

// RaceEnabled is true when the race detector is active.
// The concurrent tests exercising the lock-free engine paths, which trigger
// false positives due to cross-variable memory ordering the race detector
// cannot observe, are excluded by their own //go:build !race tag; this
// constant exposes the same condition to code.
const RaceEnabled = true

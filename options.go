// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package scq

// pad is cache line padding to prevent false sharing between hot atomic
// fields and adjacent pool cells that independent producer/consumer cores
// touch concurrently.
type pad [64]byte

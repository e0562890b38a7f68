// Copyright © 2025 Signet Contributors
//
// SPDX-License-Identifier: MIT

package secure

import (
	"math/big"
	"runtime"
	"sync/atomic"
)

// wipeSink defeats dead-store elimination: the compiler cannot prove the
// wiped buffer is never observed again while the sink may publish it.
var wipeSink atomic.Pointer[byte]

// Wipe overwrites b with zero bytes. The write is ordered before the
// function returns and cannot be elided by the optimiser.
func Wipe(b []byte) {
	if len(b) == 0 {
		return
	}
	for i := range b {
		b[i] = 0
	}
	wipeSink.Store(&b[0])
	runtime.KeepAlive(b)
}

// WipeBig zeroises the absolute value words of a big integer in place.
func WipeBig(n *big.Int) {
	if n == nil {
		return
	}
	words := n.Bits()
	for i := range words {
		words[i] = 0
	}
	n.SetInt64(0)
	runtime.KeepAlive(words)
}

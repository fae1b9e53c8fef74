// Package cacheline gives every primitive in this module a single shared
// notion of cache-line size, so false-sharing padding stays consistent
// across seqlock, stickycounter, spsc and mpmc without each package
// re-guessing the target's line size.
package cacheline

import "golang.org/x/sys/cpu"

// Size is the default cache-line size assumed when no finer-grained
// target detection is available. 64 bytes covers the overwhelming
// majority of deployed targets (x86_64, most ARM64 cores).
const Size = 64

// Pad is embedded in hot structs to isolate fields that are written by one
// thread and read by another from unrelated neighboring fields. It resolves
// to the build target's actual cache-line size (see golang.org/x/sys/cpu),
// collapsing to zero bytes on targets where padding buys nothing (e.g.
// wasm), rather than a fixed guess.
type Pad = cpu.CacheLinePad

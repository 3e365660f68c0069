package metrics

import "sync/atomic"

var (
	batches       int64
	marked        int64
	alreadyMarked int64
	invalid       int64
	corrupt       int64
)

func IncBatches()            { atomic.AddInt64(&batches, 1) }
func AddMarked(n int)        { atomic.AddInt64(&marked, int64(n)) }
func AddAlreadyMarked(n int) { atomic.AddInt64(&alreadyMarked, int64(n)) }
func AddInvalid(n int)       { atomic.AddInt64(&invalid, int64(n)) }
func IncCorrupt()            { atomic.AddInt64(&corrupt, 1) }

func Snapshot() map[string]int64 {
	return map[string]int64{
		"batches":        atomic.LoadInt64(&batches),
		"marked":         atomic.LoadInt64(&marked),
		"already_marked": atomic.LoadInt64(&alreadyMarked),
		"invalid":        atomic.LoadInt64(&invalid),
		"corrupt":        atomic.LoadInt64(&corrupt),
	}
}

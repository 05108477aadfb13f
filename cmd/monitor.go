///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package cmd

import (
	"fmt"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/ballotcrypt/dlog"
	"gitlab.com/elixxir/ballotcrypt/precompute"
	"runtime"
	"time"
)

// Growth of the heap between two reports which triggers a warning
const deltaMemoryThreshold = uint64(100000000)

// MonitorStatus periodically logs the buffer fill level, the size of the
// discrete log table and memory usage until quit is closed
func MonitorStatus(buf *precompute.Buffer, cache *dlog.Cache,
	period time.Duration, quit <-chan struct{}) {

	defer func() {
		if r := recover(); r != nil {
			jww.ERROR.Printf("Status monitoring failed due to errors"+
				": %v", r)
		}
	}()

	if period <= 0 {
		return
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	lastHeap := uint64(0)
	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
		}

		jww.INFO.Printf("Precompute buffer: %s", buf.Snapshot())
		jww.INFO.Printf("Discrete log table: %d entries", cache.Len())

		lastHeap = checkMemory(lastHeap)
	}
}

// checkMemory warns when the heap has grown by more than the threshold
// since the last warning. It returns the heap size to compare against next.
func checkMemory(lastHeap uint64) uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	jww.DEBUG.Printf("Heap in use %s, %d goroutines",
		convertToReadableBytes(ms.HeapInuse), runtime.NumGoroutine())

	if ms.HeapInuse > lastHeap && ms.HeapInuse-lastHeap > deltaMemoryThreshold {
		jww.WARN.Printf("Heap in use grew from %s to %s",
			convertToReadableBytes(lastHeap),
			convertToReadableBytes(ms.HeapInuse))
		return ms.HeapInuse
	}
	return lastHeap
}

var sizeLookup = []string{"B", "KiB", "MiB", "GiB"}

func convertToReadableBytes(b uint64) string {

	for i := 0; i < len(sizeLookup)-1; i++ {
		if b < 1024 {
			return fmt.Sprintf("%v%v", b, sizeLookup[i])
		}
		b = b / 1024
	}

	return fmt.Sprintf("%v%v", b, sizeLookup[len(sizeLookup)-1])
}

package scene

import "math"

// Worker statistics collected while processing the last block.
type workerStats struct {
	// Number of rays in the processed block.
	BlockLen int

	// The time for processing the block (in nanoseconds).
	BlockTime int64
}

// The block scheduler splits a ray batch into contiguous blocks, one per
// worker. It assumes that the cost of tracing two subsequent batches is
// approximately the same and sizes each block according to the throughput
// each worker achieved on the previous batch.
type blockScheduler struct {
	blockAssignment []int
}

// Split a batch of batchLen rays between the workers. This function returns
// the block length assignment for each worker in the input list; the
// assignments always add up to batchLen.
//
// When previous batch information is available the scheduler uses the
// following formula for estimating the workload for worker w and batch i+1:
// w_i, b_i+1 = (blockLen,w_i / time,w_i) / Σ(blockLen_i / time_i)
func (sch *blockScheduler) Schedule(workers []*raycastWorker, batchLen int) []int {
	if len(sch.blockAssignment) != len(workers) || !haveStats(workers) {
		sch.blockAssignment = make([]int, len(workers))
		return sch.evenSplit(batchLen)
	}

	var total float64
	for _, w := range workers {
		total += float64(w.stats.BlockLen) / float64(w.stats.BlockTime)
	}
	scaler := float64(batchLen) / total

	var scheduled int
	for idx, w := range workers {
		sch.blockAssignment[idx] = int(math.Floor(float64(w.stats.BlockLen) / float64(w.stats.BlockTime) * scaler))
		scheduled += sch.blockAssignment[idx]
	}

	// In case blocks don't add up to the batch length append the missing
	// rays to the first worker
	sch.blockAssignment[0] += batchLen - scheduled

	return sch.blockAssignment
}

func (sch *blockScheduler) evenSplit(batchLen int) []int {
	if len(sch.blockAssignment) == 0 {
		return sch.blockAssignment
	}

	share := batchLen / len(sch.blockAssignment)
	extra := batchLen % len(sch.blockAssignment)
	for idx := range sch.blockAssignment {
		sch.blockAssignment[idx] = share
		if idx < extra {
			sch.blockAssignment[idx]++
		}
	}
	return sch.blockAssignment
}

// Workers that sat idle during the last batch provide no throughput estimate.
func haveStats(workers []*raycastWorker) bool {
	for _, w := range workers {
		if w.stats.BlockLen == 0 || w.stats.BlockTime <= 0 {
			return false
		}
	}
	return true
}

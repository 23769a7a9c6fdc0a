package scene

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/skyloutyr/vtt-raycast/bvh"
	"github.com/skyloutyr/vtt-raycast/log"
	"github.com/skyloutyr/vtt-raycast/types"
)

var ErrRaycasterClosed = errors.New("scene: batch raycaster is closed")

// A request for tracing a contiguous block of a ray batch.
type blockRequest struct {
	ctx context.Context

	// The rays to trace and the slots where their hits are stored.
	rays    []types.Ray
	results [][]SceneHit

	// A channel to signal on block completion with the number of traced rays.
	doneChan chan<- int

	// A channel to signal if an error occurs.
	errChan chan<- error
}

// A raycast worker owns a query state and processes block requests
// sequentially.
type raycastWorker struct {
	scene *Scene
	qs    *bvh.QueryState
	stats workerStats

	// A channel for receiving block requests.
	blockReqChan chan blockRequest

	// A channel for signaling the worker to exit.
	closeChan chan struct{}
}

// Spawn a go-routine to process block requests.
func (w *raycastWorker) start(wg *sync.WaitGroup) {
	readyChan := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		var blockReq blockRequest
		var startTime time.Time
		close(readyChan)
		for {
			select {
			case blockReq = <-w.blockReqChan:
				startTime = time.Now()
				if err := w.traceBlock(&blockReq); err != nil {
					blockReq.errChan <- err
					continue
				}

				// Update stats
				w.stats.BlockLen = len(blockReq.rays)
				w.stats.BlockTime = int64(time.Since(startTime))

				blockReq.doneChan <- len(blockReq.rays)
			case <-w.closeChan:
				return
			}
		}
	}()

	// Wait for go-routine to start
	<-readyChan
}

func (w *raycastWorker) traceBlock(blockReq *blockRequest) error {
	for idx, ray := range blockReq.rays {
		if err := blockReq.ctx.Err(); err != nil {
			return err
		}
		blockReq.results[idx] = w.scene.raycast(ray, w.qs, nil)
	}
	return nil
}

// A BatchRaycaster traces batches of rays against a scene using a fixed pool
// of workers. Each worker owns its query state so no mutable traversal state
// is shared between goroutines.
type BatchRaycaster struct {
	logger log.Logger

	// Serializes batches.
	mu sync.Mutex

	wg        sync.WaitGroup
	workers   []*raycastWorker
	scheduler *blockScheduler
}

// Create a batch raycaster for a scene. If numWorkers is not positive, one
// worker per CPU is started. Callers must invoke Close to stop the workers.
func NewBatchRaycaster(sc *Scene, numWorkers int) *BatchRaycaster {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	br := &BatchRaycaster{
		logger:    log.New("batch raycaster"),
		workers:   make([]*raycastWorker, numWorkers),
		scheduler: &blockScheduler{},
	}
	for idx := range br.workers {
		w := &raycastWorker{
			scene:        sc,
			qs:           bvh.NewQueryState(types.Ray{}),
			blockReqChan: make(chan blockRequest),
			closeChan:    make(chan struct{}),
		}
		w.start(&br.wg)
		br.workers[idx] = w
	}

	br.logger.Debugf("started %d workers", numWorkers)
	return br
}

// Trace a batch of rays. The returned slice holds the sorted hits for each
// ray in input order. If ctx is cancelled before all rays are traced, Raycast
// returns the context error.
func (br *BatchRaycaster) Raycast(ctx context.Context, rays []types.Ray) ([][]SceneHit, error) {
	br.mu.Lock()
	defer br.mu.Unlock()

	if br.workers == nil {
		return nil, ErrRaycasterClosed
	}

	results := make([][]SceneHit, len(rays))
	if len(rays) == 0 {
		return results, nil
	}

	blockAssignment := br.scheduler.Schedule(br.workers, len(rays))

	doneChan := make(chan int, len(br.workers))
	errChan := make(chan error, len(br.workers))
	pending := 0
	blockStart := 0
	for idx, blockLen := range blockAssignment {
		if blockLen == 0 {
			// Idle workers have nothing to report for this batch
			br.workers[idx].stats = workerStats{}
			continue
		}
		br.workers[idx].blockReqChan <- blockRequest{
			ctx:      ctx,
			rays:     rays[blockStart : blockStart+blockLen],
			results:  results[blockStart : blockStart+blockLen],
			doneChan: doneChan,
			errChan:  errChan,
		}
		blockStart += blockLen
		pending++
	}

	// Wait for all blocks so no worker is still writing to results
	var err error
	for ; pending > 0; pending-- {
		select {
		case <-doneChan:
		case blockErr := <-errChan:
			if err == nil {
				err = blockErr
			}
		}
	}

	if err != nil {
		return nil, err
	}
	return results, nil
}

// Stop all workers.
func (br *BatchRaycaster) Close() {
	br.mu.Lock()
	defer br.mu.Unlock()

	for _, w := range br.workers {
		close(w.closeChan)
	}
	br.wg.Wait()
	br.workers = nil
}

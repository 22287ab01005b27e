package renderer

import (
	"context"
	"runtime"
	"sync"
)

// TileTask represents a tile rendering task for the worker pool
type TileTask struct {
	Tile          *Tile
	PassNumber    int
	TargetSamples int
	TaskID        int            // Index into the caller's tile slice
	PixelStats    [][]PixelStats // Shared pixel stats array to write to
}

// TileResult contains the result from rendering a tile
type TileResult struct {
	TaskID int
	Stats  RenderStats
	Error  error
}

// WorkerPool manages parallel tile rendering
type WorkerPool struct {
	taskQueue   chan TileTask
	resultQueue chan TileResult
	workers     []*Worker
	numWorkers  int
	wg          sync.WaitGroup
}

// Worker handles individual tile rendering tasks
type Worker struct {
	ID           int
	tileRenderer *TileRenderer
	taskQueue    chan TileTask
	resultQueue  chan TileResult
}

// NewWorkerPool creates a worker pool with the specified number of workers (0 = runtime.NumCPU()).
// queueSize should cover the tiles submitted per pass so submission never blocks.
func NewWorkerPool(tileRenderer *TileRenderer, numWorkers, queueSize int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	wp := &WorkerPool{
		taskQueue:   make(chan TileTask, queueSize),
		resultQueue: make(chan TileResult, queueSize),
		numWorkers:  numWorkers,
	}

	for i := 0; i < numWorkers; i++ {
		wp.workers = append(wp.workers, &Worker{
			ID:           i,
			tileRenderer: tileRenderer,
			taskQueue:    wp.taskQueue,
			resultQueue:  wp.resultQueue,
		})
	}

	return wp
}

// Start begins all workers. Tasks picked up after ctx is cancelled are
// reported with ctx.Err() instead of being rendered.
func (wp *WorkerPool) Start(ctx context.Context) {
	for _, worker := range wp.workers {
		wp.wg.Add(1)
		go worker.run(ctx, &wp.wg)
	}
}

// Stop gracefully shuts down all workers
func (wp *WorkerPool) Stop() {
	close(wp.taskQueue) // No more tasks
	wp.wg.Wait()        // Wait for workers to finish
	close(wp.resultQueue)
}

// SubmitTask submits a tile task to the worker pool
func (wp *WorkerPool) SubmitTask(task TileTask) {
	wp.taskQueue <- task
}

// GetResult retrieves a completed tile result
func (wp *WorkerPool) GetResult() (TileResult, bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// run is the main worker loop
func (w *Worker) run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range w.taskQueue {
		if err := ctx.Err(); err != nil {
			w.resultQueue <- TileResult{TaskID: task.TaskID, Error: err}
			continue
		}

		stats := w.tileRenderer.RenderTileBounds(task.Tile.Bounds, task.PixelStats, task.Tile.Sampler, task.TargetSamples)
		w.resultQueue <- TileResult{TaskID: task.TaskID, Stats: stats}
	}
}

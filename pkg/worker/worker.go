package worker

import (
	"sync/atomic"

	"github.com/hbomb79/vidprobe/pkg/logger"
)

var workerLogger = logger.Get("Worker")

type WorkerStatus int32

const (
	Idle WorkerStatus = iota
	Working
	Finished
)

// WorkerTask is the unit of work a worker executes. The task is
// expected to run until its work source is exhausted (e.g. a channel
// is closed) and then return.
type WorkerTask interface {
	Execute(Worker) error
}

// TaskFunc adapts a plain function to the WorkerTask interface.
type TaskFunc func(Worker) error

func (fn TaskFunc) Execute(w Worker) error { return fn(w) }

type Worker interface {
	Start()
	Status() WorkerStatus
	Label() string
}

type taskWorker struct {
	label         string
	task          WorkerTask
	currentStatus atomic.Int32
}

func NewWorker(label string, task WorkerTask) *taskWorker {
	return &taskWorker{label: label, task: task}
}

// Start executes the workers task on the calling goroutine, and
// returns once the task returns.
func (worker *taskWorker) Start() {
	workerLogger.Emit(logger.VERBOSE, "Starting worker %v\n", worker.label)
	worker.currentStatus.Store(int32(Working))
	if err := worker.task.Execute(worker); err != nil {
		workerLogger.Emit(logger.ERROR, "Worker %v has reported an error(%T): %v\n", worker.label, err, err.Error())
	}

	worker.currentStatus.Store(int32(Finished))
	workerLogger.Emit(logger.VERBOSE, "Worker %v has stopped\n", worker.label)
}

// Status returns the current status of this worker
func (worker *taskWorker) Status() WorkerStatus {
	return WorkerStatus(worker.currentStatus.Load())
}

// Label returns the label for this worker
func (worker *taskWorker) Label() string {
	return worker.label
}

package pipeline

// Stage tags a progress event with the pipeline phase it belongs to.
type Stage string

const (
	StageInitializing Stage = "initializing"
	StageLoading      Stage = "loading"
	StageProcessing   Stage = "processing"
	StageCompleted    Stage = "completed"
	StageFailed       Stage = "failed"
)

// ProgressFunc receives fire-and-forget progress events. A total of 0 means
// the total is not yet known. The pipeline tolerates any panic the sink
// raises; a progress failure never aborts a run.
type ProgressFunc func(current, total int, stage Stage, message string)

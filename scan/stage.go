package scan

// Stage is a phase of a scan session.
type Stage int

const (
	StageIdle Stage = iota
	StageCapturing
	StageCorrecting
	StageReviewing
	StageCompleted
	StageCancelled
	StageFailed
)

func (s Stage) String() string {
	return [...]string{"idle", "capturing", "correcting", "reviewing", "completed", "cancelled", "failed"}[s]
}

// Terminal reports whether the stage ends a session.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageCancelled || s == StageFailed
}

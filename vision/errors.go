package vision

import "fmt"

// EngineError reports a failed or malformed vision engine call.
type EngineError struct {
	Op  string
	Err error
}

func (e *EngineError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("vision %s failed", e.Op)
	}
	return fmt.Sprintf("vision %s: %v", e.Op, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// Wrap returns err as an *EngineError for op, or nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if ee, ok := err.(*EngineError); ok {
		return ee
	}
	return &EngineError{Op: op, Err: err}
}

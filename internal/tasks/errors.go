package tasks

import (
	"errors"
	"fmt"

	"github.com/fentz26/cortexdesk/internal/models"
)

// ErrInvalidTransition is matched by every refused status change.
var ErrInvalidTransition = errors.New("invalid task transition")

// TransitionError reports an attempt to move a task out of a terminal status.
type TransitionError struct {
	ID     int64
	From   models.TaskStatus
	Action string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s task %d: already %s", e.Action, e.ID, e.From)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

package mutate

import "errors"

var (
	ErrNothingSelected = errors.New("no tasks selected")
	ErrNotEditing      = errors.New("no task is being edited")
)

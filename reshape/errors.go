package reshape

import (
	"errors"
	"fmt"
)

var ErrEmptyResult = errors.New("empty result")

// EmptyResultError reports a transformation that left nothing to plot.
type EmptyResultError struct {
	Op     string
	Detail string
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Op, ErrEmptyResult, e.Detail)
}

func (e *EmptyResultError) Is(target error) bool {
	return target == ErrEmptyResult
}

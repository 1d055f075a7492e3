package executors

import "errors"

// ErrTaskCanceled is returned by Future.Get when the underlying task was
// canceled before its body ran.
var ErrTaskCanceled = errors.New("executors: task canceled")

package runner

import (
	"errors"
	"syscall"
)

// terminationSignal is the graceful-termination signal sent before the
// grace-period kill escalation.
var terminationSignal = syscall.SIGTERM

var errEmptyArgv = errors.New("runner: argv must have at least one element")

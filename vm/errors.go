package vm

import "fmt"

type RuntimeError struct {
	Message string
}

func (e RuntimeError) Error() string {
	return fmt.Sprintf("💥 RuntimeError: %s", e.Message)
}

// attemptHandler records where execution should resume, and how much of
// the operand stack should be discarded, when an error is raised inside an
// "attempt { ... }" body.
type attemptHandler struct {
	frameDepth int // len(vm.frames) at the time OP_ATTEMPT was executed
	stackDepth int // len(vm.stack) to truncate back to before pushing the error
	targetIP   int // instruction offset of the "handle" block
}

// handled is panicked by raise when it found a registered attemptHandler
// and already repositioned the frame/stack at its target; step's recover
// catches it and simply returns, letting the dispatch loop resume at the
// handler without also running the instruction's own ip advance.
type handled struct{}

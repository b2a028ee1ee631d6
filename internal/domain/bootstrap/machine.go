package bootstrap

import (
	"github.com/felixgeelhaar/statekit"
)

// Phase is a step of a bootstrap run.
type Phase string

// Phases of the bootstrap machine.
const (
	PhaseIdle        Phase = stateIdle
	PhaseInstalling  Phase = stateInstalling
	PhaseReusing     Phase = stateReusing
	PhaseLinking     Phase = stateLinking
	PhaseConfiguring Phase = stateConfiguring
	PhaseValidating  Phase = stateValidating
	PhaseDone        Phase = stateDone
	PhaseFailed      Phase = stateFailed
)

const (
	stateIdle        = "idle"
	stateInstalling  = "installing"
	stateReusing     = "reusing"
	stateLinking     = "linking"
	stateConfiguring = "configuring"
	stateValidating  = "validating"
	stateDone        = "done"
	stateFailed      = "failed"
)

// Event types for the bootstrap machine.
const (
	EventInstall   = "INSTALL"
	EventReuse     = "REUSE"
	EventInstalled = "INSTALLED"
	EventConfigure = "CONFIGURE"
	EventValidate  = "VALIDATE"
	EventFinish    = "FINISH"
	EventFail      = "FAIL"
	EventReset     = "RESET"
)

// runContext is the statekit context; the machine itself only tracks phase.
type runContext struct{}

// buildMachine wires the transitions. rec receives the error carried by a
// FAIL event.
func buildMachine(rec func(error)) (*statekit.Interpreter[runContext], error) {
	machine, err := statekit.NewMachine[runContext]("newinstall-bootstrap").
		WithInitial(stateIdle).
		WithContext(runContext{}).
		WithAction("recordFailure", func(_ *runContext, event statekit.Event) {
			if payload, ok := event.Payload.(map[string]interface{}); ok {
				if err, ok := payload["error"].(error); ok {
					rec(err)
				}
			}
		}).
		State(stateIdle).
		On(EventInstall).Target(stateInstalling).
		On(EventReuse).Target(stateReusing).
		On(EventFail).Target(stateFailed).Done().
		State(stateInstalling).
		On(EventInstalled).Target(stateLinking).
		On(EventFail).Target(stateFailed).Done().
		State(stateReusing).
		On(EventValidate).Target(stateValidating).
		On(EventFail).Target(stateFailed).Done().
		State(stateLinking).
		On(EventConfigure).Target(stateConfiguring).
		On(EventValidate).Target(stateValidating).
		On(EventFinish).Target(stateDone).
		On(EventFail).Target(stateFailed).Done().
		State(stateValidating).
		On(EventConfigure).Target(stateConfiguring).
		On(EventFinish).Target(stateDone).
		On(EventFail).Target(stateFailed).Done().
		State(stateConfiguring).
		On(EventFinish).Target(stateDone).
		On(EventFail).Target(stateFailed).Done().
		State(stateDone).
		On(EventReset).Target(stateIdle).Done().
		State(stateFailed).
		OnEntry("recordFailure").
		On(EventReset).Target(stateIdle).Done().
		Build()
	if err != nil {
		return nil, err
	}

	return statekit.NewInterpreter(machine), nil
}

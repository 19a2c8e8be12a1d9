package resource

import "time"

// Action names recorded in events.
const (
	ActionStop           = "stop"
	ActionStart          = "start"
	ActionReboot         = "reboot"
	ActionCreateSnapshot = "create_snapshot"
	ActionWaitStopped    = "wait_stopped"
	ActionWaitRunning    = "wait_running"
)

// Outcome of a single step.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
	OutcomeDryRun  Outcome = "dry_run"
)

// Event is one step the executor took against a resource.
// Emitters turn it into metrics and journal entries.
type Event struct {
	Action     string        `json:"action" yaml:"action"`
	ResourceID string        `json:"resource_id" yaml:"resource_id"`
	InstanceID string        `json:"instance_id,omitempty" yaml:"instance_id,omitempty"`
	Outcome    Outcome       `json:"outcome" yaml:"outcome"`
	Reason     string        `json:"reason,omitempty" yaml:"reason,omitempty"`
	Error      string        `json:"error,omitempty" yaml:"error,omitempty"`
	Duration   time.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
	Time       time.Time     `json:"time" yaml:"time"`
}

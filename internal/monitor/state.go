package monitor

// NotReadyReason explains why the agent cannot be started.
type NotReadyReason int

const (
	ReasonNone NotReadyReason = iota
	ReasonBinaryMissing
	ReasonRegistrationMissing
)

// String returns a display label.
func (r NotReadyReason) String() string {
	switch r {
	case ReasonBinaryMissing:
		return "binary missing"
	case ReasonRegistrationMissing:
		return "registration missing"
	default:
		return "none"
	}
}

// AgentKind is the coarse readiness classification of the service agent.
type AgentKind int

const (
	AgentNotReady AgentKind = iota
	AgentStopped
	AgentStarting
	AgentRunning
)

// AgentState combines the readiness kind with a not-ready reason. Reason
// is meaningful only when Kind is AgentNotReady.
type AgentState struct {
	Kind   AgentKind
	Reason NotReadyReason
}

// Predefined states. NotReady states are built with NotReady(reason).
var (
	StateStopped  = AgentState{Kind: AgentStopped}
	StateStarting = AgentState{Kind: AgentStarting}
	StateRunning  = AgentState{Kind: AgentRunning}
)

// NotReady constructs a not-ready state carrying its reason.
func NotReady(reason NotReadyReason) AgentState {
	return AgentState{Kind: AgentNotReady, Reason: reason}
}

// String returns a display label.
func (s AgentState) String() string {
	switch s.Kind {
	case AgentStopped:
		return "stopped"
	case AgentStarting:
		return "starting"
	case AgentRunning:
		return "running"
	default:
		return "not ready (" + s.Reason.String() + ")"
	}
}

// rawAgentState maps a status snapshot onto an agent state with no
// transition memory. Liveness is the strongest signal and wins over the
// registration and install checks. Total over the flag space: every
// combination yields exactly one state.
func rawAgentState(status ServiceStatus) AgentState {
	switch {
	case status.ProcessAlive:
		return StateRunning
	case status.Registered:
		return StateStopped
	case !status.InstallPresent:
		return NotReady(ReasonBinaryMissing)
	default:
		return NotReady(ReasonRegistrationMissing)
	}
}

// DeriveAgentState computes the next agent state from a status snapshot
// and the previous state. A non-running agent never jumps straight to
// Running: it passes through Starting and must hold liveness for the
// dwell duration first, so a flapping process is not reported stable.
func DeriveAgentState(status ServiceStatus, prev AgentState, dwellElapsed bool) AgentState {
	raw := rawAgentState(status)

	switch prev.Kind {
	case AgentStarting:
		if raw.Kind != AgentRunning {
			// Liveness lost during startup.
			return StateStopped
		}
		if !dwellElapsed {
			return StateStarting
		}
		return StateRunning
	case AgentStopped, AgentNotReady:
		if raw.Kind == AgentRunning {
			return StateStarting
		}
		return raw
	default:
		return raw
	}
}

// EntityState is the per-entity classification derived from the raw
// state string the probe reports.
type EntityState int

const (
	EntityUnknown EntityState = iota
	EntityLoading
	EntityRunning
)

// String returns a display label.
func (s EntityState) String() string {
	switch s {
	case EntityLoading:
		return "loading"
	case EntityRunning:
		return "running"
	default:
		return "unknown"
	}
}

// ParseEntityState maps the service's raw state strings onto EntityState.
// Unrecognized or empty strings are partial data, not errors: they map
// to EntityUnknown.
func ParseEntityState(raw string) EntityState {
	switch raw {
	case "ready":
		return EntityRunning
	case "starting", "stopping":
		return EntityLoading
	default:
		return EntityUnknown
	}
}

// DisplayState is the single combined classification exposed to
// renderers.
type DisplayState int

const (
	DisplayAgentNotLoaded DisplayState = iota
	DisplayAgentStarting
	DisplayServiceStopped
	DisplayNoEntities
	DisplayEntityLoading
	DisplayEntityProcessing
	DisplayEntityReady
)

// String returns a display label.
func (d DisplayState) String() string {
	switch d {
	case DisplayAgentNotLoaded:
		return "agent not loaded"
	case DisplayAgentStarting:
		return "agent starting"
	case DisplayServiceStopped:
		return "service stopped"
	case DisplayNoEntities:
		return "no models loaded"
	case DisplayEntityLoading:
		return "model loading"
	case DisplayEntityProcessing:
		return "processing queue"
	case DisplayEntityReady:
		return "model ready"
	default:
		return "unknown"
	}
}

// DeriveDisplayState combines the agent state, the entity states, and
// the activity flag into the single display classification. Loading
// takes priority over activity, which takes priority over ready.
func DeriveDisplayState(agent AgentState, entities map[string]EntityState, hasActivity bool) DisplayState {
	switch agent.Kind {
	case AgentNotReady:
		return DisplayAgentNotLoaded
	case AgentStarting:
		return DisplayAgentStarting
	case AgentStopped:
		return DisplayServiceStopped
	}

	if len(entities) == 0 {
		return DisplayNoEntities
	}
	for _, state := range entities {
		if state == EntityLoading {
			return DisplayEntityLoading
		}
	}
	if hasActivity {
		return DisplayEntityProcessing
	}
	return DisplayEntityReady
}

package cricket

// Phase is the stage of the innings a delivery falls in
type Phase string

const (
	PhasePowerplay Phase = "powerplay"
	PhaseMiddle    Phase = "middle"
	PhaseDeath     Phase = "death"
)

// PhaseFor classifies by completed overs: the first six are the powerplay and the
// last five the death overs.
func PhaseFor(o Overs) Phase {
	switch {
	case o.Completed < 6:
		return PhasePowerplay
	case o.Completed < 15:
		return PhaseMiddle
	default:
		return PhaseDeath
	}
}

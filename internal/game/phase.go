/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

// Phase is the current state of a session's state machine.
type Phase string

const (
	PhaseSetup    Phase = "setup"    // host is choosing the music
	PhaseLobby    Phase = "lobby"    // players are joining
	PhasePlaying  Phase = "playing"  // a song is out, placements are being staged
	PhaseReveal   Phase = "reveal"   // round results are on screen
	PhaseFinished Phase = "finished" // terminal
)

var transitions = map[Phase][]Phase{
	PhaseSetup:   {PhaseLobby},
	PhaseLobby:   {PhasePlaying},
	PhasePlaying: {PhaseReveal, PhaseFinished},
	PhaseReveal:  {PhasePlaying, PhaseFinished},
}

func (p Phase) String() string {
	return string(p)
}

// CanTransitionTo reports whether target is a legal next phase.
func (p Phase) CanTransitionTo(target Phase) bool {
	for _, next := range transitions[p] {
		if next == target {
			return true
		}
	}

	return false
}

// Active reports whether a round song is in play.
func (p Phase) Active() bool {
	return p == PhasePlaying || p == PhaseReveal
}

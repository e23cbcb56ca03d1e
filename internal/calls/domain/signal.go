package domain

// PlatformSignal is the closed set of normalized voice platform events the
// lifecycle controller reacts to. Modeled as a sealed sum type so dispatch is
// exhaustive at compile time as new kinds are added.
type PlatformSignal interface {
	signal()
}

// CallPhase is the coarse lifecycle phase reported by a status signal.
type CallPhase string

const (
	PhaseRinging    CallPhase = "ringing"
	PhaseInProgress CallPhase = "in-progress"
	PhaseEnded      CallPhase = "ended"
)

// StatusSignal reports the platform's view of call progress. EndedReason is
// only meaningful when Phase is PhaseEnded.
type StatusSignal struct {
	Phase       CallPhase
	EndedReason string
}

// TranscriptUpdateSignal carries a mid-call (partial, possibly duplicated)
// transcript fragment.
type TranscriptUpdateSignal struct {
	Messages []TranscriptEntry
}

// FinalTranscriptSignal carries the platform's authoritative end-of-call
// transcript. EndedReason is set when the report also terminates the call;
// DurationSeconds is the platform-measured call duration (0 when absent).
type FinalTranscriptSignal struct {
	Messages        []TranscriptEntry
	EndedReason     string
	DurationSeconds float64
}

func (StatusSignal) signal()           {}
func (TranscriptUpdateSignal) signal() {}
func (FinalTranscriptSignal) signal()  {}

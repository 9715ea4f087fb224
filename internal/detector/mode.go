package detector

import "fmt"

// Mode selects how eagerly candidates are detected and admitted. It is shared
// by the pipeline, the verifier, and the engine so one setting drives all
// three.
type Mode string

const (
	// ModeConservative runs the standard layers and probes every candidate
	// except embedded viewers, rejecting inconclusive responses.
	ModeConservative Mode = "conservative"
	// ModeAggressive adds the exhaustive sweep and admits candidates whose
	// probe succeeds but stays inconclusive.
	ModeAggressive Mode = "aggressive"
	// ModeStrict probes every candidate, embedded viewers included, and only
	// admits definitive PDF signals.
	ModeStrict Mode = "strict"
)

// ParseMode validates a detection mode string from configuration. The empty
// string maps to ModeConservative.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeConservative, ModeAggressive, ModeStrict:
		return Mode(s), nil
	case "":
		return ModeConservative, nil
	}
	return "", fmt.Errorf("unknown detection mode %q", s)
}

package guardian

import (
	"encoding/json"
	"fmt"

	"github.com/iberi22/ai-git-core-template/pkg/constants"
)

// Kind is the outcome category of a guardian evaluation.
type Kind string

const (
	KindMerge    Kind = "merge"
	KindEscalate Kind = "escalate"
	KindBlock    Kind = "block"
)

// Decision is the outcome of evaluating a pull request. A block never
// carries a confidence; an escalate's confidence is below the threshold
// unless produced by a hard-fail short circuit or by the not-mergeable
// downgrade of a merge.
type Decision struct {
	Kind       Kind
	Confidence int
	Reason     string
}

// Merge builds an auto-merge decision.
func Merge(confidence int) Decision {
	return Decision{Kind: KindMerge, Confidence: confidence}
}

// Escalate builds a manual-review decision.
func Escalate(reason string, confidence int) Decision {
	return Decision{Kind: KindEscalate, Confidence: confidence, Reason: reason}
}

// Block builds a blocking decision.
func Block(reason string) Decision {
	return Decision{Kind: KindBlock, Reason: reason}
}

// FromConfidence maps a final confidence against the threshold.
func FromConfidence(confidence, threshold int) Decision {
	if confidence >= threshold {
		return Merge(confidence)
	}
	return Escalate(fmt.Sprintf("confidence %d below threshold %d", confidence, threshold), confidence)
}

// ExitCode maps the decision onto the CI exit-code contract.
func (d Decision) ExitCode() int {
	switch d.Kind {
	case KindMerge:
		return constants.ExitOK
	case KindEscalate:
		return constants.ExitEscalate
	default:
		return constants.ExitBlock
	}
}

func (d Decision) String() string {
	switch d.Kind {
	case KindMerge:
		return fmt.Sprintf("merge (confidence %d)", d.Confidence)
	case KindEscalate:
		return fmt.Sprintf("escalate: %s (confidence %d)", d.Reason, d.Confidence)
	default:
		return fmt.Sprintf("block: %s", d.Reason)
	}
}

// MarshalJSON emits the stable wire form: confidence is present for merge and
// escalate (including zero), reason for escalate and block.
func (d Decision) MarshalJSON() ([]byte, error) {
	switch d.Kind {
	case KindMerge:
		return json.Marshal(struct {
			Kind       Kind `json:"kind"`
			Confidence int  `json:"confidence"`
		}{d.Kind, d.Confidence})
	case KindEscalate:
		return json.Marshal(struct {
			Kind       Kind   `json:"kind"`
			Confidence int    `json:"confidence"`
			Reason     string `json:"reason"`
		}{d.Kind, d.Confidence, d.Reason})
	default:
		return json.Marshal(struct {
			Kind   Kind   `json:"kind"`
			Reason string `json:"reason"`
		}{d.Kind, d.Reason})
	}
}

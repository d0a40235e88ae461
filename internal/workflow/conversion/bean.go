// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package conversion

import (
	"maps"
	"strconv"

	"github.com/google/uuid"
)

// Step is a position in the conversion wizard.
type Step string

const (
	StepStart      Step = "start"
	StepSelectType Step = "select_type"
	StepSetFields  Step = "set_fields"
	StepConfirm    Step = "confirm"
	StepDone       Step = "done"
)

var stepOrder = map[Step]int{
	StepStart:      0,
	StepSelectType: 1,
	StepSetFields:  2,
	StepConfirm:    3,
	StepDone:       4,
}

// reached reports whether s is at or past other.
func (s Step) reached(other Step) bool {
	return stepOrder[s] >= stepOrder[other]
}

// Bean is the wizard state carried across requests in the session.
type Bean struct {
	SourceID       int64             `json:"sourceId"`
	TargetTypeID   string            `json:"targetTypeId,omitempty"`
	TargetStatusID string            `json:"targetStatusId,omitempty"`
	CurrentStep    Step              `json:"currentStep"`
	FieldValues    map[string]string `json:"fieldValues,omitempty"`
	Version        string            `json:"version"`
}

func newBean(sourceID int64) Bean {
	return Bean{
		SourceID:    sourceID,
		CurrentStep: StepSelectType,
		FieldValues: map[string]string{},
		Version:     uuid.NewString(),
	}
}

// SessionKey returns the session key of the bean for a source issue.
func SessionKey(sourceID int64) string {
	return "convert:" + strconv.FormatInt(sourceID, 10)
}

func (b Bean) clone() Bean {
	out := b
	out.FieldValues = maps.Clone(b.FieldValues)
	if out.FieldValues == nil {
		out.FieldValues = map[string]string{}
	}
	return out
}

func (b *Bean) setFields(values map[string]string) {
	if b.FieldValues == nil {
		b.FieldValues = map[string]string{}
	}
	for k, v := range values {
		b.FieldValues[k] = v
	}
}

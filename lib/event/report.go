// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// InstantMarker replaces the elapsed time of instant events.
const InstantMarker = "INSTANT"

// Report is the rendered state of one event. It travels as JSON text
// inside EVENT_QUERY and EVENTS_QUERY responses; JSON string escaping
// keeps multi-line snapshots on a single line per field.
type Report struct {
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`

	// StartingTime is the main event's elapsed seconds when this
	// event was created.
	StartingTime float64 `json:"startingTime(s)"`

	Status State `json:"status"`

	// ElapsedTime is a decimal seconds value, or InstantMarker.
	ElapsedTime string `json:"elapsedTime(s)"`

	HasStartingData bool    `json:"hasStartingData"`
	HasEndingData   bool    `json:"hasEndingData"`
	StartingData    *string `json:"startingData,omitempty"`
	EndingData      *string `json:"endingData,omitempty"`

	// DataDifference is present only when both snapshots exist and a
	// difference was requested. Identical snapshots give an empty,
	// non-nil list.
	DataDifference []string `json:"dataDifference,omitzero"`
}

// Render returns the report as indented JSON.
func (r Report) Render() (string, error) {
	data, err := json.MarshalIndent(r, "", "\t")
	if err != nil {
		return "", fmt.Errorf("rendering report for %s: %w", r.Name, err)
	}
	return string(data), nil
}

// ParseReport decodes a rendered report.
func ParseReport(text string) (Report, error) {
	var report Report
	if err := json.Unmarshal([]byte(text), &report); err != nil {
		return Report{}, fmt.Errorf("parsing event report: %w", err)
	}
	return report, nil
}

func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/eventlog/lib/codec"
	"github.com/bureau-foundation/eventlog/lib/protocol"
)

// styles colors acknowledgements on a terminal. Reports are printed
// unstyled so they stay valid JSON.
type styles struct {
	enabled bool
	success lipgloss.Style
	warning lipgloss.Style
}

func newStyles(enabled bool) styles {
	return styles{
		enabled: enabled,
		success: lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		warning: lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
	}
}

func (s styles) render(style lipgloss.Style, text string) string {
	if !s.enabled {
		return text
	}
	return style.Render(text)
}

func (a *application) print(w io.Writer, response protocol.Response) error {
	if a.raw {
		data, err := codec.Marshal(response)
		if err != nil {
			return fmt.Errorf("encoding response: %w", err)
		}
		diagnostic, err := codec.Diagnose(data)
		if err != nil {
			return fmt.Errorf("diagnosing response: %w", err)
		}
		fmt.Fprintln(w, diagnostic)
		return response.Err()
	}

	switch response.Type() {
	case protocol.EventStartStopResponse:
		fmt.Fprintln(w, a.styles.render(a.styles.success, acknowledgement(response.Request())))
	case protocol.EventQueryResponse:
		report, _ := response.Text()
		fmt.Fprintln(w, report)
	case protocol.EventsQueryResponse, protocol.EventNamesResponse:
		lines, _ := response.Texts()
		for _, line := range lines {
			fmt.Fprintln(w, line)
		}
	case protocol.EventNameCheckResponse:
		exists, _ := response.Bool()
		fmt.Fprintln(w, strconv.FormatBool(exists))
	case protocol.StopServerResponseType:
		fmt.Fprintln(w, a.styles.render(a.styles.warning, "server stopping"))
	case protocol.ErrorResponseType:
		return response.Err()
	}
	return nil
}

// acknowledgement describes a successful start or stop.
func acknowledgement(request protocol.Request) string {
	name, _ := request.Name()
	switch request.Type() {
	case protocol.StartMainEventRequest:
		if name == "" {
			return "started main event"
		}
		return "started main event " + name
	case protocol.StartEventRequest:
		return "started " + name
	case protocol.StartInstantEventRequest:
		return "recorded instant " + name
	case protocol.StopMainEventRequest:
		return "stopped main event"
	case protocol.StopEventRequest:
		return "stopped " + name
	}
	return "ok"
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package directory is a small name service mapping well-known
// service names to network addresses.
//
// The eventlog server hosts the directory in its own process on the
// configured registry port and binds [protocol.ServiceName] to the
// address of its query listener. Clients look the name up before
// sending any request; an absent name means no server is running.
//
// [Directory] is the in-memory table, [Register] exposes it on a
// [service.SocketServer], and [Client] queries it remotely.
package directory

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

var (
	// ErrNotBound is returned when a name has no binding.
	ErrNotBound = errors.New("name not bound")

	// ErrAlreadyBound is returned by Bind when the name is taken.
	ErrAlreadyBound = errors.New("name already bound")

	// ErrBindingChanged is returned by Replace and Unbind when the name
	// is bound to an address other than the expected one.
	ErrBindingChanged = errors.New("name bound to a different address")

	// ErrInvalidBinding is returned for an empty name or address.
	ErrInvalidBinding = errors.New("name and address must be non-empty")
)

// ConflictError reports a change refused because of the name's
// current binding. It unwraps to ErrAlreadyBound, ErrBindingChanged or
// ErrNotBound.
type ConflictError struct {
	Name string
	// Current is the address the name is bound to, or "" if unbound.
	Current string
	reason  error
}

func (e *ConflictError) Error() string {
	if e.Current == "" {
		return fmt.Sprintf("%v: %s", e.reason, e.Name)
	}
	return fmt.Sprintf("%v: %s -> %s", e.reason, e.Name, e.Current)
}

func (e *ConflictError) Unwrap() error { return e.reason }

// Directory is a concurrency-safe name -> address table.
type Directory struct {
	mu       sync.RWMutex
	bindings map[string]string
}

// New returns an empty directory.
func New() *Directory {
	return &Directory{bindings: make(map[string]string)}
}

// Bind adds a binding. It fails with ErrAlreadyBound if name is bound.
func (d *Directory) Bind(name, address string) error {
	if name == "" || address == "" {
		return ErrInvalidBinding
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if current, ok := d.bindings[name]; ok {
		return &ConflictError{Name: name, Current: current, reason: ErrAlreadyBound}
	}
	d.bindings[name] = address
	return nil
}

// Replace moves name from previous to address. It fails with
// ErrBindingChanged unless name is currently bound to previous.
func (d *Directory) Replace(name, previous, address string) error {
	if name == "" || previous == "" || address == "" {
		return ErrInvalidBinding
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if current := d.bindings[name]; current != previous {
		return &ConflictError{Name: name, Current: current, reason: ErrBindingChanged}
	}
	d.bindings[name] = address
	return nil
}

// Unbind removes name only while it is bound to address. It fails
// with ErrNotBound if name is absent and ErrBindingChanged if it
// points elsewhere.
func (d *Directory) Unbind(name, address string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	current, ok := d.bindings[name]
	if !ok {
		return &ConflictError{Name: name, reason: ErrNotBound}
	}
	if current != address {
		return &ConflictError{Name: name, Current: current, reason: ErrBindingChanged}
	}
	delete(d.bindings, name)
	return nil
}

// Lookup returns the address bound to name.
func (d *Directory) Lookup(name string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	address, ok := d.bindings[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotBound, name)
	}
	return address, nil
}

// List returns every bound name, sorted.
func (d *Directory) List() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.bindings))
	for name := range d.bindings {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

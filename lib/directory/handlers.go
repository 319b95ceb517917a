// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/bureau-foundation/eventlog/lib/codec"
	"github.com/bureau-foundation/eventlog/lib/service"
)

// Socket actions served by Register.
const (
	ActionBind    = "bind"
	ActionReplace = "replace"
	ActionUnbind  = "unbind"
	ActionLookup  = "lookup"
	ActionList    = "list"
)

type bindingRequest struct {
	Name     string `cbor:"name"`
	Address  string `cbor:"address,omitempty"`
	Previous string `cbor:"previous,omitempty"`
}

// BindingResult is the data of bind, replace and unbind responses. A
// change refused by the current binding is a successful call with
// Applied false and Current set to the name's address ("" if
// unbound), so the caller can rebuild the ConflictError.
type BindingResult struct {
	Applied bool   `cbor:"applied"`
	Current string `cbor:"current,omitempty"`
}

// LookupResult is the data of a lookup response. An unbound name is
// a successful lookup with Found false, so callers can tell "no
// server" apart from "directory unreachable".
type LookupResult struct {
	Found   bool   `cbor:"found"`
	Address string `cbor:"address,omitempty"`
}

// ListResult is the data of a list response.
type ListResult struct {
	Names []string `cbor:"names"`
}

// Register installs the directory actions on server.
func Register(server *service.SocketServer, directory *Directory) {
	server.Handle(ActionBind, func(ctx context.Context, raw []byte) (any, error) {
		request, err := decodeBinding(raw)
		if err != nil {
			return nil, err
		}
		return bindingResult(directory.Bind(request.Name, request.Address))
	})
	server.Handle(ActionReplace, func(ctx context.Context, raw []byte) (any, error) {
		request, err := decodeBinding(raw)
		if err != nil {
			return nil, err
		}
		return bindingResult(directory.Replace(request.Name, request.Previous, request.Address))
	})
	server.Handle(ActionUnbind, func(ctx context.Context, raw []byte) (any, error) {
		request, err := decodeBinding(raw)
		if err != nil {
			return nil, err
		}
		return bindingResult(directory.Unbind(request.Name, request.Address))
	})
	server.Handle(ActionLookup, func(ctx context.Context, raw []byte) (any, error) {
		request, err := decodeBinding(raw)
		if err != nil {
			return nil, err
		}
		address, err := directory.Lookup(request.Name)
		if errors.Is(err, ErrNotBound) {
			return LookupResult{Found: false}, nil
		}
		if err != nil {
			return nil, err
		}
		return LookupResult{Found: true, Address: address}, nil
	})
	server.Handle(ActionList, func(ctx context.Context, raw []byte) (any, error) {
		return ListResult{Names: directory.List()}, nil
	})
}

func bindingResult(err error) (any, error) {
	var conflict *ConflictError
	switch {
	case err == nil:
		return BindingResult{Applied: true}, nil
	case errors.As(err, &conflict):
		return BindingResult{Current: conflict.Current}, nil
	default:
		return nil, err
	}
}

func decodeBinding(raw []byte) (bindingRequest, error) {
	var request bindingRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return bindingRequest{}, fmt.Errorf("invalid binding request: %w", err)
	}
	if request.Name == "" {
		return bindingRequest{}, errors.New("missing required field: name")
	}
	return request, nil
}

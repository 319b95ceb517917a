// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// MaxDepth bounds the nesting of decoded items. The deepest eventlog
// message (a socket envelope around a response around its request) is
// well under it.
const MaxDepth = 16

var (
	// Core Deterministic Encoding (RFC 8949 §4.2): sorted map keys,
	// shortest integers, definite lengths.
	encMode = mustMode(cbor.CoreDetEncOptions().EncMode())

	decMode = mustMode(cbor.DecOptions{
		// any-typed targets decode maps as map[string]any so they can
		// be rendered as JSON.
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		DupMapKey:       cbor.DupMapKeyEnforcedAPF,
		MaxNestedLevels: MaxDepth,
	}.DecMode())
)

func mustMode[M any](mode M, err error) M {
	if err != nil {
		panic("codec: building CBOR mode: " + err.Error())
	}
	return mode
}

// Marshal encodes v deterministically.
func Marshal(v any) ([]byte, error) { return encMode.Marshal(v) }

// Unmarshal decodes one CBOR item into v. Maps with a repeated key
// and items nested deeper than MaxDepth are rejected.
func Unmarshal(data []byte, v any) error { return decMode.Unmarshal(data, v) }

type (
	Encoder = cbor.Encoder
	Decoder = cbor.Decoder

	// RawMessage holds an encoded item whose decoding waits until the
	// receiver knows its type.
	RawMessage = cbor.RawMessage
)

// NewEncoder returns a deterministic encoder writing to w.
func NewEncoder(w io.Writer) *Encoder { return encMode.NewEncoder(w) }

// NewDecoder returns a decoder reading successive items from r.
func NewDecoder(r io.Reader) *Decoder { return decMode.NewDecoder(r) }

// Diagnose renders data in CBOR diagnostic notation (RFC 8949 §8).
func Diagnose(data []byte) (string, error) { return cbor.Diagnose(data) }

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/bureau-foundation/eventlog/lib/codec"
	"github.com/bureau-foundation/eventlog/lib/testutil"
)

func TestCall(t *testing.T) {
	server := NewSocketServer("127.0.0.1:0", testLogger())
	server.Handle("lookup", func(ctx context.Context, raw []byte) (any, error) {
		var request struct {
			Name string `cbor:"name"`
		}
		if err := codec.Unmarshal(raw, &request); err != nil {
			return nil, err
		}
		if request.Name != "EventLoggerServer" {
			return nil, fmt.Errorf("%s is not bound", request.Name)
		}
		return map[string]string{"address": "127.0.0.1:4000"}, nil
	})
	address, _ := startServer(t, server)

	client := NewServiceClient(address)
	if client.Address() != address {
		t.Errorf("Address() = %q, want %q", client.Address(), address)
	}

	fields := map[string]any{"name": "EventLoggerServer"}
	var result struct {
		Address string `cbor:"address"`
	}
	if err := client.Call(context.Background(), "lookup", fields, &result); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if result.Address != "127.0.0.1:4000" {
		t.Errorf("Address = %q", result.Address)
	}
	if _, leaked := fields["action"]; leaked {
		t.Error("Call modified the caller's fields map")
	}

	err := client.Call(context.Background(), "lookup", map[string]any{"name": "Other"}, nil)
	var serviceErr *ServiceError
	if !errors.As(err, &serviceErr) {
		t.Fatalf("Call error = %v, want *ServiceError", err)
	}
	if serviceErr.Action != "lookup" || serviceErr.Message != "Other is not bound" {
		t.Errorf("ServiceError = %+v", serviceErr)
	}
}

func TestCallWithoutFieldsOrResult(t *testing.T) {
	server := NewSocketServer("127.0.0.1:0", testLogger())
	called := make(chan struct{}, 1)
	server.Handle("unbind", func(ctx context.Context, raw []byte) (any, error) {
		called <- struct{}{}
		return map[string]bool{"removed": true}, nil
	})
	address, _ := startServer(t, server)

	if err := NewServiceClient(address).Call(context.Background(), "unbind", nil, nil); err != nil {
		t.Fatalf("Call: %v", err)
	}
	testutil.RequireReceive(t, called, defaultWait, "unbind handler")
}

func TestCallConnectionRefused(t *testing.T) {
	client := NewServiceClient(fmt.Sprintf("127.0.0.1:%d", testutil.FreePort(t)))
	err := client.Call(context.Background(), "lookup", nil, nil)
	if err == nil {
		t.Fatal("Call to a closed port succeeded")
	}
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		t.Errorf("dial failure reported as ServiceError: %v", err)
	}
}

func TestConcurrentCalls(t *testing.T) {
	server := NewSocketServer("127.0.0.1:0", testLogger())
	server.Handle("double", func(ctx context.Context, raw []byte) (any, error) {
		var request struct {
			Value int `cbor:"value"`
		}
		if err := codec.Unmarshal(raw, &request); err != nil {
			return nil, err
		}
		return map[string]int{"value": request.Value * 2}, nil
	})
	address, _ := startServer(t, server)
	client := NewServiceClient(address)

	var group sync.WaitGroup
	for i := range 16 {
		group.Go(func() {
			var result struct {
				Value int `cbor:"value"`
			}
			if err := client.Call(context.Background(), "double", map[string]any{"value": i}, &result); err != nil {
				t.Errorf("Call %d: %v", i, err)
				return
			}
			if result.Value != i*2 {
				t.Errorf("Call %d: value = %d, want %d", i, result.Value, i*2)
			}
		})
	}
	group.Wait()
}

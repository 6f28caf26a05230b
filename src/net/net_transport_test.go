package net

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/mosaicnetworks/driftsim/src/common"
)

func TestNetworkTransport_StartStop(t *testing.T) {
	trans, err := NewTCPTransport("127.0.0.1:0", "", 2, time.Second, common.NewTestEntry(t, common.TestLogLevel))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	trans.Close()

	if !trans.IsShutdown() {
		t.Fatalf("transport should be shut down")
	}

	var out Ack
	err = trans.SendClockMessage(context.Background(), "127.0.0.1:1", &ClockMessage{}, &out)
	if err != ErrTransportShutdown {
		t.Fatalf("expected ErrTransportShutdown, got %v", err)
	}
}

func TestNetworkTransport_PooledConn(t *testing.T) {
	// Transport 1 is consumer
	trans1, err := NewTCPTransport("127.0.0.1:0", "", 2, time.Second, common.NewTestEntry(t, common.TestLogLevel))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	defer trans1.Close()
	go trans1.Listen()
	rpcCh := trans1.Consumer()

	args := ClockMessage{
		FromID:       "machine1",
		LogicalClock: 3,
		SystemTime:   1700000000,
	}
	resp := Ack{
		Success: true,
	}

	// Listen for a request
	go func() {
		for {
			select {
			case rpc := <-rpcCh:
				// Verify the command
				req := rpc.Message
				if !reflect.DeepEqual(req, &args) {
					t.Errorf("command mismatch: %#v %#v", *req, args)
				}
				rpc.Respond(&resp, nil)

			case <-time.After(200 * time.Millisecond):
				return
			}
		}
	}()

	// Transport 2 makes outbound request, 3 conn pool
	trans2, err := NewTCPTransport("127.0.0.1:0", "", 3, time.Second, common.NewTestEntry(t, common.TestLogLevel))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	defer trans2.Close()

	// Create wait group
	wg := &sync.WaitGroup{}
	wg.Add(5)

	sendFunc := func() {
		defer wg.Done()
		var out Ack
		if err := trans2.SendClockMessage(context.Background(), trans1.LocalAddr(), &args, &out); err != nil {
			t.Errorf("err: %v", err)
			return
		}

		// Verify the response
		if !reflect.DeepEqual(resp, out) {
			t.Errorf("response mismatch: %#v %#v", resp, out)
		}
	}

	// Try to do parallel sends, should stress the conn pool
	for i := 0; i < 5; i++ {
		go sendFunc()
	}

	// Wait for the routines to finish
	wg.Wait()

	// Check the conn pool size
	addr := trans1.LocalAddr()
	trans2.connPoolLock.Lock()
	pooled := len(trans2.connPool[addr])
	trans2.connPoolLock.Unlock()
	if pooled != 3 {
		t.Fatalf("Expected 3 pooled conns, got %d", pooled)
	}
}

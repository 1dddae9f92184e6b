// SPDX-License-Identifier: AGPL-3.0-or-later
// MeshHES - A DLMS/COSEM head-end system for pmesh-routed meters
// Copyright (C) 2023 Jacob McSwain
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// The source code is available at <https://github.com/USA-RedDragon/MeshHES>

package pubsub_test

import (
	"context"
	"testing"
	"time"

	"github.com/USA-RedDragon/MeshHES/internal/config"
	"github.com/USA-RedDragon/MeshHES/internal/pubsub"
	"github.com/USA-RedDragon/configulator"
)

func makeTestPubSub(t *testing.T) pubsub.PubSub {
	t.Helper()
	defConfig, err := configulator.New[config.Config]().Default()
	if err != nil {
		t.Fatalf("Failed to create default config: %v", err)
	}
	ps, err := pubsub.MakePubSub(context.Background(), &defConfig)
	if err != nil {
		t.Fatalf("Failed to create pubsub: %v", err)
	}
	t.Cleanup(func() {
		_ = ps.Close()
	})
	return ps
}

func TestPubSubPublishAndSubscribe(t *testing.T) {
	t.Parallel()
	ps := makeTestPubSub(t)

	sub := ps.Subscribe("test-topic")
	defer func() { _ = sub.Close() }()

	msg := []byte("hello world")
	err := ps.Publish("test-topic", msg)
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case received := <-sub.Channel():
		if string(received) != string(msg) {
			t.Errorf("Expected '%s', got '%s'", string(msg), string(received))
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for message")
	}
}

func TestPubSubMultipleMessages(t *testing.T) {
	t.Parallel()
	ps := makeTestPubSub(t)

	sub := ps.Subscribe("multi")
	defer func() { _ = sub.Close() }()

	messages := []string{"msg1", "msg2", "msg3"}
	for _, m := range messages {
		if err := ps.Publish("multi", []byte(m)); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}

	for _, want := range messages {
		select {
		case received := <-sub.Channel():
			if string(received) != want {
				t.Errorf("Expected '%s', got '%s'", want, string(received))
			}
		case <-time.After(time.Second):
			t.Fatalf("Timed out waiting for '%s'", want)
		}
	}
}

func TestPubSubTopicsAreIndependent(t *testing.T) {
	t.Parallel()
	ps := makeTestPubSub(t)

	subA := ps.Subscribe("topic-a")
	defer func() { _ = subA.Close() }()
	subB := ps.Subscribe("topic-b")
	defer func() { _ = subB.Close() }()

	if err := ps.Publish("topic-a", []byte("for-a")); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case received := <-subA.Channel():
		if string(received) != "for-a" {
			t.Errorf("Expected 'for-a', got '%s'", string(received))
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for message on topic-a")
	}

	select {
	case msg := <-subB.Channel():
		t.Errorf("Unexpected message on topic-b: %s", string(msg))
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPubSubCloseSubscription(t *testing.T) {
	t.Parallel()
	ps := makeTestPubSub(t)

	sub := ps.Subscribe("closing")
	if err := sub.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Publishing after close must not panic or block.
	if err := ps.Publish("closing", []byte("late")); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if _, ok := <-sub.Channel(); ok {
		t.Error("Expected closed channel")
	}
}

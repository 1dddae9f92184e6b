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

package pubsub

import (
	"sync"

	"github.com/USA-RedDragon/MeshHES/internal/config"
)

const subscriptionBuffer = 100

func makeInMemoryPubSub(_ *config.Config) (PubSub, error) {
	return &inMemoryPubSub{
		topics: make(map[string]map[*inMemorySubscription]struct{}),
	}, nil
}

type inMemoryPubSub struct {
	mu     sync.RWMutex
	topics map[string]map[*inMemorySubscription]struct{}
	closed bool
}

func (ps *inMemoryPubSub) Publish(topic string, message []byte) error {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	for sub := range ps.topics[topic] {
		// Slow subscribers drop messages rather than block the publisher.
		select {
		case sub.ch <- message:
		default:
		}
	}
	return nil
}

func (ps *inMemoryPubSub) Subscribe(topic string) Subscription {
	sub := &inMemorySubscription{
		ps:    ps,
		topic: topic,
		ch:    make(chan []byte, subscriptionBuffer),
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.topics[topic] == nil {
		ps.topics[topic] = make(map[*inMemorySubscription]struct{})
	}
	ps.topics[topic][sub] = struct{}{}
	return sub
}

func (ps *inMemoryPubSub) Close() error {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.closed {
		return nil
	}
	ps.closed = true
	for _, subs := range ps.topics {
		for sub := range subs {
			close(sub.ch)
			sub.closed = true
		}
	}
	ps.topics = make(map[string]map[*inMemorySubscription]struct{})
	return nil
}

type inMemorySubscription struct {
	ps     *inMemoryPubSub
	topic  string
	ch     chan []byte
	closed bool
}

func (s *inMemorySubscription) Close() error {
	s.ps.mu.Lock()
	defer s.ps.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	delete(s.ps.topics[s.topic], s)
	close(s.ch)
	return nil
}

func (s *inMemorySubscription) Channel() <-chan []byte {
	return s.ch
}

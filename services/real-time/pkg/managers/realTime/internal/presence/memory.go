// Golang port of Overleaf
// Copyright (C) 2021-2023 Jakob Ackermann <das7pad@outlook.com>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package presence

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NewMemoryStore returns a Store for a single process. Expired docs are
// dropped on the next write.
func NewMemoryStore() Store {
	return &memoryStore{
		docs: make(map[primitive.ObjectID]*memoryDoc),
	}
}

type memoryDoc struct {
	lastSeen  map[primitive.ObjectID]time.Time
	expiresAt time.Time
}

type memoryStore struct {
	mu   sync.Mutex
	docs map[primitive.ObjectID]*memoryDoc
}

func (s *memoryStore) Upsert(_ context.Context, docId, userId primitive.ObjectID, t time.Time, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, d := range s.docs {
		if d.expiresAt.Before(t) {
			delete(s.docs, id)
		}
	}
	d, ok := s.docs[docId]
	if !ok {
		d = &memoryDoc{lastSeen: make(map[primitive.ObjectID]time.Time)}
		s.docs[docId] = d
	}
	d.lastSeen[userId] = t
	d.expiresAt = t.Add(ttl)
	return nil
}

func (s *memoryStore) RangeByTime(_ context.Context, docId primitive.ObjectID, min time.Time) ([]primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[docId]
	if !ok {
		return []primitive.ObjectID{}, nil
	}
	type seen struct {
		id primitive.ObjectID
		t  time.Time
	}
	matches := make([]seen, 0, len(d.lastSeen))
	for id, t := range d.lastSeen {
		if !t.Before(min) {
			matches = append(matches, seen{id: id, t: t})
		}
	}
	// Same order as a sorted set.
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].t.Equal(matches[j].t) {
			return matches[i].id.Hex() < matches[j].id.Hex()
		}
		return matches[i].t.Before(matches[j].t)
	})
	ids := make([]primitive.ObjectID, len(matches))
	for i, m := range matches {
		ids[i] = m.id
	}
	return ids, nil
}

func (s *memoryStore) Remove(_ context.Context, docId, userId primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.docs[docId]; ok {
		delete(d.lastSeen, userId)
		if len(d.lastSeen) == 0 {
			delete(s.docs, docId)
		}
	}
	return nil
}

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
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/das7pad/collab-text/pkg/errors"
)

func NewRedisStore(client redis.UniversalClient) Store {
	return &redisStore{client: client}
}

type redisStore struct {
	client redis.UniversalClient
}

func getDocKey(docId primitive.ObjectID) string {
	return "presence:{" + docId.Hex() + "}"
}

func (s *redisStore) Upsert(ctx context.Context, docId, userId primitive.ObjectID, t time.Time, ttl time.Duration) error {
	key := getDocKey(docId)
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZAdd(ctx, key, redis.Z{
			Score:  float64(t.UnixMilli()),
			Member: userId.Hex(),
		})
		p.Expire(ctx, key, ttl)
		return nil
	})
	return err
}

func (s *redisStore) RangeByTime(ctx context.Context, docId primitive.ObjectID, min time.Time) ([]primitive.ObjectID, error) {
	raw, err := s.client.ZRangeByScore(ctx, getDocKey(docId), &redis.ZRangeBy{
		Min: strconv.FormatInt(min.UnixMilli(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, v := range raw {
		id, err2 := primitive.ObjectIDFromHex(v)
		if err2 != nil {
			return nil, errors.Tag(err2, "parse user id "+v)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *redisStore) Remove(ctx context.Context, docId, userId primitive.ObjectID) error {
	return s.client.ZRem(ctx, getDocKey(docId), userId.Hex()).Err()
}

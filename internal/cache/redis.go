package cache

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps entries in Redis so every API instance shares one cache.
// Expiry is delegated to Redis via SETEX.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore { return &RedisStore{rdb: rdb} }

func (s *RedisStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	bs, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	e, ok := decodePayload(bs)
	if !ok {
		return Entry{}, false, nil
	}
	return e, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, e Entry, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	payload, err := encodePayload(e)
	if err != nil {
		return err
	}
	return s.rdb.SetEx(ctx, key, payload, ttl).Err()
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(e Entry) ([]byte, error) {
	hdrJSON, err := json.Marshal(e.Header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(hdrJSON)+len(e.Body))
	binary.BigEndian.PutUint32(out[0:4], uint32(e.Status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
	copy(out[8:8+len(hdrJSON)], hdrJSON)
	copy(out[8+len(hdrJSON):], e.Body)
	return out, nil
}

func decodePayload(bs []byte) (Entry, bool) {
	if len(bs) < 8 {
		return Entry{}, false
	}
	status := int(binary.BigEndian.Uint32(bs[0:4]))
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if hlen < 0 || 8+hlen > len(bs) {
		return Entry{}, false
	}
	hdr := http.Header{}
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &hdr); err != nil {
			return Entry{}, false
		}
	}
	return Entry{Status: status, Header: hdr, Body: bs[8+hlen:]}, true
}

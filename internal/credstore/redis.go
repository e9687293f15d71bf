package credstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Redis is a credential store backed by Redis. One JSON record per entry,
// keyed by the physical (kind, service, account) triple. Values are sealed
// at rest when a Sealer is supplied.
//
// Redis enforces per-key atomicity for Add (SET NX) and Delete; Update runs
// under WATCH so access-control attributes can never be clobbered by a
// concurrent writer.
type Redis struct {
	client    *redis.Client
	sealer    *Sealer
	authorize Authorizer
	logger    *slog.Logger
}

type redisRecord struct {
	ID              string `json:"id"`
	Label           string `json:"label"`
	AccessGroup     string `json:"access_group"`
	Value           []byte `json:"value"`
	Protected       bool   `json:"protected"`
	Accessibility   int    `json:"accessibility"`
	RequirePresence bool   `json:"require_presence"`
}

// RedisOption customizes a Redis store.
type RedisOption func(*Redis)

// WithRedisAuthorizer installs the user-presence challenge for protected
// entries.
func WithRedisAuthorizer(authorize Authorizer) RedisOption {
	return func(r *Redis) { r.authorize = authorize }
}

// WithRedisSealer seals entry values at rest.
func WithRedisSealer(sealer *Sealer) RedisOption {
	return func(r *Redis) { r.sealer = sealer }
}

// NewRedis creates a Redis-backed credential store.
func NewRedis(client *redis.Client, logger *slog.Logger, opts ...RedisOption) *Redis {
	r := &Redis{client: client, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func redisKey(kind, service, account string) string {
	return fmt.Sprintf("cred:%s:%s:%s", kind, service, account)
}

func (r *Redis) Add(ctx context.Context, attrs Attributes) Status {
	if attrs.Kind == "" || attrs.Service == "" || attrs.Account == "" || attrs.Value == nil {
		return StatusBadParameter
	}

	record := redisRecord{
		ID:          uuid.NewString(),
		Label:       attrs.Label,
		AccessGroup: attrs.AccessGroup,
		Value:       bytes.Clone(attrs.Value),
	}
	if attrs.AccessControl != nil {
		record.Protected = true
		record.Accessibility = int(attrs.AccessControl.Accessibility)
		record.RequirePresence = attrs.AccessControl.RequireUserPresence
	}
	if r.sealer != nil {
		sealed, err := r.sealer.Seal(attrs.Service, attrs.Account, record.Value)
		if err != nil {
			r.logger.Error("seal entry value", "service", attrs.Service, "error", err)
			return StatusOther
		}
		record.Value = sealed
	}

	payload, err := json.Marshal(record)
	if err != nil {
		r.logger.Error("marshal entry record", "service", attrs.Service, "error", err)
		return StatusOther
	}

	created, err := r.client.SetNX(ctx, redisKey(attrs.Kind, attrs.Service, attrs.Account), payload, 0).Result()
	if err != nil {
		r.logger.Error("add entry", "service", attrs.Service, "error", err)
		return StatusOther
	}
	if !created {
		return StatusDuplicateItem
	}
	return StatusSuccess
}

func (r *Redis) Update(ctx context.Context, q Query, change Change) Status {
	if q.Kind == "" || q.Service == "" || q.Account == "" || change.Value == nil {
		return StatusBadParameter
	}

	key := redisKey(q.Kind, q.Service, q.Account)
	status := StatusOther
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		record, st := r.fetch(ctx, tx.Get(ctx, key), q)
		if st != StatusSuccess {
			status = st
			return nil
		}
		if st := r.challenge(ctx, record, q); st != StatusSuccess {
			status = st
			return nil
		}

		record.Value = bytes.Clone(change.Value)
		if r.sealer != nil {
			sealed, sealErr := r.sealer.Seal(q.Service, q.Account, record.Value)
			if sealErr != nil {
				return sealErr
			}
			record.Value = sealed
		}
		payload, marshalErr := json.Marshal(record)
		if marshalErr != nil {
			return marshalErr
		}

		_, pipeErr := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		if pipeErr != nil {
			return pipeErr
		}
		status = StatusSuccess
		return nil
	}, key)
	if err != nil {
		r.logger.Error("update entry", "service", q.Service, "error", err)
		return StatusOther
	}
	return status
}

func (r *Redis) Delete(ctx context.Context, q Query) Status {
	if q.Kind == "" || q.Service == "" || q.Account == "" {
		return StatusBadParameter
	}

	deleted, err := r.client.Del(ctx, redisKey(q.Kind, q.Service, q.Account)).Result()
	if err != nil {
		r.logger.Error("delete entry", "service", q.Service, "error", err)
		return StatusOther
	}
	if deleted == 0 {
		return StatusNotFound
	}
	return StatusSuccess
}

func (r *Redis) Get(ctx context.Context, q Query) (Item, Status) {
	if q.Kind == "" || q.Service == "" || q.Account == "" {
		return Item{}, StatusBadParameter
	}

	record, st := r.fetch(ctx, r.client.Get(ctx, redisKey(q.Kind, q.Service, q.Account)), q)
	if st != StatusSuccess {
		return Item{}, st
	}

	item := Item{Label: record.Label}
	if !q.ReturnValue {
		return item, StatusSuccess
	}
	if st := r.challenge(ctx, record, q); st != StatusSuccess {
		return Item{}, st
	}

	value := record.Value
	if r.sealer != nil {
		opened, err := r.sealer.Open(q.Service, q.Account, value)
		if err != nil {
			r.logger.Error("open sealed value", "service", q.Service, "error", err)
			return Item{}, StatusOther
		}
		value = opened
	}
	item.Value = value
	return item, StatusSuccess
}

// fetch decodes a GET result and applies access-group matching.
func (r *Redis) fetch(ctx context.Context, cmd *redis.StringCmd, q Query) (*redisRecord, Status) {
	payload, err := cmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, StatusNotFound
	}
	if err != nil {
		r.logger.Error("get entry", "service", q.Service, "error", err)
		return nil, StatusOther
	}

	var record redisRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		r.logger.Error("unmarshal entry record", "service", q.Service, "error", err)
		return nil, StatusOther
	}
	if q.AccessGroup != "" && record.AccessGroup != q.AccessGroup {
		return nil, StatusNotFound
	}
	return &record, StatusSuccess
}

func (r *Redis) challenge(ctx context.Context, record *redisRecord, q Query) Status {
	if !record.Protected || !record.RequirePresence {
		return StatusSuccess
	}
	if q.SuppressAuthUI {
		return StatusAuthFailed
	}
	if r.authorize != nil && !r.authorize(ctx) {
		return StatusAuthFailed
	}
	return StatusSuccess
}

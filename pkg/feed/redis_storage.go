package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Key layout:
//
//	feed:notif:{userID}:{notifID}  string  JSON document
//	feed:user:{userID}             zset    notifID scored by CreatedAt
//	feed:unread:{userID}           set     unread notifIDs
//	feed:all                       zset    "{userID}:{notifID}" scored by CreatedAt
//
// The global zset exists only for the retention sweep, which must scan
// across users.
type RedisStorage struct {
	client *redis.Client
}

// NewRedisStorage creates a Redis-backed feed storage.
func NewRedisStorage(client *redis.Client) (*RedisStorage, error) {
	if client == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	return &RedisStorage{client: client}, nil
}

func notifKey(userID, notifID uuid.UUID) string {
	return fmt.Sprintf("feed:notif:%s:%s", userID, notifID)
}

func userKey(userID uuid.UUID) string {
	return fmt.Sprintf("feed:user:%s", userID)
}

func unreadKey(userID uuid.UUID) string {
	return fmt.Sprintf("feed:unread:%s", userID)
}

const allKey = "feed:all"

func (s *RedisStorage) Create(ctx context.Context, notif Notification) error {
	if notif.ID == uuid.Nil || notif.UserID == uuid.Nil {
		return ErrInvalidNotification
	}
	if notif.CreatedAt.IsZero() {
		notif.CreatedAt = time.Now()
	}

	payload, err := json.Marshal(notif)
	if err != nil {
		return fmt.Errorf("failed to marshal notification %s: %w", notif.ID, err)
	}

	score := float64(notif.CreatedAt.UnixNano())
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, notifKey(notif.UserID, notif.ID), payload, 0)
	pipe.ZAdd(ctx, userKey(notif.UserID), redis.Z{Score: score, Member: notif.ID.String()})
	pipe.ZAdd(ctx, allKey, redis.Z{Score: score, Member: notif.UserID.String() + ":" + notif.ID.String()})
	if !notif.Read {
		pipe.SAdd(ctx, unreadKey(notif.UserID), notif.ID.String())
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store notification %s: %w", notif.ID, err)
	}
	return nil
}

func (s *RedisStorage) Get(ctx context.Context, userID, notifID uuid.UUID) (*Notification, error) {
	payload, err := s.client.Get(ctx, notifKey(userID, notifID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to get notification %s: %w", notifID, err)
	}

	var notif Notification
	if err := json.Unmarshal(payload, &notif); err != nil {
		return nil, fmt.Errorf("failed to decode notification %s: %w", notifID, err)
	}
	return &notif, nil
}

func (s *RedisStorage) List(ctx context.Context, userID uuid.UUID, opts ListOptions) ([]Notification, error) {
	min := "-inf"
	if opts.Since != nil {
		min = "(" + strconv.FormatInt(opts.Since.UnixNano(), 10)
	}

	ids, err := s.client.ZRevRangeByScore(ctx, userKey(userID), &redis.ZRangeBy{Min: min, Max: "+inf"}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications for user %s: %w", userID, err)
	}
	if len(ids) == 0 {
		return []Notification{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = fmt.Sprintf("feed:notif:%s:%s", userID, id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notifications for user %s: %w", userID, err)
	}

	var filtered []Notification
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue // index entry without a document, skip
		}
		var notif Notification
		if err := json.Unmarshal([]byte(raw), &notif); err != nil {
			return nil, fmt.Errorf("failed to decode notification: %w", err)
		}
		if opts.OnlyUnread && notif.Read {
			continue
		}
		filtered = append(filtered, notif)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	start := opts.Offset
	if start > len(filtered) {
		return []Notification{}, nil
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end], nil
}

func (s *RedisStorage) MarkRead(ctx context.Context, userID uuid.UUID, notifIDs ...uuid.UUID) error {
	for _, notifID := range notifIDs {
		notif, err := s.Get(ctx, userID, notifID)
		if err != nil {
			if errors.Is(err, ErrNotificationNotFound) {
				continue
			}
			return err
		}
		if notif.Read {
			continue
		}

		notif.MarkAsRead()
		payload, err := json.Marshal(notif)
		if err != nil {
			return fmt.Errorf("failed to marshal notification %s: %w", notifID, err)
		}

		pipe := s.client.TxPipeline()
		pipe.Set(ctx, notifKey(userID, notifID), payload, 0)
		pipe.SRem(ctx, unreadKey(userID), notifID.String())
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("failed to mark notification %s read: %w", notifID, err)
		}
	}
	return nil
}

func (s *RedisStorage) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	members, err := s.client.SMembers(ctx, unreadKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("failed to list unread notifications for user %s: %w", userID, err)
	}

	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		id, err := uuid.Parse(m)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return s.MarkRead(ctx, userID, ids...)
}

func (s *RedisStorage) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	count, err := s.client.SCard(ctx, unreadKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications for user %s: %w", userID, err)
	}
	return int(count), nil
}

func (s *RedisStorage) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int, error) {
	max := "(" + strconv.FormatInt(cutoff.UnixNano(), 10)
	members, err := s.client.ZRangeByScore(ctx, allKey, &redis.ZRangeBy{Min: "-inf", Max: max}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to scan notifications for retention: %w", err)
	}

	deleted := 0
	for _, member := range members {
		userPart, notifPart, ok := strings.Cut(member, ":")
		if !ok {
			continue
		}
		userID, err := uuid.Parse(userPart)
		if err != nil {
			continue
		}
		notifID, err := uuid.Parse(notifPart)
		if err != nil {
			continue
		}

		notif, err := s.Get(ctx, userID, notifID)
		if err != nil {
			if errors.Is(err, ErrNotificationNotFound) {
				// Orphaned index entry.
				s.client.ZRem(ctx, allKey, member)
				continue
			}
			return deleted, err
		}
		if !notif.Read {
			continue
		}

		pipe := s.client.TxPipeline()
		pipe.Del(ctx, notifKey(userID, notifID))
		pipe.ZRem(ctx, userKey(userID), notifID.String())
		pipe.ZRem(ctx, allKey, member)
		pipe.SRem(ctx, unreadKey(userID), notifID.String())
		if _, err := pipe.Exec(ctx); err != nil {
			return deleted, fmt.Errorf("failed to delete notification %s: %w", notifID, err)
		}
		deleted++
	}
	return deleted, nil
}

package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DocumentKeyPrefix namespaces session documents
const DocumentKeyPrefix = "geoeditor:doc:"

// sessionsKey is the set of session ids that own a document
const sessionsKey = "geoeditor:sessions"

// DocumentKey returns the key a session document is stored under
func DocumentKey(sessionID string) string {
	return DocumentKeyPrefix + sessionID
}

// SessionFromKey extracts the session id from a document key
func SessionFromKey(key string) (string, bool) {
	if !strings.HasPrefix(key, DocumentKeyPrefix) {
		return "", false
	}
	id := strings.TrimPrefix(key, DocumentKeyPrefix)
	return id, id != ""
}

// DocumentPersister keeps session documents in Redis. A document written by
// Save is readable by Load immediately, which makes it the synchronous local
// store behind a feature store.
type DocumentPersister struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDocumentPersister creates a persister on client. Documents expire after
// ttl, 0 keeps them forever.
func NewDocumentPersister(client *redis.Client, ttl time.Duration) *DocumentPersister {
	return &DocumentPersister{client: client, ttl: ttl}
}

func (p *DocumentPersister) Save(ctx context.Context, key string, doc []byte) error {
	pipe := p.client.TxPipeline()
	pipe.Set(ctx, key, doc, p.ttl)
	if id, ok := SessionFromKey(key); ok {
		pipe.SAdd(ctx, sessionsKey, id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Load returns nil without error when no document is stored under key
func (p *DocumentPersister) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := p.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return data, nil
}

// Remove drops the document of a session
func (p *DocumentPersister) Remove(ctx context.Context, sessionID string) error {
	pipe := p.client.TxPipeline()
	pipe.Del(ctx, DocumentKey(sessionID))
	pipe.SRem(ctx, sessionsKey, sessionID)
	_, err := pipe.Exec(ctx)
	return err
}

// Sessions lists the session ids that have a stored document
func (p *DocumentPersister) Sessions(ctx context.Context) ([]string, error) {
	return p.client.SMembers(ctx, sessionsKey).Result()
}

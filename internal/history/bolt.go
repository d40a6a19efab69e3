package history

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var bucketSessions = []byte("sessions")

// BoltStore persists logs in a bbolt file, one nested bucket per session keyed
// by a monotonically increasing sequence.
type BoltStore struct {
	db *bbolt.DB
}

var _ Store = (*BoltStore)(nil)

// NewBoltStore opens (or creates) the history file at path.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSessions)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init history db: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Open(sessionID string) Log {
	return &boltLog{db: s.db, id: []byte(sessionID)}
}

func (s *BoltStore) Sessions(context.Context) ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		// Nested buckets have nil values; keys iterate in byte order.
		return tx.Bucket(bucketSessions).ForEach(func(k, v []byte) error {
			if v == nil {
				ids = append(ids, string(k))
			}
			return nil
		})
	})
	return ids, err
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

type boltLog struct {
	db *bbolt.DB
	id []byte
}

func (l *boltLog) Append(_ context.Context, turn Turn) error {
	if len(l.id) == 0 {
		return ErrEmptySessionID
	}

	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("marshal turn: %w", err)
	}

	return l.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.Bucket(bucketSessions).CreateBucketIfNotExists(l.id)
		if err != nil {
			return err
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(seqKey(seq), data)
	})
}

func (l *boltLog) All(context.Context) ([]Turn, error) {
	var turns []Turn
	err := l.db.View(func(tx *bbolt.Tx) error {
		if len(l.id) == 0 {
			return nil
		}
		b := tx.Bucket(bucketSessions).Bucket(l.id)
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var t Turn
			if err := json.Unmarshal(v, &t); err != nil {
				return fmt.Errorf("decode turn: %w", err)
			}
			turns = append(turns, t)
			return nil
		})
	})
	return turns, err
}

func (l *boltLog) Clear(context.Context) error {
	if len(l.id) == 0 {
		return nil
	}
	return l.db.Update(func(tx *bbolt.Tx) error {
		err := tx.Bucket(bucketSessions).DeleteBucket(l.id)
		if errors.Is(err, bbolt.ErrBucketNotFound) {
			return nil
		}
		return err
	})
}

// seqKey encodes seq big-endian so byte order equals append order.
func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}

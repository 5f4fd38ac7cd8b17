// Package bolt stores the suffix catalog in a bbolt database.
package bolt

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	bbolt "go.etcd.io/bbolt"
	bberrors "go.etcd.io/bbolt/errors"

	"github.com/haukened/domainparser/internal/domainparser/domain"
	"github.com/haukened/domainparser/internal/domainparser/repos/catalog"
)

var (
	bucketGroups = []byte("groups")
	bucketMeta   = []byte("meta")

	keyTimestamp = []byte("timestamp")
)

// separator joins a group's name and suffixes inside one value.
const separator = '\n'

// ErrEmpty is returned by Load when no catalog has been saved yet.
var ErrEmpty = errors.New("bolt cache holds no catalog")

// boltStore implements catalog.Store using bbolt.
// Groups are keyed by their big-endian ordinal so cursor order is catalog order.
type boltStore struct {
	db *bbolt.DB
}

type bucketCreator interface {
	CreateBucketIfNotExists(name []byte) (*bbolt.Bucket, error)
}

func ensureBuckets(tx bucketCreator) error {
	if _, err := tx.CreateBucketIfNotExists(bucketGroups); err != nil {
		return err
	}
	if _, err := tx.CreateBucketIfNotExists(bucketMeta); err != nil {
		return err
	}
	return nil
}

// ensureBucketsFn is a seam for tests.
var ensureBucketsFn = func(tx bucketCreator) error { return ensureBuckets(tx) }

// New opens (or creates) a Bolt database at path and ensures buckets exist.
// bbolt holds an exclusive file lock, so a second process opening the same path
// waits up to one second and then fails.
func New(path string) (catalog.Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error { return ensureBucketsFn(tx) }); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &boltStore{db: db}, nil
}

func (s *boltStore) Close() error { return s.db.Close() }

func (s *boltStore) Load() (*domain.Catalog, error) {
	var cat *domain.Catalog
	err := s.db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		groups := tx.Bucket(bucketGroups)
		if meta == nil || groups == nil {
			return ErrEmpty
		}
		v := meta.Get(keyTimestamp)
		if v == nil {
			return ErrEmpty
		}
		if len(v) != 8 {
			return fmt.Errorf("corrupt timestamp (%d bytes)", len(v))
		}
		c := &domain.Catalog{Timestamp: int64(binary.BigEndian.Uint64(v))}
		err := groups.ForEach(func(_, val []byte) error {
			g, err := decodeGroup(val)
			if err != nil {
				return err
			}
			c.Groups = append(c.Groups, g)
			return nil
		})
		if err != nil {
			return err
		}
		cat = c
		return nil
	})
	return cat, err
}

// Save replaces the stored catalog in a single transaction.
func (s *boltStore) Save(cat *domain.Catalog) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketGroups); err != nil && !errors.Is(err, bberrors.ErrBucketNotFound) {
			return err
		}
		if err := ensureBuckets(tx); err != nil {
			return err
		}
		groups := tx.Bucket(bucketGroups)
		key := make([]byte, 4)
		for i, g := range cat.Groups {
			binary.BigEndian.PutUint32(key, uint32(i))
			if err := groups.Put(key, encodeGroup(g)); err != nil {
				return err
			}
		}
		ts := make([]byte, 8)
		binary.BigEndian.PutUint64(ts, uint64(cat.Timestamp))
		return tx.Bucket(bucketMeta).Put(keyTimestamp, ts)
	})
}

func encodeGroup(g domain.SuffixGroup) []byte {
	var buf bytes.Buffer
	buf.WriteString(g.Name)
	for _, s := range g.Suffixes {
		buf.WriteByte(separator)
		buf.WriteString(s)
	}
	return buf.Bytes()
}

func decodeGroup(v []byte) (domain.SuffixGroup, error) {
	parts := bytes.Split(v, []byte{separator})
	if len(parts[0]) == 0 {
		return domain.SuffixGroup{}, fmt.Errorf("corrupt group record")
	}
	g := domain.SuffixGroup{Name: string(parts[0])}
	for _, p := range parts[1:] {
		g.Suffixes = append(g.Suffixes, string(p))
	}
	return g, nil
}

var _ catalog.Store = (*boltStore)(nil)

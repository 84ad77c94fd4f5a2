// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cache

import (
	"encoding/binary"
	"encoding/json"
	"log/slog"
	"path/filepath"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// DefaultSizeLimitBytes is the default store budget (§4.D: "≈2GB").
const DefaultSizeLimitBytes = 2_000_000_000

// LevelDB key layout. "v|" holds the verdict payload; "o|<seq>" maps
// insertion order to fingerprint for FIFO eviction; "meta" holds the
// running byte-size estimate and the next sequence number.
const (
	prefixVerdict = "v|"
	prefixOrder   = "o|"
	keyMetaSize   = "meta|size"
	keyMetaSeq    = "meta|seq"
)

// Stats summarizes the store's current occupancy.
type Stats struct {
	Entries int
	Bytes   int64
}

// Store is the LevelDB-backed result cache. The zero value is not usable;
// construct with Open.
type Store struct {
	db        *leveldb.DB
	sizeLimit int64
}

// Open opens (or creates) a Store at dir with the given size budget in
// bytes. A zero or negative limit uses DefaultSizeLimitBytes.
func Open(dir string, sizeLimitBytes int64) (*Store, error) {
	if sizeLimitBytes <= 0 {
		sizeLimitBytes = DefaultSizeLimitBytes
	}
	db, err := leveldb.OpenFile(filepath.Clean(dir), nil)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, sizeLimit: sizeLimitBytes}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get retrieves the verdict cached under fingerprint. Any I/O or decode
// failure is treated as a miss and logged at debug level (§4.D); only
// leveldb.ErrNotFound-equivalent "not found" is silent.
func (s *Store) Get(fingerprint string) (Verdict, bool) {
	data, err := s.db.Get([]byte(prefixVerdict+fingerprint), nil)
	if err != nil {
		if err != leveldb.ErrNotFound {
			slog.Debug("cache get failed, treating as miss", "fingerprint", fingerprint, "error", err)
		}
		return Verdict{}, false
	}
	var v Verdict
	if err := json.Unmarshal(data, &v); err != nil {
		slog.Debug("cache entry corrupt, treating as miss", "fingerprint", fingerprint, "error", err)
		return Verdict{}, false
	}
	return v, true
}

// Put stores a Succeeded verdict under fingerprint, evicting the oldest
// entries first if doing so would exceed the store's size budget; the entry
// just written is never evicted by its own Put. Put is a no-op (with a debug
// log) if v is not a Succeeded verdict.
func (s *Store) Put(fingerprint string, v Verdict) error {
	if !v.IsSuccess() {
		slog.Debug("refusing to cache non-success verdict", "fingerprint", fingerprint)
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	if _, alreadyCached := s.Get(fingerprint); alreadyCached {
		return s.db.Put([]byte(prefixVerdict+fingerprint), data, nil)
	}

	seq, err := s.nextSeq()
	if err != nil {
		return err
	}

	batch := new(leveldb.Batch)
	batch.Put([]byte(prefixVerdict+fingerprint), data)
	batch.Put(orderKey(seq), []byte(fingerprint))
	if err := s.db.Write(batch, nil); err != nil {
		return err
	}

	return s.growSizeAndEvict(int64(len(data)), fingerprint)
}

// Clear removes every cached verdict and resets the size accounting.
func (s *Store) Clear() error {
	iter := s.db.NewIterator(nil, nil)
	defer iter.Release()

	batch := new(leveldb.Batch)
	for iter.Next() {
		batch.Delete(append([]byte(nil), iter.Key()...))
	}
	if err := iter.Error(); err != nil {
		return err
	}
	return s.db.Write(batch, nil)
}

// Stats reports the number of cached verdicts and the tracked byte size.
func (s *Store) Stats() Stats {
	entries := 0
	iter := s.db.NewIterator(util.BytesPrefix([]byte(prefixVerdict)), nil)
	for iter.Next() {
		entries++
	}
	iter.Release()

	size, _ := s.readInt64(keyMetaSize)
	return Stats{Entries: entries, Bytes: size}
}

func (s *Store) nextSeq() (uint64, error) {
	v, err := s.readUint64(keyMetaSeq)
	if err != nil {
		return 0, err
	}
	if err := s.db.Put([]byte(keyMetaSeq), encodeUint64(v+1), nil); err != nil {
		return 0, err
	}
	return v, nil
}

// growSizeAndEvict records addedBytes against the running size estimate and
// evicts the oldest entries (by insertion sequence) until the store is back
// under budget or the next candidate is keep, the entry just written.
func (s *Store) growSizeAndEvict(addedBytes int64, keep string) error {
	size, err := s.readInt64(keyMetaSize)
	if err != nil {
		return err
	}
	size += addedBytes

	iter := s.db.NewIterator(util.BytesPrefix([]byte(prefixOrder)), nil)
	defer iter.Release()

	for size > s.sizeLimit && iter.Next() {
		fingerprint := string(iter.Value())
		if fingerprint == keep {
			break
		}
		orderKeyCopy := append([]byte(nil), iter.Key()...)

		data, err := s.db.Get([]byte(prefixVerdict+fingerprint), nil)
		if err == nil {
			size -= int64(len(data))
		}

		batch := new(leveldb.Batch)
		batch.Delete([]byte(prefixVerdict + fingerprint))
		batch.Delete(orderKeyCopy)
		if err := s.db.Write(batch, nil); err != nil {
			return err
		}
	}

	return s.db.Put([]byte(keyMetaSize), encodeInt64(size), nil)
}

func (s *Store) readInt64(key string) (int64, error) {
	data, err := s.db.Get([]byte(key), nil)
	if err == leveldb.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(data)), nil
}

func (s *Store) readUint64(key string) (uint64, error) {
	data, err := s.db.Get([]byte(key), nil)
	if err == leveldb.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(data), nil
}

func orderKey(seq uint64) []byte {
	return append([]byte(prefixOrder), encodeUint64(seq)...)
}

func encodeUint64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func encodeInt64(v int64) []byte {
	return encodeUint64(uint64(v))
}

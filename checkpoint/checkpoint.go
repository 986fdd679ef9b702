// Package checkpoint persists finished row bands of a render in a local
// Badger store, so an interrupted render can pick up where it left off.
package checkpoint

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/dgraph-io/badger"
	"golang.org/x/xerrors"

	"row-major/lantern/hdrimage"
)

// Key prefixes that denote different tables in the key-value store.
const (
	KeyTypeFingerprint uint32 = 0
	KeyTypeBand        uint32 = 1
)

func FingerprintKey() []byte {
	key := make([]byte, 4)
	binary.BigEndian.PutUint32(key[0:4], KeyTypeFingerprint)
	return key
}

func BandKey(index int) []byte {
	key := make([]byte, 12)
	binary.BigEndian.PutUint32(key[0:4], KeyTypeBand)
	binary.BigEndian.PutUint64(key[4:12], uint64(index))
	return key
}

func BandKeyPrefixAllBands() []byte {
	key := make([]byte, 4)
	binary.BigEndian.PutUint32(key[0:4], KeyTypeBand)
	return key
}

// Fingerprint identifies everything that decides the pixels of a band.  Bands
// saved under one fingerprint are never loaded under another.
type Fingerprint struct {
	Model          string
	Cols, Rows     int
	Samples        int
	BandRows       int
	Seed           int64
	RouletteDepth  int
	MaxDepth       int
	DirectLighting bool
}

func (f Fingerprint) bytes() []byte {
	return []byte(fmt.Sprintf("%+v", f))
}

type Store struct {
	DB *badger.DB
}

// Open opens (creating if needed) the store in dataDir.  If the store holds
// bands from a render with a different fingerprint, they are dropped.
func Open(dataDir string, fp Fingerprint) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, xerrors.Errorf("while creating checkpoint dir %q: %w", dataDir, err)
	}

	db, err := badger.Open(badger.DefaultOptions(dataDir))
	if err != nil {
		return nil, xerrors.Errorf("while opening badger kv dir: %w", err)
	}

	s := &Store{DB: db}

	var stored []byte
	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(FingerprintKey())
		if xerrors.Is(err, badger.ErrKeyNotFound) {
			return nil
		} else if err != nil {
			return err
		}
		stored, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		db.Close()
		return nil, xerrors.Errorf("while reading fingerprint: %w", err)
	}

	want := fp.bytes()
	if string(stored) == string(want) {
		return s, nil
	}

	if err := db.DropPrefix(BandKeyPrefixAllBands()); err != nil {
		db.Close()
		return nil, xerrors.Errorf("while dropping stale bands: %w", err)
	}

	err = db.Update(func(txn *badger.Txn) error {
		return txn.Set(FingerprintKey(), want)
	})
	if err != nil {
		db.Close()
		return nil, xerrors.Errorf("while writing fingerprint: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	if err := s.DB.Close(); err != nil {
		return xerrors.Errorf("while closing badger kv: %w", err)
	}
	return nil
}

// LoadBand copies band index, covering rows [rowSrc, rowLim), into img.  It
// returns false if the band was never saved.
func (s *Store) LoadBand(img *hdrimage.Image, index, rowSrc, rowLim int) (bool, error) {
	found := false
	err := s.DB.View(func(txn *badger.Txn) error {
		item, err := txn.Get(BandKey(index))
		if xerrors.Is(err, badger.ErrKeyNotFound) {
			return nil
		} else if err != nil {
			return err
		}

		data, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}

		if err := hdrimage.DecodeRows(data, img, rowSrc, rowLim); err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, xerrors.Errorf("while loading band %d: %w", index, err)
	}
	return found, nil
}

// SaveBand stores rows [rowSrc, rowLim) of img as band index.
func (s *Store) SaveBand(img *hdrimage.Image, index, rowSrc, rowLim int) error {
	data, err := hdrimage.EncodeRows(img, rowSrc, rowLim)
	if err != nil {
		return xerrors.Errorf("while encoding band %d: %w", index, err)
	}

	err = s.DB.Update(func(txn *badger.Txn) error {
		return txn.Set(BandKey(index), data)
	})
	if err != nil {
		return xerrors.Errorf("while saving band %d: %w", index, err)
	}
	return nil
}

// BandCount is the number of bands saved under the current fingerprint.
func (s *Store) BandCount() (int, error) {
	count := 0
	err := s.DB.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		prefix := BandKeyPrefixAllBands()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, xerrors.Errorf("while counting bands: %w", err)
	}
	return count, nil
}

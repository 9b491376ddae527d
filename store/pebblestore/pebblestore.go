// Package pebblestore is a durable Store backed by an embedded Pebble
// key-value database.
//
// Layout: records are canonical-CBOR values under "r:", with two
// byte-prefix indexes: "ch:<contenthash>:<id>" for exact content-hash
// lookup and "ph:<id>" marking records that carry a perceptual hash.
// Every create and delete commits all of its keys in a single synced
// batch, so no partial record is ever visible.
package pebblestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/fxamacker/cbor/v2"

	"github.com/chewton2k/Imprint/model"
	"github.com/chewton2k/Imprint/store"
)

var (
	prefixRecord     = []byte("r:")
	prefixHashIndex  = []byte("ch:")
	prefixPerceptual = []byte("ph:")
)

// DB is a pebble-backed record store.
type DB struct {
	db      *pebble.DB
	encMode cbor.EncMode
}

// Open opens (creating if needed) a record store in dir.
func Open(dir string) (*DB, error) {
	if dir == "" {
		return nil, errors.New("pebblestore: directory is required")
	}
	pdb, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebblestore: open: %w", err)
	}
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		_ = pdb.Close()
		return nil, err
	}
	return &DB{db: pdb, encMode: em}, nil
}

func (d *DB) Close() error { return d.db.Close() }

func recordKey(id string) []byte {
	return append(append([]byte(nil), prefixRecord...), id...)
}

func hashIndexKey(contentHash, id string) []byte {
	k := append(append([]byte(nil), prefixHashIndex...), contentHash...)
	k = append(k, ':')
	return append(k, id...)
}

func perceptualKey(id string) []byte {
	return append(append([]byte(nil), prefixPerceptual...), id...)
}

func (d *DB) Create(ctx context.Context, r *model.ProvenanceRecord) (string, error) {
	_ = ctx
	if err := store.ValidateRecord(r); err != nil {
		return "", err
	}

	existing, err := d.get(r.ID)
	if err != nil && !store.IsNotFound(err) {
		return "", err
	}
	if existing != nil {
		if *existing == *r {
			return r.ID, nil
		}
		return "", store.ErrImmutable
	}

	val, err := d.encMode.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("pebblestore: encode: %w", err)
	}

	batch := d.db.NewBatch()
	defer batch.Close()
	if err := batch.Set(recordKey(r.ID), val, nil); err != nil {
		return "", err
	}
	if err := batch.Set(hashIndexKey(r.ContentHash, r.ID), nil, nil); err != nil {
		return "", err
	}
	if r.PerceptualHash != "" {
		if err := batch.Set(perceptualKey(r.ID), nil, nil); err != nil {
			return "", err
		}
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return "", fmt.Errorf("pebblestore: commit: %w", err)
	}
	return r.ID, nil
}

func (d *DB) FindByID(ctx context.Context, id string) (*model.ProvenanceRecord, error) {
	_ = ctx
	return d.get(id)
}

func (d *DB) get(id string) (*model.ProvenanceRecord, error) {
	val, closer, err := d.db.Get(recordKey(id))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	defer closer.Close()

	var r model.ProvenanceRecord
	if err := cbor.Unmarshal(val, &r); err != nil {
		return nil, fmt.Errorf("pebblestore: decode %s: %w", id, err)
	}
	return &r, nil
}

func (d *DB) FindByContentHash(ctx context.Context, contentHash string) ([]*model.ProvenanceRecord, error) {
	_ = ctx
	prefix := append(append([]byte(nil), prefixHashIndex...), contentHash...)
	prefix = append(prefix, ':')

	ids, err := d.scanIDs(prefix)
	if err != nil {
		return nil, err
	}
	return d.fetchSorted(ids)
}

func (d *DB) FindAllWithPerceptualHash(ctx context.Context) ([]*model.ProvenanceRecord, error) {
	_ = ctx
	ids, err := d.scanIDs(prefixPerceptual)
	if err != nil {
		return nil, err
	}
	return d.fetchSorted(ids)
}

// scanIDs returns the suffix after prefix for every key in the prefix range.
func (d *DB) scanIDs(prefix []byte) ([]string, error) {
	iter, err := d.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var ids []string
	for iter.First(); iter.Valid(); iter.Next() {
		ids = append(ids, string(iter.Key()[len(prefix):]))
	}
	return ids, iter.Error()
}

func (d *DB) fetchSorted(ids []string) ([]*model.ProvenanceRecord, error) {
	var out []*model.ProvenanceRecord
	for _, id := range ids {
		r, err := d.get(id)
		if err != nil {
			if store.IsNotFound(err) {
				continue // index key raced a delete
			}
			return nil, err
		}
		out = append(out, r)
	}
	store.SortBySignedAt(out)
	return out, nil
}

func (d *DB) Delete(ctx context.Context, id string) error {
	_ = ctx
	r, err := d.get(id)
	if err != nil {
		return err
	}

	batch := d.db.NewBatch()
	defer batch.Close()
	if err := batch.Delete(recordKey(id), nil); err != nil {
		return err
	}
	if err := batch.Delete(hashIndexKey(r.ContentHash, id), nil); err != nil {
		return err
	}
	if r.PerceptualHash != "" {
		if err := batch.Delete(perceptualKey(id), nil); err != nil {
			return err
		}
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("pebblestore: commit: %w", err)
	}
	return nil
}

// prefixUpperBound returns the smallest key greater than every key with
// the given prefix.
func prefixUpperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil // prefix is all 0xff; no upper bound
}

package ledger

import (
	"encoding/json"
	"errors"
	"fmt"

	"gosolbridge/types"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketDeposits = []byte("deposits")

	ErrNotFound = errors.New("deposit record not found")
)

// Store is the durable mapping from Solana transaction signature to
// DepositRecord. Puts are atomic (bolt transaction): a crash mid-write leaves
// either the prior state or the fully written record, never a torn one.
// An absent file at cold start is an empty ledger, not an error.
type Store struct {
	db *bolt.DB
}

func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot open ledger at %s: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, e := tx.CreateBucketIfNotExists(bucketDeposits)
		return e
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Has(signature string) (bool, error) {
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(bucketDeposits).Get([]byte(signature)) != nil
		return nil
	})
	return found, err
}

func (s *Store) Get(signature string) (*types.DepositRecord, error) {
	var out types.DepositRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketDeposits).Get([]byte(signature))
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Put durably persists the record before returning. The ledger is
// append-only: an existing record for the same signature is never replaced.
func (s *Store) Put(signature string, rec *types.DepositRecord) error {
	if rec == nil {
		return errors.New("null record to store")
	}
	blob, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("cannot marshal deposit record to JSON: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDeposits)
		if b.Get([]byte(signature)) != nil {
			return nil
		}
		return b.Put([]byte(signature), blob)
	})
}

// AllIDs returns every recorded signature; used to seed the watcher's
// already-known set at startup.
func (s *Store) AllIDs() ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDeposits).ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Scan visits every record; used by the audit endpoint.
func (s *Store) Scan(visit func(*types.DepositRecord) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketDeposits).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var rec types.DepositRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			if err := visit(&rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) Close() error {
	return s.db.Close()
}

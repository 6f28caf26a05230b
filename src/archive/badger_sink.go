package archive

import (
	"fmt"
	"os"

	"github.com/dgraph-io/badger"
	cm "github.com/mosaicnetworks/driftsim/src/common"
	"github.com/mosaicnetworks/driftsim/src/events"
	"github.com/sirupsen/logrus"
)

// DefaultBatchSize is the number of events buffered before they are committed.
const DefaultBatchSize = 64

type kv struct {
	key []byte
	val []byte
}

// BadgerSink is an events.Sink writing to a Badger database. Writes are
// buffered and committed in batches, and on Flush.
type BadgerSink struct {
	db        *badger.DB
	path      string
	batchSize int

	pending    []kv
	records    int
	deliveries int
	closed     bool
}

// NewBadgerSink opens the database at path, creating it if needed, and drops
// all of its keys: every run starts from an empty archive. Other files in the
// directory are left alone.
func NewBadgerSink(path string, logger *logrus.Entry) (*BadgerSink, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, err
	}

	db, err := openDB(path, logger)
	if err != nil {
		return nil, err
	}

	if err := db.DropAll(); err != nil {
		db.Close()
		return nil, fmt.Errorf("resetting archive %s: %w", path, err)
	}

	return &BadgerSink{
		db:        db,
		path:      path,
		batchSize: DefaultBatchSize,
	}, nil
}

func openDB(path string, logger *logrus.Entry) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithSyncWrites(false)

	if logger != nil {
		opts = opts.WithLogger(logger.WithField("component", "badger"))
	} else {
		opts = opts.WithLogger(nil)
	}

	return badger.Open(opts)
}

// Path returns the directory of the database.
func (s *BadgerSink) Path() string {
	return s.path
}

func (s *BadgerSink) put(key, val []byte) error {
	if s.closed {
		return cm.NewStoreErr("Archive", cm.Closed, string(key))
	}
	s.pending = append(s.pending, kv{key, val})
	if len(s.pending) >= s.batchSize {
		return s.commit()
	}
	return nil
}

func (s *BadgerSink) commit() error {
	if len(s.pending) == 0 {
		return nil
	}

	tx := s.db.NewTransaction(true)
	defer tx.Discard()

	for _, p := range s.pending {
		if err := tx.Set(p.key, p.val); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.pending = s.pending[:0]
	return nil
}

// Started implements events.Emitter.
func (s *BadgerSink) Started(st events.Startup) error {
	val, err := marshalStartup(st)
	if err != nil {
		return err
	}
	return s.put([]byte(startupKey), val)
}

// Emit implements events.Emitter.
func (s *BadgerSink) Emit(r events.Record) error {
	val, err := marshalRecord(r)
	if err != nil {
		return err
	}
	key := recordKey(s.records)
	s.records++
	return s.put(key, val)
}

// Delivered implements events.Emitter.
func (s *BadgerSink) Delivered(d events.Delivery) error {
	val, err := marshalDelivery(d)
	if err != nil {
		return err
	}
	key := deliveryKey(s.deliveries)
	s.deliveries++
	return s.put(key, val)
}

// Flush commits buffered events.
func (s *BadgerSink) Flush() error {
	if s.closed {
		return nil
	}
	return s.commit()
}

// Close commits buffered events and closes the database.
func (s *BadgerSink) Close() error {
	if s.closed {
		return nil
	}
	err := s.commit()
	s.closed = true
	if cerr := s.db.Close(); err == nil {
		err = cerr
	}
	return err
}

// Contents is everything an archive holds.
type Contents struct {
	Startup    events.Startup
	Records    []events.Record
	Deliveries []events.Delivery
}

// Load opens the archive at path and reads it completely.
func Load(path string, logger *logrus.Entry) (*Contents, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	db, err := openDB(path, logger)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	res := &Contents{}

	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(startupKey))
		if err != nil {
			return mapError(err, "Startup", startupKey)
		}
		if err := item.Value(func(v []byte) error {
			e, err := unmarshal(v)
			if err != nil {
				return err
			}
			res.Startup = e.startup()
			return nil
		}); err != nil {
			return err
		}

		if err := scan(txn, recordPrefix, func(e *entry) {
			res.Records = append(res.Records, e.record())
		}); err != nil {
			return err
		}

		return scan(txn, deliveryPrefix, func(e *entry) {
			res.Deliveries = append(res.Deliveries, e.delivery())
		})
	})
	if err != nil {
		return nil, fmt.Errorf("reading archive %s: %w", path, err)
	}

	return res, nil
}

// scan visits the entries under prefix in key order, which is the order they
// were written in thanks to the zero-padded indexes.
func scan(txn *badger.Txn, prefix string, fn func(*entry)) error {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	p := []byte(prefix + "_")
	for it.Seek(p); it.ValidForPrefix(p); it.Next() {
		err := it.Item().Value(func(v []byte) error {
			e, err := unmarshal(v)
			if err != nil {
				return err
			}
			fn(e)
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func isDBKeyNotFound(err error) bool {
	return err == badger.ErrKeyNotFound
}

func mapError(err error, name, key string) error {
	if isDBKeyNotFound(err) {
		return cm.NewStoreErr(name, cm.KeyNotFound, key)
	}
	return err
}

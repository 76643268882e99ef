// Package store persists probe results in an embedded badger database
// so that runs at larger budgets resume from everything probed before.
package store

import (
	"encoding/json"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/configspace/configcount/pkg/probe"
)

const (
	resultPrefix  = "result/"
	failurePrefix = "failure/"
)

// Config locates the database.
type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string `yaml:"path"`
	// InMemory keeps the database in memory only.
	InMemory bool `yaml:"inMemory"`
	// SyncWrites flushes every write to disk before returning.
	SyncWrites bool `yaml:"syncWrites"`
}

// badgerLogger feeds badger's logging into logrus, demoting its
// informational chatter to debug.
type badgerLogger struct {
	logger logrus.FieldLogger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf(format, args...)
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warningf(format, args...)
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}

// Badger is a probe.Cache stored in badger. Values are JSON encoded
// probe results.
type Badger struct {
	db *badger.DB
}

var _ probe.Cache = &Badger{}

// Open opens, creating if needed, the database described by cfg.
func Open(cfg Config, logger logrus.FieldLogger) (*Badger, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("path is required for a persistent probe cache")
		}
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, errors.Wrapf(err, "creating probe cache directory %s", cfg.Path)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if logger != nil {
		opts = opts.WithLogger(badgerLogger{logger: logger.WithField("component", "badger")})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "opening probe cache")
	}
	return &Badger{db: db}, nil
}

func (b *Badger) Close() error {
	return b.db.Close()
}

func (b *Badger) Get(k probe.Key) (probe.Result, bool, error) {
	var r probe.Result
	found := false
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(resultPrefix + k.String()))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &r)
		})
	})
	if err != nil {
		return probe.Result{}, false, errors.Wrapf(err, "reading probe %s", k)
	}
	return r, found, nil
}

func (b *Badger) Put(r probe.Result) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	key := []byte(resultPrefix + r.Key().String())
	return b.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, data)
	})
}

func (b *Badger) PutFailure(r probe.Result) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(failurePrefix+r.Key().String()), data)
	})
}

func (b *Badger) All() ([]probe.Result, error) {
	return b.scan(resultPrefix)
}

func (b *Badger) Failures() ([]probe.Result, error) {
	return b.scan(failurePrefix)
}

func (b *Badger) Len() (int, error) {
	n := 0
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(resultPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

func (b *Badger) scan(prefix string) ([]probe.Result, error) {
	var results []probe.Result
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var r probe.Result
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); err != nil {
				return errors.Wrapf(err, "decoding %s", it.Item().Key())
			}
			results = append(results, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Byte order of the keys differs from state order.
	probe.SortResults(results)
	return results, nil
}

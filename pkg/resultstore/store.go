/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package resultstore archives the reports of finished runs under a name so
// they can be compared later.
package resultstore

import (
	"time"

	badger "github.com/dgraph-io/badger/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/hyperledger-labs/queuesim/pkg/logging"
	"github.com/hyperledger-labs/queuesim/pkg/simulation"
	"github.com/hyperledger-labs/queuesim/pkg/stats"
)

// ErrNotFound is wrapped by lookups of names never stored.
var ErrNotFound = errors.New("no such report")

const keyPrefix = "report-"

func reportKey(name string) []byte {
	return []byte(keyPrefix + name)
}

// Entry is one archived run.  Exactly one of Report and Summary is set,
// depending on whether the run was replicated.
type Entry struct {
	Name     string    `yaml:"name"`
	Recorded time.Time `yaml:"recorded"`
	Seed     int64     `yaml:"seed"`
	Source   string    `yaml:"source"`

	Report  *stats.Report       `yaml:"report,omitempty"`
	Summary *simulation.Summary `yaml:"summary,omitempty"`
}

type Store struct {
	db *badger.DB
}

// Open opens the archive in dirPath.  An empty dirPath opens a throwaway
// in-memory archive.
func Open(dirPath string, logger logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NilLogger
	}

	var badgerOpts badger.Options
	if dirPath == "" {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		badgerOpts = badger.DefaultOptions(dirPath).WithSyncWrites(false).WithTruncate(true)
	}
	badgerOpts = badgerOpts.WithLogger(badgerLogger{logger: logger})

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, errors.WithMessage(err, "could not open backing db")
	}

	return &Store{
		db: db,
	}, nil
}

// Put stores entry under its name, replacing any previous entry.
func (s *Store) Put(entry *Entry) error {
	if entry.Name == "" {
		return errors.Errorf("report name must not be empty")
	}
	if (entry.Report == nil) == (entry.Summary == nil) {
		return errors.Errorf("entry %q must hold either a report or a summary", entry.Name)
	}

	data, err := yaml.Marshal(entry)
	if err != nil {
		return errors.WithMessagef(err, "could not encode entry %q", entry.Name)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(reportKey(entry.Name), data)
	})
}

func (s *Store) Get(name string) (*Entry, error) {
	var valCopy []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(reportKey(name))
		if err != nil {
			return err
		}

		valCopy, err = item.ValueCopy(nil)
		return err
	})

	if err == badger.ErrKeyNotFound {
		return nil, errors.WithMessagef(ErrNotFound, "%q", name)
	}
	if err != nil {
		return nil, errors.WithMessagef(err, "could not read entry %q", name)
	}

	entry := &Entry{}
	if err := yaml.Unmarshal(valCopy, entry); err != nil {
		return nil, errors.WithMessagef(err, "could not decode entry %q", name)
	}

	return entry, nil
}

// List returns the names of all stored entries in lexical order.
func (s *Store) List() ([]string, error) {
	names := []string{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(opts.Prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			names = append(names, string(key[len(keyPrefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, errors.WithMessage(err, "could not list entries")
	}

	return names, nil
}

func (s *Store) Delete(name string) error {
	if _, err := s.Get(name); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(reportKey(name))
	})
}

func (s *Store) Sync() error {
	return s.db.Sync()
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Package storage persists accounts, messages and attachments in BadgerDB.
// Records are msgpack encoded; keys are laid out for prefix scans.
package storage

import (
	"app-chat/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack"
)

func serialize(v interface{}) ([]byte, error) {
	return msgpack.Marshal(v)
}

func deserialize(b []byte, dest interface{}) error {
	return msgpack.Unmarshal(b, dest)
}

// get reads and decodes the record under key, ErrNotFound when absent.
func get(txn *badger.Txn, key []byte, dest interface{}) error {
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return errors.ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return deserialize(val, dest)
	})
}

func set(txn *badger.Txn, key []byte, v interface{}) error {
	b, err := serialize(v)
	if err != nil {
		return err
	}
	return txn.Set(key, b)
}

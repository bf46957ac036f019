package storage

import (
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IBlobRepository interface {
	StoreBlob(bucket string, blob DiskBlob) (DiskBlob, error)
	GetBlob(bucket, id string) (DiskBlob, error)
	Exists(bucket, id string) (bool, error)
}

type DiskBlob struct {
	ID        string    `msgpack:"id"`
	Name      string    `msgpack:"name"`
	MimeType  string    `msgpack:"mimeType"`
	SizeBytes int64     `msgpack:"sizeBytes"`
	Data      []byte    `msgpack:"data"`
	CreatedAt time.Time `msgpack:"createdAt"`
}

type BlobRepository struct {
	db  *badger.DB
	now func() time.Time
}

func NewBlobRepository(db *badger.DB) *BlobRepository {
	return &BlobRepository{db: db, now: time.Now}
}

func blobKey(bucket, id string) []byte {
	return []byte(fmt.Sprintf("blob:%s:%s", bucket, id))
}

func (b *BlobRepository) StoreBlob(bucket string, blob DiskBlob) (DiskBlob, error) {
	blob.ID = uuid.NewString()
	blob.CreatedAt = b.now().UTC()
	err := b.db.Update(func(txn *badger.Txn) error {
		return set(txn, blobKey(bucket, blob.ID), blob)
	})
	if err != nil {
		return DiskBlob{}, err
	}
	return blob, nil
}

func (b *BlobRepository) GetBlob(bucket, id string) (DiskBlob, error) {
	var blob DiskBlob
	err := b.db.View(func(txn *badger.Txn) error {
		return get(txn, blobKey(bucket, id), &blob)
	})
	return blob, err
}

func (b *BlobRepository) Exists(bucket, id string) (bool, error) {
	err := b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(blobKey(bucket, id))
		return err
	})
	switch err {
	case nil:
		return true, nil
	case badger.ErrKeyNotFound:
		return false, nil
	default:
		return false, err
	}
}

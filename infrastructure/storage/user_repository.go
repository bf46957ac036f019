package storage

import (
	"app-chat/errors"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IUserRepository interface {
	CreateUser(name, email, passwordHash string) (User, error)
	GetUserByEmail(email string) (User, error)
	GetUser(id string) (User, error)
}

type UserRepository struct {
	db  *badger.DB
	now func() time.Time
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db, now: time.Now}
}

type User struct {
	ID           string    `msgpack:"id"`
	Name         string    `msgpack:"name"`
	Email        string    `msgpack:"email"`
	PasswordHash string    `msgpack:"password_hash"`
	CreatedAt    time.Time `msgpack:"created_at"`
}

func userKey(id string) []byte {
	return []byte("user:" + id)
}

// emails are matched case-insensitively
func emailKey(email string) []byte {
	return []byte("email:" + strings.ToLower(strings.TrimSpace(email)))
}

// CreateUser persists a new user under a fresh id. The email index is written
// in the same transaction, so two accounts never share an email.
func (u *UserRepository) CreateUser(name, email, passwordHash string) (User, error) {
	user := User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    u.now().UTC(),
	}
	err := u.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(emailKey(email)); err == nil {
			return errors.ErrUserAlreadyExists
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		if err := txn.Set(emailKey(email), []byte(user.ID)); err != nil {
			return err
		}
		return set(txn, userKey(user.ID), user)
	})
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (u *UserRepository) GetUserByEmail(email string) (User, error) {
	var user User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(emailKey(email))
		if err == badger.ErrKeyNotFound {
			return errors.ErrNotFound
		}
		if err != nil {
			return err
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return get(txn, userKey(string(id)), &user)
	})
	return user, err
}

func (u *UserRepository) GetUser(id string) (User, error) {
	var user User
	err := u.db.View(func(txn *badger.Txn) error {
		return get(txn, userKey(id), &user)
	})
	return user, err
}

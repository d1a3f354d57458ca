package finance

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	transactionBucket = "transactions"
	categoryBucket    = "categories"
	attachmentBucket  = "attachments"
)

// DB defines the interface for database operations
type DB interface {
	// SaveTransaction inserts or replaces a transaction
	SaveTransaction(t *Transaction) error

	// GetTransaction retrieves a transaction by ID
	GetTransaction(id string) (*Transaction, error)

	// ListTransactions returns all transactions
	ListTransactions() ([]*Transaction, error)

	// DeleteTransaction removes a transaction
	DeleteTransaction(id string) error

	// SaveCategory inserts or replaces a category
	SaveCategory(c *Category) error

	// GetCategory retrieves a category by ID
	GetCategory(id string) (*Category, error)

	// ListCategories returns all categories
	ListCategories() ([]*Category, error)

	// DeleteCategory removes a category
	DeleteCategory(id string) error

	// SaveAttachment inserts or replaces attachment metadata
	SaveAttachment(a *Attachment) error

	// GetAttachment retrieves attachment metadata by ID
	GetAttachment(id string) (*Attachment, error)

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB opens (or creates) the database file and its buckets.
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{transactionBucket, categoryBucket, attachmentBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

func (b *BoltDB) put(bucket, id string, v any) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshaling %s record: %w", bucket, err)
		}
		return tx.Bucket([]byte(bucket)).Put([]byte(id), data)
	})
}

func (b *BoltDB) get(bucket, id string, v any) error {
	return b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucket)).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%s record not found: %s", bucket, id)
		}
		return json.Unmarshal(data, v)
	})
}

// SaveTransaction inserts or replaces a transaction
func (b *BoltDB) SaveTransaction(t *Transaction) error {
	return b.put(transactionBucket, t.ID, t)
}

// GetTransaction retrieves a transaction by ID
func (b *BoltDB) GetTransaction(id string) (*Transaction, error) {
	var t Transaction
	if err := b.get(transactionBucket, id, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTransactions returns all transactions
func (b *BoltDB) ListTransactions() ([]*Transaction, error) {
	transactions := make([]*Transaction, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(transactionBucket))
		return bucket.ForEach(func(k, v []byte) error {
			var t Transaction
			if err := json.Unmarshal(v, &t); err != nil {
				return fmt.Errorf("unmarshaling transaction: %w", err)
			}
			transactions = append(transactions, &t)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return transactions, nil
}

// DeleteTransaction removes a transaction
func (b *BoltDB) DeleteTransaction(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(transactionBucket)).Delete([]byte(id))
	})
}

// SaveCategory inserts or replaces a category
func (b *BoltDB) SaveCategory(c *Category) error {
	return b.put(categoryBucket, c.ID, c)
}

// GetCategory retrieves a category by ID
func (b *BoltDB) GetCategory(id string) (*Category, error) {
	var c Category
	if err := b.get(categoryBucket, id, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCategories returns all categories
func (b *BoltDB) ListCategories() ([]*Category, error) {
	categories := make([]*Category, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(categoryBucket))
		return bucket.ForEach(func(k, v []byte) error {
			var c Category
			if err := json.Unmarshal(v, &c); err != nil {
				return fmt.Errorf("unmarshaling category: %w", err)
			}
			categories = append(categories, &c)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// DeleteCategory removes a category
func (b *BoltDB) DeleteCategory(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(categoryBucket)).Delete([]byte(id))
	})
}

// SaveAttachment inserts or replaces attachment metadata
func (b *BoltDB) SaveAttachment(a *Attachment) error {
	return b.put(attachmentBucket, a.ID, a)
}

// GetAttachment retrieves attachment metadata by ID
func (b *BoltDB) GetAttachment(id string) (*Attachment, error) {
	var a Attachment
	if err := b.get(attachmentBucket, id, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}

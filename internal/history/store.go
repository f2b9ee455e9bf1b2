package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/rezonia/invoice-tally/internal/model"
)

var bucketName = []byte("history")

// ErrNotFound is returned when no entry exists for an ID
var ErrNotFound = errors.New("history entry not found")

// Entry is one compiled invoice kept for later download
type Entry struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	FileName  string    `json:"file_name,omitempty"`
	MIMEType  string    `json:"mime_type,omitempty"`
	Method    string    `json:"method,omitempty"`

	VoucherType   string `json:"voucher_type"`
	VoucherNumber string `json:"voucher_number"`
	PartyName     string `json:"party_name"`
	Total         string `json:"total"`

	Record   *model.InvoiceRecord     `json:"record,omitempty"`
	XML      string                   `json:"xml"`
	Findings []*model.ValidationError `json:"findings,omitempty"`
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// DownloadName is the file name offered when the entry's XML is saved
func (e *Entry) DownloadName() string {
	num := unsafeName.ReplaceAllString(e.VoucherNumber, "_")
	if num == "" || num == "_" {
		num = e.ID
	}
	return fmt.Sprintf("tally_%s.xml", num)
}

// Store persists compiled vouchers
type Store interface {
	Save(entry *Entry) error
	Get(id string) (*Entry, error)
	List() ([]*Entry, error)
	Delete(id string) error
	Clear() (int, error)
	Close() error
}

// BoltStore implements Store on a single bbolt file. Keys are version 7
// UUIDs, so byte order is creation order.
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore opens (or creates) the history database at path
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create history bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Save stores the entry, assigning an ID and timestamp when unset
func (s *BoltStore) Save(entry *Entry) error {
	if entry.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate id: %w", err)
		}
		entry.ID = id.String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(entry.ID), data)
	})
}

// Get loads a single entry
func (s *BoltStore) Get(id string) (*Entry, error) {
	var entry Entry
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketName).Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns every entry, newest first
func (s *BoltStore) List() ([]*Entry, error) {
	entries := []*Entry{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketName).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("decode entry %s: %w", k, err)
			}
			entries = append(entries, &entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Delete removes one entry
func (s *BoltStore) Delete(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b.Get([]byte(id)) == nil {
			return ErrNotFound
		}
		return b.Delete([]byte(id))
	})
}

// Clear removes every entry and reports how many were dropped
func (s *BoltStore) Clear() (int, error) {
	var n int
	err := s.db.Update(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketName).Stats().KeyN
		if err := tx.DeleteBucket(bucketName); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketName)
		return err
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Close releases the database file
func (s *BoltStore) Close() error {
	return s.db.Close()
}

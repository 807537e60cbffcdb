// Package formstate persists bound form values across restarts.
package formstate

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/AtRiskMedia/styletree-go/internal/domain/binding"
	bolt "go.etcd.io/bbolt"
)

const bucketForms = "forms"

// touchedKey holds the last-use time of a form bucket. Entry keys start
// with a node id so they never collide with it.
var touchedKey = []byte("\x00touched")

// BoltStore implements binding.Store on a bbolt file. Each form instance is
// a nested bucket so that dropping a form is one bucket delete.
type BoltStore struct {
	db     *bolt.DB
	now    func() time.Time
	logger *slog.Logger
}

// Open opens or creates the store at path.
func Open(path string, logger *slog.Logger) (*BoltStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create form state directory: %w", err)
		}
	}
	db, err := bolt.Open(path, 0644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open form state %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketForms))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialise form state: %w", err)
	}
	return &BoltStore{db: db, now: time.Now, logger: logger}, nil
}

func entryKey(nodeID int, field string) []byte {
	return []byte(strconv.Itoa(nodeID) + "/" + field)
}

func (s *BoltStore) stamp(form *bolt.Bucket) error {
	return form.Put(touchedKey, []byte(strconv.FormatInt(s.now().UnixNano(), 10)))
}

func touchedAt(form *bolt.Bucket) time.Time {
	v := form.Get(touchedKey)
	if v == nil {
		return time.Time{}
	}
	nanos, err := strconv.ParseInt(string(v), 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(0, nanos)
}

func (s *BoltStore) Get(key binding.Key) (binding.Entry, bool) {
	var (
		entry binding.Entry
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		form := tx.Bucket([]byte(bucketForms)).Bucket([]byte(key.FormID))
		if form == nil {
			return nil
		}
		v := form.Get(entryKey(key.NodeID, key.Field))
		if v == nil {
			return nil
		}
		if err := json.Unmarshal(v, &entry); err != nil {
			return fmt.Errorf("corrupt entry %d/%s: %w", key.NodeID, key.Field, err)
		}
		found = true
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to read form state", "formId", key.FormID, "error", err.Error())
		return binding.Entry{}, false
	}
	return entry, found
}

func (s *BoltStore) Put(key binding.Key, entry binding.Entry) error {
	encoded, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode form state: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		form, err := tx.Bucket([]byte(bucketForms)).CreateBucketIfNotExists([]byte(key.FormID))
		if err != nil {
			return err
		}
		if err := form.Put(entryKey(key.NodeID, key.Field), encoded); err != nil {
			return err
		}
		return s.stamp(form)
	})
}

func (s *BoltStore) Touch(formID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		form, err := tx.Bucket([]byte(bucketForms)).CreateBucketIfNotExists([]byte(formID))
		if err != nil {
			return err
		}
		return s.stamp(form)
	})
}

// PurgeIdle drops form buckets last touched before cutoff. Buckets without
// a timestamp are treated as idle.
func (s *BoltStore) PurgeIdle(cutoff time.Time) ([]string, error) {
	var purged []string
	err := s.db.Update(func(tx *bolt.Tx) error {
		forms := tx.Bucket([]byte(bucketForms))
		err := forms.ForEach(func(k, v []byte) error {
			if v != nil {
				return nil
			}
			if touchedAt(forms.Bucket(k)).Before(cutoff) {
				purged = append(purged, string(k))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, formID := range purged {
			if err := forms.DeleteBucket([]byte(formID)); err != nil {
				return fmt.Errorf("failed to drop form %s: %w", formID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(purged) > 0 {
		s.logger.Debug("Purged idle form state", "forms", len(purged))
	}
	return purged, nil
}

func (s *BoltStore) DeleteForm(formID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		err := tx.Bucket([]byte(bucketForms)).DeleteBucket([]byte(formID))
		if err == bolt.ErrBucketNotFound {
			return nil
		}
		return err
	})
}

// FormIDs lists the form instances holding state.
func (s *BoltStore) FormIDs() ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketForms)).ForEach(func(k, v []byte) error {
			if v == nil {
				ids = append(ids, string(k))
			}
			return nil
		})
	})
	return ids, err
}

// Close closes the underlying file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

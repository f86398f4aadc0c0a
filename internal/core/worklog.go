package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/valter-silva-au/focuslog/pkg/models"
)

// persistTimeout bounds a single blob write or read.
const persistTimeout = 5 * time.Second

// ErrItemNotFound is returned when a work log item id is unknown.
var ErrItemNotFound = errors.New("work log item not found")

// PersistError reports a failed read or write of a persisted blob. The
// in-memory state stays authoritative when it is returned.
type PersistError struct {
	Key string
	Op  string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// WorkLogStore owns the logged work items and the total work time
// accumulator. Every mutation persists both blobs in full.
type WorkLogStore interface {
	Append(item models.WorkLogItem) error
	UpdateDescription(id, text string) (bool, error)
	Get(id string) (models.WorkLogItem, error)
	List() []models.WorkLogItem
	Count() int
	Total() int
	AddSeconds(n int) error
	ResetTotal() error
	Clear() error
	Load() error
}

type blobWorkLogStore struct {
	blobs     BlobStore
	items     []models.WorkLogItem
	itemCount int
	total     int
}

// NewWorkLogStore creates a WorkLogStore persisted through the given BlobStore.
func NewWorkLogStore(blobs BlobStore) WorkLogStore {
	return &blobWorkLogStore{
		blobs: blobs,
		items: []models.WorkLogItem{},
	}
}

// Append stores a work item. Items of any other type are rejected.
func (s *blobWorkLogStore) Append(item models.WorkLogItem) error {
	if item.Type != models.ItemTypeWork {
		return fmt.Errorf("appending %s item: only work items are logged", item.Type)
	}
	if item.ID == "" {
		return fmt.Errorf("appending item: ID must not be empty")
	}
	s.items = append(s.items, item)
	s.itemCount++
	return s.persist()
}

// UpdateDescription replaces an item's description. Blank text leaves the
// previous description unchanged and reports false.
func (s *blobWorkLogStore) UpdateDescription(id, text string) (bool, error) {
	idx := s.indexOf(id)
	if idx < 0 {
		return false, fmt.Errorf("updating %s: %w", id, ErrItemNotFound)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return false, nil
	}
	s.items[idx].Description = text
	return true, s.persist()
}

func (s *blobWorkLogStore) Get(id string) (models.WorkLogItem, error) {
	idx := s.indexOf(id)
	if idx < 0 {
		return models.WorkLogItem{}, fmt.Errorf("getting %s: %w", id, ErrItemNotFound)
	}
	return s.items[idx], nil
}

// List returns a copy of the log, newest first. Equal timestamps keep the
// most recently appended item first.
func (s *blobWorkLogStore) List() []models.WorkLogItem {
	out := make([]models.WorkLogItem, 0, len(s.items))
	for i := len(s.items) - 1; i >= 0; i-- {
		out = append(out, s.items[i])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// Count returns the number of work items, used for default item labels.
func (s *blobWorkLogStore) Count() int {
	return s.itemCount
}

func (s *blobWorkLogStore) Total() int {
	return s.total
}

func (s *blobWorkLogStore) AddSeconds(n int) error {
	if n <= 0 {
		return nil
	}
	s.total += n
	return s.persist()
}

func (s *blobWorkLogStore) ResetTotal() error {
	s.total = 0
	return s.persist()
}

// Clear removes every item. The total work time is not touched.
func (s *blobWorkLogStore) Clear() error {
	s.items = []models.WorkLogItem{}
	s.itemCount = 0
	return s.persist()
}

// Load reads both blobs. Missing blobs are treated as empty; malformed ones
// leave that part of the state empty and are reported as a PersistError.
func (s *blobWorkLogStore) Load() error {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	var errs []error

	s.items = []models.WorkLogItem{}
	s.itemCount = 0
	data, err := s.blobs.Get(ctx, KeyWorkLog)
	switch {
	case errors.Is(err, ErrBlobNotFound):
	case err != nil:
		errs = append(errs, &PersistError{Key: KeyWorkLog, Op: "load", Err: err})
	default:
		var loaded []models.WorkLogItem
		if err := json.Unmarshal(data, &loaded); err != nil {
			errs = append(errs, &PersistError{Key: KeyWorkLog, Op: "load", Err: err})
			break
		}
		for _, item := range loaded {
			if item.Type != models.ItemTypeWork {
				continue
			}
			s.items = append(s.items, item)
		}
		s.itemCount = len(s.items)
	}

	s.total = 0
	data, err = s.blobs.Get(ctx, KeyTotalWorkTime)
	switch {
	case errors.Is(err, ErrBlobNotFound):
	case err != nil:
		errs = append(errs, &PersistError{Key: KeyTotalWorkTime, Op: "load", Err: err})
	default:
		total, err := strconv.Atoi(strings.TrimSpace(string(data)))
		if err != nil || total < 0 {
			if err == nil {
				err = fmt.Errorf("negative total %d", total)
			}
			errs = append(errs, &PersistError{Key: KeyTotalWorkTime, Op: "load", Err: err})
			break
		}
		s.total = total
	}

	return errors.Join(errs...)
}

func (s *blobWorkLogStore) persist() error {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	data, err := json.Marshal(s.items)
	if err != nil {
		return &PersistError{Key: KeyWorkLog, Op: "save", Err: err}
	}
	if err := s.blobs.Put(ctx, KeyWorkLog, data); err != nil {
		return &PersistError{Key: KeyWorkLog, Op: "save", Err: err}
	}
	if err := s.blobs.Put(ctx, KeyTotalWorkTime, []byte(strconv.Itoa(s.total))); err != nil {
		return &PersistError{Key: KeyTotalWorkTime, Op: "save", Err: err}
	}
	return nil
}

func (s *blobWorkLogStore) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/technosupport/vms-inventory/internal/data"
)

const spoolFile = "activity_spool.log"

var ErrSpoolFull = fmt.Errorf("activity log spool is full")

// spooled is one JSONL line in the spool file.
type spooled struct {
	Entry     *data.ActivityLog `json:"entry"`
	SpooledAt time.Time         `json:"spooled_at"`
}

// Spool keeps activity log entries on local disk while the database is unreachable.
type Spool struct {
	dir      string
	maxBytes int64
	mu       sync.Mutex
}

func NewSpool(dir string, maxMB int64) (*Spool, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create spool dir: %w", err)
	}
	if maxMB <= 0 {
		maxMB = 64
	}
	return &Spool{dir: dir, maxBytes: maxMB * 1024 * 1024}, nil
}

func (s *Spool) Append(l *data.ActivityLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(l)
}

func (s *Spool) appendLocked(l *data.ActivityLog) error {
	if s.size() >= s.maxBytes {
		return ErrSpoolFull
	}
	line, err := json.Marshal(spooled{Entry: l, SpooledAt: time.Now().UTC()})
	if err != nil {
		return err
	}

	f, err := os.OpenFile(filepath.Join(s.dir, spoolFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(append(line, '\n'))
	return err
}

func (s *Spool) size() int64 {
	var size int64
	_ = filepath.WalkDir(s.dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			size += info.Size()
		}
		return nil
	})
	return size
}

// Replay moves the spool aside and feeds each entry to insert. Entries that fail
// again are written back to a fresh spool file. It returns how many were flushed.
func (s *Spool) Replay(insert func(*data.ActivityLog) error) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := filepath.Join(s.dir, spoolFile)
	info, err := os.Stat(current)
	if os.IsNotExist(err) || (err == nil && info.Size() == 0) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	replayFile := filepath.Join(s.dir, fmt.Sprintf("replay_%d.log", time.Now().UnixNano()))
	if err := os.Rename(current, replayFile); err != nil {
		return 0, fmt.Errorf("rotate spool: %w", err)
	}

	f, err := os.Open(replayFile)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var flushed int
	var firstErr error
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec spooled
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil || rec.Entry == nil {
			continue
		}
		if err := insert(rec.Entry); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			if err := s.appendLocked(rec.Entry); err != nil {
				return flushed, fmt.Errorf("respool: %w", err)
			}
			continue
		}
		flushed++
	}
	f.Close()
	_ = os.Remove(replayFile)

	return flushed, firstErr
}

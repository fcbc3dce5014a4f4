package txmgr

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"launchpad/internal/chain"
)

// Status is the journaled lifecycle state of a submitted transaction.
type Status string

const (
	StatusPending Status = "pending"
	StatusMined   Status = "mined"
	StatusFailed  Status = "failed"
)

// Record is one journaled submission. Records are append-only on disk;
// status changes append a new line for the same hash and the latest line
// wins on read.
type Record struct {
	OpID      string         `json:"op_id"`
	Hash      common.Hash    `json:"hash"`
	Method    string         `json:"method"`
	To        common.Address `json:"to"`
	Value     string         `json:"value"`
	Submitted time.Time      `json:"submitted"`
	Status    Status         `json:"status"`
}

// Journal persists submissions as JSON lines so pending transactions
// survive a restart and can be reconciled against the chain.
type Journal struct {
	mu     sync.Mutex
	path   string
	latest map[common.Hash]Record
}

// OpenJournal loads (or creates) the journal at path.
func OpenJournal(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("journal dir: %w", err)
	}

	j := &Journal{path: path, latest: make(map[common.Hash]Record)}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return j, nil
		}
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var record Record
		if err := json.Unmarshal(line, &record); err != nil {
			// a torn write at the tail must not brick the journal
			continue
		}
		j.latest[record.Hash] = record
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan journal: %w", err)
	}
	return j, nil
}

// Append journals a new submission.
func (j *Journal) Append(record Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.writeLine(record); err != nil {
		return err
	}
	j.latest[record.Hash] = record
	return nil
}

// Update appends a status change for an already-journaled hash. Unknown
// hashes are ignored.
func (j *Journal) Update(hash common.Hash, status Status) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	record, ok := j.latest[hash]
	if !ok {
		return nil
	}
	if record.Status == status {
		return nil
	}
	record.Status = status
	if err := j.writeLine(record); err != nil {
		return err
	}
	j.latest[hash] = record
	return nil
}

// Pending returns the journaled submissions still awaiting a receipt,
// oldest first.
func (j *Journal) Pending() []Record {
	j.mu.Lock()
	defer j.mu.Unlock()

	var pending []Record
	for _, record := range j.latest {
		if record.Status == StatusPending {
			pending = append(pending, record)
		}
	}
	sortRecords(pending)
	return pending
}

// All returns every journaled submission, oldest first.
func (j *Journal) All() []Record {
	j.mu.Lock()
	defer j.mu.Unlock()

	records := make([]Record, 0, len(j.latest))
	for _, record := range j.latest {
		records = append(records, record)
	}
	sortRecords(records)
	return records
}

// Reconcile re-checks every pending record against the chain and settles
// the ones that have since mined. It returns the records that are still
// pending afterwards.
func (j *Journal) Reconcile(ctx context.Context, backend chain.Backend, logger *zap.Logger) ([]Record, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var still []Record
	for _, record := range j.Pending() {
		receipt, err := backend.TransactionReceipt(ctx, record.Hash)
		if err != nil {
			if errors.Is(err, ethereum.NotFound) {
				still = append(still, record)
				continue
			}
			return nil, fmt.Errorf("reconcile %s: %w", record.Hash.Hex(), err)
		}

		status := StatusMined
		if receipt.Status != types.ReceiptStatusSuccessful {
			status = StatusFailed
		}
		if err := j.Update(record.Hash, status); err != nil {
			return nil, err
		}
		logger.Info("reconciled journaled transaction",
			zap.String("hash", record.Hash.Hex()),
			zap.String("method", record.Method),
			zap.String("status", string(status)))
	}
	return still, nil
}

func (j *Journal) writeLine(record Record) error {
	blob, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal journal record: %w", err)
	}
	f, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(blob, '\n')); err != nil {
		return fmt.Errorf("write journal: %w", err)
	}
	return nil
}

func sortRecords(records []Record) {
	sort.Slice(records, func(i, k int) bool {
		return records[i].Submitted.Before(records[k].Submitted)
	})
}

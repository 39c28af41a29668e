package storage

import (
	"encoding/json"
	"fmt"
	"os"

	"poolhand/rebalance"
)

// AppendPassRecord appends one rebalance pass outcome to the history file.
// The history is an operator audit trail; callers treat failures here as
// non-fatal.
func (db *JSONDB) AppendPassRecord(record rebalance.PassRecord) error {
	records, err := db.GetPassHistory()
	if err != nil {
		return err
	}
	records = append(records, record)

	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("could not marshal pass history: %w", err)
	}

	if err := os.WriteFile(db.historyPath, data, 0644); err != nil {
		return fmt.Errorf("could not write history file: %w", err)
	}

	return nil
}

// GetPassHistory returns every recorded rebalance pass, oldest first. A
// missing history file means no passes have been recorded yet.
func (db *JSONDB) GetPassHistory() ([]rebalance.PassRecord, error) {
	data, err := os.ReadFile(db.historyPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("could not read history file: %w", err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var records []rebalance.PassRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("could not parse history file: %w", err)
	}
	return records, nil
}

// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/blinklabs-io/stakedao/database"
	"github.com/blinklabs-io/stakedao/event"
	"github.com/blinklabs-io/stakedao/governance"
	"github.com/blinklabs-io/stakedao/internal/config"
)

type journalLine struct {
	Seq       uint64    `json:"seq"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// dumpJournal writes persisted governance events as JSON lines, paging
// through the journal until it is exhausted
func dumpJournal(
	db *database.Database,
	w io.Writer,
	afterSeq uint64,
	limit int,
) (int, error) {
	enc := json.NewEncoder(w)
	count := 0
	for limit <= 0 || count < limit {
		pageSize := database.DefaultJournalLimit
		if limit > 0 {
			pageSize = min(pageSize, limit-count)
		}
		entries, err := db.Journal(afterSeq, pageSize, nil)
		if err != nil {
			return count, err
		}
		if len(entries) == 0 {
			break
		}
		for _, entry := range entries {
			line := journalLine{
				Seq:       entry.Seq,
				Type:      entry.Type,
				Timestamp: entry.Time().UTC(),
			}
			if data := governance.NewEventData(event.EventType(entry.Type)); data != nil {
				if err := entry.DecodeData(data); err != nil {
					return count, fmt.Errorf("decode journal entry %d: %w", entry.Seq, err)
				}
				line.Data = data
			}
			if err := enc.Encode(line); err != nil {
				return count, err
			}
			afterSeq = entry.Seq
			count++
		}
	}
	return count, nil
}

func journalCommand() *cobra.Command {
	var afterSeq uint64
	var limit int
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Print the persisted governance event journal as JSON lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				return errors.New("no config found in context")
			}
			// Logs go to stderr so the output stays parseable
			logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
			db, err := database.New(&database.Config{
				DataDir:        cfg.DatabasePath,
				BlobPlugin:     cfg.BlobPlugin,
				MetadataPlugin: cfg.MetadataPlugin,
				Logger:         logger,
			})
			if db == nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()
			var tsErr database.CommitTimestampError
			if err != nil && !errors.As(err, &tsErr) {
				return fmt.Errorf("opening database: %w", err)
			}
			_, err = dumpJournal(db, cmd.OutOrStdout(), afterSeq, limit)
			return err
		},
	}
	cmd.Flags().Uint64Var(&afterSeq, "after", 0, "only show entries after this sequence number")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of entries to show (0 = all)")
	return cmd
}

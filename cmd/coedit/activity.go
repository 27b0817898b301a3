/*
 * Copyright 2026 The Coedit Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/edu-tutor/coedit/api/types"
	"github.com/edu-tutor/coedit/internal/validation"
	"github.com/edu-tutor/coedit/server/backend/archive"
)

// defaultActivityLimit is the number of events printed when no limit is given.
const defaultActivityLimit = 20

var (
	// ErrNoRedisURL is returned when the activity command has no archive to
	// read from.
	ErrNoRedisURL = errors.New("--redis-url is required")
)

func newActivityCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "activity [doc key]",
		Short:   "Print the archived activity of a quiz document",
		Args:    cobra.ExactArgs(1),
		PreRunE: bindFlags,
		RunE: func(cmd *cobra.Command, args []string) error {
			docKey := args[0]
			if err := validation.ValidateDocKey(docKey); err != nil {
				return err
			}

			url := viper.GetString("redis-url")
			if url == "" {
				return ErrNoRedisURL
			}

			conf := &archive.Config{
				URL:       url,
				KeyPrefix: viper.GetString("redis-key-prefix"),
			}
			conf.EnsureDefaultValue()

			store, err := archive.New(conf)
			if err != nil {
				return err
			}
			defer func() {
				_ = store.Close()
			}()

			ctx := context.Background()
			events, err := store.Recent(ctx, docKey, viper.GetInt("limit"))
			if err != nil {
				return err
			}

			printActivity(cmd.OutOrStdout(), events, time.Now())
			return nil
		},
	}
}

// printActivity prints the events as a table, newest first.
func printActivity(w io.Writer, events []types.ActivityEvent, now time.Time) {
	tw := table.NewWriter()
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateColumns = false
	tw.Style().Options.SeparateFooter = false
	tw.Style().Options.SeparateHeader = false
	tw.Style().Options.SeparateRows = false
	tw.AppendHeader(table.Row{
		"SEQ",
		"TYPE",
		"ACTOR",
		"ANCHOR",
		"DESCRIPTION",
		"AGE",
	})
	for _, event := range events {
		tw.AppendRow(table.Row{
			event.Seq,
			event.Type,
			event.ActorID,
			event.Anchor,
			event.Description,
			now.Sub(event.OccurredAt).Truncate(time.Second).String(),
		})
	}
	fmt.Fprintf(w, "%s\n", tw.Render())
}

func init() {
	cmd := newActivityCmd()
	cmd.Flags().String("redis-url", "", "Redis URL of the activity archive, e.g. redis://localhost:6379/0")
	cmd.Flags().String("redis-key-prefix", archive.DefaultKeyPrefix, "Prefix of the archived lists")
	cmd.Flags().IntP("limit", "n", defaultActivityLimit, "Number of events to print")

	rootCmd.AddCommand(cmd)
}

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

package export_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edu-tutor/coedit/api/types"
	"github.com/edu-tutor/coedit/server/backend/background"
	"github.com/edu-tutor/coedit/server/backend/export"
	"github.com/edu-tutor/coedit/server/backend/messagebroker"
	"github.com/edu-tutor/coedit/server/profiling/prometheus"
)

type recordingBroker struct {
	mu       sync.Mutex
	messages []messagebroker.Message
}

func (b *recordingBroker) Produce(_ context.Context, msg messagebroker.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, msg)
	return nil
}

func (b *recordingBroker) Close() error {
	return nil
}

func (b *recordingBroker) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.messages)
}

type failingArchive struct{}

func (failingArchive) Append(context.Context, string, types.ActivityEvent) error {
	return errors.New("redis down")
}

func exportFailures(t *testing.T, metrics *prometheus.Metrics, sink string) float64 {
	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != "coedit_activity_export_failures_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			if hasLabel(metric, "sink", sink) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func hasLabel(metric *dto.Metric, name, value string) bool {
	for _, label := range metric.GetLabel() {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}

func TestExporter(t *testing.T) {
	t.Run("export to broker and archive test", func(t *testing.T) {
		metrics, err := prometheus.NewMetrics()
		require.NoError(t, err)
		bg := background.New(metrics)
		broker := &recordingBroker{}

		exporter := export.New(broker, failingArchive{}, metrics, 0)
		exporter.Export("quiz-1", types.ActivityEvent{Seq: 1, Type: types.ActivityJoin})
		exporter.Export("quiz-1", types.ActivityEvent{Seq: 2, Type: types.ActivityLeave})
		require.True(t, exporter.Start(bg))

		bg.Close()
		<-exporter.Done()

		require.Equal(t, 2, broker.Len())
		assert.Equal(t, []byte("quiz-1"), broker.messages[0].Key())
		assert.Equal(t, 2.0, exportFailures(t, metrics, export.SinkArchive))
		assert.Equal(t, 0.0, exportFailures(t, metrics, export.SinkBroker))
	})

	t.Run("full queue drops events test", func(t *testing.T) {
		metrics, err := prometheus.NewMetrics()
		require.NoError(t, err)

		exporter := export.New(nil, nil, metrics, 1)
		exporter.Export("quiz-1", types.ActivityEvent{Seq: 1})
		exporter.Export("quiz-1", types.ActivityEvent{Seq: 2})
		exporter.Export("quiz-1", types.ActivityEvent{Seq: 3})

		assert.Equal(t, 2.0, exportFailures(t, metrics, export.SinkQueue))
	})
}

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

package profiling_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edu-tutor/coedit/server/profiling"
	"github.com/edu-tutor/coedit/server/profiling/prometheus"
)

func TestConfig(t *testing.T) {
	scenarios := []*struct {
		config   *profiling.Config
		expected error
	}{
		{config: &profiling.Config{Port: -1}, expected: profiling.ErrInvalidProfilingPort},
		{config: &profiling.Config{Port: 0}, expected: profiling.ErrInvalidProfilingPort},
		{config: &profiling.Config{Port: 70000}, expected: profiling.ErrInvalidProfilingPort},
		{config: &profiling.Config{Port: 8081}, expected: nil},
		{config: &profiling.Config{Port: 8081, MetricsPath: "metrics"}, expected: profiling.ErrInvalidMetricsPath},
		{config: &profiling.Config{Port: 8081, MetricsPath: "/debug/pprof/metrics"}, expected: profiling.ErrInvalidMetricsPath},
		{config: &profiling.Config{Port: 8081, MetricsPath: "/stats"}, expected: nil},
	}
	for _, scenario := range scenarios {
		assert.ErrorIs(t, scenario.config.Validate(), scenario.expected, "provided config: %#v", scenario.config)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	metrics, err := prometheus.NewMetrics()
	require.NoError(t, err)
	metrics.AddSessions(2)
	metrics.AddDroppedDeliveries("low_priority", 3)
	metrics.AddActivityEvent("join")

	server := profiling.NewServer(&profiling.Config{Port: 8081}, metrics)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "coedit_session_sessions_total 2")
	assert.Contains(t, string(body), `coedit_pubsub_dropped_deliveries_total{reason="low_priority"} 3`)
	assert.Contains(t, string(body), `coedit_activity_events_total{activity_type="join"} 1`)
	assert.Contains(t, string(body), `coedit_server_version{server_version="0.1.0"} 1`)
}

func TestMetricsPath(t *testing.T) {
	metrics, err := prometheus.NewMetrics()
	require.NoError(t, err)

	server := profiling.NewServer(&profiling.Config{Port: 8081, MetricsPath: "/stats"}, metrics)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/stats")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

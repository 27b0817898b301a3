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

// Package backend wires the services that run the collaboration sessions:
// the session hub, activity export and housekeeping.
package backend

import (
	"errors"

	"github.com/edu-tutor/coedit/server/backend/archive"
	"github.com/edu-tutor/coedit/server/backend/background"
	"github.com/edu-tutor/coedit/server/backend/export"
	"github.com/edu-tutor/coedit/server/backend/housekeeping"
	"github.com/edu-tutor/coedit/server/backend/hub"
	"github.com/edu-tutor/coedit/server/backend/messagebroker"
	"github.com/edu-tutor/coedit/server/logging"
	"github.com/edu-tutor/coedit/server/profiling/prometheus"
)

// Backend manages the sessions of the server and the services around them.
type Backend struct {
	Config *Config

	// Hub keeps the running sessions.
	Hub *hub.Hub

	// Background is used to manage background tasks.
	Background *background.Background
	// Housekeeping closes idle sessions.
	Housekeeping *housekeeping.Housekeeping

	// Exporter hands activity events to the broker and the archive.
	Exporter *export.Exporter
	// MsgBroker is the message producer instance.
	MsgBroker messagebroker.Broker
	// Archive is the Redis archive of activity events, or nil.
	Archive *archive.Store

	// Metrics is used to expose metrics.
	Metrics *prometheus.Metrics
}

// New creates a new instance of Backend. kafkaConf and redisConf may be nil.
func New(
	conf *Config,
	housekeepingConf *housekeeping.Config,
	metrics *prometheus.Metrics,
	kafkaConf *messagebroker.Config,
	redisConf *archive.Config,
) (*Backend, error) {
	// 01. Build the session config from the durations of the config.
	sessionConf, err := conf.SessionConfig()
	if err != nil {
		return nil, err
	}

	// 02. Create the message broker instance and the archive.
	broker := messagebroker.Ensure(kafkaConf)

	var store *archive.Store
	var exportArchive export.Archive
	if redisConf != nil {
		if store, err = archive.New(redisConf); err != nil {
			_ = broker.Close()
			return nil, err
		}
		exportArchive = store
	}

	// 03. Create the background task manager, the exporter and the hub.
	bg := background.New(metrics)
	exporter := export.New(broker, exportArchive, metrics, conf.ExportQueueSize)
	sessions := hub.New(sessionConf, exporter, metrics, bg)

	// 04. Create the housekeeping instance that closes idle sessions.
	housekeeper, err := housekeeping.New(housekeepingConf, sessions)
	if err != nil {
		return nil, err
	}

	archiveInfo := "none"
	if redisConf != nil {
		archiveInfo = redisConf.URL
	}
	logging.DefaultLogger().Infof("backend created: archive: %s", archiveInfo)

	return &Backend{
		Config: conf,

		Hub: sessions,

		Background:   bg,
		Housekeeping: housekeeper,

		Exporter:  exporter,
		MsgBroker: broker,
		Archive:   store,

		Metrics: metrics,
	}, nil
}

// Start starts the backend.
func (b *Backend) Start() error {
	if !b.Exporter.Start(b.Background) {
		return errors.New("start exporter: background closed")
	}

	if err := b.Housekeeping.Start(); err != nil {
		return err
	}

	logging.DefaultLogger().Infof("backend started")
	return nil
}

// Shutdown closes all resources of this instance.
func (b *Backend) Shutdown() error {
	var errs []error

	if err := b.Housekeeping.Stop(); err != nil {
		errs = append(errs, err)
	}

	b.Hub.Close()
	b.Background.Close()

	if err := b.MsgBroker.Close(); err != nil {
		errs = append(errs, err)
	}
	if b.Archive != nil {
		if err := b.Archive.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	logging.DefaultLogger().Infof("backend stopped")
	return nil
}

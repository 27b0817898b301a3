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

package annotation

import "github.com/hashicorp/go-memdb"

var tblComments = "comments"

// Status values stored in commentInfo.Status. Replies never carry a
// resolution state of their own.
const (
	statusOpen     = "open"
	statusResolved = "resolved"
	statusReply    = "reply"
)

var schema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		tblComments: {
			Name: tblComments,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ID"},
				},
				"order": {
					Name:    "order",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "Order"},
				},
				"anchor_order": {
					Name:         "anchor_order",
					AllowMissing: true,
					Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "Anchor"},
							&memdb.StringFieldIndex{Field: "Order"},
						},
					},
				},
				"root_order": {
					Name: "root_order",
					Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "RootID"},
							&memdb.StringFieldIndex{Field: "Order"},
						},
					},
				},
				"status_order": {
					Name: "status_order",
					Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "Status"},
							&memdb.StringFieldIndex{Field: "Order"},
						},
					},
				},
			},
		},
	},
}

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

// Package heap provides a bounded heap that keeps the K highest ranked
// elements pushed into it.
package heap

import "container/heap"

// TopK keeps at most limit elements. The element ranked lowest by less sits
// at the root, so a better candidate can evict it in O(log K).
type TopK[T any] struct {
	items []T
	limit int
	less  func(a, b T) bool
}

// NewTopK creates a TopK that retains the limit highest elements as ranked by
// less, where less(a, b) reports that a ranks below b. A limit of 0 or less
// retains every element.
func NewTopK[T any](limit int, less func(a, b T) bool) *TopK[T] {
	return &TopK[T]{limit: limit, less: less}
}

// Len implements heap.Interface.
func (h *TopK[T]) Len() int { return len(h.items) }

// Less implements heap.Interface.
func (h *TopK[T]) Less(i, j int) bool { return h.less(h.items[i], h.items[j]) }

// Swap implements heap.Interface.
func (h *TopK[T]) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

// Push implements heap.Interface. Use Offer to add elements.
func (h *TopK[T]) Push(x any) { h.items = append(h.items, x.(T)) }

// Pop implements heap.Interface.
func (h *TopK[T]) Pop() any {
	n := len(h.items)
	x := h.items[n-1]
	h.items = h.items[:n-1]
	return x
}

// Offer adds item, evicting the lowest ranked element when the heap is full
// and item outranks it. It returns false if item was discarded.
func (h *TopK[T]) Offer(item T) bool {
	if h.limit <= 0 || len(h.items) < h.limit {
		heap.Push(h, item)
		return true
	}
	if !h.less(h.items[0], item) {
		return false
	}
	h.items[0] = item
	heap.Fix(h, 0)
	return true
}

// Sorted returns the retained elements from the highest to the lowest rank.
// The heap is left untouched.
func (h *TopK[T]) Sorted() []T {
	work := &TopK[T]{items: append([]T(nil), h.items...), less: h.less}
	sorted := make([]T, len(work.items))
	for i := len(sorted) - 1; i >= 0; i-- {
		sorted[i] = heap.Pop(work).(T)
	}
	return sorted
}

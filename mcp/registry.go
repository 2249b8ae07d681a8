// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcp

import (
	"iter"
	"maps"
	"slices"
	"sync"
)

// featureSet is a concurrency-safe, ID-ordered collection of primitives of
// type T, adapted from golang-tools' internal/mcp featureSet to add a
// changed callback: every add/remove that actually mutates the set invokes
// it, which is how ToolCollection et al. drive the listChanged
// notifications named in §4.4/§4.6.
type featureSet[T any] struct {
	uniqueID func(T) string
	changed  func()

	mu         sync.RWMutex
	features   map[string]T
	sortedKeys []string
}

func newFeatureSet[T any](uniqueID func(T) string, changed func()) *featureSet[T] {
	return &featureSet[T]{
		uniqueID: uniqueID,
		changed:  changed,
		features: make(map[string]T),
	}
}

func (s *featureSet[T]) add(fs ...T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range fs {
		s.features[s.uniqueID(f)] = f
	}
	s.sortedKeys = nil
	s.notify()
}

func (s *featureSet[T]) remove(uids ...string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := false
	for _, uid := range uids {
		if _, ok := s.features[uid]; ok {
			changed = true
			delete(s.features, uid)
		}
	}
	if changed {
		s.sortedKeys = nil
		s.notify()
	}
	return changed
}

func (s *featureSet[T]) notify() {
	if s.changed != nil {
		s.changed()
	}
}

func (s *featureSet[T]) get(uid string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.features[uid]
	return t, ok
}

func (s *featureSet[T]) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.features)
}

// all iterates every feature in ascending unique-ID order. The caller must
// not add or remove features from within yield.
func (s *featureSet[T]) all() iter.Seq[T] {
	s.mu.RLock()
	s.sortKeysLocked()
	keys := s.sortedKeys
	s.mu.RUnlock()
	return func(yield func(T) bool) {
		s.yieldFrom(keys, 0, yield)
	}
}

// listPage returns up to size features with unique ID greater than after
// (ascending order), plus the unique ID to resume from on the next call, or
// "" if the list is exhausted.
func (s *featureSet[T]) listPage(after string, size int) (items []T, next string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.sortKeysLocked()
	start, found := slices.BinarySearch(s.sortedKeys, after)
	if found {
		start++
	}
	end := start + size
	if end > len(s.sortedKeys) {
		end = len(s.sortedKeys)
	}
	items = make([]T, 0, end-start)
	for _, k := range s.sortedKeys[start:end] {
		items = append(items, s.features[k])
	}
	if end < len(s.sortedKeys) {
		next = s.sortedKeys[end-1]
	}
	return items, next
}

func (s *featureSet[T]) sortKeysLocked() {
	if s.sortedKeys != nil {
		return
	}
	s.sortedKeys = slices.Sorted(maps.Keys(s.features))
}

func (s *featureSet[T]) yieldFrom(keys []string, index int, yield func(T) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := index; i < len(keys); i++ {
		if !yield(s.features[keys[i]]) {
			return
		}
	}
}

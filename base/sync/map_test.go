// Copyright 2025 Google LLC
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

package sync_test

import (
	gosync "sync"
	"testing"

	"github.com/gx-org/dynsite/base/sync"
)

func TestLoadOrStore(t *testing.T) {
	var m sync.Map[string, *int]
	const workers = 8
	results := make([]*int, workers)
	var wg gosync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := i
			results[i], _ = m.LoadOrStore("unit", &v)
		}()
	}
	wg.Wait()
	for i, got := range results {
		if got != results[0] {
			t.Errorf("worker %d: got a different value for the same key", i)
		}
	}
	if m.Size() != 1 {
		t.Errorf("got %d entries but want 1", m.Size())
	}
	m.Delete("unit")
	if _, ok := m.Load("unit"); ok {
		t.Errorf("key still present after deletion")
	}
}

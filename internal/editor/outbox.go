/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"sync"

	"golang.org/x/sync/errgroup"
)

// outbox hands persistence calls to a bounded worker group in commit order. push never
// blocks: a single drain goroutine waits for free worker slots instead of the caller.
type outbox struct {
	group *errgroup.Group

	mu      sync.Mutex
	queue   []func() error
	running bool
	pending sync.WaitGroup
}

func newOutbox(limit int) *outbox {
	g := new(errgroup.Group)
	g.SetLimit(limit)
	return &outbox{group: g}
}

func (o *outbox) push(tasks ...func() error) {
	if len(tasks) == 0 {
		return
	}
	o.mu.Lock()
	o.queue = append(o.queue, tasks...)
	o.pending.Add(len(tasks))
	start := !o.running
	o.running = true
	o.mu.Unlock()
	if start {
		go o.drain()
	}
}

func (o *outbox) drain() {
	for {
		o.mu.Lock()
		if len(o.queue) == 0 {
			o.running = false
			o.mu.Unlock()
			return
		}
		task := o.queue[0]
		o.queue[0] = nil
		o.queue = o.queue[1:]
		o.mu.Unlock()

		o.group.Go(func() error {
			defer o.pending.Done()
			return task()
		})
	}
}

// wait blocks until every pushed task has finished. Task errors are handled by the
// tasks themselves.
func (o *outbox) wait() {
	o.pending.Wait()
}

/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package pool

import (
	"errors"
	"sync/atomic"
	"testing"
)

func TestSubmitAndGet(t *testing.T) {
	p := New(2)
	defer p.Close()

	f := Submit(p, func() (int, error) { return 42, nil })
	v, err := f.Get()
	if err != nil || v != 42 {
		t.Fatalf("Get() = (%d, %v), want (42, nil)", v, err)
	}
}

func TestFutureCapturesError(t *testing.T) {
	p := New(2)
	defer p.Close()

	wantErr := errors.New("boom")
	f := Submit(p, func() (int, error) { return 0, wantErr })
	_, err := f.Get()
	if !errors.Is(err, wantErr) {
		t.Fatalf("Get() err = %v, want %v", err, wantErr)
	}
}

func TestFutureCapturesPanic(t *testing.T) {
	p := New(2)
	defer p.Close()

	f := Submit(p, func() (int, error) {
		panic("task exploded")
	})
	_, err := f.Get()
	if err == nil {
		t.Fatalf("Get() should surface the panic as an error")
	}
}

func TestWaitDrainsAllSubmittedTasks(t *testing.T) {
	p := New(4)
	defer p.Close()

	var completed atomic.Int64
	futures := make([]*Future[int], 0, 50)
	for i := 0; i < 50; i++ {
		futures = append(futures, Submit(p, func() (int, error) {
			completed.Add(1)
			return 0, nil
		}))
	}
	p.Wait()

	if got := completed.Load(); got != 50 {
		t.Fatalf("completed = %d, want 50", got)
	}
	for _, f := range futures {
		if _, err := f.Get(); err != nil {
			t.Fatalf("unexpected task error: %v", err)
		}
	}
}

func TestSubmitAfterCloseFails(t *testing.T) {
	p := New(1)
	p.Close()

	f := Submit(p, func() (int, error) { return 1, nil })
	_, err := f.Get()
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("Get() err = %v, want ErrClosed", err)
	}
}

func TestCloseDrainsQueuedTasksBeforeExit(t *testing.T) {
	p := New(1)

	var ran atomic.Bool
	f := Submit(p, func() (int, error) {
		ran.Store(true)
		return 0, nil
	})
	p.Close()

	if _, err := f.Get(); err != nil {
		t.Fatalf("queued task should have run before shutdown: %v", err)
	}
	if !ran.Load() {
		t.Fatalf("task queued before Close must still execute")
	}
}

// Copyright 2016 CoreOS, Inc
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

package stop

import (
	"testing"
	"time"
)

func TestAlreadyDoneIsClosed(t *testing.T) {
	select {
	case <-AlreadyDone:
	case <-time.After(time.Second):
		t.Fatal("AlreadyDone did not read as closed")
	}
}

type fakeStoppable struct {
	stopped chan struct{}
}

func newFakeStoppable() *fakeStoppable {
	return &fakeStoppable{stopped: make(chan struct{})}
}

func (f *fakeStoppable) Stop() <-chan struct{} {
	close(f.stopped)
	return AlreadyDone
}

func TestGroupStopCallsEveryMember(t *testing.T) {
	g := NewGroup()
	a := newFakeStoppable()
	b := newFakeStoppable()
	g.Add(a)
	g.Add(b)

	<-g.Stop()

	select {
	case <-a.stopped:
	default:
		t.Fatal("first stoppable was never stopped")
	}
	select {
	case <-b.stopped:
	default:
		t.Fatal("second stoppable was never stopped")
	}
}

func TestGroupStopWaitsForSlowMembers(t *testing.T) {
	g := NewGroup()
	release := make(chan struct{})
	g.AddFunc(func() <-chan struct{} {
		done := make(chan struct{})
		go func() {
			<-release
			close(done)
		}()
		return done
	})

	done := make(chan struct{})
	go func() {
		<-g.Stop()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Stop returned before the slow member finished")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop never returned after the slow member finished")
	}
}

func TestGroupStopWithNoMembers(t *testing.T) {
	g := NewGroup()
	select {
	case <-g.Stop():
	case <-time.After(time.Second):
		t.Fatal("Stop on an empty group never completed")
	}
}

func TestGroupStopClearsMembers(t *testing.T) {
	g := NewGroup()
	a := newFakeStoppable()
	g.Add(a)
	<-g.Stop()

	// A second Stop must not re-invoke already-stopped members; with no
	// stoppables left it should complete immediately.
	select {
	case <-g.Stop():
	case <-time.After(time.Second):
		t.Fatal("second Stop on a drained group never completed")
	}
}

// Package task provides a small cooperative goroutine group, adapted from
// the usage pattern of the teacher's task.Group in consumer.Service.
// QueueTasks: named goroutines that run until the group's context is
// cancelled, with their errors collected and the first one reported by
// Wait. The teacher's own task package isn't part of the retrieved corpus
// (only its call sites are), so this is a from-scratch, idiomatic
// reimplementation of the same shape rather than a copy.
package task

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Group runs a set of named goroutines and reports the first error any of
// them returns. Cancelling the Group's Context signals all members to
// begin shutdown; Wait blocks until every member has returned.
type Group struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	wg       sync.WaitGroup
	firstErr error
}

// NewGroup returns a Group deriving its Context from parent.
func NewGroup(parent context.Context) *Group {
	var ctx, cancel = context.WithCancel(parent)
	return &Group{ctx: ctx, cancel: cancel}
}

// Context is cancelled when any queued task returns, or when Cancel is
// called directly.
func (g *Group) Context() context.Context { return g.ctx }

// Cancel signals all queued tasks to begin shutdown without waiting for
// them to complete.
func (g *Group) Cancel() { g.cancel() }

// Queue runs fn in its own goroutine under name. If fn returns a non-nil
// error, the Group's Context is cancelled (so other members begin
// shutdown) and the error is recorded, the first one winning.
func (g *Group) Queue(name string, fn func() error) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()

		var err = fn()
		if err != nil {
			log.WithField("task", name).WithError(err).Error("task failed")

			g.mu.Lock()
			if g.firstErr == nil {
				g.firstErr = err
			}
			g.mu.Unlock()
		}
		g.cancel()
	}()
}

// Wait blocks until every queued task has returned, then returns the first
// non-nil error reported by any of them (or nil).
func (g *Group) Wait() error {
	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.firstErr
}

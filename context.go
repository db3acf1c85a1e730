package sysexec

import "github.com/webriots/sysexec/engine"

// Context is a view on one underlying execution engine supporting
// parallel forward progress. It exclusively owns its engine for its
// full lifetime and must not be copied.
type Context struct {
	noCopy noCopy
	eng    engine.Engine
}

// New constructs a Context backed by the registry's default engine.
// A backend package must have been imported (usually with a blank
// import of engine/pool) so that a default is registered; New panics
// otherwise, since a context without an engine cannot do anything.
func New() *Context {
	eng, err := engine.Default()
	if err != nil {
		panic("sysexec: " + err.Error())
	}
	return NewWith(eng)
}

// NewWith constructs a Context backed by the given engine. This is the
// injection point for alternative or fake backends.
func NewWith(eng engine.Engine) *Context {
	if eng == nil {
		panic("sysexec: NewWith with nil engine")
	}
	return &Context{eng: eng}
}

// Scheduler returns a handle that can add work to the underlying
// engine. Repeated calls on the same Context return handles that
// compare Equal.
func (c *Context) Scheduler() Scheduler {
	return Scheduler{impl: c.eng.Scheduler()}
}

// MaxConcurrency returns the engine's hint of how many units of work
// it may run at once. It is advisory only; callers must not treat it
// as an enforced bound.
func (c *Context) MaxConcurrency() int {
	return c.eng.Concurrency()
}

// Close shuts the underlying engine down if it supports shutdown.
// Engines that do not implement io.Closer are left alone.
func (c *Context) Close() error {
	if closer, ok := c.eng.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

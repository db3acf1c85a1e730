package sysexec

// noCopy prevents copying of values that embed it. It implements
// sync.Locker so `go vet -copylocks` flags improper copies, the same
// trick sync.Mutex uses.
type noCopy struct{}

// Lock is a no-op implementation of sync.Locker.Lock.
func (*noCopy) Lock() {}

// Unlock is a no-op implementation of sync.Locker.Unlock.
func (*noCopy) Unlock() {}

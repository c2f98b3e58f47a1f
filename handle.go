package mediamutex

import (
	"unsafe"

	"github.com/lunaris-aosp/mediamutex/holdstack"
)

// Handle is a mutex's opaque, pointer-sized identity: never dereferenced,
// used only for equality and as a lookup key. Exported as an
// alias so callers comparing handles across packages (registry dumps,
// deadlock chains) don't need to import holdstack directly.
type Handle = holdstack.Handle

// handleOf derives m's handle from its address. It is never converted back
// to a *Mutex: by the time a registry traversal reads a handle out of some
// other goroutine's held stack, the Mutex it names may already be gone.
func handleOf(m *Mutex) Handle {
	return Handle(uintptr(unsafe.Pointer(m)))
}

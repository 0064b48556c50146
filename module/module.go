package module

import (
	"runtime"
	"sync"

	"github.com/yinyihanbing/gconn/conf"
	"github.com/yinyihanbing/gutils/logs"
)

// Module defines the interface for a module with lifecycle methods.
type Module interface {
	OnInit()                // Called to initialize the module.
	OnDestroy()             // Called to clean up resources when the module is destroyed.
	Run(closeSig chan bool) // Called to run the module, listens for a close signal.
}

type module struct {
	mi       Module         // The module instance.
	closeSig chan bool      // Channel to signal the module to stop.
	wg       sync.WaitGroup // WaitGroup to manage module's goroutines.
}

var mods []*module // List of registered modules.

// Register adds a new module to the list of registered modules.
// Modules are initialized in registration order and destroyed in reverse.
func Register(mi Module) {
	mods = append(mods, &module{
		mi:       mi,
		closeSig: make(chan bool, 1),
	})
}

// Init initializes all registered modules and starts their execution.
func Init() {
	for _, m := range mods {
		m.mi.OnInit()
		m.wg.Add(1)
		go run(m)
	}
}

// Destroy stops and cleans up all registered modules in reverse order.
func Destroy() {
	for i := len(mods) - 1; i >= 0; i-- {
		m := mods[i]
		m.closeSig <- true // Send a signal to stop the module.
		m.wg.Wait()        // Wait for the module's goroutine to finish.
		safeDestroy(m)
	}
}

// run executes the module's Run method.
func run(m *module) {
	defer m.wg.Done()
	m.mi.Run(m.closeSig)
}

// safeDestroy calls the module's OnDestroy method, recovering from panics.
func safeDestroy(m *module) {
	defer func() {
		if r := recover(); r != nil {
			logError(r)
		}
	}()
	m.mi.OnDestroy()
}

// logError logs an error message and stack trace if available.
func logError(r any) {
	if conf.LenStackBuf > 0 {
		buf := make([]byte, conf.LenStackBuf)
		l := runtime.Stack(buf, false)
		logs.Error("%v: %s", r, buf[:l])
	} else {
		logs.Error("%v", r)
	}
}

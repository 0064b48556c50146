package module

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordModule appends lifecycle events to a shared log.
type recordModule struct {
	name string
	log  *[]string
}

func (m *recordModule) OnInit() {
	*m.log = append(*m.log, m.name+".init")
}

func (m *recordModule) OnDestroy() {
	*m.log = append(*m.log, m.name+".destroy")
}

func (m *recordModule) Run(closeSig chan bool) {
	<-closeSig
}

func TestModuleLifecycleOrder(t *testing.T) {
	mods = nil
	defer func() { mods = nil }()

	var log []string
	Register(&recordModule{name: "a", log: &log})
	Register(&recordModule{name: "b", log: &log})

	Init()
	Destroy()

	assert.Equal(t,
		[]string{"a.init", "b.init", "b.destroy", "a.destroy"},
		log,
		"init runs in registration order, destroy in reverse")
}

func TestModuleDestroySurvivesPanic(t *testing.T) {
	mods = nil
	defer func() { mods = nil }()

	var log []string
	Register(&panicModule{})
	Register(&recordModule{name: "after", log: &log})

	Init()
	Destroy()

	assert.Equal(t, []string{"after.init", "after.destroy"}, log,
		"a panicking OnDestroy does not stop the teardown of other modules")
}

type panicModule struct{}

func (m *panicModule) OnInit()                {}
func (m *panicModule) OnDestroy()             { panic("destroy failed") }
func (m *panicModule) Run(closeSig chan bool) { <-closeSig }

// startSkeleton runs a skeleton on its own goroutine and returns a stop
// function that waits for shutdown.
func startSkeleton(t *testing.T) (*Skeleton, func()) {
	t.Helper()

	s := &Skeleton{
		GoLen:              8,
		TimerDispatcherLen: 8,
		ChanCbLen:          8,
	}
	s.Init()

	closeSig := make(chan bool, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(closeSig)
	}()

	return s, func() {
		closeSig <- true
		<-done
	}
}

func TestSkeletonDispatch(t *testing.T) {
	t.Parallel()

	s, stop := startSkeleton(t)
	defer stop()

	ran := make(chan struct{})
	s.Dispatch(func() {
		close(ran)
	})

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatched function never ran")
	}
}

func TestSkeletonGo(t *testing.T) {
	t.Parallel()

	s, stop := startSkeleton(t)
	defer stop()

	events := make(chan string, 2)
	s.Dispatch(func() {
		s.Go(func() {
			events <- "job"
		}, func() {
			events <- "callback"
		})
	})

	require.Equal(t, "job", <-events, "the job runs off the skeleton goroutine")
	require.Equal(t, "callback", <-events, "the callback follows on the skeleton goroutine")
}

func TestSkeletonGoCallbackAfterPanic(t *testing.T) {
	t.Parallel()

	s, stop := startSkeleton(t)
	defer stop()

	ran := make(chan struct{})
	s.Dispatch(func() {
		s.Go(func() {
			panic("job blew up")
		}, func() {
			close(ran)
		})
	})

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("callback never ran after the job panicked")
	}
}

func TestSkeletonAfterFunc(t *testing.T) {
	t.Parallel()

	s, stop := startSkeleton(t)
	defer stop()

	fired := make(chan struct{})
	s.Dispatch(func() {
		s.AfterFunc(10*time.Millisecond, func() {
			close(fired)
		})
	})

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
	}
}

func TestSkeletonShutdownDrainsPendingJobs(t *testing.T) {
	t.Parallel()

	s := &Skeleton{GoLen: 8, TimerDispatcherLen: 8, ChanCbLen: 8}
	s.Init()

	closeSig := make(chan bool, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(closeSig)
	}()

	issued := make(chan struct{})
	finished := make(chan string, 2)
	s.Dispatch(func() {
		s.Go(func() {
			time.Sleep(30 * time.Millisecond)
			finished <- "job"
		}, func() {
			finished <- "callback"
		})
		close(issued)
	})

	<-issued
	closeSig <- true
	<-done

	assert.Equal(t, "job", <-finished)
	assert.Equal(t, "callback", <-finished, "shutdown waits for outstanding jobs and runs their callbacks")
}

func TestSkeletonGuardsUnconfiguredFeatures(t *testing.T) {
	t.Parallel()

	s := new(Skeleton)
	s.Init()

	assert.Panics(t, func() { s.Dispatch(func() {}) })
	assert.Panics(t, func() { s.Go(func() {}, func() {}) })
	assert.Panics(t, func() { s.AfterFunc(time.Millisecond, func() {}) })
}

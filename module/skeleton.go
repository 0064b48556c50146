package module

import (
	"time"

	"github.com/yinyihanbing/gutils/timer"
)

// Skeleton drives a module's event loop: timers, async job completions,
// and handler invocations dispatched from other goroutines all execute on
// the goroutine running Run.
type Skeleton struct {
	GoLen              int
	TimerDispatcherLen int
	ChanCbLen          int
	chanGo             chan func()
	chanCb             chan func()
	dispatcher         *timer.Dispatcher
	pendingGo          int
}

// Init initializes the Skeleton with default values and creates necessary components.
func (s *Skeleton) Init() {
	s.GoLen = max(s.GoLen, 0)
	s.TimerDispatcherLen = max(s.TimerDispatcherLen, 0)
	s.ChanCbLen = max(s.ChanCbLen, 0)

	s.chanGo = make(chan func(), s.GoLen)
	s.chanCb = make(chan func(), s.ChanCbLen)
	s.dispatcher = timer.NewDispatcher(s.TimerDispatcherLen)
}

// Run starts the main loop of the Skeleton, handling events until a close signal is received.
func (s *Skeleton) Run(closeSig chan bool) {
	for {
		select {
		case <-closeSig:
			s.shutdown()
			return
		case cb := <-s.chanGo:
			s.execGo(cb)
		case f := <-s.chanCb:
			s.exec(f)
		case t := <-s.dispatcher.ChanTimer:
			t.Cb()
		}
	}
}

// AfterFunc schedules a function to be executed after a specified duration.
func (s *Skeleton) AfterFunc(d time.Duration, cb func()) *timer.Timer {
	s.ensureValidDispatcher()
	return s.dispatcher.AfterFunc(d, cb)
}

// CronFunc schedules a function to be executed based on a Cron expression.
func (s *Skeleton) CronFunc(cronExpr *timer.CronExpr, cb func()) *timer.Cron {
	s.ensureValidDispatcher()
	return s.dispatcher.CronFunc(cronExpr, cb)
}

// CronFuncExt parses a Cron expression string and schedules a function to be executed accordingly.
func (s *Skeleton) CronFuncExt(expr string, cb func()) *timer.Cron {
	s.ensureValidDispatcher()
	cronExpr, err := timer.NewCronExpr(expr)
	if err != nil {
		panic("invalid CronExpr")
	}
	return s.dispatcher.CronFunc(cronExpr, cb)
}

// Go executes a function on a new goroutine and runs the callback on the
// skeleton goroutine once it completes. The callback runs even if the
// function panics.
func (s *Skeleton) Go(f func(), cb func()) {
	s.ensureValidGo()

	s.pendingGo++
	go func() {
		defer func() {
			s.chanGo <- cb
			if r := recover(); r != nil {
				logError(r)
			}
		}()

		f()
	}()
}

// Dispatch queues a function for execution on the skeleton goroutine.
// Message processors use it to route handlers onto a module's goroutine.
func (s *Skeleton) Dispatch(f func()) {
	s.ensureValidChanCb()
	s.chanCb <- f
}

// exec runs a dispatched function, recovering from panics.
func (s *Skeleton) exec(f func()) {
	defer func() {
		if r := recover(); r != nil {
			logError(r)
		}
	}()
	if f != nil {
		f()
	}
}

// execGo runs an async job callback, recovering from panics.
func (s *Skeleton) execGo(cb func()) {
	s.pendingGo--
	s.exec(cb)
}

// ensureValidDispatcher checks if the TimerDispatcherLen is valid.
func (s *Skeleton) ensureValidDispatcher() {
	if s.TimerDispatcherLen == 0 {
		panic("invalid TimerDispatcherLen")
	}
}

// ensureValidGo checks if the GoLen is valid.
func (s *Skeleton) ensureValidGo() {
	if s.GoLen == 0 {
		panic("invalid GoLen")
	}
}

// ensureValidChanCb checks if the ChanCbLen is valid.
func (s *Skeleton) ensureValidChanCb() {
	if s.ChanCbLen == 0 {
		panic("invalid ChanCbLen")
	}
}

// shutdown drains outstanding async jobs and dispatched handlers before
// the skeleton goroutine exits.
func (s *Skeleton) shutdown() {
	for {
		select {
		case f := <-s.chanCb:
			s.exec(f)
			continue
		default:
		}
		if s.pendingGo > 0 {
			s.execGo(<-s.chanGo)
			continue
		}
		return
	}
}

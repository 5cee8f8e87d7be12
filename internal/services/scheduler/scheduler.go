package scheduler

import (
	"time"
)

// RepeatedTimer runs a function on a fixed interval until stopped.
type RepeatedTimer struct {
	interval  time.Duration
	function  func()
	stopChan  chan bool
	isRunning bool
}

func NewRepeatedTimer(interval time.Duration, function func()) *RepeatedTimer {
	rt := &RepeatedTimer{
		interval: interval,
		function: function,
		stopChan: make(chan bool),
	}
	rt.Start()
	return rt
}

func (rt *RepeatedTimer) Start() {
	if rt.isRunning {
		return
	}

	rt.isRunning = true
	go func() {
		ticker := time.NewTicker(rt.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rt.function()
			case <-rt.stopChan:
				return
			}
		}
	}()
}

func (rt *RepeatedTimer) Stop() {
	if !rt.isRunning {
		return
	}

	rt.isRunning = false
	rt.stopChan <- true
	close(rt.stopChan)
	rt.stopChan = make(chan bool)
}

// DailyTimer runs a function once a day at a fixed UTC hour.
type DailyTimer struct {
	hour     int
	function func()
	stopChan chan bool
	now      func() time.Time
}

func NewDailyTimer(hour int, function func()) *DailyTimer {
	dt := &DailyTimer{
		hour:     hour,
		function: function,
		stopChan: make(chan bool),
		now:      time.Now,
	}
	dt.start()
	return dt
}

func (dt *DailyTimer) start() {
	go func() {
		for {
			wait := time.Until(NextRun(dt.now(), dt.hour))
			select {
			case <-time.After(wait):
				dt.function()
			case <-dt.stopChan:
				return
			}
		}
	}()
}

func (dt *DailyTimer) Stop() {
	close(dt.stopChan)
}

// NextRun returns the next occurrence of the given UTC hour after now.
func NextRun(now time.Time, hour int) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

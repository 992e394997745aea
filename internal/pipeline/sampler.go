package pipeline

import (
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// rssSampler polls the resident set size of this process and keeps the peak
type rssSampler struct {
	proc *process.Process
	done chan struct{}
	wg   sync.WaitGroup
	peak uint64
}

func startSampler(interval time.Duration) *rssSampler {
	s := &rssSampler{done: make(chan struct{})}
	if interval <= 0 {
		return s
	}
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return s
	}
	s.proc = proc
	s.sample()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sample()
			case <-s.done:
				return
			}
		}
	}()
	return s
}

func (s *rssSampler) sample() {
	info, err := s.proc.MemoryInfo()
	if err != nil {
		return
	}
	if info.RSS > s.peak {
		s.peak = info.RSS
	}
}

// stop ends sampling and returns the peak. It must be called exactly once.
func (s *rssSampler) stop() uint64 {
	close(s.done)
	s.wg.Wait()
	if s.proc != nil {
		s.sample()
	}
	return s.peak
}

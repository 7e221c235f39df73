package sysinfo

import (
	"runtime"
	"testing"
)

func TestCollect(t *testing.T) {
	s := Collect()
	if s.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", s.GoVersion, runtime.Version())
	}
	if s.Goroutines < 1 {
		t.Errorf("Goroutines = %d, want at least 1", s.Goroutines)
	}
	if s.MemTotalMB > 0 && s.MemUsedMB > s.MemTotalMB {
		t.Errorf("MemUsedMB = %d, want <= MemTotalMB %d", s.MemUsedMB, s.MemTotalMB)
	}
}

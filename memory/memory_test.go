package memory

import "testing"

func TestManagerTracksAllocationStats(t *testing.T) {
	m := New(false)
	region := m.NewRegion()
	region.Alloc(16, "instance")
	region.Alloc(32, "list")

	if got := m.Stats().AllocationCount(); got != 2 {
		t.Errorf("AllocationCount() = %d, want 2", got)
	}
	if got := m.Stats().TotalAllocated(); got != 48 {
		t.Errorf("TotalAllocated() = %d, want 48", got)
	}
	if got := m.Stats().LargestAllocation(); got != 32 {
		t.Errorf("LargestAllocation() = %d, want 32", got)
	}

	region.Close()
	if got := m.Stats().TotalAllocated(); got != 0 {
		t.Errorf("TotalAllocated() after Close = %d, want 0", got)
	}
	if got := m.Stats().DeallocationCount(); got != 2 {
		t.Errorf("DeallocationCount() = %d, want 2", got)
	}
}

func TestRegionCloseIsIdempotent(t *testing.T) {
	m := New(false)
	region := m.NewRegion()
	region.Alloc(8, "x")
	region.Close()
	region.Close()

	if got := m.Stats().DeallocationCount(); got != 1 {
		t.Errorf("DeallocationCount() = %d, want 1", got)
	}
}

func TestManagerReportLeaksInAuditMode(t *testing.T) {
	m := New(true)
	region := m.NewRegion()
	region.Alloc(64, "leaked")

	report := m.ReportLeaks()
	if report == "No memory leaks detected." {
		t.Error("expected an outstanding allocation to be reported")
	}

	region.Close()
	if got := m.ReportLeaks(); got != "No memory leaks detected." {
		t.Errorf("ReportLeaks() after Close = %q", got)
	}
}

func TestLinearPanicsOnDoubleTake(t *testing.T) {
	linear := NewLinear(42)
	if got := linear.Take(); got != 42 {
		t.Fatalf("Take() = %d, want 42", got)
	}

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected second Take() to panic")
		}
	}()
	linear.Take()
}

func TestSharedRefRetainRelease(t *testing.T) {
	ref := NewSharedRef("payload")
	ref.Retain()

	if got := ref.Release(); got != 1 {
		t.Errorf("Release() after one Retain = %d, want 1", got)
	}
	if got := ref.Release(); got != 0 {
		t.Errorf("final Release() = %d, want 0", got)
	}
	if got := ref.Get(); got != "payload" {
		t.Errorf("Get() = %q, want %q", got, "payload")
	}
}

package monitoring

import "testing"

func TestSetLogger(t *testing.T) {
	defer SetLogger(nil)

	var got string
	SetLogger(func(format string, v ...interface{}) {
		got = format
	})
	Logf("section %d skipped", 3)
	if got != "section %d skipped" {
		t.Errorf("Expected custom logger to receive format string, got %q", got)
	}

	// Nil installs a no-op, not a nil function
	SetLogger(nil)
	Logf("should not panic")
}

func TestSilence(t *testing.T) {
	calls := 0
	SetLogger(func(format string, v ...interface{}) {
		calls++
	})
	defer SetLogger(nil)

	restore := Silence()
	Logf("muted")
	if calls != 0 {
		t.Errorf("Expected no calls while silenced, got %d", calls)
	}

	restore()
	Logf("audible")
	if calls != 1 {
		t.Errorf("Expected 1 call after restore, got %d", calls)
	}
}

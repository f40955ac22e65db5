package main

import "testing"

func TestRunUsage(t *testing.T) {
	if got := run(nil); got != 1 {
		t.Fatalf("run with no args = %d, want 1", got)
	}
	if got := run([]string{"9013", "extra"}); got != 1 {
		t.Fatalf("run with extra arg = %d, want 1", got)
	}
	if got := run([]string{"-bogus"}); got != 2 {
		t.Fatalf("run with bad flag = %d, want 2", got)
	}
}

package service

import (
	"testing"
	"time"
)

func TestNextNumber(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		last   string
		want   string
	}{
		{"first of sequence", "ORD-20260901-", "", "ORD-20260901-0001"},
		{"increments last", "ORD-20260901-", "ORD-20260901-0007", "ORD-20260901-0008"},
		{"rolls past padding", "DISP-20260901-", "DISP-20260901-9999", "DISP-20260901-10000"},
		{"monthly invoice sequence", "FAC-CL01-202609-", "FAC-CL01-202609-0042", "FAC-CL01-202609-0043"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextNumber(tt.prefix, tt.last); got != tt.want {
				t.Errorf("nextNumber(%q, %q) = %q, want %q", tt.prefix, tt.last, got, tt.want)
			}
		})
	}
}

func TestDailyPrefix(t *testing.T) {
	now := time.Date(2026, 9, 1, 15, 4, 5, 0, time.UTC)
	if got := dailyPrefix("ORD", now); got != "ORD-20260901-" {
		t.Errorf("dailyPrefix = %q, want ORD-20260901-", got)
	}
}

func TestMonthlyPrefix(t *testing.T) {
	now := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	if got := monthlyPrefix("FAC", "CL01", now); got != "FAC-CL01-202609-" {
		t.Errorf("monthlyPrefix = %q, want FAC-CL01-202609-", got)
	}
}

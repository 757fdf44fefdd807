package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// nextNumber produces the next document number for a prefix given the
// highest existing number (or "" when none). Numbers look like
// ORD-20260901-0001: the prefix carries the document type and period,
// the suffix is a zero-padded sequence that restarts with each prefix.
func nextNumber(prefix, last string) string {
	seq := 1
	if last != "" {
		parts := strings.Split(last, "-")
		if n, err := strconv.Atoi(parts[len(parts)-1]); err == nil {
			seq = n + 1
		}
	}
	return fmt.Sprintf("%s%04d", prefix, seq)
}

func dailyPrefix(kind string, now time.Time) string {
	return fmt.Sprintf("%s-%s-", kind, now.Format("20060102"))
}

func monthlyPrefix(kind, clinicCode string, now time.Time) string {
	return fmt.Sprintf("%s-%s-%s-", kind, clinicCode, now.Format("200601"))
}

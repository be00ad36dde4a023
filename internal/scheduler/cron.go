package scheduler

import (
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser supports standard 5-field cron expressions and descriptors like
// @hourly or @every 30s.
var cronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseSchedule parses a refresh schedule. An empty expression yields a nil
// schedule, which disables automatic refreshes.
func ParseSchedule(expr string) (cron.Schedule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}
	return cronParser.Parse(expr)
}

// Every is a fixed-interval schedule without the one-second rounding of
// cron.Every.
type Every time.Duration

// Next implements cron.Schedule.
func (e Every) Next(t time.Time) time.Time {
	return t.Add(time.Duration(e))
}

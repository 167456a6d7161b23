package queue

import (
	"testing"

	"github.com/rs/zerolog"
)

// The client is the only place the environment prefix is applied, so callers
// hand it the raw queue name.
func TestPrefixedAppliedOnce(t *testing.T) {
	c := New("amqp://localhost", "dev", zerolog.Nop())
	if got := c.Prefixed("report_generation"); got != "dev_report_generation" {
		t.Errorf("broker queue name = %q, want %q", got, "dev_report_generation")
	}
}

func TestPrefixed_Empty(t *testing.T) {
	c := New("amqp://localhost", "", zerolog.Nop())
	if got := c.Prefixed("report_generation"); got != "report_generation" {
		t.Errorf("expected report_generation, got %q", got)
	}
}

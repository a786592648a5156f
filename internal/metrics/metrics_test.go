package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_RecordCommand(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordCommand("!events")
	c.RecordCommand("!events")
	c.RecordCommand("unknown")

	if got := testutil.ToFloat64(c.commands.WithLabelValues("!events")); got != 2 {
		t.Errorf("commands{command=!events} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.commands.WithLabelValues("unknown")); got != 1 {
		t.Errorf("commands{command=unknown} = %v, want 1", got)
	}
}

func TestCollector_RecordCommandError(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordCommandError("validation")
	c.RecordCommandError("validation")
	c.RecordCommandError("conflict")

	if got := testutil.ToFloat64(c.commandErrors.WithLabelValues("validation")); got != 2 {
		t.Errorf("command_errors{kind=validation} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.commandErrors.WithLabelValues("conflict")); got != 1 {
		t.Errorf("command_errors{kind=conflict} = %v, want 1", got)
	}
}

func TestCollector_RecordReminderSent(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordReminderSent()
	c.RecordReminderSent()

	if got := testutil.ToFloat64(c.remindersSent); got != 2 {
		t.Errorf("reminders_sent = %v, want 2", got)
	}
}

func TestCollector_RecordImport(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordImport("calendly", "added", 3)
	c.RecordImport("calendly", "skipped", 1)

	if got := testutil.ToFloat64(c.importEvents.WithLabelValues("calendly", "added")); got != 3 {
		t.Errorf("import_events{calendly,added} = %v, want 3", got)
	}
	if got := testutil.ToFloat64(c.importEvents.WithLabelValues("calendly", "skipped")); got != 1 {
		t.Errorf("import_events{calendly,skipped} = %v, want 1", got)
	}
}

func TestHandler_ExposesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordCommand("!help")
	c.RecordRouteDuration(12 * time.Millisecond)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	out := string(body)
	for _, want := range []string{"calman_commands_total", "calman_route_duration_seconds"} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output should contain %s", want)
		}
	}
}

package statsd

import (
	"net"
	"strings"
	"testing"
	"time"
)

func TestNormalizeMetricName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		" report/run ": "report_run",
		"foo..bar":     "foo.bar",
		".trimmed.":    "trimmed",
		"":             "",
	}

	for input, want := range tests {
		if got := normalizeMetricName(input); got != want {
			t.Fatalf("normalizeMetricName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestFormatTags(t *testing.T) {
	t.Parallel()

	global := map[string]string{"env": "prod", "service": "reports"}
	local := map[string]string{"result": " success ", "env": "stage", "": "ignored"}

	got := formatTags(global, local)
	want := "|#env:stage,result:success,service:reports"
	if got != want {
		t.Fatalf("formatTags mismatch\n got: %q\nwant: %q", got, want)
	}

	if got := formatTags(nil, nil); got != "" {
		t.Fatalf("formatTags(nil, nil) = %q, want empty", got)
	}
}

func TestDisabledClientDropsMetrics(t *testing.T) {
	t.Parallel()

	c, err := NewClient(Config{Enabled: false, Address: "127.0.0.1:8125"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer c.Close()

	// Must not panic or block with no connection.
	c.Count("report.run", 1, nil)
	c.Timing("report.duration", time.Second, nil)

	var nilClient *Client
	nilClient.Count("report.run", 1, nil)
}

func TestClientEmitsOverUDP(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer pc.Close()

	c, err := NewClient(Config{
		Enabled: true,
		Address: pc.LocalAddr().String(),
		Prefix:  "storewatch",
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer c.Close()

	c.Count("report.run", 1, map[string]string{"result": "success"})

	if derr := pc.SetReadDeadline(time.Now().Add(2 * time.Second)); derr != nil {
		t.Fatalf("set deadline: %v", derr)
	}
	buf := make([]byte, 512)
	n, _, err := pc.ReadFrom(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	got := string(buf[:n])
	want := "storewatch.report.run:1|c|#result:success"
	if !strings.Contains(got, want) {
		t.Fatalf("metric line %q does not contain %q", got, want)
	}
}

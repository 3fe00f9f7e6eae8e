package telemetry

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsHandler(t *testing.T) {
	MessagesReceived.WithLabelValues("echo").Inc()

	rec := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{
		`maelstrom_node_messages_received_total{type="echo"}`,
		"maelstrom_node_uptime_seconds",
	} {
		if !strings.Contains(string(body), name) {
			t.Errorf("metric %s missing from scrape", name)
		}
	}
}

func TestCollectorsRegistered(t *testing.T) {
	before := testutil.ToFloat64(GossipFanout)
	GossipFanout.Add(3)

	if after := testutil.ToFloat64(GossipFanout); after-before != 3 {
		t.Fatalf("expected fan-out to grow by 3 but grew by %v", after-before)
	}
	if n := testutil.CollectAndCount(Errors); n != 0 {
		t.Errorf("expected no error series before any error, found %d", n)
	}
}

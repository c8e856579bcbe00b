package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRunEnd(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordRunStart()
	m.RecordRunStart()
	m.RecordRunEnd("", 1.5)
	m.RecordRunEnd("synthesize_audio", 0.5)

	if got := testutil.ToFloat64(m.RunsTotal); got != 2 {
		t.Errorf("expected 2 runs, got %v", got)
	}
	if got := testutil.ToFloat64(m.RunsActive); got != 0 {
		t.Errorf("expected 0 active runs, got %v", got)
	}
	if got := testutil.ToFloat64(m.RunsSucceeded); got != 1 {
		t.Errorf("expected 1 success, got %v", got)
	}
	if got := testutil.ToFloat64(m.RunsFailed.WithLabelValues("synthesize_audio")); got != 1 {
		t.Errorf("expected 1 failure at synthesize_audio, got %v", got)
	}
}

func TestRecordRemoteCall(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordRemoteCall("gradium", "tts", "", 0.2)
	m.RecordRemoteCall("gradium", "tts", "timeout", 60)

	if got := testutil.ToFloat64(m.RemoteErrors.WithLabelValues("gradium", "timeout")); got != 1 {
		t.Errorf("expected 1 timeout error, got %v", got)
	}
}

func TestRecordKafkaPublish(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordKafkaPublish("calls", "generated", nil, 0.01)
	m.RecordKafkaPublish("calls", "generated", errors.New("broker down"), 0.01)

	if got := testutil.ToFloat64(m.KafkaPublishTotal.WithLabelValues("calls", "generated")); got != 2 {
		t.Errorf("expected 2 publishes, got %v", got)
	}
	if got := testutil.ToFloat64(m.KafkaPublishErrors.WithLabelValues("calls", "generated")); got != 1 {
		t.Errorf("expected 1 publish error, got %v", got)
	}
}

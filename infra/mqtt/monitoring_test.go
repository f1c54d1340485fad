package mqtt

import (
	"fmt"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	coremon "github.com/kilianp07/cmapd/core/monitoring"
)

type recordMonitor struct {
	err  error
	tags map[string]string
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.err = err
	r.tags = tags
}
func (r *recordMonitor) Recover()            {}
func (r *recordMonitor) Flush(time.Duration) {}

func TestPublishErrorCaptured(t *testing.T) {
	fail := fmt.Errorf("net fail")
	mc := &mockClient{publishErrs: []error{fail, fail}}
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	restoreClientFactory(t)
	mon := &recordMonitor{}
	coremon.Init(mon)
	defer coremon.Init(coremon.NopMonitor{})

	cfg := Config{Broker: "tcp://localhost:1883", ClientID: "id", Topic: "t", AckTopic: "a", MaxRetries: 1, BackoffMS: 1}
	cli, err := NewPahoClient(cfg)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	if _, err := cli.PublishPlan(testPlan()); err == nil {
		t.Fatalf("expected error")
	}
	if mon.err == nil {
		t.Fatalf("error not captured")
	}
	if mon.tags["run_id"] != "run-1" || mon.tags["module"] != "mqtt" || mon.tags["topic"] != "t" {
		t.Fatalf("tags not set: %v", mon.tags)
	}
	if len(cli.ackChans) != 0 {
		t.Fatalf("failed plan should not await an ack")
	}
}

func TestMockPublisher(t *testing.T) {
	m := NewMockPublisher()
	var _ Publisher = m
	id, err := m.PublishPlan(testPlan())
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if ok, err := m.WaitForAck(id, time.Millisecond); !ok || err != nil {
		t.Fatalf("ack: %v", err)
	}
	m.Unacked[id] = true
	if ok, _ := m.WaitForAck(id, time.Millisecond); ok {
		t.Fatalf("expected unacked")
	}
	m.Fail = true
	if _, err := m.PublishPlan(testPlan()); err == nil {
		t.Fatalf("expected failure")
	}
	if got := m.Published(); len(got) != 1 || got[0].RunID != "run-1" {
		t.Fatalf("published = %+v", got)
	}
}

// Package mqtt declares the messages and the publisher interface used to hand
// assignments to the downstream path-finding stage over MQTT.
package mqtt

import (
	"strconv"
	"time"

	"github.com/kilianp07/cmapd/core/model"
)

// PlanMessage is published on the plan topic once per planning run.
type PlanMessage struct {
	MessageID string           `json:"message_id"`
	RunID     string           `json:"run_id"`
	Makespan  int64            `json:"makespan"`
	Cost      int64            `json:"cost"`
	Routes    model.Assignment `json:"routes"`
	Timestamp int64            `json:"timestamp"`
}

// RobotMessage carries the waypoints of a single robot and is published on
// <topic>/robots/<robot>.
type RobotMessage struct {
	MessageID string      `json:"message_id"`
	RunID     string      `json:"run_id"`
	Robot     int         `json:"robot"`
	Route     model.Route `json:"route"`
	Timestamp int64       `json:"timestamp"`
}

// Ack is sent back by a consumer that received a plan.
type Ack struct {
	MessageID string `json:"message_id"`
}

// Publisher hands plans to the path-finding stage.
type Publisher interface {
	// PublishPlan publishes the plan and every robot route and returns the
	// message identifier used to track the acknowledgment.
	PublishPlan(msg PlanMessage) (messageID string, err error)

	// WaitForAck waits for an acknowledgment of the message or until the
	// timeout expires.
	WaitForAck(messageID string, timeout time.Duration) (bool, error)
}

// RobotTopic returns the topic of one robot's route under base.
func RobotTopic(base string, robot int) string {
	return base + "/robots/" + strconv.Itoa(robot)
}

// Split returns one RobotMessage per route of the plan.
func (m PlanMessage) Split() []RobotMessage {
	out := make([]RobotMessage, len(m.Routes))
	for i, r := range m.Routes {
		out[i] = RobotMessage{MessageID: m.MessageID, RunID: m.RunID, Robot: i, Route: r, Timestamp: m.Timestamp}
	}
	return out
}

// NewPlanMessage builds the message for a feasible run.
func NewPlanMessage(runID string, makespan, cost int64, routes model.Assignment, now time.Time) PlanMessage {
	return PlanMessage{RunID: runID, Makespan: makespan, Cost: cost, Routes: routes, Timestamp: now.UnixMilli()}
}

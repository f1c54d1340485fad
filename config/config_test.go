package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kilianp07/cmapd/core/routing"
)

//nolint:gocyclo
func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `instance:
  grid_path: "maps/warehouse.map"
  dm_path: "maps/warehouse.npy"
  agents: "a10_t20/0.agents"
  tasks: "a10_t20/0.tasks"
search:
  capacity: 0
  min_makespan: 10
  timeout_retries: 2
solver:
  type: "alns"
  time_limit_seconds: 2.5
  metaheuristic: "greedy_descent"
  alns:
    max_removal: 5
output:
  format: "csv"
  path: "plan.csv"
journal:
  backend: "sqlite"
  path: "runs.db"
metrics:
  sinks:
    - type: "nop"
  prometheus_addr: ":9100"
mqtt:
  enabled: true
  broker: "tcp://localhost:1883"
  topic: "fleet/plan"
  qos:
    plan: 1
sentry:
  dsn: ""
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"grid_path", cfg.Instance.GridPath, "maps/warehouse.map"},
		{"tasks", cfg.Instance.Tasks, "a10_t20/0.tasks"},
		{"capacity", cfg.Search.Capacity, int64(0)},
		{"min_makespan", cfg.Search.MinMakespan, int64(10)},
		{"timeout_retries", cfg.Search.TimeoutRetries, 2},
		{"timeout_growth default", cfg.Search.TimeoutGrowth, 2.0},
		{"solver.type", cfg.Solver.Type, "alns"},
		{"span default", cfg.Solver.SpanCostCoefficient, routing.DefaultSpanCostCoefficient},
		{"first_solution default", cfg.Solver.FirstSolution, string(routing.CheapestInsertion)},
		{"output.format", cfg.Output.Format, "csv"},
		{"journal.backend", cfg.Journal.Backend, "sqlite"},
		{"journal.max_backups default", cfg.Journal.MaxBackups, 3},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"prometheus_addr", cfg.Metrics.PrometheusAddr, ":9100"},
		{"mqtt.topic", cfg.MQTT.Topic, "fleet/plan"},
		{"mqtt.qos", cfg.MQTT.QoS["plan"], byte(1)},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}

	sc := cfg.SearchConfig()
	if sc.Params.TimeLimit != 2500*time.Millisecond || sc.Params.Metaheuristic != routing.GreedyDescent {
		t.Errorf("search params not mapped: %+v", sc.Params)
	}
	mod := cfg.Solver.Module()
	if mod.Type != "alns" || mod.Conf["max_removal"] != 5 {
		t.Errorf("solver module = %+v", mod)
	}
}

func TestLoadDefaultsAndEnv(t *testing.T) {
	t.Setenv("CMAPD_SEARCH__CAPACITY", "1")
	t.Setenv("CMAPD_SOLVER__TYPE", "exact")
	t.Setenv("CMAPD_INSTANCE__AGENTS", "x.agents")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Search.Capacity != 1 || cfg.Solver.Type != "exact" || cfg.Instance.Agents != "x.agents" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if cfg.Search.MinMakespan != 20 || cfg.Solver.TimeLimitSeconds != 30 || cfg.Output.Format != "json" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestDefaultCapacity(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Search.Capacity != DefaultCapacity {
		t.Fatalf("capacity = %d", cfg.Search.Capacity)
	}
	if cfg.Solver.Module().Type != "auto" {
		t.Fatalf("default solver = %s", cfg.Solver.Type)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"solver.yaml": "solver:\n  type: \"cplex\"\n",
		"growth.yaml": "search:\n  timeout_growth: 0.5\n",
		"format.yaml": "output:\n  format: \"xml\"\n",
		"cap.yaml":    "search:\n  capacity: -1\n",
		"mqtt.yaml":   "mqtt:\n  enabled: true\n",
		"jrnl.yaml":   "journal:\n  backend: \"jsonl\"\n",
	}
	for name, body := range cases {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
	if _, err := Load(filepath.Join(dir, "config.toml")); err == nil {
		t.Error("expected unsupported format error")
	}
}

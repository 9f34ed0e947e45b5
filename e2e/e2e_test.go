package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/formflight/app"
	"github.com/kilianp07/formflight/config"
	"github.com/kilianp07/formflight/core/factory"
)

func startInflux(ctx context.Context, t *testing.T) (tc.Container, string) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "influxdb:2.7",
		ExposedPorts: []string{"8086/tcp"},
		Env: map[string]string{
			"DOCKER_INFLUXDB_INIT_MODE":        "setup",
			"DOCKER_INFLUXDB_INIT_USERNAME":    "formflight",
			"DOCKER_INFLUXDB_INIT_PASSWORD":    "formflight-e2e",
			"DOCKER_INFLUXDB_INIT_ORG":         "e2e_org",
			"DOCKER_INFLUXDB_INIT_BUCKET":      "e2e_bucket",
			"DOCKER_INFLUXDB_INIT_ADMIN_TOKEN": "e2e-token",
		},
		WaitingFor: wait.ForHTTP("/health").WithPort("8086/tcp").WithStartupTimeout(60 * time.Second),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start influx container: %v", err)
	}
	host, _ := cont.Host(ctx)
	port, _ := cont.MappedPort(ctx, "8086")
	return cont, fmt.Sprintf("http://%s:%s", host, port.Port())
}

func startMosquitto(ctx context.Context, t *testing.T) (tc.Container, string) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:1.6",
		ExposedPorts: []string{"1883/tcp"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start mosquitto: %v", err)
	}
	host, _ := cont.Host(ctx)
	port, _ := cont.MappedPort(ctx, "1883")
	return cont, fmt.Sprintf("tcp://%s:%s", host, port.Port())
}

type tickCollector struct {
	mu    sync.Mutex
	ticks []int
}

func (c *tickCollector) handle(_ paho.Client, msg paho.Message) {
	var m struct {
		Tick int `json:"tick"`
	}
	if json.Unmarshal(msg.Payload(), &m) != nil {
		return
	}
	c.mu.Lock()
	c.ticks = append(c.ticks, m.Tick)
	c.mu.Unlock()
}

func (c *tickCollector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.ticks)
}

// Test_E2E_SimulationExports runs a small simulation against real InfluxDB and
// Mosquitto brokers and checks that every tick reaches both.
func Test_E2E_SimulationExports(t *testing.T) {
	if testing.Short() {
		t.Skip("e2e")
	}
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skipf("docker not installed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	influxCont, influxURL := startInflux(ctx, t)
	defer influxCont.Terminate(ctx) //nolint:errcheck
	mqttCont, mqttURL := startMosquitto(ctx, t)
	defer mqttCont.Terminate(ctx) //nolint:errcheck

	const (
		org    = "e2e_org"
		bucket = "e2e_bucket"
		token  = "e2e-token"
		runID  = "e2e-run"
		steps  = 10
	)
	influx := newInfluxClient(influxURL, org, bucket, token)
	defer influx.close()
	require.NoError(t, influx.setupBucket(ctx))

	sub := paho.NewClient(paho.NewClientOptions().AddBroker(mqttURL).SetClientID("formflight-e2e-sub"))
	tok := sub.Connect()
	require.True(t, tok.WaitTimeout(10*time.Second))
	require.NoError(t, tok.Error())
	defer sub.Disconnect(100)
	collector := &tickCollector{}
	tok = sub.Subscribe("e2e/ticks", 1, collector.handle)
	require.True(t, tok.WaitTimeout(10*time.Second))
	require.NoError(t, tok.Error())

	cfg := config.Default()
	cfg.Simulation.Steps = steps
	cfg.Scenario.NumAgents = 6
	cfg.Scenario.NumTargets = 6
	cfg.Logging.Level = "warn"
	cfg.Output.Dir = t.TempDir()
	cfg.Metrics.Sinks = []factory.ModuleConfig{{
		Type: "influx",
		Conf: map[string]any{"url": influxURL, "token": token, "org": org, "bucket": bucket, "run_id": runID},
	}}
	cfg.MQTT.Enabled = true
	cfg.MQTT.Broker = mqttURL
	cfg.MQTT.QoS = 1
	cfg.MQTT.TopicPrefix = "e2e"
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())

	svc, err := app.New(cfg)
	require.NoError(t, err)
	require.NoError(t, svc.Run(ctx))
	require.NoError(t, svc.Close())

	n, err := influx.countField(ctx, "sim_tick", "mean_error", runID)
	require.NoError(t, err)
	assert.Equal(t, steps, n)
	n, err = influx.countField(ctx, "reassignment", "switches", runID)
	require.NoError(t, err)
	assert.Equal(t, steps, n)

	assert.Eventually(t, func() bool { return collector.len() == steps }, 10*time.Second, 100*time.Millisecond)
}

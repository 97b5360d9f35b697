package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/inasolar/microgrid/core/metrics"
	"github.com/inasolar/microgrid/core/model"
	"github.com/inasolar/microgrid/infra/logger"
)

// InfluxSink writes simulation outcomes to an InfluxDB instance using
// the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink configured for the given InfluxDB
// endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and falls back
// to a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.Sink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordSummary writes the summary as one point with a field per
// aggregate.
func (s *InfluxSink) RecordSummary(mode string, sum model.Summary) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("simulation_summary").
		AddTag("mode", mode).
		SetTime(time.Now())
	for field, value := range summaryFields(sum) {
		p.AddField(field, value)
	}
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordScenario writes one point per scenario, tagged with its group
// and index.
func (s *InfluxSink) RecordScenario(res model.ScenarioResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("optimization_scenario").
		AddTag("group", res.Group).
		AddTag("index", strconv.Itoa(res.Index)).
		SetTime(time.Now())
	for name, value := range res.Parameters {
		p.AddField(name, value)
	}
	for field, value := range summaryFields(res.Summaries.Regulated) {
		p.AddField("regulated_"+field, value)
	}
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordProgress writes the completion percentage of a run.
func (s *InfluxSink) RecordProgress(runID string, pct int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("optimization_progress").
		AddTag("run_id", runID).
		AddField("percent", pct).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying HTTP client.
func (s *InfluxSink) Close() { s.client.Close() }

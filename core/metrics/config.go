package metrics

// SinkConfig selects and configures one metrics backend.
type SinkConfig struct {
	// Type is "nop", "prometheus" or "influx".
	Type string `json:"type"`

	// Influx settings, ignored by the other sink types.
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []SinkConfig `json:"sinks"`
}

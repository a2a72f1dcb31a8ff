package model

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// CurrentVersion stamps a record written by this build.
func CurrentVersion() VersionedRecord {
	return VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

// NetworkSnapshot is the flat, acyclic record of a network: layers list
// their neurons, connections refer to neurons by ID only.
type NetworkSnapshot struct {
	VersionedRecord
	ID          string             `json:"id"`
	Name        string             `json:"name,omitempty"`
	Options     OptionsRecord      `json:"options"`
	Layers      []LayerRecord      `json:"layers"`
	Connections []ConnectionRecord `json:"connections"`
}

type OptionsRecord struct {
	Activation      string  `json:"activation_function"`
	Cost            string  `json:"cost_function"`
	LearningRate    float64 `json:"learning_rate"`
	ErrorThreshold  float64 `json:"error_threshold"`
	MaxIterations   int     `json:"max_iterations"`
	LayerSizes      []int   `json:"layer_sizes"`
	LoggingInterval int     `json:"logging_interval"`
	Seed            int64   `json:"seed"`
}

type LayerRecord struct {
	ID    string `json:"id"`
	Index int    `json:"index"`
	Type  string `json:"type"`
	// Activation is empty in records that predate per-layer activations; the
	// network's activation applies then.
	Activation string         `json:"activation_function,omitempty"`
	Neurons    []NeuronRecord `json:"neurons"`
}

type NeuronRecord struct {
	ID         string  `json:"id"`
	Bias       float64 `json:"bias"`
	State      float64 `json:"state"`
	OldState   float64 `json:"old_state"`
	Activation float64 `json:"activation"`
	Derivative float64 `json:"derivative"`
	Error      float64 `json:"responsibility"`
}

type ConnectionRecord struct {
	ID     string  `json:"id"`
	From   string  `json:"from"`
	To     string  `json:"to"`
	Weight float64 `json:"weight"`
}

// RunRecord summarizes one training run.
type RunRecord struct {
	VersionedRecord
	ID           string  `json:"id"`
	NetworkID    string  `json:"network_id"`
	Dataset      string  `json:"dataset"`
	CreatedAtUTC string  `json:"created_at_utc"`
	FinalError   float64 `json:"final_error"`
	Iterations   int     `json:"iterations"`
	Converged    bool    `json:"converged"`
	ElapsedMS    int64   `json:"elapsed_ms"`
}

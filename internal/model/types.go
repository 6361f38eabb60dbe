package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// TrainingRun is the durable summary of one training invocation.
type TrainingRun struct {
	VersionedRecord
	ID                     string  `json:"id"`
	CreatedAtUTC           string  `json:"created_at_utc"`
	Seed                   int64   `json:"seed"`
	Epochs                 int     `json:"epochs"`
	BatchSize              int     `json:"batch_size"`
	Samples                int     `json:"samples"`
	LearningRate           float64 `json:"learning_rate"`
	FinalGeneratorLoss     float64 `json:"final_generator_loss"`
	FinalDiscriminatorLoss float64 `json:"final_discriminator_loss"`
}

// EpochLoss is one row of a run's loss history: the running means as of the
// epoch's last step.
type EpochLoss struct {
	Epoch             int     `json:"epoch"`
	Steps             int     `json:"steps"`
	GeneratorLoss     float64 `json:"generator_loss"`
	DiscriminatorLoss float64 `json:"discriminator_loss"`
	DurationSeconds   float64 `json:"duration_seconds"`
}

// Checkpoint snapshots both networks' parameters at the end of an epoch,
// keyed by parameter name.
type Checkpoint struct {
	VersionedRecord
	RunID         string               `json:"run_id"`
	Epoch         int                  `json:"epoch"`
	Generator     map[string][]float64 `json:"generator"`
	Discriminator map[string][]float64 `json:"discriminator"`
}

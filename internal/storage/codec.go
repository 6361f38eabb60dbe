package storage

import (
	"encoding/json"
	"errors"

	"rainscale/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// Stamp returns the current version header for freshly written records.
func Stamp() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

func EncodeRun(r model.TrainingRun) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRun(data []byte) (model.TrainingRun, error) {
	var run model.TrainingRun
	if err := json.Unmarshal(data, &run); err != nil {
		return model.TrainingRun{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.TrainingRun{}, err
	}
	return run, nil
}

func EncodeLossHistory(history []model.EpochLoss) ([]byte, error) {
	return json.Marshal(history)
}

func DecodeLossHistory(data []byte) ([]model.EpochLoss, error) {
	var history []model.EpochLoss
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func EncodeCheckpoint(c model.Checkpoint) ([]byte, error) {
	return json.Marshal(c)
}

func DecodeCheckpoint(data []byte) (model.Checkpoint, error) {
	var checkpoint model.Checkpoint
	if err := json.Unmarshal(data, &checkpoint); err != nil {
		return model.Checkpoint{}, err
	}
	if err := checkVersion(checkpoint.VersionedRecord); err != nil {
		return model.Checkpoint{}, err
	}
	return checkpoint, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}

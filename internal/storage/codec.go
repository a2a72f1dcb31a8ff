package storage

import (
	"encoding/json"

	"github.com/pkg/errors"

	"neuralnet/internal/model"
)

const (
	CurrentSchemaVersion = model.CurrentSchemaVersion
	CurrentCodecVersion  = model.CurrentCodecVersion
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeNetwork(snapshot model.NetworkSnapshot) ([]byte, error) {
	return json.Marshal(snapshot)
}

func DecodeNetwork(data []byte) (model.NetworkSnapshot, error) {
	var snapshot model.NetworkSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return model.NetworkSnapshot{}, errors.Wrap(err, "decode network")
	}
	if err := checkVersion(snapshot.VersionedRecord); err != nil {
		return model.NetworkSnapshot{}, err
	}
	return snapshot, nil
}

func EncodeRun(run model.RunRecord) ([]byte, error) {
	return json.Marshal(run)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, errors.Wrap(err, "decode run")
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

func EncodeTrainingHistory(history []float64) ([]byte, error) {
	return json.Marshal(history)
}

func DecodeTrainingHistory(data []byte) ([]float64, error) {
	var history []float64
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, errors.Wrap(err, "decode training history")
	}
	return history, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return errors.Wrapf(ErrVersionMismatch, "schema %d codec %d", v.SchemaVersion, v.CodecVersion)
	}
	return nil
}

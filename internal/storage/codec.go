package storage

import (
	"encoding/json"
	"errors"

	"ethnos/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeProfile(p model.Profile) ([]byte, error) {
	return json.Marshal(p)
}

func DecodeProfile(data []byte) (model.Profile, error) {
	var p model.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return model.Profile{}, err
	}
	if err := checkVersion(p.VersionedRecord); err != nil {
		return model.Profile{}, err
	}
	return p, nil
}

func EncodeEnvironmentSummary(s model.EnvironmentSummary) ([]byte, error) {
	return json.Marshal(s)
}

func DecodeEnvironmentSummary(data []byte) (model.EnvironmentSummary, error) {
	var summary model.EnvironmentSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return model.EnvironmentSummary{}, err
	}
	if err := checkVersion(summary.VersionedRecord); err != nil {
		return model.EnvironmentSummary{}, err
	}
	return summary, nil
}

func EncodeFitnessHistory(history []float64) ([]byte, error) {
	return json.Marshal(history)
}

func DecodeFitnessHistory(data []byte) ([]float64, error) {
	var history []float64
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func EncodeGenerationDiagnostics(diagnostics []model.GenerationDiagnostics) ([]byte, error) {
	return json.Marshal(diagnostics)
}

func DecodeGenerationDiagnostics(data []byte) ([]model.GenerationDiagnostics, error) {
	var diagnostics []model.GenerationDiagnostics
	if err := json.Unmarshal(data, &diagnostics); err != nil {
		return nil, err
	}
	return diagnostics, nil
}

func EncodeTopProfiles(top []model.TopProfileRecord) ([]byte, error) {
	return json.Marshal(top)
}

func DecodeTopProfiles(data []byte) ([]model.TopProfileRecord, error) {
	var top []model.TopProfileRecord
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, err
	}
	for _, record := range top {
		if err := checkVersion(record.Profile.VersionedRecord); err != nil {
			return nil, err
		}
	}
	return top, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}

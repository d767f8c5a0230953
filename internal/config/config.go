// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Minetec

// Package config loads and saves the harness settings record. The JSON
// field names are shared with older tooling and must not change.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Settings is the flat configuration record for a test run.
type Settings struct {
	NozzleID         string `json:"nozzleId"`
	VehicleTag       string `json:"vTAG"`
	WorkingHours     int    `json:"hours"`
	RefillLiters     int    `json:"refillLiters"`
	LiterIncrement   int    `json:"liter_increment"`
	RefillCount      int    `json:"numRefills"`
	TargetDeviceName string `json:"target_fas_name"`
	ImagePath        string `json:"image_path"`
	DirectIP         string `json:"direct_ip,omitempty"`
	Username         string `json:"username,omitempty"`
}

// Default returns the settings used when no file exists yet.
func Default() Settings {
	return Settings{
		NozzleID:         "0031",
		VehicleTag:       "E200001D8914005717701BFC",
		WorkingHours:     200,
		RefillLiters:     40,
		LiterIncrement:   10,
		RefillCount:      100,
		TargetDeviceName: "FAS_CB57",
		ImagePath:        "./refill.jpg",
		Username:         "FasAdmin",
	}
}

// Load reads the settings file. On any failure it returns defaults along
// with the error so a fresh checkout still runs.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Default(), fmt.Errorf("read settings file: %w", err)
	}

	s := Default()
	if err := json.Unmarshal(data, &s); err != nil {
		return Default(), fmt.Errorf("decode settings file: %w", err)
	}
	if s.Username == "" {
		s.Username = Default().Username
	}
	return s, nil
}

// Save writes the settings record back to path.
func (s Settings) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

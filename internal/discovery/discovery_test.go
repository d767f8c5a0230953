// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Minetec

package discovery

import "testing"

func TestShortName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"FAS_CB57.local.", "FAS_CB57"},
		{"FAS_CB57", "FAS_CB57"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := (Device{Name: tt.name}).ShortName(); got != tt.want {
			t.Errorf("ShortName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestSelect(t *testing.T) {
	cb57 := Device{Name: "FAS_CB57.local.", Addr: "192.168.1.57"}
	cb58 := Device{Name: "FAS_CB58.local.", Addr: "192.168.1.58"}

	tests := []struct {
		name    string
		devices []Device
		target  string
		wantIdx int
		wantOK  bool
	}{
		{"target present", []Device{cb58, cb57}, "FAS_CB57", 1, true},
		{"lone device taken as-is", []Device{cb58}, "FAS_CB57", 0, true},
		{"no devices", nil, "FAS_CB57", 0, true},
		{"ambiguous needs operator", []Device{cb58, cb57}, "FAS_CB99", 0, false},
		{"short name must not match qualified", []Device{{Name: "FAS_CB57"}}, "FAS_CB57", 0, true},
	}
	for _, tt := range tests {
		idx, ok := Select(tt.devices, tt.target)
		if idx != tt.wantIdx || ok != tt.wantOK {
			t.Errorf("%s: Select = (%d, %v), want (%d, %v)",
				tt.name, idx, ok, tt.wantIdx, tt.wantOK)
		}
	}
}

package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/leaderboard-tools/steam-rank-stats/pkg/stats"
)

func TestDefaultDivisions(t *testing.T) {
	spec := defaultDivisions()

	if err := spec.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if len(spec) != 7 {
		t.Fatalf("Expected 7 divisions, got %d", len(spec))
	}
	if spec[0].Label != "Stone" || spec[0].Lower != 0 {
		t.Errorf("Unexpected first division %+v", spec[0])
	}
	if spec[6].Label != "Master" || spec[6].Lower != 1500 {
		t.Errorf("Unexpected last division %+v", spec[6])
	}
	if spec[3] != (stats.Division{Lower: 900, Label: "Gold", Color: "#FFD700"}) {
		t.Errorf("Unexpected Gold division %+v", spec[3])
	}
}

func TestDefaultSubTiers(t *testing.T) {
	spec := defaultSubTiers()

	if err := spec.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if len(spec) != 13 {
		t.Fatalf("Expected 13 sub-tiers, got %d", len(spec))
	}

	// Two sub-tiers per division up to Master, which has a single
	// open-ended tier.
	wantLowers := []int{0, 400, 500, 600, 700, 800, 900, 1000, 1100, 1200, 1300, 1400, 1500}
	for i, want := range wantLowers {
		if spec[i].Lower != want {
			t.Errorf("spec[%d].Lower = %d, want %d", i, spec[i].Lower, want)
		}
	}
	if spec[12].Label != "Master 1500+" {
		t.Errorf("Unexpected top sub-tier label %q", spec[12].Label)
	}
}

func TestParseDivisions(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    stats.BinSpec
		wantErr string
	}{
		{
			name:  "with colors",
			value: "0:Stone:#5A5A5A,500:Bronze:#B87333",
			want: stats.BinSpec{
				{Lower: 0, Label: "Stone", Color: "#5A5A5A"},
				{Lower: 500, Label: "Bronze", Color: "#B87333"},
			},
		},
		{
			name:  "without colors",
			value: "0:Low,1000:High",
			want: stats.BinSpec{
				{Lower: 0, Label: "Low"},
				{Lower: 1000, Label: "High"},
			},
		},
		{
			name:  "whitespace and trailing comma",
			value: " 0 : Low , 1000 : High ,",
			want: stats.BinSpec{
				{Lower: 0, Label: "Low"},
				{Lower: 1000, Label: "High"},
			},
		},
		{
			name:    "missing label",
			value:   "500",
			wantErr: "want lower:label",
		},
		{
			name:    "empty label",
			value:   "500: ",
			wantErr: "empty label",
		},
		{
			name:    "bad lower bound",
			value:   "five:Low",
			wantErr: "bad lower bound",
		},
		{
			name:    "empty value",
			value:   "",
			wantErr: "no divisions",
		},
		{
			name:    "duplicate bound",
			value:   "0:Low,0:Also",
			wantErr: "not above",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDivisions(tt.value)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("Error %q does not contain %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseDivisions() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %d divisions, got %d", len(tt.want), len(got))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("division[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseDivisionsDescendingIsInvalid(t *testing.T) {
	_, err := parseDivisions("1000:High,0:Low")
	if !errors.Is(err, stats.ErrInvalidSpec) {
		t.Errorf("Expected ErrInvalidSpec, got %v", err)
	}
}

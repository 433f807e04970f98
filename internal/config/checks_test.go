package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/jobrunner/geolint/internal/domain"
)

const validChecks = `table,geometry_type,srid,duplicate,overlap,self_intersect,sliver,short_object,small_area,polygon_in_polygon,min_points,spike,self_overlap,undershoot,overshoot
buildings,POLYGON,25832,1,1,1,0,0,0,0,1,1,1,0,0
roads,LINESTRING,25832,yes,no,true,0,0,0,0,1,0,0,1,1
`

func TestParseChecks(t *testing.T) {
	configs, err := ParseChecks(strings.NewReader(validChecks))
	if err != nil {
		t.Fatalf("ParseChecks() error = %v", err)
	}

	if len(configs) != 2 {
		t.Fatalf("len(configs) = %d, want 2", len(configs))
	}

	buildings := configs[0]
	if buildings.Table != "buildings" {
		t.Errorf("Table = %q, want %q", buildings.Table, "buildings")
	}
	if buildings.GeometryType != "POLYGON" {
		t.Errorf("GeometryType = %q, want %q", buildings.GeometryType, "POLYGON")
	}
	if buildings.SRID != 25832 {
		t.Errorf("SRID = %d, want 25832", buildings.SRID)
	}
	if !buildings.Duplicate || !buildings.SelfIntersection || !buildings.Spike {
		t.Error("buildings should have duplicate, self_intersect and spike enabled")
	}
	if buildings.Undershoot || buildings.Overshoot {
		t.Error("buildings should not have network checks enabled")
	}

	roads := configs[1]
	if !roads.Duplicate || roads.Overlap || !roads.SelfIntersection {
		t.Error("roads flags should honor yes/no/true spellings")
	}
	if !roads.Undershoot || !roads.Overshoot {
		t.Error("roads should have both network checks enabled")
	}
}

func TestParseChecksErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "wrong header",
			input: "table,geometry\nbuildings,POLYGON\n",
		},
		{
			name: "missing columns",
			input: strings.Join(checksHeader, ",") + "\n" +
				"buildings,POLYGON,25832\n",
		},
		{
			name: "bad srid",
			input: strings.Join(checksHeader, ",") + "\n" +
				"buildings,POLYGON,abc,1,1,1,0,0,0,0,1,1,1,0,0\n",
		},
		{
			name: "bad flag",
			input: strings.Join(checksHeader, ",") + "\n" +
				"buildings,POLYGON,25832,maybe,1,1,0,0,0,0,1,1,1,0,0\n",
		},
		{
			name: "empty table name",
			input: strings.Join(checksHeader, ",") + "\n" +
				",POLYGON,25832,1,1,1,0,0,0,0,1,1,1,0,0\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseChecks(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("ParseChecks() should error")
			}
			var cfgErr *domain.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("ParseChecks() error = %T, want *domain.ConfigError", err)
			}
		})
	}
}

func TestParseChecksEmptyFlagDefaultsOff(t *testing.T) {
	input := strings.Join(checksHeader, ",") + "\n" +
		"buildings,POLYGON,25832,,,,,,,,,,,,\n"

	configs, err := ParseChecks(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseChecks() error = %v", err)
	}
	if len(configs) != 1 {
		t.Fatalf("len(configs) = %d, want 1", len(configs))
	}
	cfg := configs[0]
	if cfg.Duplicate || cfg.Overlap || cfg.MinPoints || cfg.Overshoot {
		t.Error("empty flags should parse as disabled")
	}
}

func TestParseFlag(t *testing.T) {
	tests := []struct {
		input   string
		want    bool
		wantErr bool
	}{
		{"1", true, false},
		{"0", false, false},
		{"true", true, false},
		{"FALSE", false, false},
		{"Yes", true, false},
		{"no", false, false},
		{" 1 ", true, false},
		{"", false, false},
		{"2", false, true},
		{"on", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseFlag(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseFlag(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseFlag(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

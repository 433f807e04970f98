package config

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jobrunner/geolint/internal/domain"
)

// checksHeader is the expected column layout of the check matrix file. One
// row per table; a table absent from the file is not validated at all.
var checksHeader = []string{
	"table", "geometry_type", "srid",
	"duplicate", "overlap", "self_intersect",
	"sliver", "short_object", "small_area", "polygon_in_polygon",
	"min_points", "spike", "self_overlap",
	"undershoot", "overshoot",
}

// LoadChecks reads the per-table check matrix from a CSV file.
func LoadChecks(path string) ([]domain.CheckConfig, error) {
	f, err := os.Open(path) //#nosec G304 -- path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("opening checks file: %w", err)
	}
	defer func() { _ = f.Close() }()

	configs, err := ParseChecks(f)
	if err != nil {
		return nil, fmt.Errorf("parsing checks file %s: %w", path, err)
	}
	return configs, nil
}

// ParseChecks parses the check matrix from a reader.
func ParseChecks(r io.Reader) ([]domain.CheckConfig, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, &domain.ConfigError{Field: "checks", Message: fmt.Sprintf("reading header: %v", err)}
	}
	if err := validateHeader(header); err != nil {
		return nil, err
	}

	var configs []domain.CheckConfig
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, &domain.ConfigError{
				Field:   fmt.Sprintf("checks line %d", line),
				Message: err.Error(),
			}
		}

		cfg, err := parseRecord(record, line)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}

	return configs, nil
}

func validateHeader(header []string) error {
	if len(header) != len(checksHeader) {
		return &domain.ConfigError{
			Field:   "checks header",
			Message: fmt.Sprintf("expected %d columns, got %d", len(checksHeader), len(header)),
		}
	}
	for i, want := range checksHeader {
		if !strings.EqualFold(strings.TrimSpace(header[i]), want) {
			return &domain.ConfigError{
				Field:   "checks header",
				Message: fmt.Sprintf("column %d is %q, want %q", i+1, header[i], want),
			}
		}
	}
	return nil
}

func parseRecord(record []string, line int) (domain.CheckConfig, error) {
	var cfg domain.CheckConfig

	if len(record) != len(checksHeader) {
		return cfg, &domain.ConfigError{
			Field:   fmt.Sprintf("checks line %d", line),
			Message: fmt.Sprintf("expected %d columns, got %d", len(checksHeader), len(record)),
		}
	}

	cfg.Table = strings.TrimSpace(record[0])
	if cfg.Table == "" {
		return cfg, &domain.ConfigError{
			Field:   fmt.Sprintf("checks line %d", line),
			Message: "table name is empty",
		}
	}
	cfg.GeometryType = strings.ToUpper(strings.TrimSpace(record[1]))

	srid, err := strconv.Atoi(strings.TrimSpace(record[2]))
	if err != nil {
		return cfg, &domain.ConfigError{
			Field:   fmt.Sprintf("checks line %d, column srid", line),
			Message: fmt.Sprintf("invalid SRID %q", record[2]),
		}
	}
	cfg.SRID = srid

	flags := []*bool{
		&cfg.Duplicate, &cfg.Overlap, &cfg.SelfIntersection,
		&cfg.Sliver, &cfg.ShortObject, &cfg.SmallArea, &cfg.PolygonInPolygon,
		&cfg.MinPoints, &cfg.Spike, &cfg.SelfOverlap,
		&cfg.Undershoot, &cfg.Overshoot,
	}
	for i, flag := range flags {
		col := i + 3
		v, err := parseFlag(record[col])
		if err != nil {
			return cfg, &domain.ConfigError{
				Field:   fmt.Sprintf("checks line %d, column %s", line, checksHeader[col]),
				Message: err.Error(),
			}
		}
		*flag = v
	}

	return cfg, nil
}

// parseFlag accepts the boolean spellings found in hand-edited matrices.
func parseFlag(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return true, nil
	case "0", "false", "no", "":
		return false, nil
	default:
		return false, fmt.Errorf("invalid flag value %q", s)
	}
}

package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Hydro codes traditionally configure their driving module through a flat
// "name = value ! comment" parameter file. LoadLegacy reads that format so
// existing parameter files keep working; YAML is the native format.

// legacyKeys are the parameters a legacy file must define. Anything missing
// is a fatal configuration error, matching the behavior hosts rely on.
var legacyKeys = []string{
	"ndim", "xmin", "xmax", "ymin", "ymax", "zmin", "zmax",
	"velocity", "k_driv", "k_min", "k_max", "sol_weight",
	"spect_form", "power_law_exp", "angles_exp", "energy_coeff",
	"random_seed", "nsteps_per_turnover_time",
}

// LoadLegacy parses a legacy parameter file into a full Config, starting
// from embedded defaults for the sections the legacy format does not cover
// (sampling, tracers, telemetry).
func LoadLegacy(path string) (*Config, error) {
	cfg := &Config{}
	if err := parseDefaults(cfg); err != nil {
		return nil, err
	}

	values, err := readLegacyFile(path)
	if err != nil {
		return nil, err
	}
	for _, key := range legacyKeys {
		if _, ok := values[key]; !ok {
			return nil, fmt.Errorf("config: parameter %q not found in file %q", key, path)
		}
	}

	t := &cfg.Turbulence
	var parseErr error
	getFloat := func(key string) float64 {
		v, err := strconv.ParseFloat(values[key], 64)
		if err != nil && parseErr == nil {
			parseErr = fmt.Errorf("config: parameter %q in file %q: %w", key, path, err)
		}
		return v
	}
	getInt := func(key string) int {
		v, err := strconv.Atoi(values[key])
		if err != nil && parseErr == nil {
			parseErr = fmt.Errorf("config: parameter %q in file %q: %w", key, path, err)
		}
		return v
	}

	t.NDim = getInt("ndim")
	t.XMin = getFloat("xmin")
	t.XMax = getFloat("xmax")
	t.YMin = getFloat("ymin")
	t.YMax = getFloat("ymax")
	t.ZMin = getFloat("zmin")
	t.ZMax = getFloat("zmax")
	t.Velocity = getFloat("velocity")
	t.KDriv = getFloat("k_driv")
	t.KMin = getFloat("k_min")
	t.KMax = getFloat("k_max")
	t.SolWeight = getFloat("sol_weight")
	t.SpectForm = getInt("spect_form")
	t.PowerLawExp = getFloat("power_law_exp")
	t.AnglesExp = getFloat("angles_exp")
	t.EnergyCoeff = getFloat("energy_coeff")
	t.RandomSeed = int32(getInt("random_seed"))
	t.NStepsPerTurnover = getInt("nsteps_per_turnover_time")
	if v, ok := values["max_modes"]; ok {
		mm, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: parameter %q in file %q: %w", "max_modes", path, err)
		}
		t.MaxModes = mm
	}
	if parseErr != nil {
		return nil, parseErr
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()
	return cfg, nil
}

func parseDefaults(cfg *Config) error {
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return fmt.Errorf("parsing embedded defaults: %w", err)
	}
	return nil
}

// readLegacyFile collects "name = value" pairs, stripping '!' and '#'
// comments. The first occurrence of a key wins, matching the
// first-match-per-lookup semantics of line-scanning readers.
func readLegacyFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: cannot access parameter file %q: %w", path, err)
	}
	defer f.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		eq := strings.Index(line, "=")
		if eq < 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		if key == "" {
			continue
		}
		val := line[eq+1:]
		if i := strings.IndexAny(val, "!#"); i >= 0 {
			val = val[:i]
		}
		val = strings.TrimSpace(val)
		if val == "" {
			continue
		}
		if _, seen := values[key]; !seen {
			values[key] = val
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: reading parameter file %q: %w", path, err)
	}
	return values, nil
}

package config

import (
	"fmt"
	"strings"

	"modernc.org/libqbe"
)

type Feature int

const (
	FeatLongIdents Feature = iota
	FeatCount
)

type Warning int

const (
	WarnOverflow Warning = iota
	WarnDivZero
	WarnUnusedValue
	WarnPedantic
	WarnExtra
	WarnCount
)

type Info struct {
	Name        string
	Enabled     bool
	Description string
}

const (
	// FrameSlots is the number of 8-byte local variable slots reserved by
	// the prologue, one per letter a..z.
	FrameSlots = 26
	SlotSize   = 8
)

type Config struct {
	Features      map[Feature]Info
	Warnings      map[Warning]Info
	FeatureMap    map[string]Feature
	WarningMap    map[string]Warning
	StdName       string
	BackendName   string
	BackendTarget string
	WordSize      int
	FrameSlots    int
}

func NewConfig() *Config {
	cfg := &Config{
		Features:    make(map[Feature]Info),
		Warnings:    make(map[Warning]Info),
		FeatureMap:  make(map[string]Feature),
		WarningMap:  make(map[string]Warning),
		StdName:     "9cc",
		BackendName: "amd64",
		WordSize:    8,
		FrameSlots:  FrameSlots,
	}

	features := map[Feature]Info{
		FeatLongIdents: {"long-idents", false, "Allow multi-character identifiers like 'foo_1'."},
	}

	warnings := map[Warning]Info{
		WarnOverflow:    {"overflow", true, "Warn when an integer constant does not fit in 64 bits."},
		WarnDivZero:     {"div-zero", true, "Warn about division by a literal zero."},
		WarnUnusedValue: {"unused-value", false, "Warn about statements that only compute a literal or variable."},
		WarnPedantic:    {"pedantic", false, "Issue all warnings demanded by the strict standard."},
		WarnExtra:       {"extra", true, "Enable extra miscellaneous warnings."},
	}

	cfg.Features, cfg.Warnings = features, warnings
	for ft, info := range features {
		cfg.FeatureMap[info.Name] = ft
	}
	for wt, info := range warnings {
		cfg.WarningMap[info.Name] = wt
	}

	return cfg
}

// SetTarget selects the backend and, for qbe, the QBE target ABI. The
// target string has the form "backend" or "backend/target".
func (c *Config) SetTarget(goos, goarch, target string) error {
	backend, qbeTarget, _ := strings.Cut(target, "/")
	switch backend {
	case "", "amd64":
		if qbeTarget != "" {
			return fmt.Errorf("backend 'amd64' does not take a target, got '%s'", target)
		}
		c.BackendName, c.BackendTarget = "amd64", "amd64_sysv"
	case "qbe":
		c.BackendName = "qbe"
		if qbeTarget == "" {
			qbeTarget = libqbe.DefaultTarget(goos, goarch)
		}
		c.BackendTarget = qbeTarget
	default:
		return fmt.Errorf("unsupported backend '%s'. Supported: 'amd64', 'qbe'", backend)
	}

	switch c.BackendTarget {
	case "amd64_sysv", "amd64_apple", "arm64", "arm64_apple", "rv64":
		c.WordSize = 8
	default:
		return fmt.Errorf("unsupported QBE target '%s'", c.BackendTarget)
	}
	return nil
}

func (c *Config) SetFeature(ft Feature, enabled bool) {
	if info, ok := c.Features[ft]; ok {
		info.Enabled = enabled
		c.Features[ft] = info
	}
}

func (c *Config) IsFeatureEnabled(ft Feature) bool { return c.Features[ft].Enabled }

func (c *Config) SetWarning(wt Warning, enabled bool) {
	if info, ok := c.Warnings[wt]; ok {
		info.Enabled = enabled
		c.Warnings[wt] = info
	}
}

func (c *Config) IsWarningEnabled(wt Warning) bool { return c.Warnings[wt].Enabled }

// FrameSize is the number of bytes the prologue reserves for locals.
func (c *Config) FrameSize() int { return c.FrameSlots * SlotSize }

// ApplyStd switches between the strict 9cc language and the 9ccx
// dialect with long identifiers.
func (c *Config) ApplyStd(stdName string) error {
	switch stdName {
	case "9cc":
		c.SetFeature(FeatLongIdents, false)
		if c.IsWarningEnabled(WarnPedantic) {
			c.SetWarning(WarnUnusedValue, true)
		}
	case "9ccx":
		c.SetFeature(FeatLongIdents, true)
	default:
		return fmt.Errorf("unsupported standard '%s'. Supported: '9cc', '9ccx'", stdName)
	}
	c.StdName = stdName
	return nil
}

// ApplyFlag applies a single -W or -F style flag. Unknown names are
// reported so the driver can warn about them.
func (c *Config) ApplyFlag(flag string) error {
	trimmed := strings.TrimPrefix(flag, "-")
	isNo := strings.HasPrefix(trimmed, "Wno-") || strings.HasPrefix(trimmed, "Fno-")
	enable := !isNo

	var name string
	var isWarning bool

	switch {
	case strings.HasPrefix(trimmed, "W"):
		name = strings.TrimPrefix(trimmed, "W")
		if isNo {
			name = strings.TrimPrefix(name, "no-")
		}
		isWarning = true
	case strings.HasPrefix(trimmed, "F"):
		name = strings.TrimPrefix(trimmed, "F")
		if isNo {
			name = strings.TrimPrefix(name, "no-")
		}
	default:
		name = trimmed
		isWarning = true
	}

	if name == "all" && isWarning {
		for i := Warning(0); i < WarnCount; i++ {
			if i != WarnPedantic {
				c.SetWarning(i, enable)
			}
		}
		return nil
	}

	if isWarning {
		if w, ok := c.WarningMap[name]; ok {
			c.SetWarning(w, enable)
			return nil
		}
		return fmt.Errorf("unknown warning '%s'", name)
	}
	if f, ok := c.FeatureMap[name]; ok {
		c.SetFeature(f, enable)
		return nil
	}
	return fmt.Errorf("unknown feature '%s'", name)
}

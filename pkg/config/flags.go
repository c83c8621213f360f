package config

import (
	"github.com/ninecc/ninecc/pkg/cli"
)

// FlagGroups holds the -W and -F switches registered on a FlagSet until
// they are applied on top of the selected standard.
type FlagGroups struct {
	warnAll      bool
	warnOn       []bool
	warnOff      []bool
	featOn       []bool
	featOff      []bool
	warnDefaults []bool
	featDefaults []bool
	unknownW     []string
	unknownF     []string
}

// SetupFlagGroups registers one -W<name>/-Wno-<name> pair per warning and
// one -F<name>/-Fno-<name> pair per feature, plus -Wall.
func (c *Config) SetupFlagGroups(fs *cli.FlagSet) *FlagGroups {
	g := &FlagGroups{
		warnOn:       make([]bool, WarnCount),
		warnOff:      make([]bool, WarnCount),
		featOn:       make([]bool, FeatCount),
		featOff:      make([]bool, FeatCount),
		warnDefaults: make([]bool, WarnCount),
		featDefaults: make([]bool, FeatCount),
	}

	var warnEntries []cli.FlagGroupEntry
	warnEntries = append(warnEntries, cli.FlagGroupEntry{
		Name: "all", Prefix: "W", Usage: "Enable every warning except pedantic.", Enabled: &g.warnAll,
	})
	for i := Warning(0); i < WarnCount; i++ {
		info := c.Warnings[i]
		g.warnOn[i], g.warnDefaults[i] = info.Enabled, info.Enabled
		warnEntries = append(warnEntries, cli.FlagGroupEntry{
			Name: info.Name, Prefix: "W", Usage: info.Description,
			Enabled: &g.warnOn[i], Disabled: &g.warnOff[i],
		})
	}

	var featEntries []cli.FlagGroupEntry
	for i := Feature(0); i < FeatCount; i++ {
		info := c.Features[i]
		g.featOn[i], g.featDefaults[i] = info.Enabled, info.Enabled
		featEntries = append(featEntries, cli.FlagGroupEntry{
			Name: info.Name, Prefix: "F", Usage: info.Description,
			Enabled: &g.featOn[i], Disabled: &g.featOff[i],
		})
	}

	fs.AddFlagGroup("Warning Flags", "warning", warnEntries)
	fs.AddFlagGroup("Feature Flags", "feature", featEntries)
	fs.Special(&g.unknownW, "W", "Enable or disable a warning", "warning")
	fs.Special(&g.unknownF, "F", "Enable or disable a feature", "feature")
	return g
}

// ApplyFlagGroups applies the parsed switches. Only switches that moved
// away from their default take effect, so a standard selected earlier is
// not overridden by untouched flags. -Wall is applied before the
// individual -Wno- switches.
func (c *Config) ApplyFlagGroups(g *FlagGroups) error {
	for _, name := range g.unknownW {
		if err := c.ApplyFlag("-W" + name); err != nil {
			return err
		}
	}
	for _, name := range g.unknownF {
		if err := c.ApplyFlag("-F" + name); err != nil {
			return err
		}
	}

	if g.warnAll {
		if err := c.ApplyFlag("-Wall"); err != nil {
			return err
		}
	}
	for i := Warning(0); i < WarnCount; i++ {
		if g.warnOn[i] != g.warnDefaults[i] {
			c.SetWarning(i, g.warnOn[i])
		}
		if g.warnOff[i] {
			c.SetWarning(i, false)
		}
	}
	for i := Feature(0); i < FeatCount; i++ {
		if g.featOn[i] != g.featDefaults[i] {
			c.SetFeature(i, g.featOn[i])
		}
		if g.featOff[i] {
			c.SetFeature(i, false)
		}
	}
	return nil
}

package settings

import (
	"fmt"
	"sort"

	"github.com/julianstephens/atoms/internal/cli"
	"github.com/julianstephens/atoms/internal/constants"
	"github.com/julianstephens/atoms/internal/models"
	"github.com/julianstephens/atoms/internal/validation"
)

type SettingsCmd struct {
	List bool              `help:"List current settings."`
	Set  map[string]string `help:"Update a setting (key=value). Repeatable."`
}

var settingKeys = func() map[string]bool {
	keys := make(map[string]bool)
	for k := range models.SettingsToMap(models.DefaultSettings()) {
		keys[k] = true
	}
	return keys
}()

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Settings()
	if err != nil {
		return err
	}

	if c.List || len(c.Set) == 0 {
		if !c.List {
			fmt.Println("No changes specified. Use --set key=value to update a setting.")
			fmt.Println()
		}
		printSettings(settings)
		return nil
	}

	values := models.SettingsToMap(settings)
	for key, value := range c.Set {
		if !settingKeys[key] {
			return fmt.Errorf("unknown setting %q", key)
		}
		if key == constants.SettingSyncEnabled && value != "true" && value != "false" {
			return fmt.Errorf("sync_enabled must be true or false")
		}
		values[key] = value
	}

	updated, err := models.MapToSettings(values)
	if err != nil {
		return err
	}
	if err := validation.Settings(updated); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	if err := ctx.SaveSettings(updated); err != nil {
		return err
	}
	fmt.Println("Settings updated successfully.")
	return nil
}

func printSettings(s models.Settings) {
	values := models.SettingsToMap(s)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Println("Current Settings:")
	for _, k := range keys {
		fmt.Printf("  %-20s %s\n", k+":", values[k])
	}
}

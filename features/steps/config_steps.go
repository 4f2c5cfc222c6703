//go:build integration

package steps

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"video-processing/infrastructure/config"

	"github.com/cucumber/godog"
)

type configContext struct {
	tempDir    string
	configPath string
	cfg        *config.Config
	err        error
}

// SharedConfigContext is reset before each scenario via After hook
var SharedConfigContext = &configContext{}

func InitializeConfigScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		dir, err := os.MkdirTemp("", "config-test-*")
		if err != nil {
			return c, err
		}
		SharedConfigContext = &configContext{
			tempDir:    dir,
			configPath: filepath.Join(dir, "config.yaml"),
		}
		return c, nil
	})

	// Reset context after each scenario
	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if SharedConfigContext.tempDir != "" {
			os.RemoveAll(SharedConfigContext.tempDir)
		}
		SharedConfigContext = &configContext{}
		return c, nil
	})

	ctx.Step(`^a configuration file containing:$`, aConfigurationFileContaining)
	ctx.Step(`^no configuration file exists$`, noConfigurationFileExists)
	ctx.Step(`^I load the configuration$`, iLoadTheConfiguration)
	ctx.Step(`^I load the configuration or defaults$`, iLoadTheConfigurationOrDefaults)
	ctx.Step(`^I set config "([^"]*)" to "([^"]*)"$`, iSetConfigTo)
	ctx.Step(`^the config value "([^"]*)" should be "([^"]*)"$`, theConfigValueShouldBe)
	ctx.Step(`^the saved config value "([^"]*)" should be "([^"]*)"$`, theSavedConfigValueShouldBe)
	ctx.Step(`^the configuration should be rejected$`, theConfigurationShouldBeRejected)
}

func aConfigurationFileContaining(doc *godog.DocString) error {
	return os.WriteFile(SharedConfigContext.configPath, []byte(doc.Content), 0644)
}

func noConfigurationFileExists() error {
	_ = os.Remove(SharedConfigContext.configPath)
	return nil
}

func iLoadTheConfiguration() error {
	c := SharedConfigContext
	c.cfg, c.err = config.Load(c.configPath)
	return nil
}

func iLoadTheConfigurationOrDefaults() error {
	c := SharedConfigContext
	c.cfg, c.err = config.LoadOrDefault(c.configPath)
	return nil
}

func iSetConfigTo(key, value string) error {
	c := SharedConfigContext
	if c.cfg == nil {
		return fmt.Errorf("configuration not loaded: %v", c.err)
	}
	c.err = config.NewConfigManager(c.cfg, c.configPath).Set(key, value)
	return nil
}

func theConfigValueShouldBe(key, want string) error {
	c := SharedConfigContext
	if c.err != nil {
		return fmt.Errorf("unexpected error: %v", c.err)
	}
	got, err := config.NewConfigManager(c.cfg, c.configPath).Get(key)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("expected %s to be %q, got %q", key, want, got)
	}
	return nil
}

func theSavedConfigValueShouldBe(key, want string) error {
	c := SharedConfigContext
	saved, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	got, err := config.NewConfigManager(saved, c.configPath).Get(key)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("expected saved %s to be %q, got %q", key, want, got)
	}
	return nil
}

func theConfigurationShouldBeRejected() error {
	if SharedConfigContext.err == nil {
		return fmt.Errorf("expected an error")
	}
	return nil
}

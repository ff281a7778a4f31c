package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"packline/internal/config"
	"packline/internal/station"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// withStation opens the station for one command. Mutating commands pass
// exclusive so they hold the station lock while they run.
func (c *commandContext) withStation(exclusive bool, fn func(*station.Station) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	s, err := station.Open(cfg)
	if err != nil {
		return err
	}
	defer s.Close()
	if exclusive {
		if err := s.Lock(); err != nil {
			return err
		}
	}
	return fn(s)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

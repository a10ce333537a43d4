package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ChannelDef is one static channel entry in the channels document.
// Script is a file name relative to the configured script directory; an
// empty or broken reference leaves the channel without hooks.
type ChannelDef struct {
	ID     uint16 `yaml:"id"`
	Name   string `yaml:"name"`
	Public bool   `yaml:"public"`
	Script string `yaml:"script,omitempty"`
}

type channelsFile struct {
	Channels []ChannelDef `yaml:"channels"`
}

// LoadChannels parses the static channel definitions document.
func LoadChannels(path string) ([]ChannelDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read channels file: %w", err)
	}

	var doc channelsFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse channels file: %w", err)
	}

	for i, def := range doc.Channels {
		if def.Name == "" {
			return nil, fmt.Errorf("channel entry %d: missing name", i)
		}
	}
	return doc.Channels, nil
}

// Package config loads the agenda-extractor configuration.
//
// Values come from three layers, later layers winning: the YAML file
// (gopkg.in/yaml.v3), environment variables, and command-line flags applied
// by the cmd package. A missing file is not an error; the defaults describe
// a working setup for the original group calendar.
package config

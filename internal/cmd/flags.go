// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mia-platform/chirp/pkg/chirp"
)

const (
	configFlagName  = "config"
	configFlagShort = "c"
	configFlagUsage = "Path to a YAML file configuring the logger and its transports. Environment variables prefixed with CHIRP_ override it."

	levelFlagName  = "level"
	levelFlagShort = "l"
	levelFlagUsage = "Level of the emitted entries"

	fieldFlagName  = "field"
	fieldFlagShort = "f"
	fieldFlagUsage = "Extra field added to every entry, in the key=value form. Can be specified multiple times."

	nameFlagName  = "name"
	nameFlagUsage = "Logger name, overrides the one set in the configuration"
)

// configFlags collects the CLI options shared by every command.
type configFlags struct {
	configPath string
}

// addFlags registers the CLI flags on cmd.
func (f *configFlags) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.configPath, configFlagName, configFlagShort, "", configFlagUsage)
}

// emitFlags collects the CLI options of the emit command.
type emitFlags struct {
	configFlags

	level  string
	fields []string
	name   string
}

// addFlags registers the CLI flags on cmd.
func (f *emitFlags) addFlags(cmd *cobra.Command) {
	f.configFlags.addFlags(cmd)
	cmd.Flags().StringVarP(&f.level, levelFlagName, levelFlagShort, chirp.INFO.String(), levelFlagUsage)
	cmd.Flags().StringArrayVarP(&f.fields, fieldFlagName, fieldFlagShort, nil, fieldFlagUsage)
	cmd.Flags().StringVar(&f.name, nameFlagName, "", nameFlagUsage)
}

// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/mia-platform/chirp/pkg/chirp"
)

const (
	loggerName = "chirp:cmd"

	emitCmdUsage = "emit [MESSAGE...]"
	emitCmdShort = "write log entries through the configured transports"
	emitCmdLong  = `Write one log entry for every message through the configured transports.
	When no message is passed as argument, every non empty line read from the
	standard input becomes a message.

	The transports are flushed before the command exits, so buffered network
	batches are delivered.`

	emitCmdExample = `# Emit a warning with two extra fields
	chirp emit --level warn --field user=42 --field retry=true "payment declined"

	# Emit every line of a file using a configuration file
	chirp emit -c chirp.yaml < app.log`

	storeCmdUsage = "store"
	storeCmdShort = "inspect the durable log store"
	storeCmdLong  = `Inspect the entries persisted by the durable transport.
	The store is opened with the durable configuration, even when the durable
	transport itself is disabled.`

	storeGetCmdUsage    = "get"
	storeGetCmdShort    = "print the persisted entries as a JSON array"
	storeExportCmdUsage = "export"
	storeExportCmdShort = "print the persisted entries, one JSON document per line"
	storeClearCmdUsage  = "clear"
	storeClearCmdShort  = "remove every persisted entry"

	collectCmdUsage = "collect"
	collectCmdShort = "receive log batches over HTTP"
	collectCmdLong  = `Start an HTTP server receiving the batches sent by the network transport
	and write the received entries through the configured transports.

	The server is configured by the HTTP_HOST, HTTP_PORT, COLLECTOR_PATH,
	BODY_LIMIT and DISABLE_STARTUP_MESSAGE environment variables.`

	collectCmdExample = `# Collect the batches on port 8080 and persist them
	HTTP_PORT=8080 CHIRP_DURABLE_ENABLED=true chirp collect`
)

// EmitCmd returns the Cobra command that writes log entries.
func EmitCmd() *cobra.Command {
	flags := &emitFlags{}
	cmd := &cobra.Command{
		Use:     emitCmdUsage,
		Short:   heredoc.Doc(emitCmdShort),
		Long:    heredoc.Doc(emitCmdLong),
		Example: heredoc.Doc(emitCmdExample),

		SilenceErrors: true,
		SilenceUsage:  true,

		ValidArgsFunction: cobra.NoFileCompletions,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.toOptions(args, cmd.InOrStdin(), outputsFor(cmd))
			if err != nil {
				return handleError(cmd, err)
			}

			if err := opts.validate(); err != nil {
				return handleError(cmd, err)
			}

			if err := opts.execute(cmd.Context()); err != nil {
				return handleError(cmd, err)
			}

			return nil
		},
	}

	flags.addFlags(cmd)
	_ = cmd.RegisterFlagCompletionFunc(levelFlagName, levelCompletion)
	return cmd
}

// StoreCmd returns the Cobra command grouping the durable store operations.
func StoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   storeCmdUsage,
		Short: heredoc.Doc(storeCmdShort),
		Long:  heredoc.Doc(storeCmdLong),

		SilenceErrors: true,
		SilenceUsage:  true,

		ValidArgsFunction: cobra.NoFileCompletions,
	}

	cmd.AddCommand(
		storeActionCmd(storeGetCmdUsage, storeGetCmdShort, storeGet),
		storeActionCmd(storeExportCmdUsage, storeExportCmdShort, storeExport),
		storeActionCmd(storeClearCmdUsage, storeClearCmdShort, storeClear),
	)
	return cmd
}

func storeActionCmd(use, short string, action storeAction) *cobra.Command {
	flags := &configFlags{}
	cmd := &cobra.Command{
		Use:   use,
		Short: heredoc.Doc(short),

		SilenceErrors: true,
		SilenceUsage:  true,

		Args:              cobra.NoArgs,
		ValidArgsFunction: cobra.NoFileCompletions,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := flags.toStoreOptions(action, outputsFor(cmd))
			if err != nil {
				return handleError(cmd, err)
			}

			if err := opts.execute(); err != nil {
				return handleError(cmd, err)
			}

			return nil
		},
	}

	flags.addFlags(cmd)
	return cmd
}

// CollectCmd returns the Cobra command that starts the collector server.
func CollectCmd() *cobra.Command {
	flags := &configFlags{}
	cmd := &cobra.Command{
		Use:     collectCmdUsage,
		Short:   heredoc.Doc(collectCmdShort),
		Long:    heredoc.Doc(collectCmdLong),
		Example: heredoc.Doc(collectCmdExample),

		SilenceErrors: true,
		SilenceUsage:  true,

		Args:              cobra.NoArgs,
		ValidArgsFunction: cobra.NoFileCompletions,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := flags.toCollectOptions(outputsFor(cmd))
			if err != nil {
				return handleError(cmd, err)
			}

			if err := opts.execute(cmd.Context()); err != nil {
				return handleError(cmd, err)
			}

			return nil
		},
	}

	flags.addFlags(cmd)
	return cmd
}

// levelCompletion provides shell completion for the level flag.
func levelCompletion(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var comps []string
	for _, level := range chirp.Levels() {
		name := strings.ToLower(level.String())
		if strings.HasPrefix(name, strings.ToLower(toComplete)) {
			comps = append(comps, name)
		}
	}

	return comps, cobra.ShellCompDirectiveNoFileComp
}

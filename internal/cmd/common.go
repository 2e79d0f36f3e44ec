// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mia-platform/chirp/internal/config"
	"github.com/mia-platform/chirp/internal/logger"
	"github.com/mia-platform/chirp/pkg/chirp"
)

var (
	errNoMessages   = errors.New("no message to emit")
	errInvalidField = errors.New("invalid field, expected key=value")
)

// handleError will do custom print error handling based on the type of error received.
// it will return nil if the command must return 0 exit code, otherwise it will return
// the original error.
func handleError(cmd *cobra.Command, err error) error {
	switch {
	case errors.Is(err, errNoMessages):
		_ = cmd.Usage() // do not check error as we cannot do much about it
		return nil
	case errors.Is(err, errInvalidField), errors.Is(err, chirp.ErrUnknownLevel):
		cmd.PrintErrln(err)
		_ = cmd.Usage() // do not check error as we cannot do much about it
		return err
	default:
		cmd.PrintErrln(err)
		return err
	}
}

// outputsFor returns the outputs of cmd, with the diagnostics logger found in
// its context receiving the transport warnings.
func outputsFor(cmd *cobra.Command) config.Outputs {
	return config.Outputs{
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
		Warner: logger.FromContext(cmd.Context()).WithName(loggerName),
	}
}

// parseFields converts a list of key=value pairs into log fields. Values that
// are valid JSON keep their type, everything else is a string.
func parseFields(pairs []string) (chirp.Fields, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	fields := make(chirp.Fields, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			return nil, fmt.Errorf("%w: %q", errInvalidField, pair)
		}

		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err != nil {
			decoded = value
		}
		fields[key] = decoded
	}

	return fields, nil
}

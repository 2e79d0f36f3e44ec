// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mia-platform/chirp/internal/config"
	"github.com/mia-platform/chirp/internal/logger"
	"github.com/mia-platform/chirp/internal/server"
	"github.com/mia-platform/chirp/pkg/chirp"
)

// emitOptions writes messages through the configured transports.
type emitOptions struct {
	config   *config.Config
	outputs  config.Outputs
	level    chirp.Level
	fields   chirp.Fields
	messages []string
	input    io.Reader
}

// toOptions builds an emitOptions instance from the parsed flags and CLI arguments.
func (f *emitFlags) toOptions(args []string, input io.Reader, outputs config.Outputs) (*emitOptions, error) {
	level, err := chirp.ParseLevel(f.level)
	if err != nil {
		return nil, err
	}

	fields, err := parseFields(f.fields)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.name != "" {
		cfg.Name = f.name
	}

	return &emitOptions{
		config:   cfg,
		outputs:  outputs,
		level:    level,
		fields:   fields,
		messages: args,
		input:    input,
	}, nil
}

// validate reads the messages from the input when none is passed as argument.
func (o *emitOptions) validate() error {
	if len(o.messages) == 0 && o.input != nil {
		scanner := bufio.NewScanner(o.input)
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				o.messages = append(o.messages, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("reading messages: %w", err)
		}
	}

	if len(o.messages) == 0 {
		return errNoMessages
	}
	return nil
}

// execute emits every message and then closes the transports, waiting for the
// pending network deliveries.
func (o *emitOptions) execute(ctx context.Context) error {
	log := logger.FromContext(ctx).WithName(loggerName)

	runtime, err := o.config.Build(o.outputs)
	if err != nil {
		return err
	}

	// messages are written verbatim, never used as format templates
	for _, message := range o.messages {
		runtime.Logger.Log(o.level, o.fields, "%s", message)
	}

	log.Debug("messages emitted", "count", len(o.messages), "level", o.level.String())
	return runtime.Close()
}

type storeAction int

const (
	storeGet storeAction = iota
	storeExport
	storeClear
)

// storeOptions reads or clears the durable store.
type storeOptions struct {
	config  *config.Config
	outputs config.Outputs
	action  storeAction
}

func (f *configFlags) toStoreOptions(action storeAction, outputs config.Outputs) (*storeOptions, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}

	return &storeOptions{
		config:  cfg,
		outputs: outputs,
		action:  action,
	}, nil
}

func (o *storeOptions) execute() error {
	store, err := o.config.NewDurable(o.outputs.Warner)
	if err != nil {
		return err
	}

	var result *multierror.Error
	switch o.action {
	case storeGet:
		encoder := json.NewEncoder(o.outputs.Stdout)
		encoder.SetIndent("", "  ")
		result = multierror.Append(result, encoder.Encode(store.GetLogs()))
	case storeExport:
		if exported := store.Export(); exported != "" {
			_, err := fmt.Fprintln(o.outputs.Stdout, exported)
			result = multierror.Append(result, err)
		}
	case storeClear:
		store.Clear()
	}

	result = multierror.Append(result, store.Close())
	return result.ErrorOrNil()
}

// collectOptions runs the collector server until the context is done or a
// termination signal is received.
type collectOptions struct {
	config       *config.Config
	serverConfig *server.Config
	outputs      config.Outputs
}

func (f *configFlags) toCollectOptions(outputs config.Outputs) (*collectOptions, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}

	serverConfig, err := server.LoadServerConfig()
	if err != nil {
		return nil, err
	}

	return &collectOptions{
		config:       cfg,
		serverConfig: serverConfig,
		outputs:      outputs,
	}, nil
}

func (o *collectOptions) execute(ctx context.Context) error {
	log := logger.FromContext(ctx).WithName(loggerName)

	runtime, err := o.config.Build(o.outputs)
	if err != nil {
		return err
	}

	var collectors []prometheus.Collector
	if runtime.Metrics != nil {
		collectors = runtime.Metrics.Collectors()
	}

	srv, err := server.NewServer(ctx, *o.serverConfig, runtime.Logger, collectors...)
	if err != nil {
		return multierror.Append(err, runtime.Close()).ErrorOrNil()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	var result *multierror.Error
	select {
	case err := <-errChan:
		result = multierror.Append(result, err)
	case <-ctx.Done():
		log.Info("shutting down collector")
		result = multierror.Append(result, srv.Stop())
		result = multierror.Append(result, <-errChan)
	}

	result = multierror.Append(result, runtime.Close())
	return result.ErrorOrNil()
}

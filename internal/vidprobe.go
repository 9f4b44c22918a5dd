package internal

import (
	"context"
	"fmt"
	"sync"

	"github.com/hbomb79/vidprobe/internal/api"
	"github.com/hbomb79/vidprobe/internal/config"
	"github.com/hbomb79/vidprobe/internal/library"
	"github.com/hbomb79/vidprobe/internal/probe"
	"github.com/hbomb79/vidprobe/internal/scan"
	"github.com/hbomb79/vidprobe/pkg/logger"
)

var log = logger.Get("Core")

type (
	RunnableService interface {
		Run(context.Context) error
	}

	// vidprobeImpl represents the top-level object for the server, and is
	// responsible for constructing the library and the services which
	// expose it.
	vidprobeImpl struct {
		config      config.Config
		library     *library.Library
		restGateway RunnableService
	}
)

// NewScanner constructs a Scanner, and the Prober it uses, from the
// configuration provided.
func NewScanner(config config.Config) (*scan.Scanner, error) {
	prober, err := probe.New(config.Probe)
	if err != nil {
		return nil, fmt.Errorf("failed to construct prober: %w", err)
	}

	return scan.New(prober, scan.Config{Concurrency: config.Concurrency}), nil
}

func New(config config.Config) (*vidprobeImpl, error) {
	log.Emit(logger.DEBUG, "Bootstrapping services using config: %#v\n", config)
	scanner, err := NewScanner(config)
	if err != nil {
		return nil, err
	}

	lib := library.New(config.DataRoot, config.OutputName, scanner)
	return &vidprobeImpl{
		config:      config,
		library:     lib,
		restGateway: api.NewRestGateway(&api.RestConfig{HostAddr: config.HostAddr, DataRoot: config.DataRoot}, lib),
	}, nil
}

// Run starts the services and blocks until they have all stopped. To
// stop, the provided context must be cancelled. A service crashing will
// also cause all other services to stop, in which case the crash is
// returned.
func (vidprobe *vidprobeImpl) Run(parent context.Context) error {
	if _, err := vidprobe.library.ListFolders(); err != nil {
		return fmt.Errorf("data root is not usable: %w", err)
	}

	ctx, cancel := context.WithCancelCause(parent)
	defer cancel(nil)

	crashHandler := func(label string, err error) {
		log.Emit(logger.FATAL, "Service crash (%s)! %s\n", label, err.Error())
		cancel(fmt.Errorf("%s crashed: %w", label, err))
	}

	wg := &sync.WaitGroup{}
	vidprobe.spawnAsyncService(ctx, wg, vidprobe.restGateway, "rest-gateway", crashHandler)
	log.Emit(logger.SUCCESS, "Services spawned, serving folders from '%s'\n", vidprobe.config.DataRoot)

	wg.Wait()
	if cause := context.Cause(ctx); cause != ctx.Err() {
		return cause
	}

	return nil
}

// spawnAsyncService will run the provided service as it's own go-routine,
// ensuring that the service waitgroup is updated correctly
func (vidprobe *vidprobeImpl) spawnAsyncService(ctx context.Context, wg *sync.WaitGroup, service RunnableService, serviceLabel string, crashHandler func(string, error)) {
	log.Emit(logger.NEW, "Spawning %s\n", serviceLabel)
	wg.Add(1)

	go func(wg *sync.WaitGroup, label string, crash func(string, error)) {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				crash(label, fmt.Errorf("panic %v", r))
			}
		}()

		if err := service.Run(ctx); err != nil {
			crash(label, err)
		}
	}(wg, serviceLabel, crashHandler)
}

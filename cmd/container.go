package cmd

import (
	"fmt"

	"go.uber.org/dig"

	"github.com/cmccoy02/bridge-engine/application"
	"github.com/cmccoy02/bridge-engine/config"
	"github.com/cmccoy02/bridge-engine/domain"
	"github.com/cmccoy02/bridge-engine/infrastructure/jobstore"
	"github.com/cmccoy02/bridge-engine/infrastructure/pipeline"
	providerPkg "github.com/cmccoy02/bridge-engine/infrastructure/provider"
	ghProv "github.com/cmccoy02/bridge-engine/infrastructure/provider/github"
	"github.com/cmccoy02/bridge-engine/infrastructure/registry"
	"github.com/cmccoy02/bridge-engine/internal/prioritizer"
)

// services bundles everything a command needs, resolved from the container.
type services struct {
	Scan   *application.ScanService
	Update *application.UpdateService
	Store  *jobstore.SQLiteStore
}

// Close releases the resources held by the resolved services.
func (s *services) Close() {
	if s.Store != nil {
		_ = s.Store.Close()
	}
}

// buildServices wires the application graph via DIG.
func buildServices(cfg *config.Config) (*services, error) {
	container := dig.New()

	constructors := []any{
		func() *config.Config { return cfg },
		newProviderRegistry,
		newProvider,
		newStore,
		func(store *jobstore.SQLiteStore) domain.JobStore { return store },
		newMetadataSource,
		prioritizer.New,
		func() pipeline.Runner { return pipeline.NewExecRunner() },
		newPipeline,
		func(p *pipeline.Pipeline) application.UpdateExecutor { return p },
		application.NewScanService,
		application.NewUpdateService,
	}
	for _, constructor := range constructors {
		if err := container.Provide(constructor); err != nil {
			return nil, fmt.Errorf("failed to build service container: %w", err)
		}
	}

	var resolved *services
	err := container.Invoke(func(
		scan *application.ScanService,
		update *application.UpdateService,
		store *jobstore.SQLiteStore,
	) {
		resolved = &services{Scan: scan, Update: update, Store: store}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve services: %w", err)
	}
	return resolved, nil
}

func newProviderRegistry() *providerPkg.Registry {
	reg := providerPkg.NewRegistry()
	reg.Register("github", ghProv.New)
	return reg
}

func newProvider(cfg *config.Config, reg *providerPkg.Registry) (domain.Provider, error) {
	return reg.Get(cfg.Provider.Type, cfg.Provider.Token)
}

func newStore(cfg *config.Config) (*jobstore.SQLiteStore, error) {
	return jobstore.Open(cfg.Store.Path)
}

func newMetadataSource(cfg *config.Config) domain.MetadataSource {
	var opts []registry.Option
	if cfg.Registry.BaseURL != "" {
		opts = append(opts, registry.WithBaseURL(cfg.Registry.BaseURL))
	}
	if cfg.Registry.Timeout > 0 {
		opts = append(opts, registry.WithTimeout(cfg.Registry.Timeout.Std()))
	}
	if cfg.Registry.BatchSize > 0 {
		opts = append(opts, registry.WithBatchSize(cfg.Registry.BatchSize))
	}
	return registry.NewClient(opts...)
}

func newPipeline(cfg *config.Config, store domain.JobStore, prov domain.Provider) *pipeline.Pipeline {
	return pipeline.New(store, prov, pipeline.Options{
		WorkRoot:       cfg.Pipeline.WorkDir,
		BranchName:     cfg.Pipeline.Branch,
		NPMBin:         cfg.Pipeline.NPMBin,
		CommandTimeout: cfg.Pipeline.CommandTimeout.Std(),
	})
}

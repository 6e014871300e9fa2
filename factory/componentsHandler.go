package factory

import (
	"github.com/ruvasqm/rate-tray/api"
	"github.com/ruvasqm/rate-tray/config"
	"github.com/ruvasqm/rate-tray/engine"
	"github.com/ruvasqm/rate-tray/fetcher"
	"github.com/ruvasqm/rate-tray/render"
	"github.com/ruvasqm/rate-tray/storage"
)

type componentsHandler struct {
	store     Store
	scheduler Scheduler
	server    Server
}

// NewComponentsHandler creates a new components handler. A store that fails
// integrity checks aborts construction: the process must not silently start
// with a fresh history.
func NewComponentsHandler(
	cfg config.Config,
	sourceAPIKey string,
	historyAPIKey string,
) (*componentsHandler, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.Path, cfg.Storage.RetentionSeconds)
	if err != nil {
		return nil, err
	}

	fetch := fetcher.NewHTTPFetcher(cfg.Source, sourceAPIKey)

	rend, err := render.NewIconRenderer(cfg.Source.Name, cfg.Icon)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	sched, err := engine.NewScheduler(cfg.Poll, fetch, store, rend)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	ch := &componentsHandler{
		store:     store,
		scheduler: sched,
	}

	if cfg.API.Enabled {
		server, errServer := api.NewServer(api.ArgsWebServer{
			ListenAddress: cfg.API.ListenAddress,
			ServiceKeyApi: historyAPIKey,
			Storage:       store,
		})
		if errServer != nil {
			_ = store.Close()
			return nil, errServer
		}
		ch.server = server
	}

	return ch, nil
}

// GetStore returns the storage component
func (ch *componentsHandler) GetStore() Store {
	return ch.store
}

// GetScheduler returns the polling scheduler component
func (ch *componentsHandler) GetScheduler() Scheduler {
	return ch.scheduler
}

// GetServer returns the history API component, nil when disabled
func (ch *componentsHandler) GetServer() Server {
	return ch.server
}

// Start starts the inner components
func (ch *componentsHandler) Start() {
	ch.scheduler.Start()

	if ch.server != nil {
		ch.server.Start()
	}
}

// Close closes the inner components
func (ch *componentsHandler) Close() {
	ch.scheduler.Close()

	if ch.server != nil {
		_ = ch.server.Close()
	}

	_ = ch.store.Close()
}

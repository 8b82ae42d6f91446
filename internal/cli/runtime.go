package cli

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/qudud-dev/qudud/internal/backend"
	"github.com/qudud-dev/qudud/internal/config"
	"github.com/qudud-dev/qudud/internal/conversation"
	qlog "github.com/qudud-dev/qudud/internal/log"
)

// runtime bundles what a command needs to hold a conversation.
type runtime struct {
	cfg    *config.Config
	logger *zap.Logger
	client *backend.Client
	ctrl   *conversation.Controller
}

// openRuntime loads configuration for projectRoot, applies flag overrides,
// and wires the HTTP client and controller. Extra controller options are
// applied after the configured ones.
func openRuntime(projectRoot string, opts *globalOptions, ctrlOpts ...conversation.Option) (*runtime, error) {
	cfg, err := config.Load(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if opts.apiURL != "" {
		cfg.Backend.APIURL = opts.apiURL
	}
	if opts.debug {
		cfg.Log.Enabled = true
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := qlog.Nop()
	if cfg.Log.Enabled {
		logger, err = qlog.NewLogger(projectRoot, cfg.Log.Level)
		if err != nil {
			return nil, fmt.Errorf("opening log: %w", err)
		}
	}

	client := backend.NewClient(cfg.Backend.APIURL, backend.WithTimeout(cfg.Backend.Timeout()))
	logger = logger.With(zap.String("client_session", client.SessionID()))
	logger.Debug("runtime ready",
		zap.String("api_url", cfg.Backend.APIURL),
		zap.Duration("timeout", cfg.Backend.Timeout()),
	)

	all := append([]conversation.Option{
		conversation.WithLogger(logger),
		conversation.WithTimeout(cfg.Backend.Timeout()),
	}, ctrlOpts...)

	return &runtime{
		cfg:    cfg,
		logger: logger,
		client: client,
		ctrl:   conversation.New(client, all...),
	}, nil
}

// Close abandons any in-flight call and flushes the log.
func (r *runtime) Close() {
	r.ctrl.Close()
	_ = r.logger.Sync()
}

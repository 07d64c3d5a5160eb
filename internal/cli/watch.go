package cli

import (
	"context"
	"net/http"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/watzon/hookline/internal/config"
	"github.com/watzon/hookline/internal/metrics"
	"github.com/watzon/hookline/internal/registry"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the hookfile and revalidate on change",
	Long: `Watch keeps the hookfile under observation and revalidates it
whenever it changes. A broken edit is reported but the last good
registry is kept, so a typo never leaves the engine without hooks.
When metrics are enabled the Prometheus endpoint is served for the
lifetime of the watch.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		reloader, err := newReloader(cfg)
		if err != nil {
			return err
		}
		defer reloader.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cfg.Metrics.Enabled {
			go serveMetrics(ctx, cfg.Metrics.Addr)
		}

		log.Info().Str("file", cfg.Hooks.File).Msg("watching hookfile")
		reloader.Run(ctx)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

// reloader revalidates the hookfile on change, coalescing bursts of
// file events and keeping the last good registry on failure.
type reloader struct {
	cfg     *config.Config
	watcher *fsnotify.Watcher

	mu   sync.RWMutex
	reg  *registry.Registry
	good time.Time
}

func newReloader(cfg *config.Config) (*reloader, error) {
	reg, err := loadRegistry(cfg)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory, not the file: editors replace files by
	// rename, which drops a watch on the file itself.
	if err := watcher.Add(filepath.Dir(cfg.Hooks.File)); err != nil {
		watcher.Close()
		return nil, err
	}

	return &reloader{
		cfg:     cfg,
		watcher: watcher,
		reg:     reg,
		good:    time.Now(),
	}, nil
}

func (r *reloader) Close() error {
	return r.watcher.Close()
}

// Registry returns the current registry. Safe for concurrent use.
func (r *reloader) Registry() *registry.Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.reg
}

// Run processes file events until the context is canceled.
func (r *reloader) Run(ctx context.Context) {
	debounce := r.cfg.Watch.Debounce
	if debounce <= 0 {
		debounce = config.DefaultWatchDebounce
	}

	var timer *time.Timer
	var pending <-chan time.Time

	target := filepath.Clean(r.cfg.Hooks.File)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			r.reload()

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("hookfile watcher error")
		}
	}
}

func (r *reloader) reload() {
	reg, err := loadRegistry(r.cfg)
	if err != nil {
		log.Error().Err(err).Str("file", r.cfg.Hooks.File).
			Time("last_good", r.good).
			Msg("hookfile invalid, keeping previous hooks")
		return
	}

	r.mu.Lock()
	r.reg = reg
	r.good = time.Now()
	r.mu.Unlock()

	log.Info().Int("hooks", reg.Len()).Msg("hookfile reloaded")
}

func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("serving metrics")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("metrics server failed")
	}
}

package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sadopc/focuskit/internal/api"
	"github.com/sadopc/focuskit/internal/client"
	"github.com/sadopc/focuskit/internal/config"
	"github.com/sadopc/focuskit/internal/lockfile"
	"github.com/sadopc/focuskit/internal/logger"
	"github.com/sadopc/focuskit/internal/store"
)

const shutdownTimeout = 5 * time.Second

// Run serves the daemon until ctx is cancelled. It refuses to start when
// another live daemon owns the lockfile in cfg.Dir.
func Run(ctx context.Context, cfg *config.Config) error {
	if _, err := client.Discover(cfg.Dir); err == nil {
		return errors.New("a focuskit daemon is already running")
	}

	st, err := store.Open(cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	app := New(st, Options{Webhook: cfg.Notify.Webhook})
	defer app.Close()

	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Listen, err)
	}

	secret := uuid.NewString()
	info := lockfile.Info{
		Port:   ln.Addr().(*net.TCPAddr).Port,
		PID:    os.Getpid(),
		Secret: secret,
	}
	if err := lockfile.Write(cfg.Dir, info); err != nil {
		ln.Close()
		return err
	}
	defer func() {
		if err := lockfile.Remove(cfg.Dir); err != nil {
			logger.Warn("remove lockfile", "error", err)
		}
	}()

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// Cancelling base ends open event streams so Shutdown can finish.
	base, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	srv := &http.Server{
		Handler:           api.NewRouter(app, app.Hub, secret),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return base },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	logger.Info("daemon listening", "addr", ln.Addr().String(), "pid", info.PID)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	}

	logger.Info("daemon shutting down")
	cancelBase()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

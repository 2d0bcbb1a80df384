package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/deskmate/internal/api"
	"github.com/kalambet/deskmate/internal/config"
	"github.com/kalambet/deskmate/internal/engine"
	"github.com/kalambet/deskmate/internal/storage"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local HTTP, WebSocket and MCP server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		stdio, _ := cmd.Flags().GetBool("stdio")
		return runServer(cmd.Context(), stdio)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running deskmate server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show deskmate status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().Bool("stdio", true, "also serve MCP over stdin/stdout")
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "deskmate.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func runServer(parent context.Context, stdio bool) error {
	fmt.Fprintf(os.Stderr, "deskmate version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	apiToken, err := config.GetAPIToken(config.NewKeychain())
	if err != nil {
		return fmt.Errorf("initializing API token: %w", err)
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("deskmate is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("deskmate is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Warn("closing app", "error", err)
		}
	}()

	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	handler := api.NewHandler(api.Deps{
		Assistant:    a.assistant,
		Store:        a.store,
		Interactions: a.interactions(),
		Backend:      a.engine.Name(),
		Token:        apiToken,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("deskmate listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	if stdio {
		mcpSrv := api.NewMCPServer(api.MCPDeps{
			Assistant:    a.assistant,
			Interactions: a.interactions(),
		})
		stdioSrv := server.NewStdioServer(mcpSrv)
		g.Go(func() error {
			// A closed stdin ends MCP but leaves HTTP running.
			if err := stdioSrv.Listen(gctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("MCP stdio server error", "error", err)
			}
			return nil
		})
		slog.Info("MCP server started (stdio transport)")
	}

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	a.assistant.Wait()
	return err
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		return fmt.Errorf("deskmate is not running (no PID file): %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("could not find process %d: %w", pid, err)
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		removePIDFile(pidPath)
		return fmt.Errorf("could not stop deskmate (PID %d): %w", pid, err)
	}

	printSuccess("Sent stop signal to deskmate (PID %d)", pid)
	return nil
}

func showStatus(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	client, clientErr := newAPIClient()
	running := clientErr == nil && serverRunning(ctx, client)
	if running {
		printStatus("Server", "running on port %d", cfg.Server.Port)
	} else {
		printStatus("Server", "stopped")
	}

	eng, err := engine.New(cfg)
	if err != nil {
		printStatus("Backend", "%v", err)
	} else {
		printStatus("Backend", "%s (%s)", eng.Name(), backendState(ctx, eng))
	}

	switch cfg.Backend.Kind {
	case config.BackendGemini:
		printStatus("Model", "%s", cfg.Gemini.Model)
	case config.BackendAnthropic:
		printStatus("Model", "%s", cfg.Anthropic.Model)
	default:
		printStatus("Model", "%s", cfg.Ollama.Model)
	}

	if running {
		if resp, err := client.get(ctx, "/memory"); err == nil {
			var memory []json.RawMessage
			if decodeJSON(resp, &memory) == nil {
				printStatus("Short memory", "%d/%d", len(memory), cfg.Session.MemoryCap)
			}
		}
		if resp, err := client.get(ctx, "/interactions?limit=100"); err == nil {
			var interactions []json.RawMessage
			if decodeJSON(resp, &interactions) == nil {
				printStatus("Interactions", "%s", countLabel(len(interactions), 100))
			}
		}
	}

	printStatus("Storage", "%s", storageLabel(cfg))
	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}

// storageLabel names the storage driver, with the schema version for SQLite.
func storageLabel(cfg config.Config) string {
	store, err := openStore(cfg)
	if err != nil {
		return fmt.Sprintf("%s (%v)", cfg.Storage.Driver, err)
	}
	defer store.Close()

	if db, ok := store.(*storage.SQLiteStore); ok {
		if v, err := db.SchemaVersion(); err == nil {
			return fmt.Sprintf("%s (schema v%d)", cfg.Storage.Driver, v)
		}
	}
	return cfg.Storage.Driver
}

// backendState probes the backend. For a local Ollama server it also
// reports whether the configured model still has to be pulled.
func backendState(ctx context.Context, eng engine.Engine) string {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if !eng.IsRunning(ctx) {
		return "unavailable"
	}
	if local, ok := eng.(*engine.OllamaEngine); ok && !local.ModelInstalled(ctx) {
		return "model missing, pulled on first start"
	}
	return "ready"
}

// serverRunning reports whether a deskmate server answers /health.
func serverRunning(ctx context.Context, client *apiClient) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	resp, err := client.get(ctx, "/health")
	if err != nil {
		return false
	}
	var health map[string]string
	return decodeJSON(resp, &health) == nil && health["status"] == "ok"
}

func countLabel(count, limit int) string {
	if count >= limit {
		return fmt.Sprintf("%d+", count)
	}
	return fmt.Sprintf("%d", count)
}

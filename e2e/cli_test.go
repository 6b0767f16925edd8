package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yuqi1124/TownRecord/internal/api"
	"github.com/Yuqi1124/TownRecord/internal/factory"
	"github.com/Yuqi1124/TownRecord/internal/testutil"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
	tokenFile  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(t.TempDir(), "townctl-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/townctl")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
		tokenFile:  filepath.Join(t.TempDir(), "token"),
	}
}

func (r *cliRunner) command(output string, args ...string) *exec.Cmd {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token-file", r.tokenFile,
		"--output", output,
	}, args...)
	return exec.Command(r.binaryPath, fullArgs...)
}

func (r *cliRunner) run(args ...string) (string, error) {
	output, err := r.command("json", args...).CombinedOutput()
	return string(output), err
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// startTestServer runs the production wiring on a free local port
func startTestServer(t *testing.T) string {
	t.Helper()

	cfg := factory.DefaultConfig()
	cfg.VideoSigningKey = "e2e-signing-key"
	app, err := factory.New(cfg, testutil.NopLogger())
	require.NoError(t, err)

	serverCfg := api.DefaultServerConfig()
	serverCfg.Host = "127.0.0.1"
	serverCfg.Port = 0
	server := api.NewServer(app.Router(), serverCfg, testutil.NopLogger())

	go func() {
		if err := server.Start(); err != nil {
			t.Logf("server error: %v", err)
		}
	}()
	t.Cleanup(func() {
		_ = app.Registry.Shutdown(context.Background())
		_ = server.Shutdown(context.Background())
	})

	require.Eventually(t, func() bool {
		return !strings.HasSuffix(server.Addr(), ":0")
	}, 5*time.Second, 10*time.Millisecond)

	serverURL := "http://" + server.Addr()
	waitForServer(t, serverURL+"/api/v1/health")
	return serverURL
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// syncBuffer collects a subprocess's output while the test reads it
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Response types for JSON parsing
type createdTownResponse struct {
	TownID             string `json:"town_id"`
	TownUpdatePassword string `json:"town_update_password"`
}

type townListResponse struct {
	Towns []struct {
		TownID           string `json:"town_id"`
		FriendlyName     string `json:"friendly_name"`
		CurrentOccupancy int    `json:"current_occupancy"`
	} `json:"towns"`
}

type joinResponse struct {
	PlayerID     string `json:"player_id"`
	SessionToken string `json:"session_token"`
	VideoToken   string `json:"video_token"`
	Players      []struct {
		UserName string `json:"user_name"`
	} `json:"players"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	cli := newCLIRunner(t, startTestServer(t))

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)

	var resp healthResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestCLI_TownCommands(t *testing.T) {
	cli := newCLIRunner(t, startTestServer(t))

	output, err := cli.run("town", "create", "Main Street")
	require.NoError(t, err, "output: %s", output)
	var created createdTownResponse
	require.NoError(t, json.Unmarshal([]byte(output), &created))
	assert.Len(t, created.TownID, 6)
	assert.NotEmpty(t, created.TownUpdatePassword)

	output, err = cli.run("town", "update", created.TownID, "--password", created.TownUpdatePassword, "--name", "High Street")
	require.NoError(t, err, "output: %s", output)

	output, err = cli.run("town", "list")
	require.NoError(t, err, "output: %s", output)
	var list townListResponse
	require.NoError(t, json.Unmarshal([]byte(output), &list))
	require.Len(t, list.Towns, 1)
	assert.Equal(t, "High Street", list.Towns[0].FriendlyName)

	output, err = cli.run("town", "delete", created.TownID, "--password", "wrong")
	require.Error(t, err)
	assert.Contains(t, output, "INVALID_PASSWORD")

	output, err = cli.run("town", "delete", created.TownID, "--password", created.TownUpdatePassword)
	require.NoError(t, err, "output: %s", output)
}

func TestCLI_JoinAndWatch(t *testing.T) {
	serverURL := startTestServer(t)
	alice := newCLIRunner(t, serverURL)
	bob := &cliRunner{
		binaryPath: alice.binaryPath,
		serverURL:  serverURL,
		tokenFile:  filepath.Join(t.TempDir(), "token2"),
	}

	output, err := alice.run("town", "create", "Main Street")
	require.NoError(t, err, "output: %s", output)
	var created createdTownResponse
	require.NoError(t, json.Unmarshal([]byte(output), &created))

	output, err = alice.run("join", created.TownID, "Alice")
	require.NoError(t, err, "output: %s", output)
	var joined joinResponse
	require.NoError(t, json.Unmarshal([]byte(output), &joined))
	assert.NotEmpty(t, joined.VideoToken)
	require.Len(t, joined.Players, 1)

	// Alice watches until the town is deleted
	var watchOut syncBuffer
	watch := alice.command("text", "watch", created.TownID)
	watch.Stdout = &watchOut
	watch.Stderr = &watchOut
	require.NoError(t, watch.Start())

	require.Eventually(t, func() bool {
		return strings.Contains(watchOut.String(), "welcome")
	}, 5*time.Second, 20*time.Millisecond)

	// Bob joins; Alice sees him arrive
	output, err = bob.run("join", created.TownID, "Bob")
	require.NoError(t, err, "output: %s", output)
	require.Eventually(t, func() bool {
		return strings.Contains(watchOut.String(), "player_joined")
	}, 5*time.Second, 20*time.Millisecond)

	output, err = bob.run("town", "delete", created.TownID, "--password", created.TownUpdatePassword)
	require.NoError(t, err, "output: %s", output)

	require.NoError(t, watch.Wait())
	assert.Contains(t, watchOut.String(), "town_destroyed")
	assert.Contains(t, watchOut.String(), "Town destroyed")
}

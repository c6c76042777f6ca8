package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/desertthunder/ptt/internal/services"
	"github.com/desertthunder/ptt/internal/shared"
	tu "github.com/desertthunder/ptt/internal/testing"
	"github.com/urfave/cli/v3"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			api := services.NewAPIService("http://localhost:8080/api", httpClient)

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				API:        api,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.api != api {
				t.Error("expected api to be set")
			}
			if runner.service != api {
				t.Error("expected service to default to api")
			}
			if runner.engine == nil {
				t.Error("expected engine to be created")
			}
		})

		t.Run("with explicit service keeps it", func(t *testing.T) {
			fake := tu.NewFakeAPI(nil, nil)
			runner := NewRunner(RunnerOpts{
				API:     services.NewAPIService("http://localhost:8080/api", nil),
				Service: fake,
			})

			if runner.service != fake {
				t.Error("expected service to be the fake")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil input uses stdin", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Input: nil})

			if runner.input != os.Stdin {
				t.Error("expected input to default to os.Stdin")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{HTTPClient: nil})

			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/test/path/config.toml"})

			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})
	})

	t.Run("SetLogger", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		var logs bytes.Buffer
		logger := shared.NewLogger(&logs)

		runner.SetLogger(logger)

		if runner.logger != logger {
			t.Error("expected logger to be replaced")
		}
	})

	t.Run("Close", func(t *testing.T) {
		t.Run("without database", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if err := runner.Close(); err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})

		t.Run("with database", func(t *testing.T) {
			db := setupTestDB(t)
			runner := NewRunner(RunnerOpts{DB: db})
			if err := runner.Close(); err != nil {
				t.Errorf("expected no error, got %v", err)
			}
			if err := db.Ping(); err == nil {
				t.Error("expected database to be closed")
			}
		})
	})

	t.Run("requireService", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		err := runner.requireService()
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writeJSON(map[string]string{"key": "value"}, true)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("writePlainln surrounds text with newlines", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlainln("Page %d", 2); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "\nPage 2\n" {
				t.Errorf("expected %q, got %q", "\nPage 2\n", output.String())
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}

		names := make(map[string]bool)
		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
				continue
			}
			if names[cmd.Name] {
				t.Errorf("command %q registered twice", cmd.Name)
			}
			names[cmd.Name] = true
		}

		for _, name := range []string{"setup", "serve", "videos", "progress", "categories", "taxonomy", "creators", "api", "tui"} {
			if !names[name] {
				t.Errorf("expected %q to be registered", name)
			}
		}
	})

	t.Run("truncate", func(t *testing.T) {
		tests := []struct {
			in    string
			width int
			want  string
		}{
			{"short", 10, "short"},
			{"exactly10!", 10, "exactly10!"},
			{"a longer title", 8, "a longe…"},
			{"♠♥♦♣♠♥", 4, "♠♥♦…"},
		}
		for _, tt := range tests {
			if got := truncate(tt.in, tt.width); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
			}
		}
	})
}

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := shared.OpenDatabase(shared.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// testEnv wires a runner to an in-memory database and a fake API, capturing output and side effects.
type testEnv struct {
	runner  *Runner
	api     *tu.FakeAPI
	db      *sql.DB
	output  *bytes.Buffer
	logs    *bytes.Buffer
	copied  string
	opened  []string
	openErr error
}

func newTestEnv(t *testing.T, fake *tu.FakeAPI, input string) *testEnv {
	t.Helper()

	env := &testEnv{
		api:    fake,
		db:     setupTestDB(t),
		output: &bytes.Buffer{},
		logs:   &bytes.Buffer{},
	}
	var service services.Service
	if fake != nil {
		service = fake
	}
	env.runner = NewRunner(RunnerOpts{
		Service:   service,
		DB:        env.db,
		Logger:    shared.NewLogger(env.logs),
		Output:    env.output,
		Input:     strings.NewReader(input),
		Clipboard: func(s string) error { env.copied = s; return nil },
		Open: func(url string) error {
			env.opened = append(env.opened, url)
			return env.openErr
		},
	})
	return env
}

// runCommand executes args against a fresh command tree.
func runCommand(r *Runner, args ...string) error {
	app := &cli.Command{
		Name:     "ptt",
		Commands: r.register(),
		Writer:   r.output,
	}
	return app.Run(context.Background(), append([]string{"ptt"}, args...))
}

// run executes args and returns what was written.
func (e *testEnv) run(args ...string) (string, error) {
	e.output.Reset()
	err := runCommand(e.runner, args...)
	return e.output.String(), err
}

func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(args...)
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", strings.Join(args, " "), err)
	}
	return out
}

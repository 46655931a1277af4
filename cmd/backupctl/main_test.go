package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"strings"
	"testing"
	"time"

	"github.com/Chapsvision-dev/volume-backup-client/internal/config"
	"github.com/Chapsvision-dev/volume-backup-client/internal/export"
	"github.com/Chapsvision-dev/volume-backup-client/internal/inventory"
	"github.com/Chapsvision-dev/volume-backup-client/pkg/rest"
	"github.com/Chapsvision-dev/volume-backup-client/pkg/volumebackup"
)

/* ----------------------------- test harness ----------------------------- */

type exitPanic struct{ code int }

func patchExit(t *testing.T) func() {
	t.Helper()
	prev := exit
	exit = func(code int) { panic(exitPanic{code}) }
	return func() { exit = prev }
}

// mustExitCode runs fn and returns the intercepted exit code, or 0 when fn
// returns normally (main only calls exit on failure or for help/version).
func mustExitCode(t *testing.T, fn func()) (code int) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if ep, ok := r.(exitPanic); ok {
			code = ep.code
			return
		}
		t.Fatalf("unexpected panic: %#v", r)
	}()
	fn()
	return 0
}

func withArgs(t *testing.T, args []string) func() {
	t.Helper()
	prev := os.Args
	os.Args = append([]string{prev[0]}, args...)
	return func() { os.Args = prev }
}

func withEnv(t *testing.T, kv map[string]string) func() {
	t.Helper()
	prev := map[string]*string{}
	for k, v := range kv {
		if old, ok := os.LookupEnv(k); ok {
			tmp := old
			prev[k] = &tmp
		} else {
			prev[k] = nil
		}
		if err := os.Setenv(k, v); err != nil {
			t.Fatalf("setenv %s: %v", k, err)
		}
	}
	return func() {
		for k, v := range prev {
			if v == nil {
				_ = os.Unsetenv(k)
			} else {
				_ = os.Setenv(k, *v)
			}
		}
	}
}

func captureStdout(t *testing.T) func() string {
	t.Helper()
	old := os.Stdout
	var buf bytes.Buffer
	r, w, _ := os.Pipe()
	os.Stdout = w

	done := make(chan struct{})
	go func() {
		_, _ = buf.ReadFrom(r)
		close(done)
	}()

	return func() string {
		_ = w.Close()
		<-done
		os.Stdout = old
		return buf.String()
	}
}

func resetSeams() {
	loadConfig = config.Load
	newClient = buildClient
	newSink = export.New
	runExport = inventory.Export
}

// stubClient routes the managers to a fake transport.
func stubClient(ft *fakeTransport) {
	loadConfig = func() (config.Config, error) {
		return config.Config{Endpoint: "http://api.invalid", ExportProvider: config.ExportFile, ExportDir: "/tmp"}, nil
	}
	newClient = func(config.Config) (*volumebackup.Client, error) {
		return volumebackup.NewClient(ft), nil
	}
}

/* --------------------------------- tests -------------------------------- */

// 1) No args -> prints usage, exit code 2
func TestUsage_NoArgs(t *testing.T) {
	resetSeams()
	defer patchExit(t)()
	defer withArgs(t, []string{})()

	restoreOut := captureStdout(t)
	code := mustExitCode(t, func() { main() })
	out := restoreOut()

	if code != 2 {
		t.Fatalf("want exit 2, got %d", code)
	}
	if !strings.Contains(out, "Usage:") {
		t.Fatalf("expected usage on stdout, got: %q", out)
	}
}

// 2) Unknown action -> usage, exit 2, config never loaded
func TestUsage_UnknownAction(t *testing.T) {
	resetSeams()
	defer patchExit(t)()
	defer withArgs(t, []string{"snapshot"})()

	loadConfig = func() (config.Config, error) {
		t.Fatal("config must not be loaded for an unknown action")
		return config.Config{}, nil
	}

	restoreOut := captureStdout(t)
	code := mustExitCode(t, func() { main() })
	_ = restoreOut()
	if code != 2 {
		t.Fatalf("want exit 2, got %d", code)
	}
}

// 3) Config error -> exit 1
func TestConfigError_Exit1(t *testing.T) {
	resetSeams()
	defer patchExit(t)()
	defer withArgs(t, []string{"list"})()

	loadConfig = func() (config.Config, error) { return config.Config{}, errors.New("no endpoint") }

	if code := mustExitCode(t, func() { main() }); code != 1 {
		t.Fatalf("want exit 1, got %d", code)
	}
}

// 4) Create: precedence Arg > Env, optional fields from env, JSON printed
func TestCreate_ArgOverridesEnv(t *testing.T) {
	resetSeams()
	defer patchExit(t)()
	defer withArgs(t, []string{"create", "VOL_ARG"})()
	defer withEnv(t, map[string]string{
		"BACKUP_VOLUME_ID":   "VOL_ENV",
		"BACKUP_NAME":        "nightly",
		"BACKUP_CONTAINER":   "",
		"BACKUP_DESCRIPTION": "",
	})()

	ft := &fakeTransport{single: json.RawMessage(`{"id": "b1", "volume_id": "VOL_ARG"}`)}
	stubClient(ft)

	restoreOut := captureStdout(t)
	code := mustExitCode(t, func() { main() })
	out := restoreOut()

	if code != 0 {
		t.Fatalf("want success, got exit %d", code)
	}
	if ft.path != "/backups" {
		t.Fatalf("want /backups, got %q", ft.path)
	}
	want := `{"backup":{"container":null,"display_description":null,"display_name":"nightly","volume_id":"VOL_ARG"}}`
	if got := canonical(t, ft.body); got != want {
		t.Fatalf("body mismatch:\n got %s\nwant %s", got, want)
	}
	if !strings.Contains(out, `"id": "b1"`) {
		t.Fatalf("expected backup JSON on stdout, got %q", out)
	}
}

// 5) Missing required argument -> exit 2
func TestGet_MissingIDIsUsageError(t *testing.T) {
	resetSeams()
	defer patchExit(t)()
	defer withArgs(t, []string{"get"})()
	defer withEnv(t, map[string]string{"BACKUP_ID": ""})()

	ft := &fakeTransport{}
	stubClient(ft)

	restoreOut := captureStdout(t)
	code := mustExitCode(t, func() { main() })
	_ = restoreOut()

	if code != 2 {
		t.Fatalf("want exit 2, got %d", code)
	}
	if ft.calls != 0 {
		t.Fatalf("no request expected, got %d", ft.calls)
	}
}

// 6) List summary hits /backups
func TestList_Summary(t *testing.T) {
	resetSeams()
	defer patchExit(t)()
	defer withArgs(t, []string{"list", "summary"})()

	ft := &fakeTransport{list: []json.RawMessage{json.RawMessage(`{"id": "a"}`), json.RawMessage(`{"id": "b"}`)}}
	stubClient(ft)

	restoreOut := captureStdout(t)
	code := mustExitCode(t, func() { main() })
	out := restoreOut()

	if code != 0 {
		t.Fatalf("want success, got exit %d", code)
	}
	if ft.path != "/backups" {
		t.Fatalf("want /backups, got %q", ft.path)
	}
	var got []map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil || len(got) != 2 {
		t.Fatalf("expected 2 backups on stdout, got %q (%v)", out, err)
	}
}

// 7) Delete surfaces NotFound as a runtime error
func TestDelete_NotFoundExit1(t *testing.T) {
	resetSeams()
	defer patchExit(t)()
	defer withArgs(t, []string{"delete", "nope"})()

	ft := &fakeTransport{err: &rest.HTTPError{StatusCode: 404, Method: "DELETE", URL: "/backups/nope"}}
	stubClient(ft)

	if code := mustExitCode(t, func() { main() }); code != 1 {
		t.Fatalf("want exit 1, got %d", code)
	}
	if ft.path != "/backups/nope" {
		t.Fatalf("want /backups/nope, got %q", ft.path)
	}
}

// 8) Restore: env volume, null when absent
func TestRestore_UsesEnvWhenNoArgs(t *testing.T) {
	resetSeams()
	defer patchExit(t)()
	defer withArgs(t, []string{"restore"})()
	defer withEnv(t, map[string]string{
		"BACKUP_ID":         "B_ENV",
		"RESTORE_VOLUME_ID": "",
	})()

	ft := &fakeTransport{single: json.RawMessage(`{"backup_id": "B_ENV", "volume_id": "fresh"}`)}
	stubClient(ft)

	restoreOut := captureStdout(t)
	code := mustExitCode(t, func() { main() })
	_ = restoreOut()

	if code != 0 {
		t.Fatalf("want success, got exit %d", code)
	}
	if ft.path != "/volume-backups/B_ENV/restore" {
		t.Fatalf("unexpected path %q", ft.path)
	}
	if got := canonical(t, ft.body); got != `{"restore":{"volume_id":null}}` {
		t.Fatalf("unexpected body %s", got)
	}
}

// 9) Export: target prefix and sink from config are passed through
func TestExport_PassesOptionsAndSink(t *testing.T) {
	resetSeams()
	defer patchExit(t)()
	defer withArgs(t, []string{"export", "PFX_ARG"})()
	defer withEnv(t, map[string]string{"EXPORT_TARGET": "PFX_ENV"})()

	stubClient(&fakeTransport{})

	var gotSink string
	newSink = func(name string, _ any) (export.Sink, error) {
		gotSink = name
		return nopSink{}, nil
	}
	var gotOpts inventory.Options
	runExport = func(ctx context.Context, l inventory.Lister, s export.Sink, opts inventory.Options) (inventory.Result, error) {
		gotOpts = opts
		return inventory.Result{}, errors.New("stop")
	}

	code := mustExitCode(t, func() { main() })
	if code != 1 {
		t.Fatalf("want exit 1 due to injected export error, got %d", code)
	}
	if gotSink != config.ExportFile {
		t.Fatalf("want file sink, got %q", gotSink)
	}
	if gotOpts.RemotePrefix != "PFX_ARG" {
		t.Fatalf("opts mismatch: got RemotePrefix=%q", gotOpts.RemotePrefix)
	}
}

// 10) pickArgOrEnv: precedence Arg > Env > Default
func TestPickArgOrEnv_Precedence(t *testing.T) {
	defer withArgs(t, []string{"subcmd", "ARGVAL"})()
	defer withEnv(t, map[string]string{"MY_ENV": "ENVVAL"})()

	got := pickArgOrEnv(2, "MY_ENV", "DEFVAL")
	if got != "ARGVAL" {
		t.Fatalf("want ARGVAL, got %q", got)
	}

	// Without arg -> gets ENV
	defer withArgs(t, []string{"subcmd"})()
	got = pickArgOrEnv(2, "MY_ENV", "DEFVAL")
	if got != "ENVVAL" {
		t.Fatalf("want ENVVAL, got %q", got)
	}

	// Without arg and env -> default
	defer withEnv(t, map[string]string{"MY_ENV": ""})()
	got = pickArgOrEnv(2, "MY_ENV", "DEFVAL")
	if got != "DEFVAL" {
		t.Fatalf("want DEFVAL, got %q", got)
	}
}

// 11) buildClient wires auth and transport from config
func TestBuildClient(t *testing.T) {
	c, err := buildClient(config.Config{Endpoint: "http://localhost:8776/v2/p", Auth: config.AuthConfig{Method: config.AuthNone}})
	if err != nil || c.Backups == nil || c.Restores == nil {
		t.Fatalf("unexpected result: %v, %+v", err, c)
	}
	if _, err := buildClient(config.Config{Endpoint: "http://localhost", Auth: config.AuthConfig{Method: "kerberos"}}); err == nil {
		t.Fatal("expected auth error")
	}
}

// 12) withSignals: cancels context on SIGINT
func TestWithSignals_CancelsOnInterrupt(t *testing.T) {
	ctx := withSignals(context.Background())

	// Send SIGINT after a short delay to ensure signal.Notify has been registered.
	time.AfterFunc(100*time.Millisecond, func() {
		p, _ := os.FindProcess(os.Getpid())
		_ = p.Signal(os.Interrupt)
	})

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not canceled after os.Interrupt")
	}

	signal.Reset(os.Interrupt)
}

/* ------------------------------- test fakes ------------------------------ */

type fakeTransport struct {
	calls  int
	path   string
	body   []byte
	single json.RawMessage
	list   []json.RawMessage
	err    error
}

func (f *fakeTransport) Create(_ context.Context, path string, body any, _ string) (json.RawMessage, error) {
	f.calls++
	f.path = path
	f.body, _ = json.Marshal(body)
	return f.single, f.err
}

func (f *fakeTransport) Get(_ context.Context, path, _ string) (json.RawMessage, error) {
	f.calls++
	f.path = path
	return f.single, f.err
}

func (f *fakeTransport) List(_ context.Context, path, _ string) ([]json.RawMessage, error) {
	f.calls++
	f.path = path
	return f.list, f.err
}

func (f *fakeTransport) Delete(_ context.Context, path string) error {
	f.calls++
	f.path = path
	return f.err
}

type nopSink struct{}

func (nopSink) Put(context.Context, string, []byte) error { return nil }
func (nopSink) Name() string                             { return "nop" }

func canonical(t *testing.T, b []byte) string {
	t.Helper()
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		t.Fatalf("invalid JSON %q: %v", b, err)
	}
	out, _ := json.Marshal(v)
	return string(out)
}

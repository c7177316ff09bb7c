package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"leadplan/engine/internal/engine"
	"leadplan/engine/internal/plan"
	"leadplan/engine/internal/settings"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	envPath := filepath.Join(dir, "empty.env")
	if err := os.WriteFile(envPath, nil, 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("LEADPLAN_ENV_PATH", envPath)
	for _, key := range []string{
		"OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL", "LEADPLAN_FAKE_OPENAI",
		"LEADPLAN_REASONING_EFFORT", "LEADPLAN_REQUEST_TIMEOUT", "LEADPLAN_LISTEN_ADDR",
		"LEADPLAN_ALLOWED_ORIGINS", "LEADPLAN_DEBUG",
	} {
		t.Setenv(key, "")
	}
	return dir
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	globals = globalOptions{}
	generateOpts = generateOptions{format: "json"}
	diffContext, diffJSON = 2, false
	keyFromEnv, keyValidate, serveAddr = "", false, ""
	current = nil

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeProfile(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "acme.yaml")
	data := "businessName: Acme\noffering: CRM software\naudience: sales teams\ngoals: more leads\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	return path
}

func TestBuildRunConfigPrecedence(t *testing.T) {
	isolateEnv(t)
	stored := &settings.Settings{Model: "gpt-4.1", ReasoningEffort: "low", RequestTimeoutSeconds: 30, ListenAddr: ":9000", AllowedOrigins: []string{"*"}}

	cfg := buildRunConfig(stored, "sk-stored")
	if cfg.Engine.APIKey != "sk-stored" || cfg.KeySource != "secrets" {
		t.Fatalf("expected stored key, got %q from %s", cfg.Engine.APIKey, cfg.KeySource)
	}
	if cfg.Engine.Model != "gpt-4.1" || cfg.Engine.RequestTimeout != 30*time.Second || cfg.ListenAddr != ":9000" {
		t.Fatalf("expected settings values, got %+v", cfg)
	}

	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("OPENAI_MODEL", "gpt-5-mini")
	t.Setenv("LEADPLAN_REQUEST_TIMEOUT", "5s")
	t.Setenv("LEADPLAN_ALLOWED_ORIGINS", "http://a.test, http://b.test")
	cfg = buildRunConfig(stored, "sk-stored")
	if cfg.Engine.APIKey != "sk-env" || cfg.KeySource != "env" {
		t.Fatalf("expected env key, got %q from %s", cfg.Engine.APIKey, cfg.KeySource)
	}
	if cfg.Engine.Model != "gpt-5-mini" || cfg.Engine.RequestTimeout != 5*time.Second {
		t.Fatalf("expected env overrides, got %+v", cfg.Engine)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected origins: %v", cfg.AllowedOrigins)
	}
}

func TestBuildRunConfigWithoutKey(t *testing.T) {
	isolateEnv(t)
	cfg := buildRunConfig(&settings.Settings{}, "")
	if cfg.Engine.APIKey != "" || cfg.KeySource != "none" {
		t.Fatalf("expected no key, got %q from %s", cfg.Engine.APIKey, cfg.KeySource)
	}
	if cfg.Engine.RequestTimeout != engine.DefaultRequestTimeout {
		t.Fatalf("expected default timeout, got %s", cfg.Engine.RequestTimeout)
	}

	t.Setenv("LEADPLAN_FAKE_OPENAI", "1")
	cfg = buildRunConfig(&settings.Settings{}, "")
	if !cfg.Fake || cfg.KeySource != "fake" || cfg.Engine.APIKey == "" {
		t.Fatalf("expected fake credential, got %+v", cfg)
	}
}

func TestGenerateCommandFallback(t *testing.T) {
	dir := isolateEnv(t)
	out, err := runCLI(t, "", "generate", "--data-dir", filepath.Join(dir, "data"), "--profile", writeProfile(t, dir))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	var result plan.Result
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if result.Source != plan.SourceFallback || len(result.Plan.CampaignIdeas) != 3 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestGenerateCommandFakeModelMarkdown(t *testing.T) {
	dir := isolateEnv(t)
	t.Setenv("LEADPLAN_FAKE_OPENAI", "1")
	out, err := runCLI(t, "", "generate", "--data-dir", filepath.Join(dir, "data"), "--profile", writeProfile(t, dir), "--format", "markdown")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.HasPrefix(out, "<!-- source: model -->\n# Lead generation plan") {
		t.Fatalf("unexpected markdown:\n%s", out)
	}
}

func TestGenerateCommandRejectsIncompleteProfile(t *testing.T) {
	dir := isolateEnv(t)
	path := filepath.Join(dir, "partial.json")
	if err := os.WriteFile(path, []byte(`{"businessName":"Acme","offering":"CRM"}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := runCLI(t, "", "generate", "--data-dir", filepath.Join(dir, "data"), "--profile", path)
	if err == nil || !strings.Contains(err.Error(), "audience") {
		t.Fatalf("expected audience error, got %v", err)
	}
}

func TestKeyCommands(t *testing.T) {
	dir := isolateEnv(t)
	dataDir := filepath.Join(dir, "data")
	if _, err := runCLI(t, "sk-stored-1234\n", "key", "set", "--data-dir", dataDir); err != nil {
		t.Fatalf("key set: %v", err)
	}
	out, err := runCLI(t, "", "key", "status", "--data-dir", dataDir)
	if err != nil {
		t.Fatalf("key status: %v", err)
	}
	if !strings.Contains(out, "source: secrets") || strings.Contains(out, "sk-stored-1234") {
		t.Fatalf("unexpected status output:\n%s", out)
	}
	if _, err := runCLI(t, "", "key", "clear", "--data-dir", dataDir); err != nil {
		t.Fatalf("key clear: %v", err)
	}
	out, _ = runCLI(t, "", "key", "status", "--data-dir", dataDir)
	if !strings.Contains(out, "source: none") {
		t.Fatalf("expected cleared key, got:\n%s", out)
	}
	if _, err := runCLI(t, "", "key", "set", "--data-dir", dataDir); err == nil {
		t.Fatalf("expected empty stdin to be rejected")
	}
}

func TestDiffCommand(t *testing.T) {
	dir := isolateEnv(t)
	dataDir := filepath.Join(dir, "data")
	before := filepath.Join(dir, "before.json")
	after := filepath.Join(dir, "after.json")
	if _, err := runCLI(t, "", "generate", "--data-dir", dataDir, "--profile", writeProfile(t, dir), "--output", before); err != nil {
		t.Fatalf("generate before: %v", err)
	}
	t.Setenv("LEADPLAN_FAKE_OPENAI", "1")
	if _, err := runCLI(t, "", "generate", "--data-dir", dataDir, "--profile", writeProfile(t, dir), "--output", after); err != nil {
		t.Fatalf("generate after: %v", err)
	}

	out, err := runCLI(t, "", "diff", "--data-dir", dataDir, before, after)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if !strings.Contains(out, "+[fake model]") || !strings.Contains(out, "1 added, 1 removed") {
		t.Fatalf("unexpected diff:\n%s", out)
	}

	out, err = runCLI(t, "", "diff", "--data-dir", dataDir, before, before)
	if err != nil || !strings.Contains(out, "plans are identical") {
		t.Fatalf("expected identical plans, got %v:\n%s", err, out)
	}
}

func TestStdioCommand(t *testing.T) {
	dir := isolateEnv(t)
	input := `{"jsonrpc":"2.0","id":1,"method":"EngineGetInfo"}` + "\n" +
		`{"jsonrpc":"2.0","id":2,"method":"AgentGeneratePlan","params":{"businessName":"Acme","offering":"CRM software","audience":"sales teams"}}` + "\n"
	out, err := runCLI(t, input, "stdio", "--data-dir", filepath.Join(dir, "data"))
	if err != nil {
		t.Fatalf("stdio: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two responses, got:\n%s", out)
	}
	if !strings.Contains(out, `"has_credential":false`) || !strings.Contains(out, `"source":"fallback"`) {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

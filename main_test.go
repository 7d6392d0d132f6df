package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

const buttonSource = `import QtQuick 2.15

/*!
    \qmltype Button
    \inqmlmodule Example.Controls
    \brief A push button.
*/
Item {
    /*! The label. */
    readonly property string text: "OK"

    /*! Emitted when pressed. */
    signal clicked(var mouse)
}
`

const mainSource = `import QtQuick
import "controls"

Item {
    Button {}
}
`

func createSampleRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeTestFile(t, dir, "controls/Button.qml", buttonSource)
	writeTestFile(t, dir, "Main.qml", mainSource)
	return dir
}

func TestRunBasic(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{dir}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}

	out := stdout.String()
	if !strings.HasPrefix(out, "project: "+filepath.Base(dir)) {
		t.Errorf("output should start with project:, got:\n%s", out)
	}
	if !strings.Contains(out, "types[2]{") {
		t.Errorf("expected 2 types, got:\n%s", out)
	}
	if !strings.Contains(out, "  Main,") {
		t.Errorf("missing Main type:\n%s", out)
	}
	if !strings.Contains(out, "  Button,Example.Controls,Item,controls/Button.qml:") {
		t.Errorf("missing Button type:\n%s", out)
	}
	if !strings.Contains(out, `"Example.Controls::Button",text,string,readonly`) {
		t.Errorf("missing text property:\n%s", out)
	}
	if !strings.Contains(out, `"Example.Controls::Button",signal,clicked(var mouse)`) {
		t.Errorf("missing clicked signal:\n%s", out)
	}
	if !strings.Contains(out, "modules[1]{name,members}:") {
		t.Errorf("missing modules table:\n%s", out)
	}
}

func TestRunYAML(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"--format", "yaml", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}

	out := stdout.String()
	for _, want := range []string{"project: ", "types:", "name: Button", "module: Example.Controls", "kind: signal"} {
		if !strings.Contains(out, want) {
			t.Errorf("yaml output missing %q:\n%s", want, out)
		}
	}
}

func TestRunSingleFile(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{filepath.Join(dir, "controls", "Button.qml")}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}
	out := stdout.String()
	if !strings.Contains(out, "types[1]{") {
		t.Errorf("expected only Button, got:\n%s", out)
	}
	if strings.Contains(out, "Main") {
		t.Errorf("Main.qml should not be processed:\n%s", out)
	}
}

func TestRunVersion(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	err := run([]string{"-V"}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := stdout.String(); got != "qmldoc dev\n" {
		t.Errorf("version output: %q", got)
	}
}

func TestRunNoFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "readme.txt", "nothing here")

	var stdout, stderr bytes.Buffer
	err := run([]string{dir}, &stdout, &stderr)
	if err == nil {
		t.Fatal("expected error for no QML files")
	}
	if !strings.Contains(err.Error(), "no QML files found") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRunNotQML(t *testing.T) {
	t.Parallel()
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	err := run([]string{f}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "not a QML file") {
		t.Fatalf("expected not a QML file error, got %v", err)
	}
}

func TestRunMissingPath(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	err := run([]string{filepath.Join(t.TempDir(), "nope")}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "root path") {
		t.Fatalf("expected root path error, got %v", err)
	}
}

func TestRunUnsupportedFormat(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"--format", "xml", dir}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "unsupported format") {
		t.Fatalf("expected unsupported format error, got %v", err)
	}
}

func TestRunConfigFile(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)
	writeTestFile(t, dir, ".qmldoc.yaml", "format: yaml\nexclude:\n  - Main.qml\n")

	var stdout, stderr bytes.Buffer
	if err := run([]string{dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}
	out := stdout.String()
	if !strings.Contains(out, "name: Button") {
		t.Errorf("config format should select yaml:\n%s", out)
	}
	if strings.Contains(out, "name: Main") {
		t.Errorf("Main.qml should be excluded by config:\n%s", out)
	}

	// Flags override the file.
	stdout.Reset()
	if err := run([]string{"--format", "toon", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.HasPrefix(stdout.String(), "project: ") || strings.Contains(stdout.String(), "types:\n") {
		t.Errorf("--format toon should win over config:\n%s", stdout.String())
	}
}

func TestRunConfigFlag(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"--config", filepath.Join(dir, "missing.yaml"), dir}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "reading config") {
		t.Fatalf("explicit config must exist, got %v", err)
	}

	cfg := filepath.Join(t.TempDir(), "bad.yaml")
	writeTestFile(t, filepath.Dir(cfg), "bad.yaml", "bogus: 1\n")
	err = run([]string{"-c", cfg, dir}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "parsing config") {
		t.Fatalf("unknown key should fail, got %v", err)
	}
}

func TestRunMaxFileSize(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "Small.qml", "Item {}\n")
	writeTestFile(t, dir, "Big.qml", "Item {\n"+strings.Repeat("    property int x\n", 20)+"}\n")

	var stdout, stderr bytes.Buffer
	err := run([]string{"--max-file-size", "100", dir}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	out := stdout.String()
	if !strings.Contains(out, "  Small,") {
		t.Errorf("missing Small:\n%s", out)
	}
	if strings.Contains(out, "Big") {
		t.Errorf("Big.qml should be filtered out:\n%s", out)
	}
	if !strings.Contains(stderr.String(), "skipped large file") {
		t.Errorf("expected warning about skipped file, got %q", stderr.String())
	}
}

func TestRunIncludeTests(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)
	writeTestFile(t, dir, "tests/tst_button.qml", "Item {}\n")

	var stdout, stderr bytes.Buffer
	if err := run([]string{dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.Contains(stdout.String(), "tst_button") {
		t.Errorf("test files are skipped by default:\n%s", stdout.String())
	}

	stdout.Reset()
	if err := run([]string{"--include-tests", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(stdout.String(), "tst_button") {
		t.Errorf("--include-tests should keep test files:\n%s", stdout.String())
	}
}

func TestRunWarnings(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "Loop.qml", "/*!\n    \\qmltype Loop\n    \\qmlinherits Loop\n*/\nItem {}\n")

	var stdout, stderr bytes.Buffer
	if err := run([]string{dir}, &stdout, &stderr); err != nil {
		t.Fatalf("warnings must not fail the run: %v", err)
	}
	if !strings.Contains(stderr.String(), "Loop tries to inherit itself") {
		t.Errorf("expected warning on stderr, got %q", stderr.String())
	}
}

func TestRunSyntaxErrorSkipsFile(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)
	writeTestFile(t, dir, "Broken.qml", "Item {\n    property int\n")

	var stdout, stderr bytes.Buffer
	if err := run([]string{dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.Contains(stdout.String(), "Broken") {
		t.Errorf("broken file should be skipped:\n%s", stdout.String())
	}
	if !strings.Contains(stderr.String(), "cannot parse file") {
		t.Errorf("expected parse warning, got %q", stderr.String())
	}
}

func TestRunNestingLimit(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "Deep.qml", "Item {\n    Item {\n        Item {\n            property int deep\n        }\n    }\n}\n")

	var stdout, stderr bytes.Buffer
	err := run([]string{"--max-depth", "3", dir}, &stdout, &stderr)
	if err == nil {
		t.Fatal("expected error for exceeded nesting limit")
	}
	if !strings.Contains(err.Error(), "Deep.qml") {
		t.Errorf("error should name the file: %v", err)
	}
	if !strings.HasPrefix(stdout.String(), "project: ") {
		t.Errorf("report should still be written:\n%s", stdout.String())
	}
}

func TestRunJSONLogs(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"--log-level", "info", "--log-format", "json", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(stderr.String(), `"msg":"processed files"`) {
		t.Errorf("expected json summary log, got %q", stderr.String())
	}

	err := run([]string{"--log-format", "xml", dir}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "unsupported log format") {
		t.Fatalf("expected log format error, got %v", err)
	}
}

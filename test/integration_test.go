//go:build integration

package test_test

import (
	"encoding/binary"
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"lingo/clipboard"
)

var testBinary string

func TestMain(m *testing.M) {
	testBinary = os.Getenv("LINGO_TEST_BIN")
	if testBinary == "" {
		fmt.Fprintln(os.Stderr, "LINGO_TEST_BIN not set; run: make test-integration")
		os.Exit(1)
	}

	silencePath := filepath.Join("data", "silence.wav")
	if err := generateSilenceWAV(silencePath, 16000, 1.5); err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate silence.wav: %v\n", err)
		os.Exit(1)
	}
	defer os.Remove(silencePath)

	os.Exit(m.Run())
}

func generateSilenceWAV(path string, sampleRate int, durationS float64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	const headerSize = 44
	numSamples := int(float64(sampleRate) * durationS)
	dataSize := numSamples * 2

	buf := make([]byte, headerSize+dataSize)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(headerSize-8+dataSize))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], 1) // mono
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*2))
	binary.LittleEndian.PutUint16(buf[32:34], 2)  // block align
	binary.LittleEndian.PutUint16(buf[34:36], 16) // bits per sample
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))

	return os.WriteFile(path, buf, 0644)
}

func cmds(parts ...string) string {
	return strings.Join(parts, "\n") + "\n"
}

// runLingo runs the binary in headless test mode with stdin commands and
// returns its combined output plus the temp dir holding logs and history.
func runLingo(t *testing.T, stdin string, args ...string) (output, workDir string) {
	t.Helper()
	workDir = t.TempDir()
	historyPath := filepath.Join(workDir, "history.csv")
	cmdArgs := append([]string{"-test", "-logpath", workDir, "-history", historyPath}, args...)

	cmd := exec.Command(testBinary, cmdArgs...)
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Env = os.Environ()

	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("lingo exited with error: %v\noutput: %s", err, out)
	}
	return string(out), workDir
}

func historyRows(t *testing.T, workDir string) [][]string {
	t.Helper()
	f, err := os.Open(filepath.Join(workDir, "history.csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatalf("failed to open history: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse history: %v", err)
	}
	if len(records) == 0 {
		return nil
	}
	return records[1:] // skip header
}

func readLog(t *testing.T, workDir, filename string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(workDir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return ""
		}
		t.Fatalf("failed to read %s: %v", filename, err)
	}
	return string(data)
}

// --- Text translation ---

func TestTranslateText(t *testing.T) {
	out, workDir := runLingo(t, cmds(
		"SOURCE German", "TARGET French",
		"INPUT guten tag", "TRANSLATE", "QUIT"))

	if !strings.Contains(out, "OK [fr] guten tag") {
		t.Errorf("expected translated output, got:\n%s", out)
	}
	rows := historyRows(t, workDir)
	if len(rows) != 1 {
		t.Fatalf("expected 1 history row, got %d", len(rows))
	}
	row := rows[0]
	if row[1] != "text" || row[2] != "de" || row[3] != "fr" {
		t.Errorf("unexpected history row: %v", row)
	}
	if row[4] != "guten tag" || row[5] != "[fr] guten tag" {
		t.Errorf("unexpected history texts: %v", row)
	}
}

func TestTranslateAutoDetect(t *testing.T) {
	out, workDir := runLingo(t, cmds(
		"SOURCE Auto Detect", "TARGET Spanish", "DETECT_AS de",
		"INPUT hallo welt", "TRANSLATE", "QUIT"))

	if !strings.Contains(out, "OK [es] hallo welt") {
		t.Errorf("expected translated output, got:\n%s", out)
	}
	rows := historyRows(t, workDir)
	if len(rows) != 1 || rows[0][2] != "de" {
		t.Errorf("expected detected code in history, got %v", rows)
	}
}

func TestTranslateDetectionUnresolved(t *testing.T) {
	// Detector returns nothing; translation still proceeds with auto and
	// the history row records the unknown sentinel.
	_, workDir := runLingo(t, cmds(
		"SOURCE Auto Detect", "TARGET French", "DETECT_AS",
		"INPUT xyzzy", "TRANSLATE", "QUIT"))

	rows := historyRows(t, workDir)
	if len(rows) != 1 || rows[0][2] != "unknown" {
		t.Errorf("expected unknown source in history, got %v", rows)
	}
}

func TestTranslateEmptyInput(t *testing.T) {
	out, workDir := runLingo(t, cmds("TARGET French", "TRANSLATE", "QUIT"))

	if !strings.Contains(out, "FAILURE input") {
		t.Errorf("expected input failure, got:\n%s", out)
	}
	if rows := historyRows(t, workDir); len(rows) != 0 {
		t.Errorf("expected no history rows, got %v", rows)
	}
}

func TestHistoryAccumulates(t *testing.T) {
	_, workDir := runLingo(t, cmds(
		"SOURCE English", "TARGET French",
		"INPUT one", "TRANSLATE",
		"INPUT two", "TRANSLATE", "QUIT"))

	rows := historyRows(t, workDir)
	if len(rows) != 2 {
		t.Fatalf("expected 2 history rows, got %d", len(rows))
	}
	if rows[0][4] != "one" || rows[1][4] != "two" {
		t.Errorf("rows out of order: %v", rows)
	}
}

func TestDiagnosticsRecordTranslation(t *testing.T) {
	_, workDir := runLingo(t, cmds(
		"SOURCE German", "TARGET French",
		"INPUT guten tag", "TRANSLATE", "QUIT"))

	diag := readLog(t, workDir, "diagnostics_log.txt")
	for _, want := range []string{"translation", "source=de", "target=fr", "session_end"} {
		if !strings.Contains(diag, want) {
			t.Errorf("diagnostics missing %q:\n%s", want, diag)
		}
	}
}

// --- Speech workflows ---

func TestSpeechWithoutMicrophone(t *testing.T) {
	out, _ := runLingo(t, cmds("LISTEN", "SPEECH", "RT_START", "QUIT"))

	if strings.Count(out, "FAILURE speech no microphone available") != 3 {
		t.Errorf("expected microphone failures for all speech workflows, got:\n%s", out)
	}
}

func TestListenSilenceHearsNothing(t *testing.T) {
	// Silence never trips the voice detector, so capture gives up and the
	// canned recognizer is never consulted.
	out, workDir := runLingo(t, cmds("LISTEN", "QUIT"), filepath.Join("data", "silence.wav"))

	if !strings.Contains(out, "FAILURE speech") {
		t.Errorf("expected speech failure on silence, got:\n%s", out)
	}
	if transcript := readLog(t, workDir, "transcript_log.txt"); strings.TrimSpace(transcript) != "" {
		t.Errorf("expected empty transcript, got %q", transcript)
	}
}

// --- Clipboard ---

func TestCopyOutput(t *testing.T) {
	if err := clipboard.Copy("probe"); err != nil {
		t.Skip("clipboard not available")
	}

	out, _ := runLingo(t, cmds(
		"SOURCE English", "TARGET French",
		"INPUT copy me", "TRANSLATE", "COPY", "SLEEP 200", "QUIT"))
	if !strings.Contains(out, "OK [fr] copy me") {
		t.Fatalf("translation did not run:\n%s", out)
	}

	clip, err := clipboard.Read()
	if err != nil {
		t.Skip("clipboard not available")
	}
	if strings.TrimSpace(clip) != "[fr] copy me" {
		t.Errorf("clipboard contains %q, want translated output", clip)
	}
}

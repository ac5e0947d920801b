package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleInvoice = `ใบเสร็จรับเงิน/ใบกำกับภาษี
บริษัท ซี 111 เดคคอร์ จำกัด (สาขาที่ 00001)
เลขประจำตัวผู้เสียภาษี 0105556100739
เลขที่บิล CT 68-000612
วันที่ 1/8/2568
ยอดเงินสุทธิ 5,831.07`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.Execute()
	return buf.String(), err
}

// testEnv points the shared config at a throwaway database and disables
// any network-backed refinement.
func testEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_URL", filepath.Join(t.TempDir(), "cli.db"))
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("OPENAI_API_KEY", "")
}

func TestVersionCmd_Executes(t *testing.T) {
	testEnv(t)
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "ocrdocth dev")
}

func TestParseCmd_RequiresExactlyOneArg(t *testing.T) {
	testEnv(t)
	_, err := execute(t, "parse")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestParseCmd_TextFile(t *testing.T) {
	testEnv(t)
	path := filepath.Join(t.TempDir(), "invoice.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleInvoice), 0o644))

	out, err := execute(t, "parse", path)
	require.NoError(t, err)
	assert.Contains(t, out, "CT68-000612")
	assert.Contains(t, out, "2025-08-01")
	assert.Contains(t, out, "0105556100739")
}

func TestParseCmd_JSONOutput(t *testing.T) {
	testEnv(t)
	path := filepath.Join(t.TempDir(), "invoice.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleInvoice), 0o644))

	out, err := execute(t, "parse", "--json", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"invoice_number"`)
	assert.Contains(t, out, "CT68-000612")
}

func TestBatchCmd_ProcessesDirectory(t *testing.T) {
	testEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte(sampleInvoice), 0o644))

	out, err := execute(t, "batch", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Processed 1")
}

func TestBatchCmd_EmptyDirectory(t *testing.T) {
	testEnv(t)
	out, err := execute(t, "batch", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No documents found")
}

func TestExportCmd_RejectsBadDates(t *testing.T) {
	testEnv(t)
	_, err := execute(t, "export", "--from", "01/08/2025")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --from date")
}

func TestJobsCmd_EmptyLedger(t *testing.T) {
	testEnv(t)
	out, err := execute(t, "jobs")
	require.NoError(t, err)
	assert.Contains(t, out, "No jobs.")
}

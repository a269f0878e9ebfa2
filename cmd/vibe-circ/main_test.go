package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGTF = `##description: test annotation
chr1	HAVANA	gene	100	250	.	+	.	gene_id "ENSG01.1"; gene_name "BRCA1";
chr1	HAVANA	exon	100	150	.	+	.	gene_id "ENSG01.1"; transcript_id "ENST01.1"; gene_name "BRCA1";
chr1	HAVANA	exon	200	250	.	+	.	gene_id "ENSG01.1"; transcript_id "ENST01.1"; gene_name "BRCA1";
chr1	HAVANA	exon	1000	1100	.	-	.	gene_id "ENSG02.1"; transcript_id "ENST02.1"; gene_name "TP53";
chr1	HAVANA	exon	1200	1300	.	-	.	gene_id "ENSG02.1"; transcript_id "ENST02.1"; gene_name "TP53";
`

const testRegions = "chr1\t103\t248\t+\tcircA\n" +
	"chr1\t1002\t1297\t-\tcircB\n" +
	"chr1\t5000\t6000\t+\tcircC\n"

type result struct {
	code   int
	stdout string
	stderr string
}

// testEnv isolates config lookups in a temporary home directory.
type testEnv struct {
	t   *testing.T
	dir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	return &testEnv{t: t, dir: dir}
}

func (e *testEnv) path(name string) string {
	return filepath.Join(e.dir, name)
}

func (e *testEnv) write(name, content string) string {
	e.t.Helper()
	p := e.path(name)
	require.NoError(e.t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func (e *testEnv) runWithInput(stdin io.Reader, args ...string) result {
	e.t.Helper()
	viper.Reset()
	var out, errOut bytes.Buffer
	code := run(args, stdin, &out, &errOut)
	return result{code: code, stdout: out.String(), stderr: errOut.String()}
}

func (e *testEnv) run(args ...string) result {
	e.t.Helper()
	return e.runWithInput(strings.NewReader(""), args...)
}

// buildStore builds the test annotation and returns its path.
func (e *testEnv) buildStore() string {
	e.t.Helper()
	gtf := e.write("test.gtf", testGTF)
	db := e.path("annotation.duckdb")
	r := e.run("build", gtf, db)
	require.Equal(e.t, ExitSuccess, r.code, r.stderr)
	return db
}

func lines(s string) []string {
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t)
	r := env.run("--version")
	assert.Equal(t, ExitSuccess, r.code)
	assert.Contains(t, r.stdout, "vibe-circ version dev")
}

func TestBuild_Info(t *testing.T) {
	env := newTestEnv(t)
	db := env.buildStore()

	r := env.run("info", db)
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Contains(t, r.stdout, "genes: 2")
	assert.Contains(t, r.stdout, "transcripts: 2")
	assert.Contains(t, r.stdout, "exons: 4")
	assert.Contains(t, r.stdout, "donor_sites: 4")
	assert.Contains(t, r.stdout, "acceptor_sites: 4")
	assert.Contains(t, r.stdout, "source_path: ")
}

func TestBuild_SkipsWhenUpToDate(t *testing.T) {
	env := newTestEnv(t)
	db := env.buildStore()

	r := env.run("build", env.path("test.gtf"), db)
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Contains(t, r.stderr, "annotation store is up to date")

	r = env.run("build", "--force", env.path("test.gtf"), db)
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Contains(t, r.stderr, "wrote annotation store")

	r = env.run("build", "--chrom", "chr2", env.path("test.gtf"), db)
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Contains(t, r.stderr, "wrote annotation store", "a different filter rebuilds")

	r = env.run("info", db)
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Contains(t, r.stdout, "genes: 0")
}

func TestBuild_MissingGTF(t *testing.T) {
	env := newTestEnv(t)
	r := env.run("build", env.path("missing.gtf"), env.path("a.duckdb"))
	assert.Equal(t, ExitError, r.code)
	assert.Contains(t, r.stderr, "stat GTF file")
}

func TestAdjust(t *testing.T) {
	env := newTestEnv(t)
	db := env.buildStore()
	regions := env.write("regions.tsv", testRegions)

	want := []string{
		"chr1\t103\t248\t+\tcircA\t100\t250\t-3\t2",
		"chr1\t1002\t1297\t-\tcircB\t1000\t1300\t-2\t3",
		"chr1\t5000\t6000\t+\tcircC\tNA\tNA\tNA\tNA",
	}

	r := env.run("adjust", db, regions)
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Equal(t, want, lines(r.stdout))
	assert.Contains(t, r.stderr, "preloaded junction sites")

	r = env.run("adjust", "--no-preload", "--workers", "1", db, regions)
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Equal(t, want, lines(r.stdout), "SQL lookups give the same answer")
}

func TestAdjust_DistIsOneWider(t *testing.T) {
	env := newTestEnv(t)
	db := env.buildStore()
	regions := env.write("regions.tsv", "chr1\t105\t250\t+\nchr1\t106\t250\t+\n")

	r := env.run("adjust", "--dist", "4", db, regions)
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Equal(t, []string{
		"chr1\t105\t250\t+\t100\t250\t-5\t0",
		"chr1\t106\t250\t+\tNA\t250\tNA\t0",
	}, lines(r.stdout))
}

func TestAdjust_GzipStdinAndOutputFile(t *testing.T) {
	env := newTestEnv(t)
	db := env.buildStore()

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, err := zw.Write([]byte(testRegions))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	outPath := env.path("adjusted.tsv")
	r := env.runWithInput(&gz, "adjust", "--na_value", ".", "-o", outPath, db, "-")
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Empty(t, r.stdout)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "chr1\t5000\t6000\t+\tcircC\t.\t.\t.\t.", lines(string(data))[2])
}

func TestAdjust_NegativeDist(t *testing.T) {
	env := newTestEnv(t)
	db := env.buildStore()

	r := env.run("adjust", "--dist=-1", db, env.write("regions.tsv", testRegions))
	assert.Equal(t, ExitError, r.code)
	assert.Contains(t, r.stderr, "--dist must be >= 0")
}

func TestAdjust_InvalidStrand(t *testing.T) {
	env := newTestEnv(t)
	db := env.buildStore()
	regions := env.write("regions.tsv", "chr1\t103\t248\t+\nchr1\t103\t248\t.\nchr1\t103\t248\t+\n")

	r := env.run("adjust", db, regions)
	assert.Equal(t, ExitError, r.code)
	assert.Contains(t, r.stderr, "line 2")
	assert.Contains(t, r.stderr, "invalid strand")
	assert.Equal(t, []string{"chr1\t103\t248\t+\t100\t250\t-3\t2"}, lines(r.stdout))
}

func TestAdjust_MalformedRecord(t *testing.T) {
	env := newTestEnv(t)
	db := env.buildStore()

	r := env.run("adjust", db, env.write("regions.tsv", "chr1\t103\n"))
	assert.Equal(t, ExitError, r.code)
	assert.Contains(t, r.stderr, "line 1")
	assert.Empty(t, r.stdout)
}

func TestAdjust_NotAStore(t *testing.T) {
	env := newTestEnv(t)
	r := env.run("adjust", env.path("missing.duckdb"), env.write("regions.tsv", testRegions))
	assert.Equal(t, ExitError, r.code)
}

func TestGenes(t *testing.T) {
	env := newTestEnv(t)
	db := env.buildStore()
	regions := env.write("adjusted.tsv",
		"chr1\t100\t250\t+\tcircA\n"+
			"chr1\t1000\t1300\t-\tcircB\n"+
			"chr1\t100\t1300\t+\tcircC\n")

	want := []string{
		"chr1\t100\t250\t+\tcircA\tBRCA1\tBRCA1\t1",
		"chr1\t1000\t1300\t-\tcircB\tTP53\tTP53\t1",
		"chr1\t100\t1300\t+\tcircC\tBRCA1\tNA\tNA",
	}

	r := env.run("genes", db, regions)
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Equal(t, want, lines(r.stdout))

	r = env.run("genes", "--no-preload", db, regions)
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Equal(t, want, lines(r.stdout))
}

func TestEmptyInput(t *testing.T) {
	env := newTestEnv(t)
	db := env.buildStore()

	r := env.run("genes", db, env.write("empty.tsv", ""))
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Empty(t, r.stdout)
	assert.Contains(t, r.stderr, "0 records processed")
}

func TestConfig_SetGetAndUse(t *testing.T) {
	env := newTestEnv(t)
	db := env.buildStore()

	r := env.run("config", "set", "dist", "10")
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Contains(t, r.stdout, "Set dist = 10")
	assert.FileExists(t, env.path(".vibe-circ.yaml"))

	r = env.run("config", "get", "dist")
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Equal(t, "10\n", r.stdout)

	r = env.run("config")
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Contains(t, r.stdout, "dist:")

	// 110 is 10 away from the acceptor at 100, within dist 10 + 1.
	r = env.run("adjust", db, env.write("regions.tsv", "chr1\t110\t250\t+\n"))
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Equal(t, "chr1\t110\t250\t+\t100\t250\t-10\t0\n", r.stdout)

	// Flags override the config file.
	r = env.run("adjust", "--dist", "2", db, env.path("regions.tsv"))
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Equal(t, "chr1\t110\t250\t+\tNA\t250\tNA\t0\n", r.stdout)
}

func TestConfig_ExplicitFileAndEnv(t *testing.T) {
	env := newTestEnv(t)
	db := env.buildStore()
	cfg := env.write("custom.yaml", "na_value: missing\n")
	regions := env.write("regions.tsv", "chr1\t5000\t6000\t+\n")

	r := env.run("adjust", "--config", cfg, db, regions)
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Equal(t, "chr1\t5000\t6000\t+\tmissing\tmissing\tmissing\tmissing\n", r.stdout)

	t.Setenv("VIBE_CIRC_NA_VALUE", "-")
	r = env.run("adjust", db, regions)
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Equal(t, "chr1\t5000\t6000\t+\t-\t-\t-\t-\n", r.stdout)
}

func TestConfig_GetUnset(t *testing.T) {
	env := newTestEnv(t)
	r := env.run("config", "get", "no_such_key")
	assert.Equal(t, ExitError, r.code)
	assert.Contains(t, r.stderr, `key "no_such_key" is not set`)
}

func TestVerboseLogging(t *testing.T) {
	env := newTestEnv(t)
	db := env.buildStore()

	r := env.run("adjust", "-v", "--no-preload", db, env.write("regions.tsv", testRegions))
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Contains(t, r.stderr, "DEBUG")
	assert.Contains(t, r.stderr, "serving lookups from SQL")
}

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poster/pkg/config"
	"poster/pkg/engine"
	"poster/pkg/persistence"
	"poster/pkg/proto"
	"poster/pkg/state"
)

func clearCredentials(t *testing.T) {
	t.Helper()
	for _, name := range knownSecretNames() {
		t.Setenv(name, "")
	}
	t.Setenv(config.EnvSecretsPassword, "")
}

func TestExecuteRunDryRun(t *testing.T) {
	clearCredentials(t)
	dir := t.TempDir()
	metricsFile := filepath.Join(dir, "poster.prom")

	res, err := executeRun(context.Background(), runOptions{
		stateDir:    dir,
		dryRun:      true,
		seed:        7,
		seeded:      true,
		noWeather:   true,
		metricsFile: metricsFile,
		now:         "2026-03-16T07:10:00+09:00",
	})
	require.NoError(t, err)

	assert.Equal(t, engine.OutcomePosted, res.Outcome)
	assert.Equal(t, proto.SourceFallback, res.Source)
	assert.True(t, strings.HasPrefix(res.PostID, "dry-"), res.PostID)
	assert.FileExists(t, filepath.Join(dir, state.DefaultFileName))

	db, err := persistence.InitializeDatabase(filepath.Join(dir, persistence.DBFileName))
	require.NoError(t, err)
	ops := persistence.NewDatabaseOperations(db)
	defer func() { _ = ops.Close() }()

	runs, err := ops.RecentRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].DryRun)
	require.NotNil(t, runs[0].Post)
	assert.Equal(t, res.PostID, runs[0].Post.PostID)

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "poster_runs_total")
}

func TestExecuteRunWithoutPublisher(t *testing.T) {
	clearCredentials(t)
	dir := t.TempDir()

	res, err := executeRun(context.Background(), runOptions{
		stateDir:  dir,
		seed:      1,
		seeded:    true,
		noWeather: true,
		now:       "2026-03-16T07:10:00+09:00",
	})
	require.NoError(t, err)
	assert.Equal(t, engine.OutcomeWouldPost, res.Outcome)
	assert.Empty(t, res.PostID)
}

func TestExecuteRunRejectsBadNow(t *testing.T) {
	clearCredentials(t)
	_, err := executeRun(context.Background(), runOptions{
		stateDir:  t.TempDir(),
		noWeather: true,
		now:       "yesterday",
	})
	assert.ErrorContains(t, err, "invalid --now")
}

func TestEncryptedSecretsNeedPassword(t *testing.T) {
	clearCredentials(t)
	dir := t.TempDir()
	secrets := config.NewSecrets()
	secrets.Set(config.EnvXConsumerKey, "ck")
	require.NoError(t, secrets.SaveEncrypted(config.SecretsPath(dir), "pw"))

	if _, err := loadSecrets(dir); err == nil {
		t.Skip("stdin is a terminal")
	}

	t.Setenv(config.EnvSecretsPassword, "pw")
	loaded, err := loadSecrets(dir)
	require.NoError(t, err)
	assert.Equal(t, "ck", loaded.Lookup(config.EnvXConsumerKey))

	t.Setenv(config.EnvSecretsPassword, "wrong")
	_, err = loadSecrets(dir)
	assert.ErrorIs(t, err, config.ErrDecrypt)
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	printResult(&buf, engine.Result{
		Outcome:  engine.OutcomePosted,
		Slot:     "morning",
		Source:   "generated",
		Attempts: 2,
		PostID:   "123",
		Energy:   64,
		Mood:     "happy",
		Text:     "おはよ\n#宅配ドライバー",
	})
	assert.Equal(t,
		"outcome=posted slot=morning source=generated attempts=2 post_id=123 energy=64 mood=happy\nおはよ\n#宅配ドライバー\n",
		buf.String())

	buf.Reset()
	printResult(&buf, engine.Result{})
	assert.Empty(t, buf.String())
}

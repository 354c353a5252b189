package ingest

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/summary-extractor/constants"
	jobs "github.com/joseph-ayodele/summary-extractor/internal/async"
	"github.com/joseph-ayodele/summary-extractor/internal/core"
	"github.com/joseph-ayodele/summary-extractor/internal/source"
)

const blockA = `Nombre de fichier(s) restant(s) : 5
Télédémarche : AUTO-TEST123
Nom du projet : TRA - CODE - Example Project - v1.0
Numéro de dossier : D123ABC
Date de dépôt : 2024-05-01`

const blockB = `Remaining file(s) count: 3
Télédémarche: AUTO-ABC-9
Project name: TRA - X1 - Foo - v2
Dossier number: DZZ9
Deposit date: 01/02/2024`

func write(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestIngestDirectory(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "a.txt"), blockA)
	write(t, filepath.Join(root, "b.log"), blockA)
	write(t, filepath.Join(root, "bad.txt"), "no summary")
	write(t, filepath.Join(root, "e.pdf"), blockA)
	write(t, filepath.Join(root, "sub", "c.txt"), blockB)
	write(t, filepath.Join(root, ".hidden", "d.txt"), blockB)

	proc := core.NewProcessor(source.NewFileReader(source.Options{}), nil, nil)
	ing := NewFSIngestor(proc, "", nil)

	results, stats, err := ing.IngestDirectory(context.Background(), root, true)
	require.NoError(t, err)
	assert.Equal(t, DirStats{Scanned: 8, Matched: 4, Succeeded: 3, Deduplicated: 1, Failed: 1}, stats)

	require.Len(t, results, 4)
	byName := map[string]FileResult{}
	for _, r := range results {
		byName[filepath.Base(r.SourcePath)] = r
	}
	assert.Equal(t, constants.RunStatusSuccess, byName["a.txt"].Status)
	assert.Equal(t, 1, byName["a.txt"].Records)
	assert.True(t, byName["b.log"].Deduplicated)
	assert.Equal(t, byName["a.txt"].HashHex, byName["b.log"].HashHex)
	assert.Equal(t, constants.RunStatusFailed, byName["bad.txt"].Status)
	assert.Contains(t, byName["bad.txt"].Err, "No summary block found")
	assert.Empty(t, byName["c.txt"].Err)
	assert.NotEmpty(t, byName["c.txt"].RunID)

	_, _, err = ing.IngestDirectory(context.Background(), " ", false)
	assert.Error(t, err)
}

func TestIngestPath(t *testing.T) {
	path := write(t, filepath.Join(t.TempDir(), "run.txt"), blockB)
	proc := core.NewProcessor(source.NewFileReader(source.Options{}), nil, nil)

	res, err := NewFSIngestor(proc, "last", nil).IngestPath(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Records)
	assert.Len(t, res.HashHex, 64)
}

func TestIsHidden(t *testing.T) {
	assert.True(t, IsHidden("/tmp/.git"))
	assert.False(t, IsHidden("/tmp/run.txt"))
	assert.False(t, IsHidden("."))
}

func TestStartWatcher(t *testing.T) {
	root := t.TempDir()
	existing := write(t, filepath.Join(root, "existing.txt"), blockA)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{
		Roots:           []string{root},
		InitialScan:     true,
		Debounce:        20 * time.Millisecond,
		EventsPerSecond: 100,
		Burst:           4,
	})
	require.NoError(t, err)

	next := func() string {
		select {
		case p := <-events:
			return p
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for watcher event")
			return ""
		}
	}
	assert.Equal(t, existing, next())

	write(t, filepath.Join(root, "ignored.pdf"), "x")
	created := write(t, filepath.Join(root, "new.log"), blockB)
	for {
		p := next()
		assert.NotEqual(t, ".pdf", filepath.Ext(p))
		if p == created {
			break
		}
	}

	cancel()
	for range events {
	}
}

func TestStartWatcher_NoRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{})
	assert.Error(t, err)
}

type recordingQueue struct {
	mu   sync.Mutex
	jobs []jobs.Job
}

func (q *recordingQueue) Enqueue(_ context.Context, job jobs.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *recordingQueue) Shutdown(context.Context) {}

func TestForward(t *testing.T) {
	events := make(chan string, 2)
	errs := make(chan error)
	events <- "a.txt"
	events <- "b.txt"
	close(events)
	close(errs)

	q := &recordingQueue{}
	n := Forward(context.Background(), events, errs, q, "last", nil)
	assert.Equal(t, 2, n)
	require.Len(t, q.jobs, 2)
	assert.Equal(t, "a.txt", q.jobs[0].Source)
	assert.Equal(t, "last", q.jobs[0].Format)
	assert.NotEmpty(t, q.jobs[0].TraceID)
}

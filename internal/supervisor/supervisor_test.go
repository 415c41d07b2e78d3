package supervisor

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"hls-supervisor/internal/platform/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

func newTestSupervisor(t *testing.T, streams int, delay time.Duration) (*Supervisor, *fakeSpawner) {
	t.Helper()
	sp := newFakeSpawner()
	sup := New(Options{
		StreamCount: streams,
		SourceURL:   "rtsp://camera.local:8554/live",
		HLS: HLSParams{
			OutputRoot:      t.TempDir(),
			SegmentDuration: 2,
			PlaylistSize:    10,
		},
		FFmpegPath:   "ffmpeg",
		RestartDelay: delay,
	}, sp, testLogger(), nil)
	sup.now = newStepClock().Now
	t.Cleanup(func() { _ = sup.Shutdown() })
	return sup, sp
}

func registered(sup *Supervisor, id StreamID) bool {
	_, ok := sup.Status(id)
	return ok
}

func TestSupervisor_StartAll_six_streams(t *testing.T) {
	sup, sp := newTestSupervisor(t, 6, DefaultRestartDelay)

	require.NoError(t, sup.StartAll())
	assert.Equal(t, 6, sp.spawnCount())

	statuses := sup.Statuses()
	require.Len(t, statuses, 6)
	for i, s := range statuses {
		id := StreamID(i + 1)
		assert.Equal(t, id, s.StreamID)
		assert.Equal(t, StatusStarting, s.Status)
		assert.Equal(t, "/streams/stream"+id.String()+"/output.m3u8", s.OutputURL)
		require.NotNil(t, s.Uptime)
		assert.GreaterOrEqual(t, *s.Uptime, int64(0))
	}

	for _, cfg := range sup.Configs() {
		info, err := os.Stat(cfg.OutputDir())
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestSupervisor_StartAll_refuses_second_launch(t *testing.T) {
	sup, sp := newTestSupervisor(t, 3, DefaultRestartDelay)
	require.NoError(t, sup.StartAll())

	err := sup.StartAll()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWorkerExists)
	assert.Equal(t, 3, sp.spawnCount())
	assert.Len(t, sup.Statuses(), 3)
}

func TestSupervisor_readiness_reaches_running(t *testing.T) {
	sup, sp := newTestSupervisor(t, 2, DefaultRestartDelay)
	require.NoError(t, sup.StartAll())

	sp.latest(2).emit("Output #0, hls, to 'output.m3u8':")

	require.Eventually(t, func() bool {
		s, ok := sup.Status(2)
		return ok && s.Status == StatusRunning
	}, waitFor, 5*time.Millisecond)

	s, _ := sup.Status(1)
	assert.Equal(t, StatusStarting, s.Status)
	assert.Equal(t, map[string]int{"running": 1, "starting": 1}, sup.StatusCounts())
}

func TestSupervisor_StartAll_spawn_failure_marks_error(t *testing.T) {
	sup, sp := newTestSupervisor(t, 2, DefaultRestartDelay)
	execErr := errors.New("executable file not found")
	sp.setFail(execErr)

	err := sup.StartAll()

	var spawnErr *ProcessSpawnError
	require.ErrorAs(t, err, &spawnErr)
	assert.ErrorIs(t, err, execErr)

	statuses := sup.Statuses()
	require.Len(t, statuses, 2)
	for _, s := range statuses {
		assert.Equal(t, StatusError, s.Status)
		assert.Nil(t, s.Uptime, "uptime is absent for a worker that never started")
	}
}

func TestSupervisor_StartAll_directory_failure_skips_stream(t *testing.T) {
	sp := newFakeSpawner()
	root := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(root, []byte("x"), 0o644))

	sup := New(Options{
		StreamCount: 2,
		SourceURL:   "clip.mp4",
		HLS:         HLSParams{OutputRoot: root, SegmentDuration: 2, PlaylistSize: 10},
	}, sp, testLogger(), nil)

	err := sup.StartAll()

	var dirErr *DirectoryCreateError
	require.ErrorAs(t, err, &dirErr)
	assert.Empty(t, sup.Statuses())
	assert.Equal(t, 0, sp.spawnCount())
}

func TestSupervisor_crashed_worker_is_omitted_until_restart(t *testing.T) {
	sup, sp := newTestSupervisor(t, 6, 10*time.Millisecond)
	require.NoError(t, sup.StartAll())

	sp.latest(3).exit(errCrashed)

	require.Eventually(t, func() bool { return !registered(sup, 3) }, waitFor, 5*time.Millisecond)
	assert.Len(t, sup.Statuses(), 5)
	for _, s := range sup.Statuses() {
		assert.NotEqual(t, StreamID(3), s.StreamID)
	}

	require.Never(t, func() bool { return sp.spawnCount() > 6 }, 50*time.Millisecond, 5*time.Millisecond,
		"crashed workers are not relaunched automatically")

	err := sup.Restart(3)
	assert.ErrorIs(t, err, ErrProcessNotFound)
	require.Eventually(t, func() bool { return registered(sup, 3) }, waitFor, 5*time.Millisecond)
	assert.Len(t, sp.workers(3), 2)
}

func TestSupervisor_Restart_stops_then_relaunches(t *testing.T) {
	sup, sp := newTestSupervisor(t, 2, 20*time.Millisecond)
	require.NoError(t, sup.StartAll())

	before, _ := sup.registry.Get(1)
	old := sp.latest(1)

	require.NoError(t, sup.Restart(1))

	assert.False(t, registered(sup, 1), "record is removed before Restart returns")
	assert.True(t, old.wasTerminated())
	assert.True(t, registered(sup, 2))

	require.Eventually(t, func() bool { return registered(sup, 1) }, waitFor, 5*time.Millisecond)

	after, _ := sup.registry.Get(1)
	assert.True(t, after.StartedAt.After(before.StartedAt))
	assert.Greater(t, after.Generation, before.Generation)
	assert.NotEqual(t, before.PID, after.PID)
	assert.Len(t, sp.workers(1), 2)
}

func TestSupervisor_Restart_invalid_id(t *testing.T) {
	sup, sp := newTestSupervisor(t, 6, time.Millisecond)
	require.NoError(t, sup.StartAll())
	before := sup.registry.List()

	for _, id := range []StreamID{0, -1, 7, 100} {
		assert.ErrorIs(t, sup.Restart(id), ErrInvalidStreamID)
	}

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, before, sup.registry.List())
	assert.Equal(t, 6, sp.spawnCount())
	for id := StreamID(1); id <= 6; id++ {
		assert.False(t, sp.latest(id).wasTerminated())
	}
}

func TestSupervisor_Restart_superseded_relaunch_is_dropped(t *testing.T) {
	sup, sp := newTestSupervisor(t, 1, 40*time.Millisecond)
	require.NoError(t, sup.StartAll())

	require.NoError(t, sup.Restart(1))
	assert.ErrorIs(t, sup.Restart(1), ErrProcessNotFound)

	require.Eventually(t, func() bool { return registered(sup, 1) }, waitFor, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	assert.Len(t, sp.workers(1), 2, "only the latest restart relaunches")
	assert.Len(t, sup.Statuses(), 1)
}

func TestSupervisor_stale_exit_after_restart(t *testing.T) {
	sup, sp := newTestSupervisor(t, 1, 10*time.Millisecond)
	sp.setLinger(true)
	require.NoError(t, sup.StartAll())
	old := sp.latest(1)

	require.NoError(t, sup.Restart(1))
	require.Eventually(t, func() bool { return registered(sup, 1) }, waitFor, 5*time.Millisecond)
	current, _ := sup.registry.Get(1)

	old.exit(nil)

	require.Never(t, func() bool {
		rec, ok := sup.registry.Get(1)
		return !ok || rec.Generation != current.Generation
	}, 50*time.Millisecond, 5*time.Millisecond)
}

func TestSupervisor_Shutdown(t *testing.T) {
	sup, sp := newTestSupervisor(t, 4, 30*time.Millisecond)
	require.NoError(t, sup.StartAll())

	require.NoError(t, sup.Restart(2))
	require.NoError(t, sup.Shutdown())

	assert.Empty(t, sup.Statuses())
	for id := StreamID(1); id <= 4; id++ {
		assert.True(t, sp.latest(id).wasTerminated(), "stream %d", id)
	}

	require.Never(t, func() bool { return len(sup.Statuses()) > 0 }, 100*time.Millisecond, 5*time.Millisecond,
		"pending relaunch must be cancelled")

	require.NoError(t, sup.Shutdown())
	assert.Empty(t, sup.Statuses())
	assert.ErrorIs(t, sup.Restart(1), ErrSupervisorClosed)
}

func TestSupervisor_Shutdown_aggregates_terminate_errors(t *testing.T) {
	sup, sp := newTestSupervisor(t, 3, DefaultRestartDelay)
	require.NoError(t, sup.StartAll())

	sigErr := errors.New("operation not permitted")
	sp.latest(1).terminateErr = sigErr
	sp.latest(3).terminateErr = sigErr

	err := sup.Shutdown()
	require.Error(t, err)
	assert.ErrorIs(t, err, sigErr)
	assert.Contains(t, err.Error(), "stream 1")
	assert.Contains(t, err.Error(), "stream 3")
	assert.Empty(t, sup.Statuses(), "registry is cleared even when signalling fails")
}

func TestSupervisor_StartAll_after_Shutdown(t *testing.T) {
	sup, sp := newTestSupervisor(t, 2, time.Millisecond)
	require.NoError(t, sup.StartAll())
	require.NoError(t, sup.Shutdown())

	require.NoError(t, sup.StartAll())
	assert.Len(t, sup.Statuses(), 2)
	assert.Equal(t, 4, sp.spawnCount())
	assert.NoError(t, sup.Restart(1))
}

func TestSupervisor_publishes_lifecycle_events(t *testing.T) {
	sp := newFakeSpawner()
	bus := events.New()
	launched := make(chan events.WorkerLaunched, 4)
	restarts := make(chan events.RestartRequested, 1)
	defer bus.OnLaunched(func(e events.WorkerLaunched) { launched <- e })()
	defer bus.OnRestart(func(e events.RestartRequested) { restarts <- e })()

	sup := New(Options{
		StreamCount:  1,
		SourceURL:    "clip.mp4",
		HLS:          HLSParams{OutputRoot: t.TempDir(), SegmentDuration: 2, PlaylistSize: 10},
		RestartDelay: time.Hour,
	}, sp, testLogger(), bus)
	defer sup.Shutdown()

	require.NoError(t, sup.StartAll())
	select {
	case e := <-launched:
		assert.Equal(t, 1, e.StreamID)
		assert.Equal(t, sp.latest(1).PID(), e.PID)
		assert.Empty(t, e.Err)
	case <-time.After(waitFor):
		t.Fatal("no launch event")
	}

	require.NoError(t, sup.Restart(1))
	select {
	case e := <-restarts:
		assert.Equal(t, 1, e.StreamID)
	case <-time.After(waitFor):
		t.Fatal("no restart event")
	}
}

func TestSupervisor_Command(t *testing.T) {
	sup, _ := newTestSupervisor(t, 2, DefaultRestartDelay)

	cmd, err := sup.Command(2)
	require.NoError(t, err)
	assert.Equal(t, "ffmpeg", cmd.Path)
	assert.Contains(t, cmd.String(), filepath.Join("stream2", "output.m3u8"))

	_, err = sup.Command(3)
	assert.ErrorIs(t, err, ErrInvalidStreamID)
}

func TestSnapshot_uptime(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rec := WorkerRecord{StreamID: 4, Status: StatusRunning, StartedAt: start}

	s := snapshot(rec, start.Add(90*time.Second+900*time.Millisecond))
	require.NotNil(t, s.Uptime)
	assert.Equal(t, int64(90), *s.Uptime)

	s = snapshot(rec, start.Add(-5*time.Second))
	require.NotNil(t, s.Uptime)
	assert.Equal(t, int64(0), *s.Uptime, "clock skew never yields negative uptime")

	s = snapshot(WorkerRecord{StreamID: 4, Status: StatusError}, start)
	assert.Nil(t, s.Uptime)
	assert.Equal(t, "/streams/stream4/output.m3u8", s.OutputURL)
}

package pidfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/steveyegge/daemonize/internal/fsys"
)

func TestParse(t *testing.T) {
	for _, tc := range []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "4242", want: 4242},
		{in: "4242\n", want: 4242},
		{in: "  17 \n", want: 17},
		{in: "", wantErr: true},
		{in: "\n", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "0", wantErr: true},
		{in: "-3", wantErr: true},
	} {
		got, err := Parse([]byte(tc.in))
		if tc.wantErr {
			if err == nil {
				t.Errorf("Parse(%q) = %d, want error", tc.in, got)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("Parse(%q) = %d, %v; want %d", tc.in, got, err, tc.want)
		}
	}
}

func TestReadMissingPreservesNotExist(t *testing.T) {
	_, err := Read(fsys.NewFake(), "/run/my.pid.file")
	if !os.IsNotExist(err) {
		t.Errorf("Read missing = %v, want not-exist", err)
	}
}

func TestProbeMissing(t *testing.T) {
	st, err := Probe(fsys.OSFS{}, filepath.Join(t.TempDir(), "my.pid.file"))
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if st != (Status{}) {
		t.Errorf("Probe missing = %+v, want zero", st)
	}
	if st.Running() {
		t.Error("missing PID file reported running")
	}
}

func TestProbeSelfUnlocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "my.pid.file")
	writePID(t, path, os.Getpid())

	st, err := Probe(fsys.OSFS{}, path)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if !st.Exists || st.Locked {
		t.Errorf("Probe = %+v, want Exists and not Locked", st)
	}
	if st.PID != os.Getpid() || !st.Alive {
		t.Errorf("Probe = %+v, want our own PID alive", st)
	}
}

func TestProbeLocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "my.pid.file")
	writePID(t, path, os.Getpid())

	holder := flock.New(path)
	ok, err := holder.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock = %v, %v", ok, err)
	}
	defer holder.Unlock() //nolint:errcheck // test cleanup

	st, err := Probe(fsys.OSFS{}, path)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if !st.Locked || !st.Running() {
		t.Errorf("Probe = %+v, want Locked and Running", st)
	}
}

func TestProbeLockedEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "my.pid.file")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	holder := flock.New(path)
	if ok, err := holder.TryLock(); err != nil || !ok {
		t.Fatalf("TryLock = %v, %v", ok, err)
	}
	defer holder.Unlock() //nolint:errcheck // test cleanup

	st, err := Probe(fsys.OSFS{}, path)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if st.PID != 0 || !st.Running() {
		t.Errorf("Probe = %+v, want PID 0 but Running via lock", st)
	}
}

func TestIsLockedDoesNotHold(t *testing.T) {
	path := filepath.Join(t.TempDir(), "my.pid.file")
	writePID(t, path, os.Getpid())

	for i := 0; i < 2; i++ {
		locked, err := IsLocked(path)
		if err != nil {
			t.Fatal(err)
		}
		if locked {
			t.Fatalf("IsLocked call %d = true, want false", i)
		}
	}
}

func TestRemoveStaleRunning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "my.pid.file")
	writePID(t, path, os.Getpid())
	holder := flock.New(path)
	if ok, err := holder.TryLock(); err != nil || !ok {
		t.Fatalf("TryLock = %v, %v", ok, err)
	}
	defer holder.Unlock() //nolint:errcheck // test cleanup

	err := RemoveStale(fsys.OSFS{}, path)
	if !errors.Is(err, ErrRunning) {
		t.Fatalf("RemoveStale = %v, want ErrRunning", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("live PID file removed: %v", err)
	}
}

func TestIsLockedMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "my.pid.file")
	locked, err := IsLocked(path)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("IsLocked missing = %v, %v; want not-exist", locked, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("IsLocked created the PID file")
	}
}

func TestProbeReleasedBeforeLockTest(t *testing.T) {
	// The fake still sees the file; on disk the daemon already removed it.
	path := filepath.Join(t.TempDir(), "my.pid.file")
	fs := fsys.NewFake()
	fs.Files[path] = []byte("4242\n")

	st, err := Probe(fs, path)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if st != (Status{}) {
		t.Errorf("Probe = %+v, want zero", st)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Probe re-created the released PID file")
	}
}

func TestRemoveStaleMissing(t *testing.T) {
	if err := RemoveStale(fsys.OSFS{}, filepath.Join(t.TempDir(), "nope")); err != nil {
		t.Errorf("RemoveStale missing = %v, want nil", err)
	}
}

func TestWaitReleasedAlreadyGone(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := WaitReleased(ctx, filepath.Join(t.TempDir(), "my.pid.file")); err != nil {
		t.Errorf("WaitReleased = %v, want nil", err)
	}
}

func TestWaitReleasedMissingDir(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	path := filepath.Join(t.TempDir(), "no", "such", "dir", "my.pid.file")
	if err := WaitReleased(ctx, path); err != nil {
		t.Errorf("WaitReleased = %v, want nil", err)
	}
}

func TestWaitReleasedOnRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "my.pid.file")
	writePID(t, path, os.Getpid())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go func() {
		time.Sleep(100 * time.Millisecond)
		os.Remove(path) //nolint:errcheck // test
	}()
	if err := WaitReleased(ctx, path); err != nil {
		t.Errorf("WaitReleased = %v, want nil", err)
	}
}

func TestWaitReleasedTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "my.pid.file")
	writePID(t, path, os.Getpid())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := WaitReleased(ctx, path)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitReleased = %v, want DeadlineExceeded", err)
	}
}

func writePID(t *testing.T, path string, pid int) {
	t.Helper()
	if err := os.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
}

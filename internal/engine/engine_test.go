package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkaraca/dukkan/internal/tenant"
)

// device bundles one device's view of a kind: its own local replica and
// service, sharing the remote store with other devices.
type device struct {
	svc   *Service[note]
	local *memLocal
}

func newDevice(t *testing.T, remote *memRemote, deviceID string) *device {
	t.Helper()
	local := newMemLocal()
	kind := notesKind()
	coord := NewCoordinator(kind, local, remote, testLogger())
	svc := NewService(kind, local, remote, coord, tenant.Static{ID: "t1"}, nil, nil, testLogger(), deviceID)
	return &device{svc: svc, local: local}
}

func TestTwoDevices_DeletePropagates(t *testing.T) {
	remote := newMemRemote()
	ctx := context.Background()

	deviceA := newDevice(t, remote, "device-a")
	deviceB := newDevice(t, remote, "device-b")

	rec, err := deviceA.svc.CreateOrUpdate(ctx, "", note{Title: "shared"})
	require.NoError(t, err)
	_, err = deviceA.svc.Sync(ctx)
	require.NoError(t, err)

	_, err = deviceB.svc.Sync(ctx)
	require.NoError(t, err)
	got, err := deviceB.svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "shared", got.Payload.Title)
	assert.Equal(t, "device-a", got.LastModifiedBy)

	require.NoError(t, deviceB.svc.SoftDelete(ctx, rec.ID))
	_, err = deviceB.svc.Sync(ctx)
	require.NoError(t, err)
	assert.False(t, remote.has("t1", rec.ID))

	_, err = deviceA.svc.Sync(ctx)
	require.NoError(t, err)
	_, err = deviceA.svc.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrNotFound, "deletion must reach the other device")
	_, ok := deviceA.local.get("t1", rec.ID)
	assert.False(t, ok)
}

func TestOfflineEdit_ReachesRemoteBeforePullOverwrites(t *testing.T) {
	remote := newMemRemote()
	ctx := context.Background()

	deviceA := newDevice(t, remote, "device-a")
	deviceB := newDevice(t, remote, "device-b")

	rec, err := deviceA.svc.CreateOrUpdate(ctx, "", note{Title: "v1"})
	require.NoError(t, err)
	_, err = deviceA.svc.Sync(ctx)
	require.NoError(t, err)
	_, err = deviceB.svc.Sync(ctx)
	require.NoError(t, err)

	// B edits and syncs while A is offline.
	_, err = deviceB.svc.CreateOrUpdate(ctx, rec.ID, note{Title: "from B"})
	require.NoError(t, err)
	_, err = deviceB.svc.Sync(ctx)
	require.NoError(t, err)

	// A edits offline, then reconnects and syncs. The push phase runs
	// before the pull, so A's edit is uploaded rather than silently
	// overwritten by B's snapshot.
	_, err = deviceA.svc.CreateOrUpdate(ctx, rec.ID, note{Title: "from A"})
	require.NoError(t, err)
	_, err = deviceA.svc.Sync(ctx)
	require.NoError(t, err)

	got, err := deviceA.svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "from A", got.Payload.Title)
	assert.Equal(t, StateClean, got.State)

	// B picks A's version up on its next pass.
	_, err = deviceB.svc.Sync(ctx)
	require.NoError(t, err)
	got, err = deviceB.svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "from A", got.Payload.Title)
}

func newKindSyncer(t *testing.T, name string, remote *memRemote) (*Service[note], *memLocal) {
	t.Helper()
	kind := notesKind()
	kind.Name = name
	local := newMemLocal()
	coord := NewCoordinator(kind, local, remote, testLogger())
	svc := NewService(kind, local, remote, coord, tenant.Static{ID: "t1"}, nil, nil, testLogger(), "device-a")
	return svc, local
}

func TestSyncAll_KindsFailIndependently(t *testing.T) {
	ctx := context.Background()

	healthy := newMemRemote()
	broken := newMemRemote()
	broken.listErr = ErrNetworkUnavailable

	notesSvc, notesLocal := newKindSyncer(t, "notes", healthy)
	draftsSvc, _ := newKindSyncer(t, "drafts", broken)

	require.NoError(t, notesLocal.Upsert(ctx, dirtyNote("t1", "n1", "first", time.Now().UTC())))

	eng := New(tenant.Static{ID: "t1"}, testLogger())
	eng.Register(notesSvc)
	eng.Register(draftsSvc)

	outcomes, err := eng.SyncAll(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetworkUnavailable)
	assert.Contains(t, err.Error(), "drafts")

	require.Len(t, outcomes, 2)
	assert.True(t, healthy.has("t1", "n1"), "healthy kind must complete despite the broken one")
}

func TestSyncAll_FailsClosedWithoutSession(t *testing.T) {
	eng := New(tenant.Static{}, testLogger())
	_, err := eng.SyncAll(context.Background())
	assert.ErrorIs(t, err, tenant.ErrNoSession)
}

func TestRunOnConnect_SyncsOnOnlineEdge(t *testing.T) {
	remote := newMemRemote()
	svc, _ := newKindSyncer(t, "notes", remote)

	eng := New(tenant.Static{ID: "t1"}, testLogger())
	eng.Register(svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan bool)
	done := make(chan struct{})
	go func() {
		eng.RunOnConnect(ctx, changes)
		close(done)
	}()

	changes <- false // offline edge: nothing happens
	changes <- true  // online edge: full pass

	require.Eventually(t, func() bool {
		remote.mu.Lock()
		defer remote.mu.Unlock()
		return remote.listCalls == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestRunOnConnect_SkipsWithoutSession(t *testing.T) {
	remote := newMemRemote()
	svc, _ := newKindSyncer(t, "notes", remote)

	eng := New(tenant.Static{}, testLogger())
	eng.Register(svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan bool)
	done := make(chan struct{})
	go func() {
		eng.RunOnConnect(ctx, changes)
		close(done)
	}()

	changes <- true
	changes <- true

	cancel()
	<-done

	remote.mu.Lock()
	defer remote.mu.Unlock()
	assert.Zero(t, remote.listCalls, "no sync without an authenticated tenant")
}

package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	pkgerrors "github.com/agentstation/sightings/pkg/errors"
	"github.com/agentstation/sightings/pkg/observations"
)

func tempDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "sightings-store-test-*")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

// setupStore opens a fresh database in a temp directory.
func setupStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(tempDir(t), "nested", "sightings.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func put(t *testing.T, s *Store, obs *observations.Observation) {
	t.Helper()
	err := s.Write(context.Background(), func(tx *Tx) error {
		return tx.PutObservation(obs)
	})
	if err != nil {
		t.Fatalf("PutObservation: %v", err)
	}
}

func TestPutAndReadObservation(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	put(t, s, &observations.Observation{
		UUID:       "obs-1",
		PlaceGuess: "Tilden Park",
		Taxon:      &observations.Taxon{ID: 47219, Name: "Apis mellifera"},
		Identifications: []observations.Identification{
			{UUID: "id-1", Taxon: &observations.Taxon{ID: 47219}},
		},
	})

	got, err := s.Observation(ctx, "obs-1")
	if err != nil {
		t.Fatalf("Observation: %v", err)
	}
	if got.PlaceGuess != "Tilden Park" {
		t.Errorf("PlaceGuess = %q", got.PlaceGuess)
	}
	if len(got.Identifications) != 1 || got.Identifications[0].UUID != "id-1" {
		t.Errorf("Identifications = %+v", got.Identifications)
	}
	if got.Viewed {
		t.Error("new observation should not be viewed")
	}

	_, err = s.Observation(ctx, "missing")
	if !pkgerrors.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestSetViewedOnce(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	put(t, s, &observations.Observation{UUID: "obs-1"})

	var changed bool
	err := s.Write(ctx, func(tx *Tx) error {
		var err error
		changed, err = tx.SetViewed("obs-1")
		return err
	})
	if err != nil || !changed {
		t.Fatalf("first SetViewed: changed=%v err=%v", changed, err)
	}

	err = s.Write(ctx, func(tx *Tx) error {
		var err error
		changed, err = tx.SetViewed("obs-1")
		return err
	})
	if err != nil || changed {
		t.Errorf("second SetViewed: changed=%v err=%v", changed, err)
	}

	got, _ := s.Observation(ctx, "obs-1")
	if !got.Viewed {
		t.Error("observation should be viewed")
	}

	pending, err := s.PendingViewed(ctx)
	if err != nil {
		t.Fatalf("PendingViewed: %v", err)
	}
	if len(pending) != 1 || pending[0] != "obs-1" {
		t.Errorf("PendingViewed = %v", pending)
	}

	if err := s.ClearViewedSync(ctx, "obs-1"); err != nil {
		t.Fatalf("ClearViewedSync: %v", err)
	}
	pending, _ = s.PendingViewed(ctx)
	if len(pending) != 0 {
		t.Errorf("PendingViewed after clear = %v", pending)
	}

	err = s.Write(ctx, func(tx *Tx) error {
		_, err := tx.SetViewed("missing")
		return err
	})
	if !pkgerrors.IsNotFound(err) {
		t.Errorf("SetViewed on missing record: %v", err)
	}
}

func TestServerCopyKeepsLocalViewed(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	put(t, s, &observations.Observation{UUID: "obs-1"})

	_ = s.Write(ctx, func(tx *Tx) error {
		_, err := tx.SetViewed("obs-1")
		return err
	})

	// A fresher server copy that still says not viewed.
	put(t, s, &observations.Observation{UUID: "obs-1", QualityGrade: "research", Viewed: false})

	got, _ := s.Observation(ctx, "obs-1")
	if !got.Viewed {
		t.Error("viewed flag must not flip back")
	}
	if got.QualityGrade != "research" {
		t.Errorf("document not replaced: %+v", got)
	}
}

func TestWriteRollsBack(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Write(ctx, func(tx *Tx) error {
		if err := tx.PutObservation(&observations.Observation{UUID: "obs-1"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Write error = %v", err)
	}
	if _, err := s.Observation(ctx, "obs-1"); !pkgerrors.IsNotFound(err) {
		t.Errorf("rolled back write is visible: %v", err)
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Error("panic should propagate")
			}
		}()
		_ = s.Write(ctx, func(tx *Tx) error {
			_ = tx.PutObservation(&observations.Observation{UUID: "obs-2"})
			panic("callback panic")
		})
	}()
	if _, err := s.Observation(ctx, "obs-2"); !pkgerrors.IsNotFound(err) {
		t.Errorf("write from panicking callback is visible: %v", err)
	}
}

func TestTxObservationSeesOwnWrites(t *testing.T) {
	s := setupStore(t)
	err := s.Write(context.Background(), func(tx *Tx) error {
		if err := tx.PutObservation(&observations.Observation{UUID: "obs-1"}); err != nil {
			return err
		}
		got, err := tx.Observation("obs-1")
		if err != nil {
			return err
		}
		if got.UUID != "obs-1" {
			t.Errorf("UUID = %q", got.UUID)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
}

func TestUsersAndSignedIn(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	err := s.Write(ctx, func(tx *Tx) error {
		if err := tx.PutUser(&observations.User{ID: 7, Login: "naturalist", SignedIn: true}); err != nil {
			return err
		}
		return tx.PutUser(&observations.User{ID: 8, Login: "other"})
	})
	if err != nil {
		t.Fatalf("PutUser: %v", err)
	}

	u, err := s.SignedInUser(ctx)
	if err != nil || u != nil {
		t.Fatalf("nobody should be signed in yet: %v %v", u, err)
	}

	if err := s.SetSignedIn(ctx, 7); err != nil {
		t.Fatalf("SetSignedIn: %v", err)
	}
	u, err = s.SignedInUser(ctx)
	if err != nil || u == nil || u.ID != 7 || !u.SignedIn {
		t.Fatalf("SignedInUser = %+v, %v", u, err)
	}

	if err := s.SetSignedIn(ctx, 8); err != nil {
		t.Fatalf("SetSignedIn: %v", err)
	}
	first, _ := s.User(ctx, 7)
	if first.SignedIn {
		t.Error("switching users must clear the previous flag")
	}

	if err := s.SetSignedIn(ctx, 99); !pkgerrors.IsNotFound(err) {
		t.Errorf("SetSignedIn(unknown) = %v", err)
	}
	// The failed switch rolled back, so user 8 is still signed in.
	u, _ = s.SignedInUser(ctx)
	if u == nil || u.ID != 8 {
		t.Errorf("SignedInUser after failed switch = %+v", u)
	}

	if err := s.SetSignedIn(ctx, 0); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	u, _ = s.SignedInUser(ctx)
	if u != nil {
		t.Errorf("expected signed out, got %+v", u)
	}
}

func TestValidationAndClose(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	err := s.Write(ctx, func(tx *Tx) error { return tx.PutObservation(&observations.Observation{}) })
	if !pkgerrors.IsValidationError(err) {
		t.Errorf("PutObservation without uuid: %v", err)
	}
	err = s.Write(ctx, func(tx *Tx) error { return tx.PutUser(&observations.User{}) })
	if !pkgerrors.IsValidationError(err) {
		t.Errorf("PutUser without id: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if _, err := s.Observation(ctx, "x"); !pkgerrors.IsClosed(err) {
		t.Errorf("Observation after Close: %v", err)
	}
	if err := s.Write(ctx, func(*Tx) error { return nil }); !pkgerrors.IsClosed(err) {
		t.Errorf("Write after Close: %v", err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(tempDir(t), "sightings.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	put(t, s, &observations.Observation{UUID: "obs-1"})
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if _, err := s.Observation(context.Background(), "obs-1"); err != nil {
		t.Errorf("Observation after reopen: %v", err)
	}
	if s.Path() != path {
		t.Errorf("Path() = %s", s.Path())
	}
}

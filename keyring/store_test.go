package keyring

import (
	"path/filepath"
	"testing"

	goerrors "github.com/agilira/go-errors"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keyring.sqlite")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func key(b byte) [KeySize]byte {
	var k [KeySize]byte
	for i := range k {
		k[i] = b
	}
	return k
}

func TestSetPublicGetPublicRoundTrip(t *testing.T) {
	s := openTestStore(t)
	want := key(0x11)
	if _, err := s.SetPublic("alice", want); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetPublic("alice")
	if err != nil {
		t.Fatal(err)
	}
	if *got != want {
		t.Errorf("got %x, want %x", *got, want)
	}
}

func TestSetPairGetPairRoundTrip(t *testing.T) {
	s := openTestStore(t)
	pub, priv := key(0x22), key(0x33)
	if _, err := s.SetPair("alice", pub, priv); err != nil {
		t.Fatal(err)
	}
	pair, err := s.GetPair("alice")
	if err != nil {
		t.Fatal(err)
	}
	if *pair.Public != pub || *pair.Private != priv {
		t.Errorf("got pub=%x priv=%x", *pair.Public, *pair.Private)
	}
}

func TestGetPublicNotFound(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.GetPublic("ghost"); !goerrors.HasCode(err, CodeNotFound) {
		t.Errorf("err = %v, want CodeNotFound", err)
	}
}

func TestGetPairRequiresBothHalves(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.SetPublic("alice", key(0x01)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetPair("alice"); !goerrors.HasCode(err, CodeNotFound) {
		t.Errorf("err = %v, want CodeNotFound for missing private half", err)
	}
}

func TestSetPublicOnExistingPrivateOnlyNameYieldsBoth(t *testing.T) {
	s := openTestStore(t)
	priv := key(0x44)
	if _, err := s.SetPrivate("alice", priv); err != nil {
		t.Fatal(err)
	}
	pub := key(0x55)
	result, err := s.SetPublic("alice", pub)
	if err != nil {
		t.Fatal(err)
	}
	if !result.PublicStored {
		t.Error("PublicStored = false, want true")
	}
	pair, err := s.GetPair("alice")
	if err != nil {
		t.Fatal(err)
	}
	if *pair.Public != pub || *pair.Private != priv {
		t.Errorf("got pub=%x priv=%x", *pair.Public, *pair.Private)
	}
}

func TestSetPublicConflict(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.SetPublic("alice", key(0x01)); err != nil {
		t.Fatal(err)
	}
	_, err := s.SetPublic("alice", key(0x02))
	if !goerrors.HasCode(err, CodeConflict) {
		t.Fatalf("err = %v, want CodeConflict", err)
	}
	got, gerr := s.GetPublic("alice")
	if gerr != nil {
		t.Fatal(gerr)
	}
	if *got != key(0x01) {
		t.Error("conflicting SetPublic must not overwrite the existing key")
	}
}

func TestPutPublicOverwritesWithoutTouchingPrivate(t *testing.T) {
	s := openTestStore(t)
	priv := key(0x66)
	if _, err := s.SetPair("alice", key(0x01), priv); err != nil {
		t.Fatal(err)
	}
	newPub := key(0x77)
	if _, err := s.PutPublic("alice", newPub); err != nil {
		t.Fatal(err)
	}
	pair, err := s.GetPair("alice")
	if err != nil {
		t.Fatal(err)
	}
	if *pair.Public != newPub {
		t.Error("PutPublic did not overwrite the public half")
	}
	if *pair.Private != priv {
		t.Error("PutPublic must not touch the private half")
	}
}

func TestPutPublicAfterConflictOverwrites(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.SetPublic("alice", key(0x01)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SetPublic("alice", key(0x02)); err == nil {
		t.Fatal("expected conflict on second SetPublic")
	}
	if _, err := s.PutPublic("alice", key(0x02)); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetPublic("alice")
	if err != nil {
		t.Fatal(err)
	}
	if *got != key(0x02) {
		t.Error("PutPublic must overwrite after a failed SetPublic")
	}
}

func TestDeletePairForceOnNonexistentNameIsNoop(t *testing.T) {
	s := openTestStore(t)
	result, err := s.DeletePair("ghost", true)
	if err != nil {
		t.Fatal(err)
	}
	if result.Deleted() {
		t.Error("deleting a nonexistent pair must not report anything deleted")
	}
}

func TestDeletePairWithoutForceOnNonexistentNameNotDeleted(t *testing.T) {
	s := openTestStore(t)
	result, err := s.DeletePair("ghost", false)
	if err != nil {
		t.Fatal(err)
	}
	if !result.NotDeleted {
		t.Error("NotDeleted = false, want true")
	}
}

func TestDeletePairOnPublicOnlyNameReportsPrivateNotDeleted(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.SetPublic("alice", key(0x01)); err != nil {
		t.Fatal(err)
	}
	result, err := s.DeletePair("alice", false)
	if err != nil {
		t.Fatal(err)
	}
	if !result.PublicDeleted {
		t.Error("PublicDeleted = false, want true")
	}
	if result.PrivateDeleted {
		t.Error("PrivateDeleted = true, want false: there was no private half to delete")
	}
}

func TestDeletePublicThenGetPrivateStillFound(t *testing.T) {
	s := openTestStore(t)
	pub, priv := key(0x11), key(0x22)
	if _, err := s.SetPair("alice", pub, priv); err != nil {
		t.Fatal(err)
	}
	result, err := s.DeletePublic("alice", false)
	if err != nil {
		t.Fatal(err)
	}
	if !result.PublicDeleted {
		t.Error("PublicDeleted = false, want true")
	}
	if _, err := s.GetPublic("alice"); !goerrors.HasCode(err, CodeNotFound) {
		t.Errorf("GetPublic after delete: err = %v, want CodeNotFound", err)
	}
	got, err := s.GetPrivate("alice")
	if err != nil {
		t.Fatal(err)
	}
	if *got != priv {
		t.Error("deleting the public half must not affect the private half")
	}
}

func TestDeletePrivateRemovesNameRowWhenLastHalfGone(t *testing.T) {
	s := openTestStore(t)
	pub, priv := key(0x11), key(0x22)
	if _, err := s.SetPair("alice", pub, priv); err != nil {
		t.Fatal(err)
	}
	if _, err := s.DeletePublic("alice", false); err != nil {
		t.Fatal(err)
	}
	if _, err := s.DeletePrivate("alice", false); err != nil {
		t.Fatal(err)
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM Names WHERE Name = ?", "alice").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("Names row for alice still present after both halves deleted, want it gone")
	}
}

func TestListOrdersLexicographicallyAndReportsMissingHalves(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.SetPair("bob", key(0x01), key(0x02)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SetPublic("alice", key(0x03)); err != nil {
		t.Fatal(err)
	}

	var names []string
	var pairs []Pair
	if err := s.List(func(name string, pair Pair) bool {
		names = append(names, name)
		pairs = append(pairs, pair)
		return true
	}); err != nil {
		t.Fatal(err)
	}

	if len(names) != 2 || names[0] != "alice" || names[1] != "bob" {
		t.Fatalf("names = %v, want [alice bob]", names)
	}
	if pairs[0].Public == nil || pairs[0].Private != nil {
		t.Error("alice should have a public half and no private half")
	}
	if pairs[1].Public == nil || pairs[1].Private == nil {
		t.Error("bob should have both halves")
	}
}

func TestListEarlyExit(t *testing.T) {
	s := openTestStore(t)
	for _, name := range []string{"alice", "bob", "carol"} {
		if _, err := s.SetPublic(name, key(0x01)); err != nil {
			t.Fatal(err)
		}
	}

	var seen []string
	if err := s.List(func(name string, pair Pair) bool {
		seen = append(seen, name)
		return len(seen) < 2
	}); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 2 {
		t.Errorf("List kept iterating after fn returned false: saw %v", seen)
	}
}

func TestFreshStoreEndToEndScenario(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.SetPair("alice", key(0xA1), key(0xA2)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SetPair("bob", key(0xB1), key(0xB2)); err != nil {
		t.Fatal(err)
	}

	var names []string
	if err := s.List(func(name string, _ Pair) bool {
		names = append(names, name)
		return true
	}); err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "alice" || names[1] != "bob" {
		t.Fatalf("names = %v, want [alice bob]", names)
	}

	if _, err := s.DeletePublic("alice", false); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetPublic("alice"); !goerrors.HasCode(err, CodeNotFound) {
		t.Error("get_public after delete_public should be NotFound")
	}
	if _, err := s.GetPrivate("alice"); err != nil {
		t.Error("get_private after delete_public should still succeed")
	}

	if _, err := s.DeletePrivate("alice", false); err != nil {
		t.Fatal(err)
	}
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM Names WHERE Name = ?", "alice").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Error("Names row for alice should be gone once both halves are deleted")
	}

	if _, err := s.SetPublic("bob", key(0xC1)); !goerrors.HasCode(err, CodeConflict) {
		t.Error("set_public on an existing public half should conflict")
	}
	if _, err := s.PutPublic("bob", key(0xC1)); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetPublic("bob")
	if err != nil {
		t.Fatal(err)
	}
	if *got != key(0xC1) {
		t.Error("put_public should overwrite after the conflicting set_public")
	}
}

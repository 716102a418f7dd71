package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dtapi/user-service/internal/core/domain"
	"github.com/dtapi/user-service/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var testRoles = domain.RoleSet{Customer: 1, Translator: 2, Admin: 3}

type userSvcFixture struct {
	svc    *UserService
	store  *stubStore
	hasher *stubHasher
	locker *stubLocker
}

func newUserSvc() userSvcFixture {
	store := newStubStore()
	hasher := &stubHasher{}
	locker := &stubLocker{}
	return userSvcFixture{
		svc:    NewUserService(store, hasher, locker, testRoles, zerolog.Nop()),
		store:  store,
		hasher: hasher,
		locker: locker,
	}
}

func customerSubmission(blacklist ...int64) ports.UserSubmission {
	return ports.UserSubmission{
		Role:                 testRoles.Customer,
		Name:                 "Acme AB",
		Email:                "billing@acme.test",
		Password:             "s3cret",
		Status:               "1",
		CustomerType:         "company",
		TranslatorExclusions: blacklist,
	}
}

func translatorSubmission(languages ...int64) ports.UserSubmission {
	return ports.UserSubmission{
		Role:      testRoles.Translator,
		Name:      "Eva",
		Email:     "eva@translators.test",
		Password:  "pw",
		Status:    "1",
		WorkedFor: "no",
		Languages: languages,
	}
}

func mustUpsert(t *testing.T, svc *UserService, id *int64, sub ports.UserSubmission) *domain.User {
	t.Helper()
	u, err := svc.Upsert(context.Background(), id, sub)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	return u
}

func idPtr(id int64) *int64 { return &id }

// ---------------------------------------------------------------------------
// Create / update
// ---------------------------------------------------------------------------

func TestUserService_Upsert_CreatesCustomer(t *testing.T) {
	f := newUserSvc()

	u := mustUpsert(t, f.svc, nil, customerSubmission(21, 22))

	if u.ID == 0 {
		t.Fatal("expected an assigned id")
	}
	if u.Role != testRoles.Customer || u.Name != "Acme AB" || u.Email != "billing@acme.test" {
		t.Errorf("scalar fields not copied: %+v", u)
	}
	if u.PasswordHash == "" || u.PasswordHash == "s3cret" {
		t.Errorf("expected hashed password, got %q", u.PasswordHash)
	}
	if u.Status != domain.StatusEnabled {
		t.Errorf("expected enabled, got %q", u.Status)
	}
	if roles := f.store.state.roles[u.ID]; len(roles) != 1 || roles[0] != testRoles.Customer {
		t.Errorf("expected exactly the customer role, got %v", roles)
	}
	if _, ok := f.store.state.profiles[u.ID]; !ok {
		t.Error("expected a customer profile")
	}
	if got := f.store.targets(domain.EdgeBlacklist, u.ID); !equalIDs(got, []int64{21, 22}) {
		t.Errorf("expected blacklist [21 22], got %v", got)
	}
	if len(f.locker.locked) != 0 {
		t.Errorf("creates have no id to lock, got %v", f.locker.locked)
	}
}

func TestUserService_Upsert_BlacklistMatchesSubmissionRegardlessOfPriorState(t *testing.T) {
	f := newUserSvc()
	u := mustUpsert(t, f.svc, nil, customerSubmission(1, 2, 3))

	mustUpsert(t, f.svc, idPtr(u.ID), customerSubmission(3, 4))

	if got := f.store.targets(domain.EdgeBlacklist, u.ID); !equalIDs(got, []int64{3, 4}) {
		t.Fatalf("expected blacklist [3 4], got %v", got)
	}
}

func TestUserService_Upsert_EmptyBlacklistClearsEdges(t *testing.T) {
	f := newUserSvc()
	u := mustUpsert(t, f.svc, nil, customerSubmission(1, 2))

	mustUpsert(t, f.svc, idPtr(u.ID), customerSubmission())

	if got := f.store.targets(domain.EdgeBlacklist, u.ID); len(got) != 0 {
		t.Fatalf("expected empty blacklist, got %v", got)
	}
}

func TestUserService_Upsert_IsIdempotent(t *testing.T) {
	f := newUserSvc()
	sub := customerSubmission(5, 6)
	sub.Towns = []int64{40}
	u := mustUpsert(t, f.svc, nil, sub)

	sub.Password = ""
	f.store.resetOps()
	again := mustUpsert(t, f.svc, idPtr(u.ID), sub)

	if ops := f.store.opsWithPrefix("create:blacklist"); len(ops) != 0 {
		t.Errorf("replay must not insert blacklist edges, got %v", ops)
	}
	if got := f.store.targets(domain.EdgeBlacklist, u.ID); !equalIDs(got, []int64{5, 6}) {
		t.Errorf("expected blacklist [5 6], got %v", got)
	}
	if got := f.store.targets(domain.EdgeTown, u.ID); !equalIDs(got, []int64{40}) {
		t.Errorf("expected towns [40], got %v", got)
	}
	if len(f.store.state.users) != 1 || len(f.store.state.profiles) != 1 {
		t.Errorf("expected one user and one profile, got %d/%d", len(f.store.state.users), len(f.store.state.profiles))
	}
	if again.PasswordHash != u.PasswordHash {
		t.Errorf("password hash changed on replay")
	}
}

func TestUserService_Upsert_TranslatorLanguagesScenario(t *testing.T) {
	f := newUserSvc()
	u := mustUpsert(t, f.svc, nil, translatorSubmission(3, 7))

	if got := f.store.targets(domain.EdgeLanguage, u.ID); !equalIDs(got, []int64{3, 7}) {
		t.Fatalf("expected languages [3 7], got %v", got)
	}

	f.store.resetOps()
	mustUpsert(t, f.svc, idPtr(u.ID), translatorSubmission(7, 9))

	if got := f.store.targets(domain.EdgeLanguage, u.ID); !equalIDs(got, []int64{7, 9}) {
		t.Fatalf("expected languages [7 9], got %v", got)
	}
	if ops := f.store.opsWithPrefix("create:language"); len(ops) != 1 || ops[0] != "create:language:9" {
		t.Errorf("expected only language 9 created, got %v", ops)
	}
	if ops := f.store.opsWithPrefix("delete:language"); len(ops) != 1 || ops[0] != "delete:language:3" {
		t.Errorf("expected only language 3 deleted, got %v", ops)
	}
}

func TestUserService_Upsert_TranslatorOrganizationNumberNullUnlessWorkedFor(t *testing.T) {
	f := newUserSvc()
	sub := translatorSubmission(1)
	sub.WorkedFor = "no"
	sub.OrganizationNumber = "556677-8899"

	u := mustUpsert(t, f.svc, nil, sub)

	if p := f.store.state.profiles[u.ID]; p.OrganizationNumber != nil {
		t.Errorf("expected nil organization number, got %q", *p.OrganizationNumber)
	}
}

func TestUserService_Upsert_PasswordKeptWithoutNewValue(t *testing.T) {
	f := newUserSvc()
	u := mustUpsert(t, f.svc, nil, customerSubmission())
	original := u.PasswordHash

	sub := customerSubmission()
	sub.Password = ""
	kept := mustUpsert(t, f.svc, idPtr(u.ID), sub)
	if kept.PasswordHash != original {
		t.Fatalf("expected hash %q to be kept, got %q", original, kept.PasswordHash)
	}

	sub.Password = "n3w"
	changed := mustUpsert(t, f.svc, idPtr(u.ID), sub)
	if changed.PasswordHash == original {
		t.Fatal("expected hash to change when a new password is submitted")
	}
	if !strings.Contains(changed.PasswordHash, "n3w") {
		t.Errorf("expected hash of the new password, got %q", changed.PasswordHash)
	}
}

func TestUserService_Upsert_NewUserAlwaysHashed(t *testing.T) {
	f := newUserSvc()
	sub := customerSubmission()
	sub.Password = ""

	u := mustUpsert(t, f.svc, nil, sub)

	if f.hasher.calls != 1 || u.PasswordHash == "" {
		t.Errorf("expected new user password to be hashed once, calls=%d hash=%q", f.hasher.calls, u.PasswordHash)
	}
}

func TestUserService_Upsert_ReferenceSentinels(t *testing.T) {
	cases := []struct {
		company, department string
		wantCompany         int64
		wantDepartment      int64
	}{
		{"", "", 0, 0},
		{"42", "7", 42, 7},
		{" 42 ", "", 42, 0},
		{"n/a", "x", 0, 0},
	}

	for _, tc := range cases {
		f := newUserSvc()
		sub := customerSubmission()
		sub.CompanyID = tc.company
		sub.DepartmentID = tc.department

		u := mustUpsert(t, f.svc, nil, sub)
		if u.CompanyID != tc.wantCompany || u.DepartmentID != tc.wantDepartment {
			t.Errorf("company=%q department=%q: got %d/%d, want %d/%d",
				tc.company, tc.department, u.CompanyID, u.DepartmentID, tc.wantCompany, tc.wantDepartment)
		}
	}
}

func TestUserService_Upsert_StatusToggle(t *testing.T) {
	cases := []struct {
		submitted string
		want      domain.UserStatus
	}{
		{"1", domain.StatusEnabled},
		{"0", domain.StatusDisabled},
		{"", domain.StatusDisabled},
		{"yes", domain.StatusDisabled},
	}

	for _, tc := range cases {
		f := newUserSvc()
		sub := customerSubmission()
		sub.Status = tc.submitted

		u := mustUpsert(t, f.svc, nil, sub)
		if u.Status != tc.want {
			t.Errorf("status=%q: expected %q, got %q", tc.submitted, tc.want, u.Status)
		}
		if stored := f.store.state.users[u.ID].Status; stored != tc.want {
			t.Errorf("status=%q: stored %q, want %q", tc.submitted, stored, tc.want)
		}
	}
}

func TestUserService_Upsert_RoleSwitchLeavesSingleRole(t *testing.T) {
	f := newUserSvc()
	u := mustUpsert(t, f.svc, nil, customerSubmission())

	mustUpsert(t, f.svc, idPtr(u.ID), translatorSubmission(1))

	roles := f.store.state.roles[u.ID]
	if len(roles) != 1 || roles[0] != testRoles.Translator {
		t.Fatalf("expected exactly the translator role, got %v", roles)
	}
	if ops := f.store.opsWithPrefix("clear-roles:"); len(ops) != 1 {
		t.Errorf("expected roles cleared once on update, got %v", ops)
	}
}

func TestUserService_Upsert_AdminHasNoProfileOrAssociations(t *testing.T) {
	f := newUserSvc()
	sub := ports.UserSubmission{
		Role:                 testRoles.Admin,
		Name:                 "root",
		Status:               "1",
		TranslatorExclusions: []int64{1},
		Languages:            []int64{2},
	}

	u := mustUpsert(t, f.svc, nil, sub)

	if _, ok := f.store.state.profiles[u.ID]; ok {
		t.Error("admin must not get a role profile")
	}
	if got := f.store.targets(domain.EdgeBlacklist, u.ID); len(got) != 0 {
		t.Errorf("admin must not get blacklist edges, got %v", got)
	}
	if got := f.store.targets(domain.EdgeLanguage, u.ID); len(got) != 0 {
		t.Errorf("admin must not get language edges, got %v", got)
	}
}

func TestUserService_Upsert_TownsForAnyRole(t *testing.T) {
	f := newUserSvc()
	sub := ports.UserSubmission{Role: testRoles.Admin, Towns: []int64{11, 12}}

	u := mustUpsert(t, f.svc, nil, sub)

	if got := f.store.targets(domain.EdgeTown, u.ID); !equalIDs(got, []int64{11, 12}) {
		t.Fatalf("expected towns [11 12], got %v", got)
	}
}

func TestUserService_Upsert_NewTownIsCreatedAndLinked(t *testing.T) {
	f := newUserSvc()
	sub := translatorSubmission(1)
	sub.Towns = []int64{}
	sub.NewTown = "Uppsala"

	u := mustUpsert(t, f.svc, nil, sub)

	if len(f.store.state.towns) != 1 {
		t.Fatalf("expected one town created, got %d", len(f.store.state.towns))
	}
	var townID int64
	for id, name := range f.store.state.towns {
		if name != "Uppsala" {
			t.Errorf("unexpected town name %q", name)
		}
		townID = id
	}
	if got := f.store.targets(domain.EdgeTown, u.ID); !equalIDs(got, []int64{townID}) {
		t.Errorf("expected towns [%d], got %v", townID, got)
	}
}

func TestUserService_Upsert_TownsReplacedOnUpdate(t *testing.T) {
	f := newUserSvc()
	sub := translatorSubmission(1)
	sub.Towns = []int64{1, 2}
	u := mustUpsert(t, f.svc, nil, sub)

	sub.Password = ""
	sub.Towns = []int64{2, 3}
	mustUpsert(t, f.svc, idPtr(u.ID), sub)

	if got := f.store.targets(domain.EdgeTown, u.ID); !equalIDs(got, []int64{2, 3}) {
		t.Fatalf("expected towns [2 3], got %v", got)
	}
}

// ---------------------------------------------------------------------------
// Failure handling
// ---------------------------------------------------------------------------

func TestUserService_Upsert_UnknownIDNotFound(t *testing.T) {
	f := newUserSvc()

	_, err := f.svc.Upsert(context.Background(), idPtr(99), customerSubmission(1))
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if len(f.store.state.users) != 0 || len(f.store.state.edges) != 0 {
		t.Error("nothing may be written for an unknown id")
	}
	if f.locker.released != len(f.locker.locked) {
		t.Errorf("lock not released: locked=%v released=%d", f.locker.locked, f.locker.released)
	}
}

func TestUserService_Upsert_FailureRollsBackEverything(t *testing.T) {
	f := newUserSvc()
	f.store.failOn["CreateEdge"] = errBoom

	sub := customerSubmission(1, 2)
	sub.NewTown = "Lund"
	_, err := f.svc.Upsert(context.Background(), nil, sub)
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected store error, got %v", err)
	}

	if len(f.store.state.users) != 0 {
		t.Errorf("user row must not be committed, got %d users", len(f.store.state.users))
	}
	if len(f.store.state.roles) != 0 || len(f.store.state.profiles) != 0 || len(f.store.state.towns) != 0 {
		t.Error("roles, profile and towns must be rolled back")
	}
}

func TestUserService_Upsert_FailureKeepsPreviousState(t *testing.T) {
	f := newUserSvc()
	u := mustUpsert(t, f.svc, nil, translatorSubmission(3, 7))

	f.store.failOn["DeleteEdgesExcept"] = errBoom
	sub := translatorSubmission(9)
	sub.Name = "Renamed"
	if _, err := f.svc.Upsert(context.Background(), idPtr(u.ID), sub); !errors.Is(err, errBoom) {
		t.Fatalf("expected store error, got %v", err)
	}

	if got := f.store.targets(domain.EdgeLanguage, u.ID); !equalIDs(got, []int64{3, 7}) {
		t.Errorf("expected languages unchanged [3 7], got %v", got)
	}
	if name := f.store.state.users[u.ID].Name; name != "Eva" {
		t.Errorf("expected name unchanged, got %q", name)
	}
	if roles := f.store.state.roles[u.ID]; len(roles) != 1 {
		t.Errorf("expected role assignment unchanged, got %v", roles)
	}
}

func TestUserService_Upsert_HashErrorAborts(t *testing.T) {
	f := newUserSvc()
	f.hasher.err = errors.New("bcrypt: cost out of range")

	if _, err := f.svc.Upsert(context.Background(), nil, customerSubmission()); err == nil {
		t.Fatal("expected hash error")
	}
	if len(f.store.state.users) != 0 {
		t.Error("user must not be saved when hashing fails")
	}
}

func TestUserService_Upsert_LocksExistingUser(t *testing.T) {
	f := newUserSvc()
	u := mustUpsert(t, f.svc, nil, customerSubmission())

	mustUpsert(t, f.svc, idPtr(u.ID), customerSubmission())

	if len(f.locker.locked) != 1 || f.locker.locked[0] != u.ID {
		t.Errorf("expected lock on user %d, got %v", u.ID, f.locker.locked)
	}
	if f.locker.released != 1 {
		t.Errorf("expected lock released once, got %d", f.locker.released)
	}
}

func TestUserService_Upsert_LockErrorSkipsWrites(t *testing.T) {
	f := newUserSvc()
	u := mustUpsert(t, f.svc, nil, customerSubmission())
	f.locker.err = domain.ErrUserLocked
	txs := f.store.txs

	_, err := f.svc.Upsert(context.Background(), idPtr(u.ID), customerSubmission())
	if !errors.Is(err, domain.ErrUserLocked) {
		t.Fatalf("expected ErrUserLocked, got %v", err)
	}
	if f.store.txs != txs {
		t.Error("no transaction may start without the lock")
	}
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

func TestUserService_ListTranslators(t *testing.T) {
	f := newUserSvc()
	mustUpsert(t, f.svc, nil, customerSubmission())
	t1 := mustUpsert(t, f.svc, nil, translatorSubmission(1))
	t2 := mustUpsert(t, f.svc, nil, translatorSubmission(2))

	got, err := f.svc.ListTranslators(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != t1.ID || got[1].ID != t2.ID {
		t.Fatalf("expected translators %d and %d, got %+v", t1.ID, t2.ID, got)
	}
}

func TestUserService_GetUser_NotFound(t *testing.T) {
	f := newUserSvc()

	if _, err := f.svc.GetUser(context.Background(), 5); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_GetUser_ReturnsAssociations(t *testing.T) {
	f := newUserSvc()
	sub := translatorSubmission(9, 3)
	sub.Towns = []int64{4}
	u := mustUpsert(t, f.svc, nil, sub)
	f.store.lockedReads = 0

	got, err := f.svc.GetUser(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != u.ID || got.Name != "Eva" {
		t.Errorf("unexpected user %+v", got.User)
	}
	if !equalIDs(got.Languages, []int64{3, 9}) {
		t.Errorf("expected languages [3 9], got %v", got.Languages)
	}
	if !equalIDs(got.Towns, []int64{4}) {
		t.Errorf("expected towns [4], got %v", got.Towns)
	}
	if len(got.Blacklist) != 0 {
		t.Errorf("translator must have no blacklist, got %v", got.Blacklist)
	}
	if f.store.lockedReads != 0 {
		t.Errorf("reads must not lock the user row, got %d locking reads", f.store.lockedReads)
	}
	if len(f.locker.locked) != 0 {
		t.Errorf("reads must not take the user lock, got %v", f.locker.locked)
	}
}

func TestUserService_GetUser_EdgeErrorPropagates(t *testing.T) {
	f := newUserSvc()
	u := mustUpsert(t, f.svc, nil, customerSubmission(2))
	f.store.failOn["ListEdgeTargets"] = errBoom

	if _, err := f.svc.GetUser(context.Background(), u.ID); !errors.Is(err, errBoom) {
		t.Fatalf("expected store error, got %v", err)
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dtapi/user-service/internal/core/domain"
	"github.com/dtapi/user-service/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory transactional store
// ---------------------------------------------------------------------------

var errBoom = errors.New("store unavailable")

type edgeKey struct {
	kind   domain.EdgeKind
	user   int64
	target int64
}

type stubState struct {
	users    map[int64]domain.User
	roles    map[int64][]domain.Role
	profiles map[int64]domain.RoleProfile
	edges    map[edgeKey]struct{}
	towns    map[int64]string

	nextUserID    int64
	nextProfileID int64
	nextTownID    int64
}

func newStubState() *stubState {
	return &stubState{
		users:    make(map[int64]domain.User),
		roles:    make(map[int64][]domain.Role),
		profiles: make(map[int64]domain.RoleProfile),
		edges:    make(map[edgeKey]struct{}),
		towns:    make(map[int64]string),
	}
}

func (s *stubState) clone() *stubState {
	c := newStubState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.roles {
		c.roles[k] = append([]domain.Role(nil), v...)
	}
	for k, v := range s.profiles {
		c.profiles[k] = v
	}
	for k := range s.edges {
		c.edges[k] = struct{}{}
	}
	for k, v := range s.towns {
		c.towns[k] = v
	}
	c.nextUserID = s.nextUserID
	c.nextProfileID = s.nextProfileID
	c.nextTownID = s.nextTownID
	return c
}

// stubStore commits a cloned state only when the unit of work succeeds, so
// tests can observe rollbacks.
type stubStore struct {
	state  *stubState
	failOn map[string]error // method name → error returned by that method
	ops    []string         // write log of committed and aborted calls
	txs    int

	lockedReads int
}

func newStubStore() *stubStore {
	return &stubStore{state: newStubState(), failOn: make(map[string]error)}
}

func (s *stubStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error) error {
	s.txs++
	work := s.state.clone()
	if err := fn(ctx, &stubTx{store: s, st: work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (s *stubStore) Ping(context.Context) error { return nil }

// direct returns a Tx writing straight into the committed state.
func (s *stubStore) direct() *stubTx {
	return &stubTx{store: s, st: s.state}
}

func (s *stubStore) resetOps() { s.ops = nil }

func (s *stubStore) opsWithPrefix(prefix string) []string {
	var out []string
	for _, op := range s.ops {
		if len(op) >= len(prefix) && op[:len(prefix)] == prefix {
			out = append(out, op)
		}
	}
	return out
}

func (s *stubStore) targets(kind domain.EdgeKind, userID int64) []int64 {
	var out []int64
	for k := range s.state.edges {
		if k.kind == kind && k.user == userID {
			out = append(out, k.target)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s *stubStore) seedEdges(kind domain.EdgeKind, userID int64, targets ...int64) {
	for _, t := range targets {
		s.state.edges[edgeKey{kind, userID, t}] = struct{}{}
	}
}

type stubTx struct {
	store *stubStore
	st    *stubState
}

func (t *stubTx) fail(method string) error {
	return t.store.failOn[method]
}

func (t *stubTx) FindUserByID(_ context.Context, id int64) (*domain.User, error) {
	if err := t.fail("FindUserByID"); err != nil {
		return nil, err
	}
	t.store.lockedReads++
	u, ok := t.st.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (t *stubTx) GetUserByID(_ context.Context, id int64) (*domain.User, error) {
	if err := t.fail("GetUserByID"); err != nil {
		return nil, err
	}
	u, ok := t.st.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (t *stubTx) SaveUser(_ context.Context, u *domain.User) error {
	if err := t.fail("SaveUser"); err != nil {
		return err
	}
	if u.ID == 0 {
		t.st.nextUserID++
		u.ID = t.st.nextUserID
	}
	t.st.users[u.ID] = *u
	t.store.ops = append(t.store.ops, fmt.Sprintf("save-user:%d", u.ID))
	return nil
}

func (t *stubTx) ListUsersByRole(_ context.Context, role domain.Role) ([]*domain.User, error) {
	var out []*domain.User
	for id, roles := range t.st.roles {
		for _, r := range roles {
			if r == role {
				u := t.st.users[id]
				out = append(out, &u)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *stubTx) ClearRoles(_ context.Context, userID int64) error {
	if err := t.fail("ClearRoles"); err != nil {
		return err
	}
	delete(t.st.roles, userID)
	t.store.ops = append(t.store.ops, fmt.Sprintf("clear-roles:%d", userID))
	return nil
}

func (t *stubTx) AssignRole(_ context.Context, userID int64, role domain.Role) error {
	if err := t.fail("AssignRole"); err != nil {
		return err
	}
	t.st.roles[userID] = append(t.st.roles[userID], role)
	t.store.ops = append(t.store.ops, fmt.Sprintf("assign-role:%d:%d", userID, role))
	return nil
}

func (t *stubTx) FindOrCreateProfile(_ context.Context, userID int64) (*domain.RoleProfile, error) {
	if err := t.fail("FindOrCreateProfile"); err != nil {
		return nil, err
	}
	p, ok := t.st.profiles[userID]
	if !ok {
		t.st.nextProfileID++
		p = domain.RoleProfile{ID: t.st.nextProfileID, UserID: userID}
		t.st.profiles[userID] = p
	}
	return &p, nil
}

func (t *stubTx) SaveProfile(_ context.Context, p *domain.RoleProfile) error {
	if err := t.fail("SaveProfile"); err != nil {
		return err
	}
	t.st.profiles[p.UserID] = *p
	return nil
}

func (t *stubTx) EdgeExists(_ context.Context, kind domain.EdgeKind, userID, targetID int64) (bool, error) {
	if err := t.fail("EdgeExists"); err != nil {
		return false, err
	}
	_, ok := t.st.edges[edgeKey{kind, userID, targetID}]
	return ok, nil
}

func (t *stubTx) CreateEdge(_ context.Context, kind domain.EdgeKind, userID, targetID int64) error {
	if err := t.fail("CreateEdge"); err != nil {
		return err
	}
	k := edgeKey{kind, userID, targetID}
	if _, dup := t.st.edges[k]; dup {
		return fmt.Errorf("duplicate edge %v", k)
	}
	t.st.edges[k] = struct{}{}
	t.store.ops = append(t.store.ops, fmt.Sprintf("create:%s:%d", kind, targetID))
	return nil
}

func (t *stubTx) DeleteEdgesExcept(_ context.Context, kind domain.EdgeKind, userID int64, keep []int64) (int64, error) {
	if err := t.fail("DeleteEdgesExcept"); err != nil {
		return 0, err
	}
	kept := make(map[int64]struct{}, len(keep))
	for _, id := range keep {
		kept[id] = struct{}{}
	}
	var n int64
	for k := range t.st.edges {
		if k.kind != kind || k.user != userID {
			continue
		}
		if _, ok := kept[k.target]; ok {
			continue
		}
		delete(t.st.edges, k)
		t.store.ops = append(t.store.ops, fmt.Sprintf("delete:%s:%d", kind, k.target))
		n++
	}
	return n, nil
}

func (t *stubTx) DeleteAllEdges(_ context.Context, kind domain.EdgeKind, userID int64) (int64, error) {
	if err := t.fail("DeleteAllEdges"); err != nil {
		return 0, err
	}
	var n int64
	for k := range t.st.edges {
		if k.kind == kind && k.user == userID {
			delete(t.st.edges, k)
			n++
		}
	}
	t.store.ops = append(t.store.ops, fmt.Sprintf("delete-all:%s", kind))
	return n, nil
}

func (t *stubTx) ListEdgeTargets(_ context.Context, kind domain.EdgeKind, userID int64) ([]int64, error) {
	if err := t.fail("ListEdgeTargets"); err != nil {
		return nil, err
	}
	var out []int64
	for k := range t.st.edges {
		if k.kind == kind && k.user == userID {
			out = append(out, k.target)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (t *stubTx) CreateTown(_ context.Context, name string) (int64, error) {
	if err := t.fail("CreateTown"); err != nil {
		return 0, err
	}
	t.st.nextTownID++
	t.st.towns[t.st.nextTownID] = name
	return t.st.nextTownID, nil
}

// ---------------------------------------------------------------------------
// Hasher and locker stubs
// ---------------------------------------------------------------------------

type stubHasher struct {
	calls int
	err   error
}

func (h *stubHasher) Hash(plaintext string) (string, error) {
	if h.err != nil {
		return "", h.err
	}
	h.calls++
	return fmt.Sprintf("hash(%s)#%d", plaintext, h.calls), nil
}

type stubLocker struct {
	locked   []int64
	released int
	err      error
}

func (l *stubLocker) Lock(_ context.Context, userID int64) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	l.locked = append(l.locked, userID)
	return func() { l.released++ }, nil
}

func equalIDs(got, want []int64) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dtapi/user-service/internal/core/domain"
)

const (
	collectionUsers    = "users"
	collectionRoles    = "user_roles"
	collectionProfiles = "role_profiles"
	collectionEdges    = "user_edges"
	collectionTowns    = "towns"
	collectionCounters = "counters"
)

type userDoc struct {
	ID           int64  `bson:"_id"`
	Role         int64  `bson:"role"`
	Name         string `bson:"name"`
	CompanyID    int64  `bson:"company_id"`
	DepartmentID int64  `bson:"department_id"`
	Email        string `bson:"email"`
	DobOrOrgID   string `bson:"dob_or_orgid"`
	Phone        string `bson:"phone"`
	Mobile       string `bson:"mobile"`
	PasswordHash string `bson:"password_hash"`
	Status       string `bson:"status"`
	Revision     int64  `bson:"rev"`
	CreatedAt    int64  `bson:"created_at"`
	UpdatedAt    int64  `bson:"updated_at"`
}

type roleDoc struct {
	UserID int64 `bson:"user_id"`
	RoleID int64 `bson:"role_id"`
}

type edgeDoc struct {
	Kind     string `bson:"kind"`
	UserID   int64  `bson:"user_id"`
	TargetID int64  `bson:"target_id"`
}

type townDoc struct {
	ID   int64  `bson:"_id"`
	Name string `bson:"name"`
}

// profileDoc stores a domain.RoleProfile; _id is the profile id.
type profileDoc struct {
	ID                 int64   `bson:"_id"`
	UserID             int64   `bson:"user_id"`
	ConsumerType       string  `bson:"consumer_type"`
	CustomerType       string  `bson:"customer_type"`
	Username           string  `bson:"username"`
	City               string  `bson:"city"`
	Country            string  `bson:"country"`
	Reference          string  `bson:"reference"`
	CostPlace          string  `bson:"cost_place"`
	Fee                string  `bson:"fee"`
	TimeToCharge       string  `bson:"time_to_charge"`
	TimeToPay          string  `bson:"time_to_pay"`
	ChargeOB           string  `bson:"charge_ob"`
	CustomerID         string  `bson:"customer_id"`
	ChargeKm           string  `bson:"charge_km"`
	MaximumKm          string  `bson:"maximum_km"`
	TranslatorType     string  `bson:"translator_type"`
	WorkedFor          string  `bson:"worked_for"`
	OrganizationNumber *string `bson:"organization_number"`
	Gender             string  `bson:"gender"`
	TranslatorLevel    string  `bson:"translator_level"`
	Address2           string  `bson:"address_2"`
	PostCode           string  `bson:"post_code"`
	Address            string  `bson:"address"`
	Town               string  `bson:"town"`
	AdditionalInfo     string  `bson:"additional_info"`
}

// tx implements ports.Tx. The session travels in ctx, so every call made
// with the SessionContext handed to WithinTx joins the transaction.
type tx struct {
	users    *mongo.Collection
	roles    *mongo.Collection
	profiles *mongo.Collection
	edges    *mongo.Collection
	towns    *mongo.Collection
	counters *mongo.Collection
}

func newTx(db *mongo.Database) *tx {
	return &tx{
		users:    db.Collection(collectionUsers),
		roles:    db.Collection(collectionRoles),
		profiles: db.Collection(collectionProfiles),
		edges:    db.Collection(collectionEdges),
		towns:    db.Collection(collectionTowns),
		counters: db.Collection(collectionCounters),
	}
}

// nextID allocates the next value of the named sequence.
func (t *tx) nextID(ctx context.Context, name string) (int64, error) {
	var c struct {
		Seq int64 `bson:"seq"`
	}
	err := t.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", name, err)
	}
	return c.Seq, nil
}

// ── Users ────────────────────────────────────────────────────────────────────

// FindUserByID bumps the document revision so that a concurrent transaction
// touching the same user fails with a write conflict.
func (t *tx) FindUserByID(ctx context.Context, id int64) (*domain.User, error) {
	var d userDoc
	err := t.users.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"rev": int64(1)}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return d.toDomain(), nil
}

func (t *tx) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	var d userDoc
	if err := t.users.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return d.toDomain(), nil
}

func (t *tx) SaveUser(ctx context.Context, u *domain.User) error {
	if u.IsNew() {
		id, err := t.nextID(ctx, collectionUsers)
		if err != nil {
			return err
		}
		u.ID = id
		if _, err := t.users.InsertOne(ctx, fromUser(u)); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return domain.ErrUserExists
			}
			return fmt.Errorf("insert user: %w", err)
		}
		return nil
	}

	d := fromUser(u)
	set := bson.M{
		"role":          d.Role,
		"name":          d.Name,
		"company_id":    d.CompanyID,
		"department_id": d.DepartmentID,
		"email":         d.Email,
		"dob_or_orgid":  d.DobOrOrgID,
		"phone":         d.Phone,
		"mobile":        d.Mobile,
		"password_hash": d.PasswordHash,
		"status":        d.Status,
		"updated_at":    d.UpdatedAt,
	}
	res, err := t.users.UpdateByID(ctx, u.ID, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (t *tx) ListUsersByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	cur, err := t.roles.Find(ctx, bson.M{"role_id": int64(role)})
	if err != nil {
		return nil, fmt.Errorf("list role assignments: %w", err)
	}
	var assignments []roleDoc
	if err := cur.All(ctx, &assignments); err != nil {
		return nil, fmt.Errorf("decode role assignments: %w", err)
	}
	if len(assignments) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.UserID)
	}

	cur, err = t.users.Find(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	users := make([]*domain.User, 0, len(docs))
	for i := range docs {
		users = append(users, docs[i].toDomain())
	}
	return users, nil
}

// ── Roles ────────────────────────────────────────────────────────────────────

func (t *tx) ClearRoles(ctx context.Context, userID int64) error {
	if _, err := t.roles.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		return fmt.Errorf("clear roles: %w", err)
	}
	return nil
}

func (t *tx) AssignRole(ctx context.Context, userID int64, role domain.Role) error {
	if _, err := t.roles.InsertOne(ctx, roleDoc{UserID: userID, RoleID: int64(role)}); err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	return nil
}

// ── Profiles ─────────────────────────────────────────────────────────────────

func (t *tx) FindOrCreateProfile(ctx context.Context, userID int64) (*domain.RoleProfile, error) {
	var d profileDoc
	err := t.profiles.FindOne(ctx, bson.M{"user_id": userID}).Decode(&d)
	if err == nil {
		return d.toDomain(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("find profile: %w", err)
	}

	id, err := t.nextID(ctx, collectionProfiles)
	if err != nil {
		return nil, err
	}
	d = profileDoc{ID: id, UserID: userID}
	if _, err := t.profiles.InsertOne(ctx, d); err != nil {
		return nil, fmt.Errorf("insert profile: %w", err)
	}
	return d.toDomain(), nil
}

func (t *tx) SaveProfile(ctx context.Context, p *domain.RoleProfile) error {
	res, err := t.profiles.ReplaceOne(ctx, bson.M{"_id": p.ID}, fromProfile(p))
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("save profile %d: not found", p.ID)
	}
	return nil
}

// ── Edges ────────────────────────────────────────────────────────────────────

func edgeFilter(kind domain.EdgeKind, userID int64) bson.M {
	return bson.M{"kind": string(kind), "user_id": userID}
}

func (t *tx) EdgeExists(ctx context.Context, kind domain.EdgeKind, userID, targetID int64) (bool, error) {
	filter := edgeFilter(kind, userID)
	filter["target_id"] = targetID
	n, err := t.edges.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("edge exists: %w", err)
	}
	return n > 0, nil
}

func (t *tx) CreateEdge(ctx context.Context, kind domain.EdgeKind, userID, targetID int64) error {
	_, err := t.edges.InsertOne(ctx, edgeDoc{Kind: string(kind), UserID: userID, TargetID: targetID})
	if err != nil {
		return fmt.Errorf("create edge: %w", err)
	}
	return nil
}

func (t *tx) DeleteEdgesExcept(ctx context.Context, kind domain.EdgeKind, userID int64, keep []int64) (int64, error) {
	if keep == nil {
		keep = []int64{}
	}
	filter := edgeFilter(kind, userID)
	filter["target_id"] = bson.M{"$nin": keep}
	res, err := t.edges.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("prune edges: %w", err)
	}
	return res.DeletedCount, nil
}

func (t *tx) DeleteAllEdges(ctx context.Context, kind domain.EdgeKind, userID int64) (int64, error) {
	res, err := t.edges.DeleteMany(ctx, edgeFilter(kind, userID))
	if err != nil {
		return 0, fmt.Errorf("delete edges: %w", err)
	}
	return res.DeletedCount, nil
}

func (t *tx) ListEdgeTargets(ctx context.Context, kind domain.EdgeKind, userID int64) ([]int64, error) {
	cur, err := t.edges.Find(ctx, edgeFilter(kind, userID),
		options.Find().SetSort(bson.D{{Key: "target_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list edges: %w", err)
	}
	var docs []edgeDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode edges: %w", err)
	}
	targets := make([]int64, 0, len(docs))
	for _, d := range docs {
		targets = append(targets, d.TargetID)
	}
	return targets, nil
}

// ── Towns ────────────────────────────────────────────────────────────────────

func (t *tx) CreateTown(ctx context.Context, name string) (int64, error) {
	id, err := t.nextID(ctx, collectionTowns)
	if err != nil {
		return 0, err
	}
	if _, err := t.towns.InsertOne(ctx, townDoc{ID: id, Name: name}); err != nil {
		return 0, fmt.Errorf("create town: %w", err)
	}
	return id, nil
}

// ── Indexes ──────────────────────────────────────────────────────────────────

// EnsureIndexes creates the unique indexes the store relies on. Creating them
// up front also creates the collections, which transactions cannot do on
// servers older than 4.4.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	unique := options.Index().SetUnique(true)
	specs := map[string][]mongo.IndexModel{
		collectionRoles: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "role_id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "role_id", Value: 1}}},
		},
		collectionProfiles: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: unique},
		},
		collectionEdges: {
			{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "user_id", Value: 1}, {Key: "target_id", Value: 1}}, Options: unique},
		},
		collectionUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}},
		},
		collectionTowns: {
			{Keys: bson.D{{Key: "name", Value: 1}}},
		},
	}

	for name, models := range specs {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("ensure indexes on %s: %w", name, err)
		}
	}
	return nil
}

// ── Mapping ──────────────────────────────────────────────────────────────────

func fromUser(u *domain.User) userDoc {
	return userDoc{
		ID:           u.ID,
		Role:         int64(u.Role),
		Name:         u.Name,
		CompanyID:    u.CompanyID,
		DepartmentID: u.DepartmentID,
		Email:        u.Email,
		DobOrOrgID:   u.DobOrOrgID,
		Phone:        u.Phone,
		Mobile:       u.Mobile,
		PasswordHash: u.PasswordHash,
		Status:       string(u.Status),
		CreatedAt:    u.CreatedAt.Unix(),
		UpdatedAt:    u.UpdatedAt.Unix(),
	}
}

func (d *userDoc) toDomain() *domain.User {
	return &domain.User{
		ID:           d.ID,
		Role:         domain.Role(d.Role),
		Name:         d.Name,
		CompanyID:    d.CompanyID,
		DepartmentID: d.DepartmentID,
		Email:        d.Email,
		DobOrOrgID:   d.DobOrOrgID,
		Phone:        d.Phone,
		Mobile:       d.Mobile,
		PasswordHash: d.PasswordHash,
		Status:       domain.UserStatus(d.Status),
		CreatedAt:    unixToTime(d.CreatedAt),
		UpdatedAt:    unixToTime(d.UpdatedAt),
	}
}

func fromProfile(p *domain.RoleProfile) profileDoc {
	return profileDoc{
		ID:                 p.ID,
		UserID:             p.UserID,
		ConsumerType:       p.ConsumerType,
		CustomerType:       p.CustomerType,
		Username:           p.Username,
		City:               p.City,
		Country:            p.Country,
		Reference:          p.Reference,
		CostPlace:          p.CostPlace,
		Fee:                p.Fee,
		TimeToCharge:       p.TimeToCharge,
		TimeToPay:          p.TimeToPay,
		ChargeOB:           p.ChargeOB,
		CustomerID:         p.CustomerID,
		ChargeKm:           p.ChargeKm,
		MaximumKm:          p.MaximumKm,
		TranslatorType:     p.TranslatorType,
		WorkedFor:          p.WorkedFor,
		OrganizationNumber: p.OrganizationNumber,
		Gender:             p.Gender,
		TranslatorLevel:    p.TranslatorLevel,
		Address2:           p.Address2,
		PostCode:           p.PostCode,
		Address:            p.Address,
		Town:               p.Town,
		AdditionalInfo:     p.AdditionalInfo,
	}
}

func (d *profileDoc) toDomain() *domain.RoleProfile {
	return &domain.RoleProfile{
		ID:                 d.ID,
		UserID:             d.UserID,
		ConsumerType:       d.ConsumerType,
		CustomerType:       d.CustomerType,
		Username:           d.Username,
		City:               d.City,
		Country:            d.Country,
		Reference:          d.Reference,
		CostPlace:          d.CostPlace,
		Fee:                d.Fee,
		TimeToCharge:       d.TimeToCharge,
		TimeToPay:          d.TimeToPay,
		ChargeOB:           d.ChargeOB,
		CustomerID:         d.CustomerID,
		ChargeKm:           d.ChargeKm,
		MaximumKm:          d.MaximumKm,
		TranslatorType:     d.TranslatorType,
		WorkedFor:          d.WorkedFor,
		OrganizationNumber: d.OrganizationNumber,
		Gender:             d.Gender,
		TranslatorLevel:    d.TranslatorLevel,
		Address2:           d.Address2,
		PostCode:           d.PostCode,
		Address:            d.Address,
		Town:               d.Town,
		AdditionalInfo:     d.AdditionalInfo,
	}
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}

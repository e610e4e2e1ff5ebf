package tiers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tierforge/tierforge-backend/pkg/auth"
	"github.com/tierforge/tierforge-backend/pkg/db/models"
	"github.com/tierforge/tierforge-backend/pkg/enums"
	pkgerrors "github.com/tierforge/tierforge-backend/pkg/errors"
)

type stubCatalogCounter struct {
	count int64
}

func (s stubCatalogCounter) CountByScope(context.Context, uuid.UUID, enums.TierScope, []string, []uuid.UUID) (int64, error) {
	return s.count, nil
}

type stubUserDirectory struct {
	users []models.User
}

func (s stubUserDirectory) FindByIDs(context.Context, []uuid.UUID) ([]models.User, error) {
	return s.users, nil
}

func (s stubUserDirectory) ExistingIDs(_ context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	return ids, nil
}

func hierarchyTestService() *service {
	return &service{catalog: stubCatalogCounter{}, users: stubUserDirectory{}}
}

func TestAuthorize(t *testing.T) {
	svc := &service{}
	manufacturerID := uuid.New()
	creatorID := uuid.New()

	t.Run("creator", func(t *testing.T) {
		actor := auth.Actor{UserID: creatorID, Role: enums.ActorRoleMember}
		if err := svc.authorize(actor, manufacturerID, creatorID); err != nil {
			t.Fatalf("expected creator access, got %v", err)
		}
	})

	t.Run("manufacturerAdmin", func(t *testing.T) {
		actor := auth.Actor{
			UserID:          uuid.New(),
			Role:            enums.ActorRoleManufacturerAdmin,
			ManufacturerIDs: []uuid.UUID{manufacturerID},
		}
		if err := svc.authorize(actor, manufacturerID, creatorID); err != nil {
			t.Fatalf("expected manufacturer admin access, got %v", err)
		}
	})

	t.Run("adminOfOtherManufacturer", func(t *testing.T) {
		actor := auth.Actor{
			UserID:          uuid.New(),
			Role:            enums.ActorRoleManufacturerAdmin,
			ManufacturerIDs: []uuid.UUID{uuid.New()},
		}
		err := svc.authorize(actor, manufacturerID, creatorID)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
			t.Fatalf("expected forbidden, got %v", err)
		}
	})

	t.Run("platformAdmin", func(t *testing.T) {
		actor := auth.Actor{UserID: uuid.New(), Role: enums.ActorRolePlatformAdmin}
		if err := svc.authorize(actor, manufacturerID, creatorID); err != nil {
			t.Fatalf("expected platform admin access, got %v", err)
		}
	})

	t.Run("unrelatedMember", func(t *testing.T) {
		actor := auth.Actor{UserID: uuid.New(), Role: enums.ActorRoleMember}
		err := svc.authorize(actor, manufacturerID, creatorID)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
			t.Fatalf("expected forbidden, got %v", err)
		}
	})
}

func TestVirtualRootDelegatesNothing(t *testing.T) {
	svc := &service{}
	manufacturer := &models.Manufacturer{
		ID:              uuid.New(),
		Name:            "Acme Works",
		DefaultDiscount: decimal.NewFromInt(55),
	}

	root := svc.virtualRoot(manufacturer, 2)

	if !root.Virtual {
		t.Fatal("expected virtual flag")
	}
	if root.ID != uuid.Nil {
		t.Fatalf("virtual root must not carry a persisted id, got %s", root.ID)
	}
	if root.DisplayName != "Acme Works" {
		t.Fatalf("unexpected display name %q", root.DisplayName)
	}
	if !root.Rates.Own.Discount.Equal(decimal.NewFromInt(55)) {
		t.Fatalf("expected manufacturer default discount, got %s", root.Rates.Own.Discount)
	}
	if !root.Rates.Own.Delegated.IsZero() || !root.Rates.Own.Commission.IsZero() {
		t.Fatalf("virtual root must delegate nothing, got %+v", root.Rates.Own)
	}
	if root.ChildCount != 2 {
		t.Fatalf("expected child count 2, got %d", root.ChildCount)
	}
}

func TestApplyUpdateToNodeTracksChangedFields(t *testing.T) {
	node := &models.TierNode{
		DisplayName: "Old Name",
		Role:        enums.TierRolePerson,
	}

	newName := "  New Name "
	newRole := enums.TierRoleCompany
	input := UpdateNodeInput{
		DisplayName: &newName,
		Role:        &newRole,
		Own: TrackInput{
			Delegated: dec(25),
		},
	}

	changed := applyUpdateToNode(node, input)

	if node.DisplayName != "New Name" {
		t.Fatalf("expected trimmed display name, got %q", node.DisplayName)
	}
	if node.Role != enums.TierRoleCompany {
		t.Fatalf("expected role update, got %s", node.Role)
	}
	if node.DelegatedRate == nil || !node.DelegatedRate.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("expected delegated 25, got %v", node.DelegatedRate)
	}
	want := map[string]bool{"display_name": true, "role": true, "delegated_rate": true}
	if len(changed) != len(want) {
		t.Fatalf("expected %d changed fields, got %v", len(want), changed)
	}
	for _, field := range changed {
		if !want[field] {
			t.Fatalf("unexpected changed field %q", field)
		}
	}
}

func TestApplyUpdateToNodeLeavesUnsetFieldsAlone(t *testing.T) {
	rate := decimal.NewFromInt(35)
	node := &models.TierNode{
		DisplayName:  "Keep Me",
		DiscountRate: &rate,
	}

	changed := applyUpdateToNode(node, UpdateNodeInput{})

	if len(changed) != 0 {
		t.Fatalf("expected no changes, got %v", changed)
	}
	if node.DisplayName != "Keep Me" || node.DiscountRate == nil {
		t.Fatalf("unexpected mutation: %+v", node)
	}
}

func TestDefaultedCommission(t *testing.T) {
	t.Run("explicitWins", func(t *testing.T) {
		got := defaultedCommission(TrackInput{Discount: dec(50), Delegated: dec(30), Commission: dec(5)})
		if got == nil || !got.Equal(decimal.NewFromInt(5)) {
			t.Fatalf("expected explicit commission 5, got %v", got)
		}
	})

	t.Run("derivedFromDiscountMinusDelegated", func(t *testing.T) {
		got := defaultedCommission(TrackInput{Discount: dec(50), Delegated: dec(30)})
		if got == nil || !got.Equal(decimal.NewFromInt(20)) {
			t.Fatalf("expected derived commission 20, got %v", got)
		}
	})

	t.Run("clampedAtZero", func(t *testing.T) {
		got := defaultedCommission(TrackInput{Discount: dec(20), Delegated: dec(30)})
		if got == nil || !got.IsZero() {
			t.Fatalf("expected commission clamped to 0, got %v", got)
		}
	})

	t.Run("nilWhenIncomplete", func(t *testing.T) {
		if got := defaultedCommission(TrackInput{Discount: dec(20)}); got != nil {
			t.Fatalf("expected nil commission, got %v", got)
		}
	})
}

func TestValidateTrackBounds(t *testing.T) {
	if err := validateTrackBounds(TrackInput{Discount: dec(0), Delegated: dec(100)}); err != nil {
		t.Fatalf("expected bounds to pass, got %v", err)
	}
	if err := validateTrackBounds(TrackInput{Discount: dec(101)}); err == nil {
		t.Fatal("expected error above 100")
	}
	if err := validateTrackBounds(TrackInput{Commission: dec(-1)}); err == nil {
		t.Fatal("expected error below 0")
	}
}

func TestAssembleHierarchyTwoRootsGetVirtualRoot(t *testing.T) {
	svc := hierarchyTestService()
	manufacturer := &models.Manufacturer{
		ID:              uuid.New(),
		Name:            "Acme Works",
		DefaultDiscount: decimal.NewFromInt(55),
	}

	rootA := makeNode(uuid.New(), nil)
	rootB := makeNode(uuid.New(), nil)
	leaf := makeNode(uuid.New(), &rootA.ID)
	forest := NewForest([]*models.TierNode{rootA, rootB, leaf})

	dto, err := svc.assembleHierarchy(context.Background(), manufacturer, forest, HierarchyQuery{})
	if err != nil {
		t.Fatalf("assemble hierarchy: %v", err)
	}
	if dto.Root == nil || !dto.Root.Virtual {
		t.Fatalf("expected a virtual root, got %+v", dto.Root)
	}
	if dto.Root.ChildCount != 2 {
		t.Fatalf("expected 2 children under the virtual root, got %d", dto.Root.ChildCount)
	}

	// The virtual root's children are exactly the company roots; the
	// leaf hangs off its real parent.
	children := map[uuid.UUID]bool{}
	for _, child := range dto.Root.Children {
		children[child.ID] = true
	}
	if len(children) != 2 || !children[rootA.ID] || !children[rootB.ID] {
		t.Fatalf("expected company roots as virtual children, got %v", children)
	}
	for _, child := range dto.Root.Children {
		if child.ID == rootA.ID {
			if len(child.Children) != 1 || child.Children[0].ID != leaf.ID {
				t.Fatalf("expected leaf under its company root, got %+v", child.Children)
			}
		}
	}
	if len(dto.Nodes) != 3 {
		t.Fatalf("expected 3 resolved nodes, got %d", len(dto.Nodes))
	}
}

func TestAssembleHierarchySingleRootIsReal(t *testing.T) {
	svc := hierarchyTestService()
	manufacturer := &models.Manufacturer{ID: uuid.New(), Name: "Acme Works"}

	root := makeNode(uuid.New(), nil)
	child := makeNode(uuid.New(), &root.ID)
	forest := NewForest([]*models.TierNode{root, child})

	dto, err := svc.assembleHierarchy(context.Background(), manufacturer, forest, HierarchyQuery{})
	if err != nil {
		t.Fatalf("assemble hierarchy: %v", err)
	}
	if dto.Root == nil || dto.Root.Virtual {
		t.Fatalf("expected the real root, got %+v", dto.Root)
	}
	if dto.Root.ID != root.ID {
		t.Fatalf("expected root %s, got %s", root.ID, dto.Root.ID)
	}
	if len(dto.Root.Children) != 1 || dto.Root.Children[0].ID != child.ID {
		t.Fatalf("expected child attached to the root, got %+v", dto.Root.Children)
	}
}

func TestAssembleHierarchyCompanyFilterSelectsOneCompany(t *testing.T) {
	svc := hierarchyTestService()
	manufacturer := &models.Manufacturer{ID: uuid.New(), Name: "Acme Works"}

	rootA := makeNode(uuid.New(), nil)
	rootB := makeNode(uuid.New(), nil)
	leaf := makeNode(uuid.New(), &rootA.ID)
	forest := NewForest([]*models.TierNode{rootA, rootB, leaf})

	dto, err := svc.assembleHierarchy(context.Background(), manufacturer, forest, HierarchyQuery{CompanyID: &rootA.ID})
	if err != nil {
		t.Fatalf("assemble hierarchy: %v", err)
	}
	if dto.Root == nil || dto.Root.ID != rootA.ID {
		t.Fatalf("expected company root %s, got %+v", rootA.ID, dto.Root)
	}
	if len(dto.Nodes) != 2 {
		t.Fatalf("expected only the filtered company's nodes, got %d", len(dto.Nodes))
	}
}

func TestAssembleHierarchyUnknownCompanyFilters(t *testing.T) {
	svc := hierarchyTestService()
	manufacturer := &models.Manufacturer{ID: uuid.New(), Name: "Acme Works"}
	forest := NewForest([]*models.TierNode{makeNode(uuid.New(), nil)})

	unknownID := uuid.New()
	_, err := svc.assembleHierarchy(context.Background(), manufacturer, forest, HierarchyQuery{CompanyID: &unknownID})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for unknown company id, got %v", err)
	}

	unknownName := "No Such Company"
	_, err = svc.assembleHierarchy(context.Background(), manufacturer, forest, HierarchyQuery{CompanyName: &unknownName})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for unknown company name, got %v", err)
	}
}

func TestDeletedEventPayloadCarriesTimestamp(t *testing.T) {
	node := &models.TierNode{ID: uuid.New(), ManufacturerID: uuid.New()}

	payload := deletedEventPayload(node, 4)

	if payload.NodeID != node.ID || payload.ManufacturerID != node.ManufacturerID {
		t.Fatalf("unexpected payload identity %+v", payload)
	}
	if payload.RemovedCount != 4 {
		t.Fatalf("expected removed count 4, got %d", payload.RemovedCount)
	}
	if payload.DeletedAt.IsZero() {
		t.Fatal("expected the deletion timestamp to be set")
	}
}

func TestSelectionRootPicksNodeWithoutParentInSelection(t *testing.T) {
	outsideParent := uuid.New()
	rootID := uuid.New()
	childID := uuid.New()

	root := makeNode(rootID, &outsideParent)
	child := makeNode(childID, &rootID)

	got := selectionRoot([]*models.TierNode{child, root})
	if got == nil || got.ID != rootID {
		t.Fatalf("expected selection root %s, got %+v", rootID, got)
	}
}

func TestDedupeUUIDs(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	got := dedupeUUIDs([]uuid.UUID{a, b, a, b, a})
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Fatalf("unexpected dedupe result %v", got)
	}
}

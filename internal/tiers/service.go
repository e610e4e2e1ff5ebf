package tiers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tierforge/tierforge-backend/pkg/auth"
	"github.com/tierforge/tierforge-backend/pkg/db"
	"github.com/tierforge/tierforge-backend/pkg/db/models"
	dbtypes "github.com/tierforge/tierforge-backend/pkg/db/types"
	"github.com/tierforge/tierforge-backend/pkg/enums"
	pkgerrors "github.com/tierforge/tierforge-backend/pkg/errors"
	"github.com/tierforge/tierforge-backend/pkg/logger"
	"github.com/tierforge/tierforge-backend/pkg/metrics"
	"github.com/tierforge/tierforge-backend/pkg/outbox"
	"github.com/tierforge/tierforge-backend/pkg/outbox/payloads"
)

// Service exposes the delegation hierarchy operations.
type Service interface {
	GetHierarchy(ctx context.Context, manufacturerID uuid.UUID, query HierarchyQuery) (*HierarchyDTO, error)
	CreateNode(ctx context.Context, actor auth.Actor, input CreateNodeInput) (*TierNodeDTO, error)
	UpdateNode(ctx context.Context, actor auth.Actor, nodeID uuid.UUID, input UpdateNodeInput) (*TierNodeDTO, error)
	BindUsers(ctx context.Context, actor auth.Actor, nodeID uuid.UUID, userIDs []uuid.UUID) (*TierNodeDTO, error)
	DeleteSubtree(ctx context.Context, actor auth.Actor, nodeID uuid.UUID) (int, error)
}

// HierarchyQuery narrows a hierarchy read to one company. CompanyID may
// be a company id or any node id inside the company.
type HierarchyQuery struct {
	CompanyID   *uuid.UUID
	CompanyName *string
}

// TrackInput carries the requested rates for one track.
type TrackInput struct {
	Discount   *decimal.Decimal
	Delegated  *decimal.Decimal
	Commission *decimal.Decimal
}

// CreateNodeInput holds the validated payload to create a child node.
type CreateNodeInput struct {
	ManufacturerID uuid.UUID
	ParentID       uuid.UUID
	DisplayName    string
	Role           enums.TierRole
	CompanyID      *uuid.UUID
	CompanyName    *string
	Own            TrackInput
	Partner        TrackInput
	Scope          enums.TierScope
	CategoryIDs    []string
	ProductIDs     []uuid.UUID
	InitialUserID  *uuid.UUID
}

// UpdateNodeInput holds optional mutation values; nil leaves a field alone.
type UpdateNodeInput struct {
	DisplayName *string
	Role        *enums.TierRole
	CompanyName *string
	Own         TrackInput
	Partner     TrackInput
	Scope       *enums.TierScope
	CategoryIDs *[]string
	ProductIDs  *[]uuid.UUID
}

type manufacturerLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Manufacturer, error)
}

type catalogCounter interface {
	CountByScope(ctx context.Context, manufacturerID uuid.UUID, scope enums.TierScope, categoryIDs []string, productIDs []uuid.UUID) (int64, error)
}

type userDirectory interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error)
	ExistingIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// service implements the tier service.
type service struct {
	repo          *Repository
	dbClient      *db.Client
	manufacturers manufacturerLoader
	catalog       catalogCounter
	users         userDirectory
	events        eventEmitter
	cache         *HierarchyCache
	metrics       *metrics.TierMetrics
	logg          *logger.Logger
}

// NewService constructs a tier service instance.
func NewService(
	repo *Repository,
	dbClient *db.Client,
	manufacturers manufacturerLoader,
	catalog catalogCounter,
	users userDirectory,
	events eventEmitter,
	cache *HierarchyCache,
	tierMetrics *metrics.TierMetrics,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tier repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if manufacturers == nil {
		return nil, fmt.Errorf("manufacturer repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("user directory required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	return &service{
		repo:          repo,
		dbClient:      dbClient,
		manufacturers: manufacturers,
		catalog:       catalog,
		users:         users,
		events:        events,
		cache:         cache,
		metrics:       tierMetrics,
		logg:          logg,
	}, nil
}

// GetHierarchy assembles the resolved delegation tree for a
// manufacturer, optionally narrowed to one company.
func (s *service) GetHierarchy(ctx context.Context, manufacturerID uuid.UUID, query HierarchyQuery) (*HierarchyDTO, error) {
	manufacturer, err := s.manufacturers.FindByID(ctx, manufacturerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "manufacturer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load manufacturer")
	}

	unfiltered := query.CompanyID == nil && query.CompanyName == nil
	if unfiltered {
		if cached, ok := s.cache.Get(ctx, manufacturerID); ok {
			s.metrics.IncCacheHit()
			return cached, nil
		}
		s.metrics.IncCacheMiss()
	}

	nodes, err := s.repo.ListActiveByManufacturer(ctx, manufacturerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tier nodes")
	}
	forest := NewForest(nodes)

	dto, err := s.assembleHierarchy(ctx, manufacturer, forest, query)
	if err != nil {
		return nil, err
	}
	if unfiltered {
		s.cache.Put(ctx, manufacturerID, dto)
	}
	return dto, nil
}

func (s *service) assembleHierarchy(ctx context.Context, manufacturer *models.Manufacturer, forest *Forest, query HierarchyQuery) (*HierarchyDTO, error) {
	var (
		selection []*models.TierNode
		rootNode  *models.TierNode
		virtual   *TierNodeDTO
	)

	switch {
	case query.CompanyID != nil:
		companyID := *query.CompanyID
		if node, ok := forest.Node(companyID); ok {
			companyID = forest.ResolveCompanyID(node)
		}
		selection = forest.CompanyNodes(companyID)
		if len(selection) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "company not found")
		}
		rootNode = selectionRoot(selection)

	case query.CompanyName != nil:
		root := findRootByCompanyName(forest, *query.CompanyName)
		if root == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "company not found")
		}
		selection = forest.CompanyNodes(forest.ResolveCompanyID(root))
		rootNode = root

	default:
		roots := forest.Roots()
		for _, root := range roots {
			selection = append(selection, root)
			selection = append(selection, forest.Descendants(root.ID)...)
		}
		if len(roots) == 1 {
			rootNode = roots[0]
		} else {
			// Zero or several independent companies: present them under
			// a synthetic manufacturer-level root instead of silently
			// picking one. The synthetic node is never persisted.
			virtual = s.virtualRoot(manufacturer, len(roots))
		}
	}

	dtos, index, err := s.buildNodeDTOs(ctx, manufacturer.ID, forest, selection)
	if err != nil {
		return nil, err
	}
	for _, dto := range dtos {
		if dto.ParentID != nil {
			if parent, ok := index[*dto.ParentID]; ok {
				parent.Children = append(parent.Children, dto)
				continue
			}
		}
		if virtual != nil {
			virtual.Children = append(virtual.Children, dto)
		}
	}

	var root *TierNodeDTO
	if virtual != nil {
		virtual.ChildCount = len(virtual.Children)
		root = virtual
	} else if rootNode != nil {
		root = index[rootNode.ID]
	}

	return &HierarchyDTO{
		ManufacturerID: manufacturer.ID,
		Root:           root,
		Nodes:          dtos,
	}, nil
}

// virtualRoot synthesizes the manufacturer-level root used when no
// single company root exists. It delegates nothing of its own: its
// children are full company roots, not quota-bound by it.
func (s *service) virtualRoot(manufacturer *models.Manufacturer, childCount int) *TierNodeDTO {
	return &TierNodeDTO{
		Virtual:        true,
		ManufacturerID: manufacturer.ID,
		DisplayName:    manufacturer.Name,
		Role:           enums.TierRoleCompany,
		Scope:          enums.TierScopeAll,
		Status:         enums.TierStatusActive,
		ChildCount:     childCount,
		Rates: ResolvedRates{
			Own: TrackRates{
				Discount:   manufacturer.DefaultDiscount,
				Commission: decimal.Zero,
				Delegated:  decimal.Zero,
			},
			Partner: TrackRates{
				Discount:   decimal.Zero,
				Commission: decimal.Zero,
				Delegated:  decimal.Zero,
			},
		},
	}
}

func (s *service) buildNodeDTOs(ctx context.Context, manufacturerID uuid.UUID, forest *Forest, selection []*models.TierNode) ([]*TierNodeDTO, map[uuid.UUID]*TierNodeDTO, error) {
	users, err := s.loadBoundUsers(ctx, selection)
	if err != nil {
		return nil, nil, err
	}

	dtos := make([]*TierNodeDTO, 0, len(selection))
	index := make(map[uuid.UUID]*TierNodeDTO, len(selection))
	for _, node := range selection {
		dto := nodeToDTO(node, forest.ResolveCompanyID(node), len(forest.Children(node.ID)))

		count, err := s.catalog.CountByScope(ctx, manufacturerID, node.Scope, node.CategoryIDs, node.ProductIDs)
		if err != nil {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count scoped products")
		}
		dto.ProductCount = int(count)

		for _, userID := range node.BoundUserIDs {
			if bound, ok := users[userID]; ok {
				dto.BoundUsers = append(dto.BoundUsers, bound)
			}
		}

		dtos = append(dtos, dto)
		index[node.ID] = dto
	}
	return dtos, index, nil
}

func (s *service) loadBoundUsers(ctx context.Context, selection []*models.TierNode) (map[uuid.UUID]BoundUserDTO, error) {
	seen := map[uuid.UUID]struct{}{}
	var ids []uuid.UUID
	for _, node := range selection {
		for _, id := range node.BoundUserIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return map[uuid.UUID]BoundUserDTO{}, nil
	}

	rows, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bound users")
	}
	out := make(map[uuid.UUID]BoundUserDTO, len(rows))
	for _, row := range rows {
		out[row.ID] = BoundUserDTO{
			ID:        row.ID,
			Email:     row.Email,
			FirstName: row.FirstName,
			LastName:  row.LastName,
		}
	}
	return out, nil
}

// CreateNode validates, quota-checks, and persists a child record.
func (s *service) CreateNode(ctx context.Context, actor auth.Actor, input CreateNodeInput) (*TierNodeDTO, error) {
	if strings.TrimSpace(input.DisplayName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "display_name is required")
	}
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid role %q", input.Role))
	}
	if !input.Scope.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid scope %q", input.Scope))
	}
	if err := validateTrackBounds(input.Own); err != nil {
		return nil, err
	}
	if err := validateTrackBounds(input.Partner); err != nil {
		return nil, err
	}

	parent, err := s.repo.FindByID(ctx, input.ParentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "parent node not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load parent node")
	}
	if parent.Status != enums.TierStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "parent node not found")
	}
	if parent.ManufacturerID != input.ManufacturerID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "parent belongs to a different manufacturer")
	}
	if err := s.authorize(actor, input.ManufacturerID, parent.CreatedBy); err != nil {
		return nil, err
	}

	companyID := input.CompanyID
	if companyID == nil {
		nodes, err := s.repo.ListActiveByManufacturer(ctx, input.ManufacturerID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tier nodes")
		}
		resolved := NewForest(nodes).ResolveCompanyID(parent)
		companyID = &resolved
	}

	node := &models.TierNode{
		ManufacturerID:        input.ManufacturerID,
		ParentID:              &parent.ID,
		CompanyID:             companyID,
		CompanyName:           input.CompanyName,
		Level:                 parent.Level + 1,
		DisplayName:           strings.TrimSpace(input.DisplayName),
		Role:                  input.Role,
		DiscountRate:          input.Own.Discount,
		DelegatedRate:         input.Own.Delegated,
		CommissionRate:        defaultedCommission(input.Own),
		PartnerDiscountRate:   input.Partner.Discount,
		PartnerDelegatedRate:  input.Partner.Delegated,
		PartnerCommissionRate: defaultedCommission(input.Partner),
		Scope:                 input.Scope,
		CategoryIDs:           append([]string{}, input.CategoryIDs...),
		ProductIDs:            append(dbtypes.UUIDArray{}, input.ProductIDs...),
		BoundUserIDs:          dbtypes.UUIDArray{},
		Status:                enums.TierStatusActive,
		CreatedBy:             actor.UserID,
	}

	// Quota is checked on the resolved effective rates, not the raw
	// request: an omitted discount resolves to the role default, which
	// must not exceed what the parent retained.
	rates, err := ValidateNodeQuota(parent, node)
	if err != nil {
		s.recordQuotaRejection("create_node", err)
		return nil, err
	}
	node.AllowSubAuthorization = rates.Own.Delegated.IsPositive() || rates.Partner.Delegated.IsPositive()

	if input.InitialUserID != nil {
		existing, err := s.users.ExistingIDs(ctx, []uuid.UUID{*input.InitialUserID})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verify initial user")
		}
		if len(existing) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "initial user not found")
		}
		node.BoundUserIDs = dbtypes.UUIDArray{*input.InitialUserID}
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := txRepo.Create(ctx, node); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert tier node")
		}
		if err := txRepo.AdjustChildCount(ctx, parent.ID, 1); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: bump parent child count")
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTierNodeCreated,
			AggregateType: enums.AggregateTierNode,
			AggregateID:   node.ID,
			Actor:         s.actorRef(actor, input.ManufacturerID),
			Version:       1,
			Data: payloads.TierNodeCreatedEvent{
				NodeID:         node.ID,
				ManufacturerID: node.ManufacturerID,
				ParentID:       node.ParentID,
				DisplayName:    node.DisplayName,
				Role:           node.Role,
				Scope:          node.Scope,
				Level:          node.Level,
			},
		})
	}); err != nil {
		s.metrics.IncMutation("create_node", "error")
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create tier node")
	}

	s.cache.Invalidate(ctx, input.ManufacturerID)
	s.metrics.IncMutation("create_node", "success")
	return nodeToDTO(node, *companyID, 0), nil
}

// UpdateNode applies a partial mutation, re-validating the quota
// against the parent with the new effective values.
func (s *service) UpdateNode(ctx context.Context, actor auth.Actor, nodeID uuid.UUID, input UpdateNodeInput) (*TierNodeDTO, error) {
	if err := validateTrackBounds(input.Own); err != nil {
		return nil, err
	}
	if err := validateTrackBounds(input.Partner); err != nil {
		return nil, err
	}

	node, err := s.loadActiveNode(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, node.ManufacturerID, node.CreatedBy); err != nil {
		return nil, err
	}

	changed := applyUpdateToNode(node, input)

	rates := ResolveRates(node)
	if node.ParentID != nil {
		parent, err := s.repo.FindByID(ctx, *node.ParentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "parent node not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load parent node")
		}
		if err := ValidateQuota(parent, &rates.Own.Discount, &rates.Partner.Discount); err != nil {
			s.recordQuotaRejection("update_node", err)
			return nil, err
		}
	}
	node.AllowSubAuthorization = rates.Own.Delegated.IsPositive() || rates.Partner.Delegated.IsPositive()

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.Save(ctx, node); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update tier node")
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTierNodeUpdated,
			AggregateType: enums.AggregateTierNode,
			AggregateID:   node.ID,
			Actor:         s.actorRef(actor, node.ManufacturerID),
			Version:       1,
			Data: payloads.TierNodeUpdatedEvent{
				NodeID:         node.ID,
				ManufacturerID: node.ManufacturerID,
				ChangedFields:  changed,
			},
		})
	}); err != nil {
		s.metrics.IncMutation("update_node", "error")
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update tier node")
	}

	s.cache.Invalidate(ctx, node.ManufacturerID)
	s.metrics.IncMutation("update_node", "success")
	return s.nodeDTO(ctx, node)
}

// BindUsers merges the given user ids into the node's bound set.
func (s *service) BindUsers(ctx context.Context, actor auth.Actor, nodeID uuid.UUID, userIDs []uuid.UUID) (*TierNodeDTO, error) {
	if len(userIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user_ids is required")
	}

	node, err := s.loadActiveNode(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, node.ManufacturerID, node.CreatedBy); err != nil {
		return nil, err
	}

	existing, err := s.users.ExistingIDs(ctx, userIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verify users")
	}
	if len(existing) != len(dedupeUUIDs(userIDs)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "one or more users do not exist")
	}

	merged := node.BoundUserIDs
	var added []uuid.UUID
	for _, id := range existing {
		if merged.Contains(id) {
			continue
		}
		merged = append(merged, id)
		added = append(added, id)
	}
	node.BoundUserIDs = merged

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.MergeBoundUsers(ctx, node.ID, merged); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: merge bound users")
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTierUsersBound,
			AggregateType: enums.AggregateTierNode,
			AggregateID:   node.ID,
			Actor:         s.actorRef(actor, node.ManufacturerID),
			Version:       1,
			Data: payloads.TierUsersBoundEvent{
				NodeID:         node.ID,
				ManufacturerID: node.ManufacturerID,
				BoundUserIDs:   added,
				TotalBound:     len(merged),
			},
		})
	}); err != nil {
		s.metrics.IncMutation("bind_users", "error")
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "bind users")
	}

	s.cache.Invalidate(ctx, node.ManufacturerID)
	s.metrics.IncMutation("bind_users", "success")
	return s.nodeDTO(ctx, node)
}

// DeleteSubtree removes the node and every descendant, returning how
// many records went away.
func (s *service) DeleteSubtree(ctx context.Context, actor auth.Actor, nodeID uuid.UUID) (int, error) {
	node, err := s.loadActiveNode(ctx, nodeID)
	if err != nil {
		return 0, err
	}
	if err := s.authorize(actor, node.ManufacturerID, node.CreatedBy); err != nil {
		return 0, err
	}

	ids, err := s.repo.ListSubtreeIDs(ctx, node.ID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "collect subtree")
	}

	var removed int64
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		removed, err = txRepo.DeleteByIDs(ctx, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete subtree")
		}
		if node.ParentID != nil {
			if err := txRepo.AdjustChildCount(ctx, *node.ParentID, -1); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: drop parent child count")
			}
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTierNodeDeleted,
			AggregateType: enums.AggregateTierNode,
			AggregateID:   node.ID,
			Actor:         s.actorRef(actor, node.ManufacturerID),
			Version:       1,
			Data: deletedEventPayload(node, len(ids)),
		})
	}); err != nil {
		s.metrics.IncMutation("delete_subtree", "error")
		if pkgerrors.As(err) != nil {
			return 0, err
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete subtree")
	}

	s.cache.Invalidate(ctx, node.ManufacturerID)
	s.metrics.IncMutation("delete_subtree", "success")
	return int(removed), nil
}

func (s *service) loadActiveNode(ctx context.Context, nodeID uuid.UUID) (*models.TierNode, error) {
	node, err := s.repo.FindByID(ctx, nodeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tier node not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tier node")
	}
	if node.Status != enums.TierStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tier node not found")
	}
	return node, nil
}

// authorize permits the record's creator, an administrator of the
// owning manufacturer, and the platform administrator.
func (s *service) authorize(actor auth.Actor, manufacturerID, createdBy uuid.UUID) error {
	if actor.UserID == createdBy {
		return nil
	}
	if actor.AdministersManufacturer(manufacturerID) {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to manage this tier node")
}

func (s *service) actorRef(actor auth.Actor, manufacturerID uuid.UUID) *outbox.ActorRef {
	mid := manufacturerID
	return &outbox.ActorRef{
		UserID:         actor.UserID,
		ManufacturerID: &mid,
		Role:           actor.Role.String(),
	}
}

func (s *service) recordQuotaRejection(operation string, err error) {
	s.metrics.IncMutation(operation, "rejected")
	typed := pkgerrors.As(err)
	if typed == nil {
		return
	}
	if details, ok := typed.Details().(map[string]any); ok {
		if track, ok := details["track"].(string); ok {
			s.metrics.IncQuotaRejection(track)
		}
	}
}

func (s *service) nodeDTO(ctx context.Context, node *models.TierNode) (*TierNodeDTO, error) {
	nodes, err := s.repo.ListActiveByManufacturer(ctx, node.ManufacturerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tier nodes")
	}
	forest := NewForest(nodes)
	dto := nodeToDTO(node, forest.ResolveCompanyID(node), len(forest.Children(node.ID)))

	users, err := s.loadBoundUsers(ctx, []*models.TierNode{node})
	if err != nil {
		return nil, err
	}
	for _, userID := range node.BoundUserIDs {
		if bound, ok := users[userID]; ok {
			dto.BoundUsers = append(dto.BoundUsers, bound)
		}
	}
	return dto, nil
}

// applyUpdateToNode copies set fields onto the record and reports which
// columns changed.
func applyUpdateToNode(node *models.TierNode, input UpdateNodeInput) []string {
	var changed []string
	if input.DisplayName != nil {
		node.DisplayName = strings.TrimSpace(*input.DisplayName)
		changed = append(changed, "display_name")
	}
	if input.Role != nil {
		node.Role = *input.Role
		changed = append(changed, "role")
	}
	if input.CompanyName != nil {
		node.CompanyName = input.CompanyName
		changed = append(changed, "company_name")
	}
	if input.Own.Discount != nil {
		node.DiscountRate = input.Own.Discount
		changed = append(changed, "discount_rate")
	}
	if input.Own.Delegated != nil {
		node.DelegatedRate = input.Own.Delegated
		changed = append(changed, "delegated_rate")
	}
	if input.Own.Commission != nil {
		node.CommissionRate = input.Own.Commission
		changed = append(changed, "commission_rate")
	}
	if input.Partner.Discount != nil {
		node.PartnerDiscountRate = input.Partner.Discount
		changed = append(changed, "partner_discount_rate")
	}
	if input.Partner.Delegated != nil {
		node.PartnerDelegatedRate = input.Partner.Delegated
		changed = append(changed, "partner_delegated_rate")
	}
	if input.Partner.Commission != nil {
		node.PartnerCommissionRate = input.Partner.Commission
		changed = append(changed, "partner_commission_rate")
	}
	if input.Scope != nil {
		node.Scope = *input.Scope
		changed = append(changed, "scope")
	}
	if input.CategoryIDs != nil {
		node.CategoryIDs = append([]string{}, (*input.CategoryIDs)...)
		changed = append(changed, "category_ids")
	}
	if input.ProductIDs != nil {
		node.ProductIDs = append(dbtypes.UUIDArray{}, (*input.ProductIDs)...)
		changed = append(changed, "product_ids")
	}
	return changed
}

// defaultedCommission fills an omitted commission as discount minus
// delegated, clamped at zero.
func defaultedCommission(track TrackInput) *decimal.Decimal {
	if track.Commission != nil {
		return track.Commission
	}
	if track.Discount == nil || track.Delegated == nil {
		return nil
	}
	commission := track.Discount.Sub(*track.Delegated)
	if commission.IsNegative() {
		commission = decimal.Zero
	}
	return &commission
}

var maxRate = decimal.NewFromInt(100)

func validateTrackBounds(track TrackInput) error {
	for name, value := range map[string]*decimal.Decimal{
		"discount":   track.Discount,
		"delegated":  track.Delegated,
		"commission": track.Commission,
	} {
		if value == nil {
			continue
		}
		if value.IsNegative() || value.GreaterThan(maxRate) {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s rate must be between 0 and 100", name))
		}
	}
	return nil
}

func dedupeUUIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func deletedEventPayload(node *models.TierNode, removed int) payloads.TierNodeDeletedEvent {
	return payloads.TierNodeDeletedEvent{
		NodeID:         node.ID,
		ManufacturerID: node.ManufacturerID,
		RemovedCount:   removed,
		DeletedAt:      time.Now().UTC(),
	}
}

func selectionRoot(selection []*models.TierNode) *models.TierNode {
	inSelection := make(map[uuid.UUID]struct{}, len(selection))
	for _, node := range selection {
		inSelection[node.ID] = struct{}{}
	}
	for _, node := range selection {
		if node.ParentID == nil {
			return node
		}
		if _, ok := inSelection[*node.ParentID]; !ok {
			return node
		}
	}
	return nil
}

func findRootByCompanyName(forest *Forest, name string) *models.TierNode {
	for _, root := range forest.Roots() {
		if root.CompanyName != nil && *root.CompanyName == name {
			return root
		}
	}
	return nil
}

package tiers

import (
	"github.com/google/uuid"

	"github.com/tierforge/tierforge-backend/pkg/db/models"
)

// ancestorWalkLimit bounds the parent-chain walk during company
// resolution so a corrupted cycle cannot hang a request.
const ancestorWalkLimit = 50

// Forest indexes one manufacturer's active nodes for grouping and
// ancestor walks. It is rebuilt from the flat record list per request.
type Forest struct {
	byID     map[uuid.UUID]*models.TierNode
	children map[uuid.UUID][]*models.TierNode
	roots    []*models.TierNode
}

// NewForest indexes the given records. Revoked nodes must already be
// filtered out by the caller.
func NewForest(nodes []*models.TierNode) *Forest {
	f := &Forest{
		byID:     make(map[uuid.UUID]*models.TierNode, len(nodes)),
		children: make(map[uuid.UUID][]*models.TierNode),
	}
	for _, node := range nodes {
		f.byID[node.ID] = node
	}
	for _, node := range nodes {
		if node.ParentID == nil {
			f.roots = append(f.roots, node)
			continue
		}
		if _, ok := f.byID[*node.ParentID]; ok {
			f.children[*node.ParentID] = append(f.children[*node.ParentID], node)
		} else {
			// Orphaned by a revoked ancestor; treat as a root so the
			// record stays visible rather than vanishing from the view.
			f.roots = append(f.roots, node)
		}
	}
	return f
}

// Node returns the indexed node with the given id.
func (f *Forest) Node(id uuid.UUID) (*models.TierNode, bool) {
	node, ok := f.byID[id]
	return node, ok
}

// Children returns the direct children of the given node id.
func (f *Forest) Children(id uuid.UUID) []*models.TierNode {
	return f.children[id]
}

// Roots returns the forest roots in insertion order.
func (f *Forest) Roots() []*models.TierNode {
	return f.roots
}

// ResolveCompanyID answers which company-forest a node belongs to.
// A set company_id wins; a parentless node is its own company; anything
// else walks ancestors for the first explicit company_id. When the walk
// hits the hop bound or a broken chain it falls back to the last
// reachable ancestor's id; the result only affects display grouping.
func (f *Forest) ResolveCompanyID(node *models.TierNode) uuid.UUID {
	if node.CompanyID != nil {
		return *node.CompanyID
	}
	if node.ParentID == nil {
		return node.ID
	}

	cur := node
	for hops := 0; hops < ancestorWalkLimit; hops++ {
		parent, ok := f.byID[*cur.ParentID]
		if !ok {
			return cur.ID
		}
		cur = parent
		if cur.CompanyID != nil {
			return *cur.CompanyID
		}
		if cur.ParentID == nil {
			return cur.ID
		}
	}
	return cur.ID
}

// CompanyNodes returns all nodes whose resolved company id matches.
func (f *Forest) CompanyNodes(companyID uuid.UUID) []*models.TierNode {
	var out []*models.TierNode
	for _, root := range f.roots {
		f.collectByCompany(root, companyID, &out)
	}
	return out
}

func (f *Forest) collectByCompany(node *models.TierNode, companyID uuid.UUID, out *[]*models.TierNode) {
	if f.ResolveCompanyID(node) == companyID {
		*out = append(*out, node)
	}
	for _, child := range f.children[node.ID] {
		f.collectByCompany(child, companyID, out)
	}
}

// Descendants returns every node below the given id, depth-first.
func (f *Forest) Descendants(id uuid.UUID) []*models.TierNode {
	var out []*models.TierNode
	for _, child := range f.children[id] {
		out = append(out, child)
		out = append(out, f.Descendants(child.ID)...)
	}
	return out
}

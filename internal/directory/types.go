package directory

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// MenuKind classifies a navigation node.
type MenuKind string

const (
	// KindCatalog is a structural grouping node. Catalogs never carry
	// permission codes.
	KindCatalog MenuKind = "catalog"

	// KindMenu is a navigable page.
	KindMenu MenuKind = "menu"

	// KindButton is an in-page action; its permission code gates
	// fine-grained operations.
	KindButton MenuKind = "button"
)

// StatusNormal marks active menus and departments.
const StatusNormal = "normal"

// Sentinel errors for directory operations.
var (
	ErrMenuNotFound = errors.New("menu not found")
	ErrDeptNotFound = errors.New("department not found")
)

// MenuMeta is the display configuration attached to a menu node. Recognised
// fields are typed; anything else round-trips through Extra so forward
// additions don't break older rows.
type MenuMeta struct {
	Title  string `json:"title,omitempty"`
	Icon   string `json:"icon,omitempty"`
	Order  int    `json:"order,omitempty"`
	Hidden bool   `json:"hidden,omitempty"`
	Badge  string `json:"badge,omitempty"`

	Extra map[string]any `json:"-"`
}

// metaKnownKeys are the JSON keys owned by the typed fields.
var metaKnownKeys = map[string]struct{}{
	"title": {}, "icon": {}, "order": {}, "hidden": {}, "badge": {},
}

// MarshalJSON merges the typed fields with Extra. Typed fields win on
// key collision.
func (m MenuMeta) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Extra)+5)
	for k, v := range m.Extra {
		if _, known := metaKnownKeys[k]; !known {
			out[k] = v
		}
	}
	if m.Title != "" {
		out["title"] = m.Title
	}
	if m.Icon != "" {
		out["icon"] = m.Icon
	}
	if m.Order != 0 {
		out["order"] = m.Order
	}
	if m.Hidden {
		out["hidden"] = m.Hidden
	}
	if m.Badge != "" {
		out["badge"] = m.Badge
	}
	return json.Marshal(out)
}

// UnmarshalJSON fills the typed fields and collects unrecognised keys
// into Extra.
func (m *MenuMeta) UnmarshalJSON(data []byte) error {
	type known struct {
		Title  string `json:"title"`
		Icon   string `json:"icon"`
		Order  int    `json:"order"`
		Hidden bool   `json:"hidden"`
		Badge  string `json:"badge"`
	}
	var k known
	if err := json.Unmarshal(data, &k); err != nil {
		return fmt.Errorf("parsing menu meta: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing menu meta: %w", err)
	}

	*m = MenuMeta{Title: k.Title, Icon: k.Icon, Order: k.Order, Hidden: k.Hidden, Badge: k.Badge}
	for key, val := range raw {
		if _, owned := metaKnownKeys[key]; owned {
			continue
		}
		if m.Extra == nil {
			m.Extra = make(map[string]any)
		}
		m.Extra[key] = val
	}
	return nil
}

// SysMenu is a navigation node: part of a forest via ParentMenuID.
type SysMenu struct {
	ID           string    `json:"id"`
	ParentMenuID string    `json:"parent_menu_id,omitempty"`
	Name         string    `json:"name"`
	Permission   string    `json:"permission,omitempty"`
	Kind         MenuKind  `json:"type"`
	Meta         MenuMeta  `json:"meta"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Tree builder contract for menus: ordered by meta.order, created_at
// breaking ties.

func (m SysMenu) NodeID() string           { return m.ID }
func (m SysMenu) NodeParentID() string     { return m.ParentMenuID }
func (m SysMenu) NodeOrder() int           { return m.Meta.Order }
func (m SysMenu) NodeCreatedAt() time.Time { return m.CreatedAt }

// Dept is an organisational unit: part of a per-corp forest via ParentDeptID.
type Dept struct {
	ID           string    `json:"id"`
	CorpID       string    `json:"corp_id"`
	ParentDeptID string    `json:"parent_dept_id,omitempty"`
	Name         string    `json:"name"`
	Sort         int       `json:"sort"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (d Dept) NodeID() string           { return d.ID }
func (d Dept) NodeParentID() string     { return d.ParentDeptID }
func (d Dept) NodeOrder() int           { return d.Sort }
func (d Dept) NodeCreatedAt() time.Time { return d.CreatedAt }

package directory

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

// flatNode is a minimal Node for builder tests.
type flatNode struct {
	ID        string `json:"id"`
	ParentID  string `json:"parent_id,omitempty"`
	Order     int    `json:"order"`
	CreatedAt time.Time
}

func (n flatNode) NodeID() string           { return n.ID }
func (n flatNode) NodeParentID() string     { return n.ParentID }
func (n flatNode) NodeOrder() int           { return n.Order }
func (n flatNode) NodeCreatedAt() time.Time { return n.CreatedAt }

func TestBuildTree_OrderingAndNesting(t *testing.T) {
	nodes := []flatNode{
		{ID: "1", ParentID: "", Order: 2},
		{ID: "2", ParentID: "", Order: 1},
		{ID: "3", ParentID: "1", Order: 0},
	}

	tree := BuildTree(nodes, "")

	// Lower order first at the root; id 3 nested under id 1.
	if len(tree) != 2 {
		t.Fatalf("roots = %d, want 2", len(tree))
	}
	if tree[0].Item.ID != "2" {
		t.Errorf("first root = %s, want 2", tree[0].Item.ID)
	}
	if tree[1].Item.ID != "1" {
		t.Errorf("second root = %s, want 1", tree[1].Item.ID)
	}
	if len(tree[0].Children) != 0 {
		t.Errorf("node 2 children = %d, want 0", len(tree[0].Children))
	}
	if len(tree[1].Children) != 1 || tree[1].Children[0].Item.ID != "3" {
		t.Errorf("node 1 children = %+v, want [3]", tree[1].Children)
	}
}

func TestBuildTree_CreatedAtTieBreak(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	nodes := []flatNode{
		{ID: "late", Order: 1, CreatedAt: base.Add(time.Hour)},
		{ID: "early", Order: 1, CreatedAt: base},
	}

	tree := BuildTree(nodes, "")
	if len(tree) != 2 {
		t.Fatalf("roots = %d, want 2", len(tree))
	}
	if tree[0].Item.ID != "early" || tree[1].Item.ID != "late" {
		t.Errorf("tie-break order = [%s %s], want [early late]", tree[0].Item.ID, tree[1].Item.ID)
	}
}

func TestBuildTree_OrderAppliesAtEveryLevel(t *testing.T) {
	nodes := []flatNode{
		{ID: "root", Order: 0},
		{ID: "b", ParentID: "root", Order: 2},
		{ID: "a", ParentID: "root", Order: 1},
	}

	tree := BuildTree(nodes, "")
	if len(tree) != 1 {
		t.Fatalf("roots = %d, want 1", len(tree))
	}
	children := tree[0].Children
	if len(children) != 2 || children[0].Item.ID != "a" || children[1].Item.ID != "b" {
		t.Errorf("children order wrong: %+v", children)
	}
}

func TestBuildTree_EmptyInput(t *testing.T) {
	if tree := BuildTree([]flatNode{}, ""); len(tree) != 0 {
		t.Errorf("expected empty tree, got %d nodes", len(tree))
	}
}

func TestBuildTree_SubtreeAnchor(t *testing.T) {
	nodes := []flatNode{
		{ID: "root", Order: 0},
		{ID: "child", ParentID: "root", Order: 0},
		{ID: "grandchild", ParentID: "child", Order: 0},
	}

	// Anchoring below the root returns only that subtree.
	tree := BuildTree(nodes, "root")
	if len(tree) != 1 || tree[0].Item.ID != "child" {
		t.Fatalf("subtree roots = %+v, want [child]", tree)
	}
	if len(tree[0].Children) != 1 || tree[0].Children[0].Item.ID != "grandchild" {
		t.Errorf("subtree children wrong: %+v", tree[0].Children)
	}
}

func TestTree_JSONLeavesHaveNoChildrenKey(t *testing.T) {
	nodes := []flatNode{
		{ID: "1", Order: 2},
		{ID: "2", Order: 1},
		{ID: "3", ParentID: "1", Order: 0},
	}

	data, err := json.Marshal(BuildTree(nodes, ""))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got := string(data)

	if strings.Count(got, `"children"`) != 1 {
		t.Errorf("expected exactly one children key (under id 1), got %s", got)
	}
	// Root order in the encoded output: 2 before 1.
	if strings.Index(got, `"id":"2"`) > strings.Index(got, `"id":"1"`) {
		t.Errorf("encoded roots out of order: %s", got)
	}
}

func TestTree_JSONRoundTripMenus(t *testing.T) {
	menus := []SysMenu{
		{ID: "mnu-sys", Name: "System", Kind: KindCatalog, Meta: MenuMeta{Title: "System", Order: 1}},
		{ID: "mnu-acct", ParentMenuID: "mnu-sys", Name: "Accounts", Kind: KindMenu,
			Permission: "system:account:list", Meta: MenuMeta{Title: "Accounts", Order: 1}},
	}

	data, err := json.Marshal(BuildTree(menus, ""))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got := string(data)

	if !strings.Contains(got, `"permission":"system:account:list"`) {
		t.Errorf("child menu fields missing: %s", got)
	}
	if !strings.Contains(got, `"children":[`) {
		t.Errorf("catalog should carry children: %s", got)
	}
}

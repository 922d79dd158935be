package directory

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// testDB creates a temporary SQLite database with the directory schema.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "directory-test-*.db")
	if err != nil {
		t.Fatalf("creating temp db: %v", err)
	}
	dbPath := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(dbPath) })

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	migrationSQL := `
		CREATE TABLE corps (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			parent_corp_id TEXT,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;

		CREATE TABLE sys_menus (
			id TEXT PRIMARY KEY,
			parent_menu_id TEXT,
			name TEXT NOT NULL,
			permission TEXT,
			type TEXT NOT NULL DEFAULT 'menu',
			meta TEXT NOT NULL DEFAULT '{}',
			status TEXT NOT NULL DEFAULT 'normal',
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			FOREIGN KEY (parent_menu_id) REFERENCES sys_menus(id) ON DELETE SET NULL
		) STRICT;

		CREATE TABLE depts (
			id TEXT PRIMARY KEY,
			corp_id TEXT NOT NULL,
			parent_dept_id TEXT,
			name TEXT NOT NULL,
			sort INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			FOREIGN KEY (corp_id) REFERENCES corps(id) ON DELETE CASCADE,
			FOREIGN KEY (parent_dept_id) REFERENCES depts(id) ON DELETE SET NULL
		) STRICT;

		INSERT INTO corps (id, name, parent_corp_id) VALUES ('corp-top', 'Head Office', NULL);
		INSERT INTO corps (id, name, parent_corp_id) VALUES ('corp-sub', 'Regional Branch', 'corp-top');
	`
	if _, err := db.Exec(migrationSQL); err != nil {
		t.Fatalf("applying directory migration: %v", err)
	}

	return db
}

func TestMenuRepository_CreateAndListAll(t *testing.T) {
	repo := NewMenuRepository(testDB(t))
	ctx := context.Background()

	catalog := &SysMenu{Name: "System", Kind: KindCatalog, Meta: MenuMeta{Title: "System", Order: 1}}
	if err := repo.Create(ctx, catalog); err != nil {
		t.Fatalf("Create catalog: %v", err)
	}
	page := &SysMenu{
		ParentMenuID: catalog.ID,
		Name:         "Accounts",
		Permission:   "system:account:list",
		Kind:         KindMenu,
		Meta:         MenuMeta{Title: "Accounts", Order: 1, Extra: map[string]any{"theme": "dark"}},
	}
	if err := repo.Create(ctx, page); err != nil {
		t.Fatalf("Create page: %v", err)
	}

	menus, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(menus) != 2 {
		t.Fatalf("menus = %d, want 2", len(menus))
	}

	byID := map[string]SysMenu{}
	for _, m := range menus {
		byID[m.ID] = m
	}
	got := byID[page.ID]
	if got.ParentMenuID != catalog.ID {
		t.Errorf("ParentMenuID = %q, want %q", got.ParentMenuID, catalog.ID)
	}
	if got.Permission != "system:account:list" {
		t.Errorf("Permission = %q", got.Permission)
	}
	if got.Meta.Title != "Accounts" || got.Meta.Extra["theme"] != "dark" {
		t.Errorf("Meta round trip failed: %+v", got.Meta)
	}
}

func TestMenuRepository_ListGranted(t *testing.T) {
	repo := NewMenuRepository(testDB(t))
	ctx := context.Background()

	menus := []*SysMenu{
		{Name: "Accounts", Permission: "system:account:list", Kind: KindMenu},
		{Name: "Add Account", Permission: "system:account:add", Kind: KindButton},
		{Name: "Roles", Permission: "system:role:list", Kind: KindMenu},
		{Name: "Disabled", Permission: "system:gone:list", Kind: KindMenu, Status: "forbidden"},
	}
	for _, m := range menus {
		if err := repo.Create(ctx, m); err != nil {
			t.Fatalf("Create %s: %v", m.Name, err)
		}
	}

	granted := []string{"system:account:list", "system:account:add", "system:gone:list"}

	// Unfiltered by kind: all granted, active menus.
	all, err := repo.ListGranted(ctx, granted, nil)
	if err != nil {
		t.Fatalf("ListGranted: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("granted menus = %d, want 2 (disabled excluded)", len(all))
	}

	// Kind filter narrows to navigable pages only.
	pages, err := repo.ListGranted(ctx, granted, []MenuKind{KindCatalog, KindMenu})
	if err != nil {
		t.Fatalf("ListGranted kinds: %v", err)
	}
	if len(pages) != 1 || pages[0].Permission != "system:account:list" {
		t.Errorf("pages = %+v, want only the account list menu", pages)
	}

	// No grants, no menus.
	none, err := repo.ListGranted(ctx, nil, nil)
	if err != nil {
		t.Fatalf("ListGranted empty: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no menus for empty grant set, got %d", len(none))
	}
}

func TestDeptRepository_ListByCorpScoped(t *testing.T) {
	repo := NewDeptRepository(testDB(t))
	ctx := context.Background()

	depts := []*Dept{
		{CorpID: "corp-top", Name: "Engineering", Sort: 2},
		{CorpID: "corp-top", Name: "Finance", Sort: 1},
		{CorpID: "corp-sub", Name: "Regional Sales", Sort: 1},
	}
	for _, d := range depts {
		if err := repo.Create(ctx, d); err != nil {
			t.Fatalf("Create %s: %v", d.Name, err)
		}
	}

	top, err := repo.ListByCorp(ctx, "corp-top")
	if err != nil {
		t.Fatalf("ListByCorp: %v", err)
	}
	if len(top) != 2 {
		t.Errorf("corp-top depts = %d, want 2", len(top))
	}

	// The flat list feeds the tree builder: sorted by Sort ascending.
	tree := BuildTree(top, "")
	if len(tree) != 2 || tree[0].Item.Name != "Finance" {
		t.Errorf("tree order wrong: %+v", tree)
	}

	empty, err := repo.ListByCorp(ctx, "corp-none")
	if err != nil {
		t.Fatalf("ListByCorp empty: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty slice, got %v", empty)
	}
}

func TestDeptRepository_NestedTree(t *testing.T) {
	repo := NewDeptRepository(testDB(t))
	ctx := context.Background()

	parent := &Dept{CorpID: "corp-top", Name: "Engineering", Sort: 1}
	if err := repo.Create(ctx, parent); err != nil {
		t.Fatalf("Create parent: %v", err)
	}
	child := &Dept{CorpID: "corp-top", ParentDeptID: parent.ID, Name: "Platform", Sort: 1}
	if err := repo.Create(ctx, child); err != nil {
		t.Fatalf("Create child: %v", err)
	}

	flat, err := repo.ListByCorp(ctx, "corp-top")
	if err != nil {
		t.Fatalf("ListByCorp: %v", err)
	}
	tree := BuildTree(flat, "")
	if len(tree) != 1 {
		t.Fatalf("roots = %d, want 1", len(tree))
	}
	if len(tree[0].Children) != 1 || tree[0].Children[0].Item.Name != "Platform" {
		t.Errorf("nesting wrong: %+v", tree[0].Children)
	}
}

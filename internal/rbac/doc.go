// Package rbac resolves roles into effective permission-code sets.
//
// Authorization facts live in role_menu_configs: one row per (role, menu
// permission) grant. Resolution joins the grants against sys_menus, filters
// by menu kind when asked, and returns the non-null permission strings.
// Dangling grants — rows whose menu has since been deleted — resolve to
// nothing rather than erroring.
package rbac

// Package testdb provides test database utilities for the CRM API.
//
// Every call to New returns a private, migrated in-memory SQLite database
// that is closed when the test ends:
//
//	func TestSomething(t *testing.T) {
//	    tdb := testdb.New(t)
//	    user := tdb.CreateUser(model.UserRoleManager)
//	    // Use tdb.DB for repository construction
//	}
//
// Seed helpers write rows with plain SQL so the package can be used from
// repository tests without an import cycle.
package testdb

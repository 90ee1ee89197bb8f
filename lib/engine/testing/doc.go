// Package testing provides a reusable conformance suite for engine
// implementations. An engine package verifies itself by invoking the suite
// with a factory for fresh instances:
//
//	func Test(t *testing.T) {
//		enginetesting.RunEngineTests(t, "MemDB", func() engine.Engine {
//			return memdb.New()
//		})
//	}
//
// The suite covers the full Engine/Connection/Tx/Cursor contract: versioned
// open and upgrade, key resolution (in-line, out-of-line, auto-increment),
// unique index constraints, cursor traversal in every direction, transaction
// atomicity and scoping, blocked-open rejection and upgrade rollback.
package testing

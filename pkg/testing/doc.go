// Package testing provides a control testing framework for stencil.
//
// # Quick Start
//
// Create a tester, register templates, load one and make assertions:
//
//	func TestGreeting(t *testing.T) {
//	    tester := stenciltest.NewTesterWithT(t)
//	    tester.Register("app.greeting", `<p data-name="msg" data-binding="textContent:name"></p>`)
//	    tester.Load("app.greeting", map[string]any{"name": "Ada"})
//
//	    if !tester.Find(stenciltest.ByText("Ada")).Exists() {
//	        t.Error("expected 'Ada'")
//	    }
//	}
//
// # Events
//
// Dispatch fires a DOM event on the first match and then runs the
// callbacks posted while handling it:
//
//	tester.Dispatch(stenciltest.ByName("save"), "click")
//
// # Snapshot Testing
//
// Capture and compare the rendered markup:
//
//	snapshot := tester.CaptureSnapshot()
//	snapshot.MatchesFile(t, "testdata/greeting.snapshot.html")
//
// Update snapshots with:
//
//	STENCIL_UPDATE_SNAPSHOTS=1 go test ./...
//
// # Import Alias
//
// Since this package has the same name as the standard library testing
// package, import it with an alias:
//
//	import stenciltest "github.com/go-drift/stencil/pkg/testing"
package testing

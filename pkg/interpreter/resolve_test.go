package interpreter

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"menter/interpreter-go/pkg/ast"
	"menter/interpreter-go/pkg/runtime"
)

func TestSuggestRanksContiguousMatchesFirst(t *testing.T) {
	got := suggest("valeu", []string{"zebra", "value", "values", "val", "value"}, 3)
	want := []string{"value", "val", "values"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected suggestions (-want +got):\n%s", diff)
	}
}

func TestSuggestPrefersCloseLengthOverLongPrefixMatch(t *testing.T) {
	got := suggest("cnt", []string{"cntrlWidgetsRegistry", "count"}, 2)
	want := []string{"count", "cntrlWidgetsRegistry"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected suggestions (-want +got):\n%s", diff)
	}
}

func TestSuggestLimit(t *testing.T) {
	if got := suggest("a", []string{"a", "ab", "abc"}, 0); len(got) != 0 {
		t.Fatalf("expected no suggestions, got %v", got)
	}
}

func TestSimilarityIsNormalizedByLength(t *testing.T) {
	cases := []struct {
		candidate string
		name      string
		want      float64
	}{
		{"value", "value", 1},
		{"value", "vale", 0.7},
		{"Value", "value", 1},
		{"values", "valeu", 0.5833333333333334},
		{"", "x", 0},
	}
	for _, tc := range cases {
		if got := similarity(tc.candidate, tc.name); got != tc.want {
			t.Fatalf("similarity(%q, %q) = %v, want %v", tc.candidate, tc.name, got, tc.want)
		}
	}
}

func TestResolveCreateThenReadReturnsSameCell(t *testing.T) {
	interp, _ := newTestInterpreter(t, Options{})
	g, err := interp.Load("main", ast.Prog())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	site := ast.ID("fresh")
	steps := []ast.Node{site}
	created, err := interp.resolve(site, steps, createIfMissing, g, g.Frame())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	first, err := interp.resolve(site, steps, throwIfMissing, g, g.Frame())
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	second, err := interp.resolve(site, steps, throwIfMissing, g, g.Frame())
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if created != first || first != second {
		t.Fatalf("expected every lookup to return the created cell")
	}
	if _, ok := g.Variable("fresh"); !ok {
		t.Fatalf("expected top level creation to define a global")
	}
}

func TestResolveCreateNewDetachesCell(t *testing.T) {
	interp, _ := newTestInterpreter(t, Options{})
	g, err := interp.Load("main", ast.Prog())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	original := runtime.NewInt(1)
	g.SetVariable("n", original)
	site := ast.ID("n")
	fresh, err := interp.resolve(site, []ast.Node{site}, createNew, g, g.Frame())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if fresh == original {
		t.Fatalf("expected createNew to rebind a copy")
	}
	fresh.Inherit(runtime.NewInt(2))
	if got := runtime.Display(original); got != "1" {
		t.Fatalf("expected original cell to keep 1, got %s", got)
	}
}

func TestUnresolvedMessageSuggestsObjectKeys(t *testing.T) {
	_, err := evalProgram(t,
		ast.Assign(ast.ID("o"), ast.Obj(ast.Entry(ast.ID("width"), ast.Int(1)))),
		ast.Path("o", "widht"),
	)
	execErr := expectError(t, err, runtime.ErrUnresolvedSymbol, "Cannot resolve symbol 'widht' on [o.widht]")
	if !containsAll(execErr.Message, "Evaluation stopped at value: {width: 1}", "'width'") {
		t.Fatalf("unexpected message %q", execErr.Message)
	}
}

func TestUnresolvedMessageSuggestsVariables(t *testing.T) {
	_, err := evalProgram(t,
		ast.Assign(ast.ID("value"), ast.Int(1)),
		ast.ID("valeu"),
	)
	expectError(t, err, runtime.ErrUnresolvedSymbol, "Did you mean 'value'")
}

package sqlite

import (
	"testing"

	"github.com/spbots/koto/internal/runtime"
)

func callFn(t *testing.T, owner *runtime.ValueMap, name string, args ...runtime.Value) runtime.Value {
	t.Helper()
	fn, found := owner.GetStr(name)
	if !found {
		t.Fatalf("function %s not found", name)
	}
	result, err := runtime.New().RunFunction(fn, args)
	if err != nil {
		t.Fatalf("%s failed: %v", name, err)
	}
	return result
}

func openMemoryDb(t *testing.T) *runtime.ExternalValue {
	t.Helper()
	module := MakeModule()
	db, ok := callFn(t, module, "open_memory").(*runtime.ExternalValue)
	if !ok {
		t.Fatalf("open_memory should return an external value")
	}
	return db
}

func TestExecuteAndQuery(t *testing.T) {
	db := openMemoryDb(t)
	defer db.Release()

	callFn(t, db.Meta, "execute", db,
		runtime.Str("create table users (name text, age integer)"))
	affected := callFn(t, db.Meta, "execute", db,
		runtime.Str("insert into users values (?, ?), (?, ?)"),
		runtime.Str("ada"), runtime.Number(36),
		runtime.Str("grace"), runtime.Number(45))
	if !runtime.ValuesEqual(affected, runtime.Number(2)) {
		t.Errorf("affected = %v, want 2", affected)
	}

	rows, ok := callFn(t, db.Meta, "query", db,
		runtime.Str("select name, age from users order by age")).(*runtime.ValueList)
	if !ok || rows.Len() != 2 {
		t.Fatalf("query returned %v", rows)
	}

	first, _ := rows.Get(0)
	row, ok := first.(*runtime.ValueMap)
	if !ok {
		t.Fatalf("rows should be maps, got %T", first)
	}
	if name, _ := row.GetStr("name"); !runtime.ValuesEqual(name, runtime.Str("ada")) {
		t.Errorf("name = %v, want ada", name)
	}
	if age, _ := row.GetStr("age"); !runtime.ValuesEqual(age, runtime.Number(36)) {
		t.Errorf("age = %v, want 36", age)
	}

	// columns come back in select order
	keys := row.Keys()
	if len(keys) != 2 || keys[0] != runtime.Str("name") || keys[1] != runtime.Str("age") {
		t.Errorf("unexpected column order: %v", keys)
	}
}

func TestQueryErrorsSurface(t *testing.T) {
	db := openMemoryDb(t)
	defer db.Release()

	fn, _ := db.Meta.GetStr("query")
	if _, err := runtime.New().RunFunction(fn, []runtime.Value{
		db, runtime.Str("select * from missing"),
	}); err == nil {
		t.Errorf("querying a missing table should error")
	}
}

func TestBindRejectsContainers(t *testing.T) {
	db := openMemoryDb(t)
	defer db.Release()

	callFn(t, db.Meta, "execute", db, runtime.Str("create table t (v)"))
	fn, _ := db.Meta.GetStr("execute")
	if _, err := runtime.New().RunFunction(fn, []runtime.Value{
		db, runtime.Str("insert into t values (?)"), runtime.NewValueList(0),
	}); err == nil {
		t.Errorf("binding a list should error")
	}
}

func TestCloseReleasesHandle(t *testing.T) {
	db := openMemoryDb(t)
	callFn(t, db.Meta, "close", db)
	// closing twice is a no-op
	callFn(t, db.Meta, "close", db)
}

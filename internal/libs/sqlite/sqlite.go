// Package sqlite provides the `sqlite` host module: a thin bridge over
// database/sql with the modernc SQLite driver. Query results are marshalled
// into lists of maps, one map per row in column order.
package sqlite

import (
	"database/sql"

	_ "modernc.org/sqlite"

	"github.com/spbots/koto/internal/runtime"
)

func scanValue(v interface{}) runtime.Value {
	switch value := v.(type) {
	case nil:
		return runtime.Empty{}
	case bool:
		return runtime.Bool(value)
	case int64:
		return runtime.Number(value)
	case float64:
		return runtime.Number(value)
	case string:
		return runtime.Str(value)
	case []byte:
		return runtime.Str(value)
	default:
		return runtime.Empty{}
	}
}

func bindArgs(args []runtime.Value) ([]interface{}, error) {
	bound := make([]interface{}, len(args))
	for i, arg := range args {
		switch value := arg.(type) {
		case runtime.Empty:
			bound[i] = nil
		case runtime.Bool:
			bound[i] = bool(value)
		case runtime.Number:
			bound[i] = float64(value)
		case runtime.Str:
			bound[i] = string(value)
		default:
			return nil, runtime.ExternalError(
				"sqlite: Unable to bind '%s' as a statement parameter",
				runtime.TypeAsString(arg))
		}
	}
	return bound, nil
}

func makeDbValue(db *sql.DB, path string) *runtime.ExternalValue {
	meta := runtime.NewValueMap()

	meta.AddFn("execute", func(vm *runtime.VM, argBase, argCount int) (runtime.Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) >= 2 {
			if statement, ok := args[1].(runtime.Str); ok {
				bound, err := bindArgs(args[2:])
				if err != nil {
					return nil, err
				}
				result, err := db.Exec(string(statement), bound...)
				if err != nil {
					return nil, runtime.ExternalError("sqlite.execute: %v", err)
				}
				affected, _ := result.RowsAffected()
				return runtime.Number(affected), nil
			}
		}
		return nil, runtime.ExternalError("sqlite.execute: Expected statement string as argument")
	})

	meta.AddFn("query", func(vm *runtime.VM, argBase, argCount int) (runtime.Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) >= 2 {
			if statement, ok := args[1].(runtime.Str); ok {
				bound, err := bindArgs(args[2:])
				if err != nil {
					return nil, err
				}
				rows, err := db.Query(string(statement), bound...)
				if err != nil {
					return nil, runtime.ExternalError("sqlite.query: %v", err)
				}
				defer rows.Close()

				columns, err := rows.Columns()
				if err != nil {
					return nil, runtime.ExternalError("sqlite.query: %v", err)
				}
				result := runtime.NewValueList(0)
				for rows.Next() {
					fields := make([]interface{}, len(columns))
					pointers := make([]interface{}, len(columns))
					for i := range fields {
						pointers[i] = &fields[i]
					}
					if err := rows.Scan(pointers...); err != nil {
						return nil, runtime.ExternalError("sqlite.query: %v", err)
					}
					row := runtime.NewValueMapWithCapacity(len(columns))
					for i, column := range columns {
						row.Insert(runtime.Str(column), scanValue(fields[i]))
					}
					result.Push(row)
				}
				if err := rows.Err(); err != nil {
					return nil, runtime.ExternalError("sqlite.query: %v", err)
				}
				return result, nil
			}
		}
		return nil, runtime.ExternalError("sqlite.query: Expected statement string as argument")
	})

	value := runtime.NewExternalValue("SqliteDb", db, meta)
	value.SetRelease(func() {
		db.Close()
	})
	meta.AddFn("close", func(vm *runtime.VM, argBase, argCount int) (runtime.Value, error) {
		value.Release()
		return runtime.Empty{}, nil
	})
	return value
}

// MakeModule builds the sqlite module
func MakeModule() *runtime.ValueMap {
	module := runtime.NewValueMap()

	module.AddFn("open", func(vm *runtime.VM, argBase, argCount int) (runtime.Value, error) {
		args := vm.GetArgs(argBase, argCount)
		if len(args) == 1 {
			if path, ok := args[0].(runtime.Str); ok {
				db, err := sql.Open("sqlite", string(path))
				if err != nil {
					return nil, runtime.ExternalError("sqlite.open: %v", err)
				}
				return makeDbValue(db, string(path)), nil
			}
		}
		return nil, runtime.ExternalError("sqlite.open: Expected path string as argument")
	})

	module.AddFn("open_memory", func(vm *runtime.VM, argBase, argCount int) (runtime.Value, error) {
		db, err := sql.Open("sqlite", ":memory:")
		if err != nil {
			return nil, runtime.ExternalError("sqlite.open_memory: %v", err)
		}
		return makeDbValue(db, ":memory:"), nil
	})

	return module
}

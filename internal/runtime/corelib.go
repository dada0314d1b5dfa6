package runtime

// CoreLib bundles the language's built-in modules. The VM merges these into
// its globals at construction, and value access falls back to the matching
// module so that core operations read as methods (`l.push 1`).
type CoreLib struct {
	Io       *ValueMap
	Iterator *ValueMap
	Koto     *ValueMap
	List     *ValueMap
	Map      *ValueMap
	Os       *ValueMap
	Num2     *ValueMap
	Num4     *ValueMap
	Number   *ValueMap
	Range    *ValueMap
	String   *ValueMap
	Test     *ValueMap
	Thread   *ValueMap
	Tuple    *ValueMap
}

// DefaultCoreLib builds the core library
func DefaultCoreLib() *CoreLib {
	return &CoreLib{
		Io:       makeIoModule(),
		Iterator: makeIteratorModule(),
		Koto:     makeKotoModule(),
		List:     makeListModule(),
		Map:      makeMapModule(),
		Os:       makeOsModule(),
		Num2:     makeNum2Module(),
		Num4:     makeNum4Module(),
		Number:   makeNumberModule(),
		Range:    makeRangeModule(),
		String:   makeStringModule(),
		Test:     makeTestModule(),
		Thread:   makeThreadModule(),
		Tuple:    makeTupleModule(),
	}
}

// Modules returns the core modules keyed by their global names
func (c *CoreLib) Modules() *ValueMap {
	modules := NewValueMapWithCapacity(14)
	modules.AddMap("io", c.Io)
	modules.AddMap("iterator", c.Iterator)
	modules.AddMap("koto", c.Koto)
	modules.AddMap("list", c.List)
	modules.AddMap("map", c.Map)
	modules.AddMap("os", c.Os)
	modules.AddMap("num2", c.Num2)
	modules.AddMap("num4", c.Num4)
	modules.AddMap("number", c.Number)
	modules.AddMap("range", c.Range)
	modules.AddMap("string", c.String)
	modules.AddMap("test", c.Test)
	modules.AddMap("thread", c.Thread)
	modules.AddMap("tuple", c.Tuple)
	return modules
}

// Package props passes component inputs as named getters.
//
// A caller hands a component a Values map. Each entry is a Getter: calling it
// reads the current value, so a getter over a cell or derived value stays
// reactive when a component reads it inside an effect or derived value.
//
//	values := props.Values{
//	    "title": props.From[string](title), // *reactive.Cell[string]
//	    "count": props.Static(3),
//	    "data-testid": props.Static("card"),
//	}
//
// A component declares the names it understands with a Schema and binds the
// values once:
//
//	var cardProps = props.NewSchema("title", "count").AllowExtra()
//
//	func Card(rt *reactive.Runtime, values props.Values) (*Node, error) {
//	    p, err := cardProps.Bind(values)
//	    if err != nil {
//	        return nil, err
//	    }
//	    reactive.NewEffect(rt, func() reactive.Cleanup {
//	        setText(props.Value(p, "title", "untitled"))
//	        return nil
//	    })
//	    forward(p.Extra()) // undeclared names, passed through untouched
//	    ...
//	}
//
// Undeclared names are rejected with P001 unless the schema allows extras;
// a value of the wrong type read through Value panics with P002.
package props

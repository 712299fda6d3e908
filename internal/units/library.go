package units

import "sync"

// Scope is a read-only mapping from identifier names to quantities. It is the
// shape in which bindings tables are handed to the equation compiler.
type Scope map[string]Quantity

// Lookup returns the quantity bound to name, if any.
func (s Scope) Lookup(name string) (Quantity, bool) {
	q, ok := s[name]
	return q, ok
}

// prefixes are the SI scaling prefixes applied to every library unit. Both
// the long and the short form of a unit take the short prefix symbol, which
// matches how the names are conventionally written in model definitions:
// msecond and ms, mvolt and mV.
var prefixes = []struct {
	sym    string
	factor float64
}{
	{"p", 1e-12},
	{"n", 1e-9},
	{"u", 1e-6},
	{"m", 1e-3},
	{"c", 1e-2},
	{"k", 1e3},
	{"M", 1e6},
	{"G", 1e9},
}

var (
	libraryOnce sync.Once
	library     Scope
)

// Library returns the fixed scope of named physical units: SI base and
// derived units under their long and short names, plus all standard scaled
// variants. The returned scope is shared and must be treated as read-only.
func Library() Scope {
	libraryOnce.Do(buildLibrary)
	return library
}

func buildLibrary() {
	dimVolt := DimKilogram.Mul(DimMetre).Mul(DimMetre).
		Div(DimSecond).Div(DimSecond).Div(DimSecond).Div(DimAmpere)
	dimCoulomb := DimAmpere.Mul(DimSecond)
	dimJoule := dimVolt.Mul(dimCoulomb)
	dimWatt := dimJoule.Div(DimSecond)
	dimNewton := dimJoule.Div(DimMetre)
	dimPascal := dimNewton.Div(DimMetre).Div(DimMetre)
	dimHertz := Dimensionless.Div(DimSecond)
	dimOhm := dimVolt.Div(DimAmpere)
	dimSiemens := Dimensionless.Div(dimOhm)
	dimFarad := dimCoulomb.Div(dimVolt)
	dimWeber := dimVolt.Mul(DimSecond)
	dimTesla := dimWeber.Div(DimMetre).Div(DimMetre)
	dimHenry := dimWeber.Div(DimAmpere)

	base := []struct {
		long, short string
		q           Quantity
	}{
		{"metre", "m", New(1, DimMetre)},
		{"meter", "", New(1, DimMetre)},
		{"gram", "g", New(1e-3, DimKilogram)},
		{"second", "s", New(1, DimSecond)},
		{"amp", "A", New(1, DimAmpere)},
		{"ampere", "", New(1, DimAmpere)},
		{"kelvin", "K", New(1, DimKelvin)},
		{"mole", "mol", New(1, DimMole)},
		{"candela", "cd", New(1, DimCandela)},
		{"hertz", "Hz", New(1, dimHertz)},
		{"newton", "N", New(1, dimNewton)},
		{"pascal", "Pa", New(1, dimPascal)},
		{"joule", "J", New(1, dimJoule)},
		{"watt", "W", New(1, dimWatt)},
		{"coulomb", "C", New(1, dimCoulomb)},
		{"volt", "V", New(1, dimVolt)},
		{"farad", "F", New(1, dimFarad)},
		{"ohm", "", New(1, dimOhm)},
		{"siemens", "S", New(1, dimSiemens)},
		{"weber", "Wb", New(1, dimWeber)},
		{"tesla", "T", New(1, dimTesla)},
		{"henry", "H", New(1, dimHenry)},
	}

	library = make(Scope, len(base)*(2+2*len(prefixes))+1)
	library["kilogram"] = New(1, DimKilogram)

	for _, u := range base {
		library[u.long] = u.q
		if u.short != "" {
			library[u.short] = u.q
		}
		for _, p := range prefixes {
			scaled := New(p.factor*u.q.Value, u.q.Dim)
			library[p.sym+u.long] = scaled
			if u.short != "" {
				library[p.sym+u.short] = scaled
			}
		}
	}
}

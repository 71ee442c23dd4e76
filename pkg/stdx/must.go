// Package stdx holds small helpers for paths where an error is a programming mistake, such
// as building static tool tables or test fixtures.
package stdx

// Must1 returns v, or panics if err is not nil.
//
//	def := stdx.Must1(tool.For[searchArgs](tool.Name("search")))
func Must1[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

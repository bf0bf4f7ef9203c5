// Package pagination provides offset paging arithmetic and the ordered
// concurrent fan-out used to resolve every entry of a listing page.
//
// PokeAPI listings are offset/limit based: page i of size n starts at
// offset i*n, and the response carries a "next" link while more entries
// exist. Each listing entry is then resolved by a follow-up detail request.
//
// Example usage:
//
//	offset := pagination.Offset(pageIndex, 24)
//	list, err := c.ListPage(ctx, 24, offset)
//	records, err := pagination.FanOut(ctx, list.Results, 24,
//		func(ctx context.Context, s pokemon.Summary) (pokemon.Record, error) {
//			return resolve(ctx, s.Name)
//		})
//
// FanOut:
//   - Runs fn for every item with at most maxConcurrency in flight
//   - Returns results in input order regardless of completion order
//   - Cancels the remaining work on the first error
//   - Returns no partial results when any item fails
package pagination

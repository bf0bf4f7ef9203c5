// Package loader implements the Pokédex data loader: paged retrieval of
// PokeAPI listings, concurrent detail resolution of every entry on a page,
// and the view state a UI renders from.
//
// A Loader is created empty when a UI session starts and is discarded with
// it. LoadNextPage appends one page of records at a time; records are never
// removed or reordered. At most one page load runs at a time, and once the
// listing is exhausted further loads are no-ops.
//
//	c, _ := client.New(client.DefaultConfig("MyPokedex/1.0"))
//	l := loader.New(c)
//	unsubscribe := l.Subscribe(func(s loader.State) { render(s) })
//	defer unsubscribe()
//
//	if err := l.LoadNextPage(ctx); err != nil {
//		// l.LastError() holds the same message for display
//	}
//
// A page load is all-or-nothing: if any detail request on the page fails,
// nothing from that page is appended and the next call retries the same
// page.
package loader

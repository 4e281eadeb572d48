// Package pagination provides the page-level plumbing between a remote paged
// collection and the views that display it.
//
// A remote collection is reached through a PageFetcher. Each fetch returns one
// Page: the ordered records for that page plus the collection's total count.
//
// Page navigation is sequenced. Every page request is stamped by a Sequencer and
// a response is only applied when it belongs to the latest request; anything
// else is ErrStaleResponse and must be dropped:
//
//	seq := pagination.NewSequencer()
//	req := seq.Next(3, 12)
//	page, err := pagination.Load(ctx, fetcher, req, 15*time.Second)
//	if err := seq.Accept(req); err != nil {
//		// superseded by a newer request, discard page
//	}
//
// A Prefetcher warms the pages after the current one through a small worker
// pool so that a caching fetcher answers later navigation without a round trip:
//
//	pf := pagination.NewPrefetcher(fetcher, pagination.DefaultConfig())
//	warmed, err := pf.Prefetch(ctx, pagination.Following(req, total, 2))
//
// The collection itself is never loaded in full.
package pagination

// Package pylon implements the recency cache that fronts a chain network:
// timestamped snapshots of chain data are written by a background refresher
// and served to readers only while they are fresh enough.
//
// Components:
//   - Adapter[T]: (de)serializes one payload type under a partition key and
//     writes it to a provider.Provider without store-level expiry.
//   - Provider: read-side policy. Missing entries and entries older than the
//     hard limit are errors; entries past the soft limit are served with
//     Recent.Aging set and reported through Hooks.
//   - codec.Codec[T]: the payload descriptor chosen at construction.
//
// Keys:
//
//	recent_<kind>_<netuid>  - e.g. recent_SubnetNeurons_1
//
// Value layout (internal/wire):
//
//	magic | version | kind | captured_at (unix seconds) | len | codec payload
//
// Read pattern:
//
//	r, err := p.RecentNeurons(ctx, netuid)
//	switch {
//	case errors.Is(err, pylon.ErrRecentDataMissing), errors.Is(err, pylon.ErrRecentDataStale):
//		// not available until the next refresh
//	case err != nil:
//		// store or decode failure
//	}
//
// Refreshing lives in package refresh, authenticated client calls in
// packages auth and client.
package pylon

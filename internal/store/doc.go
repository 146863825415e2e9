// Package store maps games onto the on-disk data layout.
//
// Raw inputs and generated timelines live under one data directory,
// partitioned by season:
//
//	{season}/shifts/{gameId}_home.json
//	{season}/shifts/{gameId}_away.json
//	{season}/plays/{gameId}.json
//	{season}/boxscores/{gameId}.json
//	{season}/generated/timelines/json/{gameId}.json
//	{season}/generated/timelines/csv/{gameId}.csv
//	{season}/generated/timelines/unverified/{gameId}.{json,csv}
//
// Outputs are written atomically: each file is staged in its target
// directory and renamed into place, so a reader never sees a partial
// timeline and concurrent batch workers never collide on a path.
package store

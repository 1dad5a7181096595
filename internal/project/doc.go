// Package project adapts the host bridge to the search engine.
//
// Fetcher lists layers (retrying the idempotent list calls), reads their
// properties concurrently and turns them into snapshots. Layer comments use
// the synthetic path "#comment/<layerId>" so one update function can route
// writes to either SetLayerComment or SetPropertyExpression.
//
// Updater performs those writes. Each one first reads the live text, which is
// journaled as the before-image so Undo can restore it.
package project

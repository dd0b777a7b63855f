package folio

import "embed"

// EmbeddedAssets contains files shipped with the engine: presets.yaml
// (themes, code themes, fonts, known tags) and folio.js (theme switching,
// code copy buttons, command palette).
//
//go:embed embedded/*
var EmbeddedAssets embed.FS

package web

import "embed"

// Docs embeds the API documentation served under /swagger/.
//
//go:embed docs/*
var Docs embed.FS

// ABOUTME: Embedded filesystem for the run browser's HTML templates.
// ABOUTME: Exports ContentFS so the server needs no runtime template paths.
package web

import "embed"

//go:embed templates/*
var ContentFS embed.FS

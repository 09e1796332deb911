// Package web embeds the dashboard templates and stylesheet.
package web

import "embed"

// TemplatesFS embeds the page templates and shared partials.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds static assets served under /static/.
//
//go:embed static/*
var StaticFS embed.FS

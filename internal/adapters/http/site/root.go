// Package site serves the service landing document at the root path.
package site

import "github.com/gofiber/fiber/v2"

// Link points at one of the service's public entry points.
type Link struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

// Index is the body of GET /.
type Index struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Links   []Link `json:"links"`
}

// Register attaches GET / to router.
func Register(router fiber.Router, version string) {
	if router == nil {
		panic("router is nil")
	}
	idx := Index{
		Service: "pragati",
		Version: version,
		Links: []Link{
			{Rel: "docs", Href: "/docs"},
			{Rel: "openapi", Href: "/openapi.yaml"},
			{Rel: "metrics", Href: "/healthz"},
			{Rel: "ready", Href: "/readyz"},
			{Rel: "stats", Href: "/stats"},
		},
	}
	router.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(idx)
	})
}

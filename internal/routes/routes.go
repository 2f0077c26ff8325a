// Package routes defines HTTP route constants shared by the server and the client.
package routes

// API Routes
const (
	APIPrefix = "/api"

	// Relative to the API base URL
	Blogs          = "/blogs"
	BlogsSaveDraft = "/blogs/save-draft"
	BlogsPublish   = "/blogs/publish"
	BlogByID       = "/blogs/{id}"
	BlogsEvents    = "/blogs/events"

	HealthPath = "/healthz"
)

// Server patterns
const (
	APIBlogs          = "GET " + APIPrefix + Blogs
	APIBlogsSaveDraft = "POST " + APIPrefix + BlogsSaveDraft
	APIBlogsPublish   = "POST " + APIPrefix + BlogsPublish
	APIBlogDelete     = "DELETE " + APIPrefix + BlogByID
	APIBlogsEvents    = "GET " + APIPrefix + BlogsEvents
	Health            = "GET " + HealthPath
)

// Event names sent on the blogs event stream.
const (
	EventConnected = "connected"
	EventChanged   = "changed"
)

// Package template defines the template rendering seam shared by the field
// renderer and the front-end widget templates.
package template
